package donationsvc_test

import (
	"context"
	"errors"
	"sync"
	"time"

	donationstore "github.com/dalemusser/donorhub/internal/app/store/donations"
	"github.com/dalemusser/donorhub/internal/app/system/mailer"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeDonations struct {
	mu        sync.Mutex
	byID      map[primitive.ObjectID]*models.Donation
	deleteErr error
}

func newFakeDonations() *fakeDonations {
	return &fakeDonations{byID: map[primitive.ObjectID]*models.Donation{}}
}

func (f *fakeDonations) put(d models.Donation) models.Donation {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	f.byID[d.ID] = &d
	return d
}

func (f *fakeDonations) Create(_ context.Context, d models.Donation) (models.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d.ID = primitive.NewObjectID()
	d.Verified, d.Rejected = false, false
	return f.put(d), nil
}

func (f *fakeDonations) GetByID(_ context.Context, id primitive.ObjectID) (*models.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.byID[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDonations) MarkVerified(_ context.Context, id, by primitive.ObjectID, at, expiry time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.byID[id]
	if !ok || d.IsFinal() {
		return donationstore.ErrNotPending
	}
	d.Verified, d.VerifiedAt, d.VerifiedBy, d.ExpiryDate = true, &at, &by, &expiry
	return nil
}

func (f *fakeDonations) MarkRejected(_ context.Context, id, by primitive.ObjectID, reason string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.byID[id]
	if !ok || d.IsFinal() {
		return donationstore.ErrNotPending
	}
	d.Rejected, d.RejectionReason, d.RejectedAt, d.RejectedBy = true, reason, &at, &by
	return nil
}

func (f *fakeDonations) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	if _, ok := f.byID[id]; !ok {
		return 0, nil
	}
	delete(f.byID, id)
	return 1, nil
}

func (f *fakeDonations) List(_ context.Context, flt donationstore.Filter) ([]models.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Donation
	for _, d := range f.byID {
		if flt.Status == "" || d.Status() == flt.Status {
			out = append(out, *d)
		}
	}
	return out, nil
}

type fakeUsers struct {
	mu        sync.Mutex
	byID      map[primitive.ObjectID]*models.User
	creditErr error
}

func newFakeUsers(us ...models.User) *fakeUsers {
	f := &fakeUsers{byID: map[primitive.ObjectID]*models.User{}}
	for i := range us {
		u := us[i]
		f.byID[u.ID] = &u
	}
	return f
}

func (f *fakeUsers) get(id primitive.ObjectID) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUsers) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) AddDonation(_ context.Context, userID, donationID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.Donations = append(u.Donations, donationID)
	return nil
}

func (f *fakeUsers) PullDonation(_ context.Context, userID, donationID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return nil
	}
	kept := u.Donations[:0]
	for _, id := range u.Donations {
		if id != donationID {
			kept = append(kept, id)
		}
	}
	u.Donations = kept
	return nil
}

func (f *fakeUsers) CreditDonation(_ context.Context, userID primitive.ObjectID, amount float64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.creditErr != nil {
		return f.creditErr
	}
	u, ok := f.byID[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.TotalDonation += amount
	u.LastDonationDate = &at
	return nil
}

// fakeTxn runs fn directly and counts invocations.
type fakeTxn struct{ runs int }

func (t *fakeTxn) RunInTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	t.runs++
	return fn(ctx)
}

type fakeBlobs struct {
	deleted []string
	fail    bool
}

func (b *fakeBlobs) DeleteBestEffort(_ context.Context, url string) bool {
	b.deleted = append(b.deleted, url)
	return !b.fail
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []mailer.Email
}

func (n *fakeNotifier) Notify(e mailer.Email) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, e)
}

var errBoom = errors.New("boom")
