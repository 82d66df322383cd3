package accountsvc_test

import (
	"context"
	"sort"
	"sync"
	"time"

	donationstore "github.com/dalemusser/donorhub/internal/app/store/donations"
	studentstore "github.com/dalemusser/donorhub/internal/app/store/students"
	userstore "github.com/dalemusser/donorhub/internal/app/store/users"
	"github.com/dalemusser/donorhub/internal/app/system/mailer"
	"github.com/dalemusser/donorhub/internal/app/system/normalize"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeUsers struct {
	mu     sync.Mutex
	byID   map[primitive.ObjectID]*models.User
	writes int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[primitive.ObjectID]*models.User{}}
}

func (f *fakeUsers) add(u models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	f.byID[u.ID] = &u
	return &u
}

func (f *fakeUsers) snapshot(id primitive.ObjectID) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byID[id]
}

func (f *fakeUsers) find(match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUsers) mutate(id primitive.ObjectID, fn func(*models.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	f.writes++
	fn(u)
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	username = normalize.Username(username)
	return f.find(func(u *models.User) bool { return u.Username == username })
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	email = normalize.Email(email)
	return f.find(func(u *models.User) bool { return u.Email == email })
}

func (f *fakeUsers) GetByGoogleID(_ context.Context, googleID string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.GoogleID != "" && u.GoogleID == googleID })
}

func (f *fakeUsers) GetByResetToken(_ context.Context, hash string, now time.Time) (*models.User, error) {
	return f.find(func(u *models.User) bool {
		return u.ResetTokenHash == hash && u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(now)
	})
}

func (f *fakeUsers) FindByEmails(_ context.Context, emails []string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := map[string]bool{}
	for _, e := range emails {
		want[normalize.Email(e)] = true
	}
	var out []models.User
	for _, u := range f.byID {
		if want[u.Email] {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (f *fakeUsers) List(_ context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, u := range f.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) Create(_ context.Context, u models.User) (models.User, error) {
	u.Username = normalize.Username(u.Username)
	u.Email = normalize.Email(u.Email)
	if _, err := f.find(func(x *models.User) bool { return x.Username == u.Username || x.Email == u.Email }); err == nil {
		return models.User{}, userstore.ErrDuplicate
	}
	u.ID = primitive.NewObjectID()
	if u.Donations == nil {
		u.Donations = []primitive.ObjectID{}
	}
	if u.SponsoredStudents == nil {
		u.SponsoredStudents = []primitive.ObjectID{}
	}
	f.add(u)
	return u, nil
}

func (f *fakeUsers) SetOTP(_ context.Context, id primitive.ObjectID, otp models.OTP, expiry time.Time) error {
	return f.mutate(id, func(u *models.User) { u.OTP, u.OTPExpiry = &otp, &expiry })
}

func (f *fakeUsers) ClearOTP(_ context.Context, id primitive.ObjectID) error {
	return f.mutate(id, func(u *models.User) { u.OTP, u.OTPExpiry = nil, nil })
}

func (f *fakeUsers) MarkVerified(_ context.Context, id primitive.ObjectID) error {
	return f.mutate(id, func(u *models.User) { u.IsVerified, u.OTP, u.OTPExpiry = true, nil, nil })
}

func (f *fakeUsers) SetPassword(_ context.Context, id primitive.ObjectID, hash string) error {
	return f.mutate(id, func(u *models.User) { u.PasswordHash = hash })
}

func (f *fakeUsers) SetResetToken(_ context.Context, id primitive.ObjectID, hash string, expiry time.Time) error {
	return f.mutate(id, func(u *models.User) { u.ResetTokenHash, u.ResetTokenExpiry = hash, &expiry })
}

func (f *fakeUsers) ResetPassword(_ context.Context, id primitive.ObjectID, hash string) error {
	return f.mutate(id, func(u *models.User) {
		u.PasswordHash, u.ResetTokenHash, u.ResetTokenExpiry = hash, "", nil
	})
}

func (f *fakeUsers) LinkGoogle(_ context.Context, id primitive.ObjectID, googleID string) error {
	return f.mutate(id, func(u *models.User) { u.GoogleID, u.IsVerified = googleID, true })
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id primitive.ObjectID, upd userstore.ProfileUpdate) error {
	return f.mutate(id, func(u *models.User) { upd.Apply(&u.Profile) })
}

func (f *fakeUsers) DeleteRegular(_ context.Context, id primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok || u.Role != models.RoleRegular {
		return 0, nil
	}
	delete(f.byID, id)
	return 1, nil
}

type fakeDonations struct{ all []models.Donation }

func (f *fakeDonations) List(_ context.Context, flt donationstore.Filter) ([]models.Donation, error) {
	var out []models.Donation
	for _, d := range f.all {
		if flt.UserID != nil && (d.UserID == nil || *d.UserID != *flt.UserID) {
			continue
		}
		if flt.IDs != nil {
			found := false
			for _, id := range flt.IDs {
				found = found || id == d.ID
			}
			if !found {
				continue
			}
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DonationDate.After(out[j].DonationDate) })
	if flt.Limit > 0 && int64(len(out)) > flt.Limit {
		out = out[:flt.Limit]
	}
	return out, nil
}

type fakeStudents struct{ all []models.Student }

func (f *fakeStudents) List(_ context.Context, flt studentstore.Filter) ([]models.Student, error) {
	var out []models.Student
	for _, st := range f.all {
		for _, id := range flt.IDs {
			if id == st.ID {
				out = append(out, st)
			}
		}
	}
	return out, nil
}

type fakeDocuments struct{ all []models.Document }

func (f *fakeDocuments) List(_ context.Context, _ int64) ([]models.Document, error) {
	return f.all, nil
}

type fakeBlobs struct{ deleted []string }

func (b *fakeBlobs) DeleteBestEffort(_ context.Context, url string) bool {
	b.deleted = append(b.deleted, url)
	return true
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

func (n *fakeNotifier) last() mailer.Email {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return mailer.Email{}
	}
	return n.sent[len(n.sent)-1]
}
