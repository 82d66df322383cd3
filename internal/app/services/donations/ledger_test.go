package donationsvc_test

import (
	"context"
	"math"
	"testing"
	"time"

	donationsvc "github.com/dalemusser/donorhub/internal/app/services/donations"
	"github.com/dalemusser/donorhub/internal/app/system/apperr"
	"github.com/dalemusser/donorhub/internal/app/system/mailer"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type harness struct {
	svc       *donationsvc.Service
	donations *fakeDonations
	users     *fakeUsers
	txn       *fakeTxn
	blobs     *fakeBlobs
	notifier  *fakeNotifier
	now       time.Time
}

func newHarness(users ...models.User) *harness {
	h := &harness{
		donations: newFakeDonations(),
		users:     newFakeUsers(users...),
		txn:       &fakeTxn{},
		blobs:     &fakeBlobs{},
		notifier:  &fakeNotifier{},
		now:       time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	h.svc = donationsvc.New(donationsvc.Deps{
		Donations: h.donations,
		Users:     h.users,
		Txn:       h.txn,
		Blobs:     h.blobs,
		Notifier:  h.notifier,
		Emails:    mailer.Builder{SiteName: "Donorhub"},
		Now:       func() time.Time { return h.now },
	})
	return h
}

func donor(email string) models.User {
	return models.User{
		ID:        primitive.NewObjectID(),
		Username:  "donor",
		Email:     email,
		Profile:   models.Profile{Name: "Donor"},
		Donations: []primitive.ObjectID{},
	}
}

func validFields(email string) donationsvc.Fields {
	return donationsvc.Fields{
		Amount:        500,
		DonationDate:  time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
		DonorName:     "Donor",
		ContactNumber: "9876543210",
		Email:         email,
	}
}

var admin = &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin, IsVerified: true}

func assertKind(t *testing.T, err error, kind apperr.Kind, code string) {
	t.Helper()
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %T: %v", err, err)
	assert.Equal(t, kind, ae.Kind)
	if code != "" {
		assert.Equal(t, code, ae.Code)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*donationsvc.Fields)
		code string
	}{
		{"ok", func(*donationsvc.Fields) {}, ""},
		{"zero amount", func(f *donationsvc.Fields) { f.Amount = 0 }, "INVALID_AMOUNT"},
		{"negative amount", func(f *donationsvc.Fields) { f.Amount = -5 }, "INVALID_AMOUNT"},
		{"nan amount", func(f *donationsvc.Fields) { f.Amount = math.NaN() }, "INVALID_AMOUNT"},
		{"infinite amount", func(f *donationsvc.Fields) { f.Amount = math.Inf(1) }, "INVALID_AMOUNT"},
		{"missing date", func(f *donationsvc.Fields) { f.DonationDate = time.Time{} }, "MISSING_FIELDS"},
		{"missing name", func(f *donationsvc.Fields) { f.DonorName = "  " }, "MISSING_FIELDS"},
		{"missing contact", func(f *donationsvc.Fields) { f.ContactNumber = "" }, "MISSING_FIELDS"},
		{"missing email", func(f *donationsvc.Fields) { f.Email = "" }, "MISSING_FIELDS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFields("a@x.com")
			tt.mod(&f)
			err := donationsvc.Validate(f)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assertKind(t, err, apperr.KindValidation, tt.code)
		})
	}
}

func TestRecord_LinksMatchingUser(t *testing.T) {
	u := donor("donor@x.com")
	h := newHarness(u)

	d, err := h.svc.Record(context.Background(), validFields("  Donor@X.com "), "https://blob/receipt.png")
	require.NoError(t, err)

	assert.Equal(t, models.DonationPending, d.Status())
	require.NotNil(t, d.UserID)
	assert.Equal(t, u.ID, *d.UserID)
	assert.Equal(t, "donor@x.com", d.Email)
	assert.Equal(t, "https://blob/receipt.png", d.ReceiptURL)
	assert.Contains(t, h.users.get(u.ID).Donations, d.ID)
	assert.Equal(t, 1, h.txn.runs)
}

func TestRecord_AnonymousAllowed(t *testing.T) {
	h := newHarness()

	d, err := h.svc.Record(context.Background(), validFields("nobody@x.com"), "")
	require.NoError(t, err)
	assert.Nil(t, d.UserID)
}

func TestRecord_InvalidNeverPersists(t *testing.T) {
	h := newHarness()
	f := validFields("a@x.com")
	f.Amount = 0

	_, err := h.svc.Record(context.Background(), f, "")
	assertKind(t, err, apperr.KindValidation, "INVALID_AMOUNT")
	assert.Empty(t, h.donations.byID)
}

func TestVerify_CreditsDonorAndNotifies(t *testing.T) {
	u := donor("donor@x.com")
	h := newHarness(u)
	d := h.donations.put(models.Donation{Amount: 250, Email: u.Email, DonorName: "Donor", UserID: &u.ID})

	got, err := h.svc.Verify(context.Background(), d.ID.Hex(), admin)
	require.NoError(t, err)

	assert.True(t, got.Verified)
	require.NotNil(t, got.ExpiryDate)
	assert.Equal(t, h.now.Add(30*24*time.Hour), *got.ExpiryDate)

	owner := h.users.get(u.ID)
	assert.Equal(t, 250.0, owner.TotalDonation)
	require.NotNil(t, owner.LastDonationDate)
	assert.Equal(t, h.now, *owner.LastDonationDate)

	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, []string{u.Email}, h.notifier.sent[0].To)
}

func TestVerify_Unlinked(t *testing.T) {
	h := newHarness()
	d := h.donations.put(models.Donation{Amount: 100, Email: "a@x.com"})

	got, err := h.svc.Verify(context.Background(), d.ID.Hex(), admin)
	require.NoError(t, err)
	assert.True(t, got.Verified)
}

func TestVerify_FinalIsConflict(t *testing.T) {
	u := donor("donor@x.com")
	h := newHarness(u)
	d := h.donations.put(models.Donation{Amount: 100, Email: u.Email, UserID: &u.ID})

	_, err := h.svc.Verify(context.Background(), d.ID.Hex(), admin)
	require.NoError(t, err)

	_, err = h.svc.Verify(context.Background(), d.ID.Hex(), admin)
	assertKind(t, err, apperr.KindConflict, "DONATION_ALREADY_FINAL")
	assert.Equal(t, 100.0, h.users.get(u.ID).TotalDonation, "second verify must not credit again")

	_, err = h.svc.Reject(context.Background(), d.ID.Hex(), "late", admin)
	assertKind(t, err, apperr.KindConflict, "DONATION_ALREADY_FINAL")
}

func TestVerify_NotFoundAndBadID(t *testing.T) {
	h := newHarness()

	_, err := h.svc.Verify(context.Background(), primitive.NewObjectID().Hex(), admin)
	assertKind(t, err, apperr.KindNotFound, "DONATION_NOT_FOUND")

	_, err = h.svc.Verify(context.Background(), "nope", admin)
	assertKind(t, err, apperr.KindValidation, "INVALID_ID")
}

func TestVerify_CreditFailureIsInternalAndSilent(t *testing.T) {
	u := donor("donor@x.com")
	h := newHarness(u)
	h.users.creditErr = errBoom
	d := h.donations.put(models.Donation{Amount: 100, Email: u.Email, UserID: &u.ID})

	_, err := h.svc.Verify(context.Background(), d.ID.Hex(), admin)
	assertKind(t, err, apperr.KindInternal, "")
	assert.Empty(t, h.notifier.sent)
}

func TestReject(t *testing.T) {
	h := newHarness()
	d := h.donations.put(models.Donation{Amount: 100, Email: "a@x.com", DonorName: "A"})

	_, err := h.svc.Reject(context.Background(), d.ID.Hex(), "   ", admin)
	assertKind(t, err, apperr.KindValidation, "REASON_REQUIRED")

	got, err := h.svc.Reject(context.Background(), d.ID.Hex(), "receipt unreadable", admin)
	require.NoError(t, err)
	assert.True(t, got.Rejected)
	assert.False(t, got.Verified)
	assert.Equal(t, "receipt unreadable", got.RejectionReason)

	require.Len(t, h.notifier.sent, 1)
	assert.Contains(t, h.notifier.sent[0].TextBody, "receipt unreadable")

	_, err = h.svc.Verify(context.Background(), d.ID.Hex(), admin)
	assertKind(t, err, apperr.KindConflict, "DONATION_ALREADY_FINAL")
}

func TestBulkDelete_PartialFailure(t *testing.T) {
	u := donor("donor@x.com")
	h := newHarness(u)
	linked := h.donations.put(models.Donation{Amount: 10, Email: u.Email, UserID: &u.ID, ReceiptURL: "https://blob/r1"})
	_ = h.users.AddDonation(context.Background(), u.ID, linked.ID)
	plain := h.donations.put(models.Donation{Amount: 20, Email: "b@x.com"})
	missing := primitive.NewObjectID().Hex()

	res, err := h.svc.BulkDelete(context.Background(), []string{linked.ID.Hex(), "bad-id", plain.ID.Hex(), missing})
	require.NoError(t, err)

	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 2, res.FailureCount)
	require.Len(t, res.Failures, 2)
	assert.Equal(t, "bad-id", res.Failures[0].ID)
	assert.Equal(t, missing, res.Failures[1].ID)

	assert.Empty(t, h.donations.byID)
	assert.NotContains(t, h.users.get(u.ID).Donations, linked.ID)
	assert.Equal(t, []string{"https://blob/r1"}, h.blobs.deleted)
}

func TestBulkDelete_BlobFailureStillCounts(t *testing.T) {
	h := newHarness()
	h.blobs.fail = true
	d := h.donations.put(models.Donation{Amount: 10, Email: "a@x.com", ReceiptURL: "https://blob/r"})

	res, err := h.svc.BulkDelete(context.Background(), []string{d.ID.Hex()})
	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Zero(t, res.FailureCount)
}

func TestBulkDelete_StoreFailureReported(t *testing.T) {
	h := newHarness()
	h.donations.deleteErr = errBoom
	d := h.donations.put(models.Donation{Amount: 10, Email: "a@x.com", ReceiptURL: "https://blob/r"})

	res, err := h.svc.BulkDelete(context.Background(), []string{d.ID.Hex()})
	require.NoError(t, err)
	assert.Equal(t, 1, res.FailureCount)
	assert.Empty(t, h.blobs.deleted, "receipt must survive a failed delete")
}

func TestBulkDelete_Empty(t *testing.T) {
	h := newHarness()
	_, err := h.svc.BulkDelete(context.Background(), nil)
	assertKind(t, err, apperr.KindValidation, "NO_IDS")
}

func TestListAndGetAttachDonor(t *testing.T) {
	u := donor("donor@x.com")
	h := newHarness(u)
	linked := h.donations.put(models.Donation{Amount: 10, Email: u.Email, UserID: &u.ID})
	h.donations.put(models.Donation{Amount: 20, Email: "b@x.com", Verified: true})

	all, err := h.svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := h.svc.List(context.Background(), models.DonationPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "pending", pending[0].Status)
	require.NotNil(t, pending[0].Donor)
	assert.Equal(t, u.Username, pending[0].Donor.Username)

	_, err = h.svc.List(context.Background(), "archived")
	assertKind(t, err, apperr.KindValidation, "INVALID_STATUS")

	v, err := h.svc.Get(context.Background(), linked.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, u.Email, v.Donor.Email)
}
