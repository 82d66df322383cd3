// Package donationsvc is the donation ledger: recording pledges, the one-way
// pending to verified/rejected transition, and bulk removal.
package donationsvc

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	donationstore "github.com/dalemusser/donorhub/internal/app/store/donations"
	"github.com/dalemusser/donorhub/internal/app/system/apperr"
	"github.com/dalemusser/donorhub/internal/app/system/mailer"
	"github.com/dalemusser/donorhub/internal/app/system/metrics"
	"github.com/dalemusser/donorhub/internal/app/system/normalize"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DonationStore is the persistence the ledger needs.
type DonationStore interface {
	Create(ctx context.Context, d models.Donation) (models.Donation, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Donation, error)
	MarkVerified(ctx context.Context, id, by primitive.ObjectID, at, expiry time.Time) error
	MarkRejected(ctx context.Context, id, by primitive.ObjectID, reason string, at time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	List(ctx context.Context, f donationstore.Filter) ([]models.Donation, error)
}

// UserStore is the slice of the user store that holds donation refs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	AddDonation(ctx context.Context, userID, donationID primitive.ObjectID) error
	PullDonation(ctx context.Context, userID, donationID primitive.ObjectID) error
	CreditDonation(ctx context.Context, userID primitive.ObjectID, amount float64, at time.Time) error
}

// Transactor runs fn so that its writes commit together.
type Transactor interface {
	RunInTxn(ctx context.Context, fn func(ctx context.Context) error) error
}

// BlobDeleter removes stored receipts without failing the caller.
type BlobDeleter interface {
	DeleteBestEffort(ctx context.Context, url string) bool
}

// Deps wires a Service.
type Deps struct {
	Donations DonationStore
	Users     UserStore
	Txn       Transactor
	Blobs     BlobDeleter
	Notifier  mailer.Notifier
	Emails    mailer.Builder
	Log       *zap.Logger
	Now       func() time.Time
}

type Service struct {
	donations DonationStore
	users     UserStore
	txn       Transactor
	blobs     BlobDeleter
	notifier  mailer.Notifier
	emails    mailer.Builder
	log       *zap.Logger
	now       func() time.Time
}

func New(d Deps) *Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Service{
		donations: d.Donations,
		users:     d.Users,
		txn:       d.Txn,
		blobs:     d.Blobs,
		notifier:  d.Notifier,
		emails:    d.Emails,
		log:       d.Log,
		now:       d.Now,
	}
}

var (
	errNotFound   = apperr.NotFound("DONATION_NOT_FOUND", "Donation not found.")
	errFinal      = apperr.Conflict("DONATION_ALREADY_FINAL", "Donation has already been verified or rejected.")
	errInvalidID  = apperr.Validation("INVALID_ID", "Invalid donation id.")
	errNoIDs      = apperr.Validation("NO_IDS", "Provide at least one donation id.")
	errNeedReason = apperr.Validation("REASON_REQUIRED", "A rejection reason is required.")
)

// Fields are the donor-supplied parts of a donation.
type Fields struct {
	Amount        float64   `json:"amount"`
	DonationDate  time.Time `json:"donationDate"`
	DonorName     string    `json:"name"`
	ContactNumber string    `json:"contactNumber"`
	Email         string    `json:"email"`
	NumChild      int       `json:"numChild"`
}

// Validate checks the required fields. Handlers call it before accepting
// a receipt upload so a bad form never reaches blob storage.
func Validate(f Fields) error {
	if f.DonationDate.IsZero() || strings.TrimSpace(f.DonorName) == "" ||
		strings.TrimSpace(f.ContactNumber) == "" || strings.TrimSpace(f.Email) == "" {
		return apperr.Validation("MISSING_FIELDS", "Amount, date, name, contact number and email are required.")
	}
	// NaN fails every comparison, so test for the positive case.
	if !(f.Amount > 0) || math.IsInf(f.Amount, 1) {
		return apperr.Validation("INVALID_AMOUNT", "Amount must be greater than zero.")
	}
	if f.NumChild < 0 {
		return apperr.Validation("INVALID_NUM_CHILD", "Number of children cannot be negative.")
	}
	return nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, errInvalidID
	}
	return oid, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Donation, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	d, err := s.donations.GetByID(ctx, oid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, apperr.Internal("load donation", err)
	}
	return d, nil
}

// Record stores a pending donation. If a registered user owns the email the
// donation is linked to them; otherwise it stays anonymous.
func (s *Service) Record(ctx context.Context, f Fields, receiptURL string) (*models.Donation, error) {
	if err := Validate(f); err != nil {
		return nil, err
	}
	email := normalize.Email(f.Email)

	var owner *models.User
	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		owner = u
	case !errors.Is(err, mongo.ErrNoDocuments):
		s.log.Warn("donor lookup failed, recording unlinked", zap.String("email", email), zap.Error(err))
	}

	d := models.Donation{
		Amount:        f.Amount,
		DonationDate:  f.DonationDate,
		DonorName:     strings.TrimSpace(f.DonorName),
		ContactNumber: strings.TrimSpace(f.ContactNumber),
		Email:         email,
		NumChild:      f.NumChild,
		ReceiptURL:    receiptURL,
	}
	if owner != nil {
		d.UserID = &owner.ID
	}

	var created models.Donation
	err = s.txn.RunInTxn(ctx, func(ctx context.Context) error {
		var err error
		if created, err = s.donations.Create(ctx, d); err != nil {
			return err
		}
		if owner != nil {
			return s.users.AddDonation(ctx, owner.ID, created.ID)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Internal("record donation", err)
	}

	metrics.DonationEvents.WithLabelValues("recorded").Inc()
	s.log.Info("donation recorded",
		zap.String("donation_id", created.ID.Hex()),
		zap.Bool("linked", owner != nil))
	return &created, nil
}

// Verify moves a pending donation to verified and credits the linked donor.
func (s *Service) Verify(ctx context.Context, id string, admin *models.User) (*models.Donation, error) {
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.IsFinal() {
		return nil, errFinal
	}

	now := s.now()
	expiry := now.Add(models.DonationVerifyWindow)
	err = s.txn.RunInTxn(ctx, func(ctx context.Context) error {
		if err := s.donations.MarkVerified(ctx, d.ID, admin.ID, now, expiry); err != nil {
			return err
		}
		if d.UserID == nil {
			return nil
		}
		err := s.users.CreditDonation(ctx, *d.UserID, d.Amount, now)
		if errors.Is(err, mongo.ErrNoDocuments) {
			s.log.Warn("donation owner missing, nothing credited",
				zap.String("donation_id", d.ID.Hex()),
				zap.String("user_id", d.UserID.Hex()))
			return nil
		}
		return err
	})
	if errors.Is(err, donationstore.ErrNotPending) {
		return nil, errFinal
	}
	if err != nil {
		return nil, apperr.Internal("verify donation", err)
	}

	d.Verified = true
	d.VerifiedAt = &now
	d.VerifiedBy = &admin.ID
	d.ExpiryDate = &expiry

	metrics.DonationEvents.WithLabelValues("verified").Inc()
	metrics.DonationAmountVerified.Add(d.Amount)
	s.notifier.Notify(s.emails.DonationVerified(d.Email, d.DonorName, d.Amount, expiry))
	return d, nil
}

// Reject moves a pending donation to rejected with the given reason.
func (s *Service) Reject(ctx context.Context, id, reason string, admin *models.User) (*models.Donation, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errNeedReason
	}
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.IsFinal() {
		return nil, errFinal
	}

	now := s.now()
	err = s.donations.MarkRejected(ctx, d.ID, admin.ID, reason, now)
	if errors.Is(err, donationstore.ErrNotPending) {
		return nil, errFinal
	}
	if err != nil {
		return nil, apperr.Internal("reject donation", err)
	}

	d.Rejected = true
	d.RejectionReason = reason
	d.RejectedAt = &now
	d.RejectedBy = &admin.ID

	metrics.DonationEvents.WithLabelValues("rejected").Inc()
	s.notifier.Notify(s.emails.DonationRejected(d.Email, d.DonorName, d.Amount, reason))
	return d, nil
}

// Failure explains why one id in a bulk delete was not removed.
type Failure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult reports a bulk delete. Partial failure is not an error.
type BulkResult struct {
	SuccessCount int       `json:"successCount"`
	FailureCount int       `json:"failureCount"`
	Failures     []Failure `json:"failures"`
}

// BulkDelete removes each donation in turn, detaching it from its owner and
// dropping its receipt.
func (s *Service) BulkDelete(ctx context.Context, ids []string) (BulkResult, error) {
	if len(ids) == 0 {
		return BulkResult{}, errNoIDs
	}
	res := BulkResult{Failures: []Failure{}}
	fail := func(id, reason string) {
		res.FailureCount++
		res.Failures = append(res.Failures, Failure{ID: id, Reason: reason})
	}

	for _, id := range ids {
		d, err := s.load(ctx, id)
		if err != nil {
			if ae, ok := apperr.As(err); ok && ae.Kind != apperr.KindInternal {
				fail(id, ae.Message)
			} else {
				fail(id, "lookup failed")
				s.log.Error("bulk delete lookup", zap.String("donation_id", id), zap.Error(err))
			}
			continue
		}

		err = s.txn.RunInTxn(ctx, func(ctx context.Context) error {
			if d.UserID != nil {
				if err := s.users.PullDonation(ctx, *d.UserID, d.ID); err != nil {
					return err
				}
			}
			_, err := s.donations.Delete(ctx, d.ID)
			return err
		})
		if err != nil {
			s.log.Error("bulk delete failed", zap.String("donation_id", id), zap.Error(err))
			fail(id, "delete failed")
			continue
		}

		if d.HasReceipt() && !s.blobs.DeleteBestEffort(ctx, d.ReceiptURL) {
			s.log.Warn("receipt left behind",
				zap.String("donation_id", id),
				zap.String("blob_url", d.ReceiptURL))
		}
		metrics.DonationEvents.WithLabelValues("deleted").Inc()
		res.SuccessCount++
	}
	return res, nil
}
