// Package accountsvc implements donor accounts: registration with OTP
// verification, sign-in, self-service profile and password management, and
// the admin user operations.
package accountsvc

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	donationstore "github.com/dalemusser/donorhub/internal/app/store/donations"
	studentstore "github.com/dalemusser/donorhub/internal/app/store/students"
	userstore "github.com/dalemusser/donorhub/internal/app/store/users"
	"github.com/dalemusser/donorhub/internal/app/system/apperr"
	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/dalemusser/donorhub/internal/app/system/mailer"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Default lifetimes of mailed credentials.
const (
	DefaultOTPTTL   = 60 * time.Minute
	DefaultResetTTL = 60 * time.Minute
	MinPasswordLen  = 8
)

// UserStore is the user persistence the service needs. *userstore.Store
// satisfies it.
type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	FindByEmails(ctx context.Context, emails []string) ([]models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
	SetOTP(ctx context.Context, id primitive.ObjectID, otp models.OTP, expiry time.Time) error
	ClearOTP(ctx context.Context, id primitive.ObjectID) error
	MarkVerified(ctx context.Context, id primitive.ObjectID) error
	SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error
	SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expiry time.Time) error
	ResetPassword(ctx context.Context, id primitive.ObjectID, hash string) error
	LinkGoogle(ctx context.Context, id primitive.ObjectID, googleID string) error
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd userstore.ProfileUpdate) error
	DeleteRegular(ctx context.Context, id primitive.ObjectID) (int64, error)
}

type DonationLister interface {
	List(ctx context.Context, f donationstore.Filter) ([]models.Donation, error)
}

type StudentLister interface {
	List(ctx context.Context, f studentstore.Filter) ([]models.Student, error)
}

type DocumentLister interface {
	List(ctx context.Context, limit int64) ([]models.Document, error)
}

// TokenIssuer signs bearer tokens. *auth.Tokens satisfies it.
type TokenIssuer interface {
	Issue(u *models.User, class auth.TokenClass) (string, time.Time, error)
}

type BlobDeleter interface {
	DeleteBestEffort(ctx context.Context, url string) bool
}

// Deps wires a Service. Zero durations and costs take the defaults.
type Deps struct {
	Users       UserStore
	Donations   DonationLister
	Students    StudentLister
	Documents   DocumentLister
	Tokens      TokenIssuer
	Blobs       BlobDeleter
	Notifier    mailer.Notifier
	Emails      mailer.Builder
	FrontendURL string
	OTPTTL      time.Duration
	ResetTTL    time.Duration
	BcryptCost  int
	Log         *zap.Logger
	Now         func() time.Time
}

type Service struct {
	users       UserStore
	donations   DonationLister
	students    StudentLister
	documents   DocumentLister
	tokens      TokenIssuer
	blobs       BlobDeleter
	notifier    mailer.Notifier
	emails      mailer.Builder
	frontendURL string
	otpTTL      time.Duration
	resetTTL    time.Duration
	cost        int
	log         *zap.Logger
	now         func() time.Time
}

func New(d Deps) *Service {
	s := &Service{
		users:       d.Users,
		donations:   d.Donations,
		students:    d.Students,
		documents:   d.Documents,
		tokens:      d.Tokens,
		blobs:       d.Blobs,
		notifier:    d.Notifier,
		emails:      d.Emails,
		frontendURL: d.FrontendURL,
		otpTTL:      d.OTPTTL,
		resetTTL:    d.ResetTTL,
		cost:        d.BcryptCost,
		log:         d.Log,
		now:         d.Now,
	}
	if s.otpTTL <= 0 {
		s.otpTTL = DefaultOTPTTL
	}
	if s.resetTTL <= 0 {
		s.resetTTL = DefaultResetTTL
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

var (
	errUserNotFound   = apperr.NotFound("USER_NOT_FOUND", "User not found.")
	errNotVerified    = apperr.Forbidden("ACCOUNT_NOT_VERIFIED", "Account not verified. Please verify your account first.")
	errBadCredentials = apperr.Unauthorized("INVALID_CREDENTIALS", "Invalid credentials.")
	errWeakPassword   = apperr.Validation("WEAK_PASSWORD", fmt.Sprintf("Password must be at least %d characters.", MinPasswordLen))
)

// notFoundOr maps a missing document to nf and anything else to Internal.
func notFoundOr(err error, nf *apperr.Error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nf
	}
	return apperr.Internal(op, err)
}

func (s *Service) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", apperr.Internal("hash password", err)
	}
	return string(h), nil
}

func checkPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// newCode returns a uniformly random six-digit code.
func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// HashResetToken is the stored form of a mailed reset token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Session is a signed-in result: token plus the sanitized user.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

func (s *Service) session(u *models.User, class auth.TokenClass) (*Session, error) {
	tok, exp, err := s.tokens.Issue(u, class)
	if err != nil {
		return nil, apperr.Internal("issue token", err)
	}
	return &Session{Token: tok, ExpiresAt: exp, User: u}, nil
}
