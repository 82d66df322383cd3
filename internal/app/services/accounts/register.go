package accountsvc

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/mail"
	"strings"

	userstore "github.com/dalemusser/donorhub/internal/app/store/users"
	"github.com/dalemusser/donorhub/internal/app/system/apperr"
	"github.com/dalemusser/donorhub/internal/app/system/normalize"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Registration is the sign-up form.
type Registration struct {
	Username string
	Password string
	Email    string
	Profile  models.Profile
}

// ValidateRegistration checks the form without touching storage. Handlers
// call it before accepting a profile picture upload.
func ValidateRegistration(r Registration) error {
	if normalize.Username(r.Username) == "" || r.Password == "" ||
		normalize.Email(r.Email) == "" || normalize.Name(r.Profile.Name) == "" {
		return apperr.Validation("MISSING_FIELDS", "Username, password, email and name are required.")
	}
	if strings.ContainsAny(r.Username, " \t/") {
		return apperr.Validation("INVALID_USERNAME", "Username cannot contain spaces or slashes.")
	}
	if _, err := mail.ParseAddress(normalize.Email(r.Email)); err != nil {
		return apperr.Validation("INVALID_EMAIL", "Email address is not valid.")
	}
	if len(r.Password) < MinPasswordLen {
		return errWeakPassword
	}
	return validateProfile(r.Profile.TypeOfSponsor, r.Profile.Gender)
}

func validateProfile(sponsorType, gender string) error {
	if sponsorType != "" && !models.ValidSponsorType(sponsorType) {
		return apperr.Validation("INVALID_SPONSOR_TYPE", "Type of sponsor must be Student, General or Both.")
	}
	if gender != "" && !models.ValidGender(gender) {
		return apperr.Validation("INVALID_GENDER", "Gender must be Male, Female or Other.")
	}
	return nil
}

// Register creates an unverified account and mails the email OTP.
// profileImage is the URL of an already uploaded picture, or "".
func (s *Service) Register(ctx context.Context, r Registration, profileImage string) (*models.User, error) {
	if err := ValidateRegistration(r); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByUsername(ctx, r.Username); err == nil {
		return nil, apperr.Conflict("USERNAME_TAKEN", "Username is already taken.")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Internal("check username", err)
	}
	if _, err := s.users.GetByEmail(ctx, r.Email); err == nil {
		return nil, apperr.Conflict("EMAIL_TAKEN", "An account with this email already exists.")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Internal("check email", err)
	}

	hash, err := s.hash(r.Password)
	if err != nil {
		return nil, err
	}
	emailCode, err := newCode()
	if err != nil {
		return nil, apperr.Internal("generate otp", err)
	}
	mobileCode, err := newCode()
	if err != nil {
		return nil, apperr.Internal("generate otp", err)
	}
	expiry := s.now().Add(s.otpTTL)

	created, err := s.users.Create(ctx, models.User{
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: hash,
		Role:         models.RoleRegular,
		IsVerified:   false,
		OTP:          &models.OTP{OTPEmail: emailCode, OTPMobile: mobileCode},
		OTPExpiry:    &expiry,
		Profile:      r.Profile,
		ProfileImage: profileImage,
	})
	if errors.Is(err, userstore.ErrDuplicate) {
		return nil, apperr.Conflict("USER_EXISTS", "A user with this username or email already exists.")
	}
	if err != nil {
		return nil, apperr.Internal("create user", err)
	}

	s.notifier.Notify(s.emails.VerifyAccount(created.Email, created.Name, emailCode, s.otpTTL))
	s.log.Info("user registered", zap.String("user_id", created.ID.Hex()))
	return &created, nil
}

// VerifyOTP checks the emailed code and activates the account.
func (s *Service) VerifyOTP(ctx context.Context, username, code string) error {
	code = strings.TrimSpace(code)
	if normalize.Username(username) == "" || code == "" {
		return apperr.Validation("INVALID_INPUT", "Username and OTP are required.")
	}
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return notFoundOr(err, errUserNotFound, "load user")
	}
	if u.OTP == nil || u.OTP.OTPEmail == "" || u.OTPExpiry == nil {
		return apperr.Validation("NO_OTP", "No OTP found. Please request a new OTP.")
	}
	if s.now().After(*u.OTPExpiry) {
		if err := s.users.ClearOTP(ctx, u.ID); err != nil {
			s.log.Warn("clear expired otp failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		}
		return apperr.Validation("OTP_EXPIRED", "OTP has expired. Please request a new OTP.")
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(strings.TrimSpace(u.OTP.OTPEmail))) != 1 {
		return apperr.Validation("INVALID_OTP", "Invalid OTP. Please try again.")
	}
	if err := s.users.MarkVerified(ctx, u.ID); err != nil {
		return apperr.Internal("verify user", err)
	}
	s.log.Info("user verified", zap.String("user_id", u.ID.Hex()))
	return nil
}

// ResendOTP re-mails the code to the signed-in, still unverified user. An
// expired code is replaced; the expiry always moves forward.
func (s *Service) ResendOTP(ctx context.Context, actor *models.User, username string) error {
	if actor == nil || normalize.Username(username) == "" || normalize.Username(username) != actor.Username {
		return apperr.Validation("INVALID_INPUT", "Invalid username or unauthorized access.")
	}
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return notFoundOr(err, errUserNotFound, "load user")
	}
	if u.IsVerified {
		return apperr.Validation("ALREADY_VERIFIED", "User is already verified.")
	}

	now := s.now()
	otp := models.OTP{}
	if u.OTP != nil {
		otp = *u.OTP
	}
	if otp.OTPEmail == "" || u.OTPExpiry == nil || now.After(*u.OTPExpiry) {
		if otp.OTPEmail, err = newCode(); err != nil {
			return apperr.Internal("generate otp", err)
		}
	}
	if otp.OTPMobile == "" {
		if otp.OTPMobile, err = newCode(); err != nil {
			return apperr.Internal("generate otp", err)
		}
	}
	if err := s.users.SetOTP(ctx, u.ID, otp, now.Add(s.otpTTL)); err != nil {
		return apperr.Internal("store otp", err)
	}

	s.notifier.Notify(s.emails.ResendOTP(u.Email, u.Name, otp.OTPEmail, s.otpTTL))
	return nil
}
