package accountsvc

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/donorhub/internal/app/system/apperr"
	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/dalemusser/donorhub/internal/app/system/normalize"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ForgotPassword stores a hashed reset token and mails the link
// <frontend>/reset-password/<token>.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalize.Email(email)
	if email == "" {
		return apperr.Validation("INVALID_INPUT", "Email is required.")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return notFoundOr(err, apperr.NotFound("ACCOUNT_NOT_FOUND", "No account found with this email."), "load user")
	}

	token, err := auth.RandomToken(32)
	if err != nil {
		return apperr.Internal("reset token", err)
	}
	if err := s.users.SetResetToken(ctx, u.ID, HashResetToken(token), s.now().Add(s.resetTTL)); err != nil {
		return apperr.Internal("store reset token", err)
	}

	link := strings.TrimRight(s.frontendURL, "/") + "/reset-password/" + token
	s.notifier.Notify(s.emails.PasswordReset(u.Email, u.Name, link, s.resetTTL))
	s.log.Info("password reset requested", zap.String("user_id", u.ID.Hex()))
	return nil
}

// ResetPassword consumes a mailed token and sets the new password.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperr.Validation("INVALID_RESET_TOKEN", "Invalid or expired reset token.")
	}
	if len(password) < MinPasswordLen {
		return errWeakPassword
	}
	u, err := s.users.GetByResetToken(ctx, HashResetToken(token), s.now())
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.Validation("INVALID_RESET_TOKEN", "Invalid or expired reset token.")
	}
	if err != nil {
		return apperr.Internal("load reset token", err)
	}

	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	if err := s.users.ResetPassword(ctx, u.ID, hash); err != nil {
		return apperr.Internal("reset password", err)
	}
	s.notifier.Notify(s.emails.PasswordChanged(u.Email, u.Name, true))
	return nil
}
