package accountsvc

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/donorhub/internal/app/system/apperr"
	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/dalemusser/donorhub/internal/app/system/normalize"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Login checks the password and issues a session token. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	if normalize.Username(username) == "" || password == "" {
		return nil, apperr.Validation("INVALID_INPUT", "Username and password are required.")
	}
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFoundOr(err, errBadCredentials, "load user")
	}
	if !checkPassword(u.PasswordHash, password) {
		return nil, errBadCredentials
	}
	return s.session(u, auth.Session)
}

// GoogleProfile is what the OAuth callback learns about the account.
type GoogleProfile struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

// GoogleLogin finds the account linked to the Google id, links an existing
// account with the same email, or creates a verified account.
func (s *Service) GoogleLogin(ctx context.Context, p GoogleProfile) (*Session, error) {
	email := normalize.Email(p.Email)
	if p.ID == "" || email == "" {
		return nil, apperr.Validation("INVALID_GOOGLE_PROFILE", "Google account has no id or email.")
	}

	u, err := s.users.GetByGoogleID(ctx, p.ID)
	if err == nil {
		return s.session(u, auth.Session)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Internal("load google user", err)
	}

	u, err = s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.users.LinkGoogle(ctx, u.ID, p.ID); err != nil {
			return nil, apperr.Internal("link google", err)
		}
		u.GoogleID = p.ID
		u.IsVerified = true
		s.log.Info("google account linked", zap.String("user_id", u.ID.Hex()))
		return s.session(u, auth.Session)
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, apperr.Internal("load user by email", err)
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = email
	}
	created, err := s.users.Create(ctx, models.User{
		Username:     email,
		Email:        email,
		GoogleID:     p.ID,
		Role:         models.RoleRegular,
		IsVerified:   true,
		Profile:      models.Profile{Name: name},
		ProfileImage: p.Picture,
	})
	if err != nil {
		return nil, apperr.Internal("create google user", err)
	}
	s.log.Info("google account created", zap.String("user_id", created.ID.Hex()))
	return s.session(&created, auth.Session)
}
