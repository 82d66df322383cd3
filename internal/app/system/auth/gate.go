// Package auth issues bearer tokens and guards routes with them.
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/donorhub/internal/app/system/apperr"
	"github.com/dalemusser/donorhub/internal/app/system/respond"
	"github.com/dalemusser/donorhub/internal/app/system/timeouts"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Error codes produced by the gate.
var (
	ErrCodeInvalidToken       = apperr.Unauthorized("INVALID_TOKEN", "Invalid or expired token")
	ErrCodeUserNotFound       = apperr.Unauthorized("USER_NOT_FOUND", "User not found")
	ErrCodeForbidden          = apperr.Forbidden("FORBIDDEN", "Admin access required")
	ErrCodeAccountNotVerified = apperr.Forbidden("ACCOUNT_NOT_VERIFIED", "Please verify your account first")
)

// UserLookup resolves the user a token was issued to.
type UserLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Requirement parametrizes a gate check.
type Requirement struct {
	Role          string // "" for any signed-in user, models.RoleAdmin for admins
	CheckVerified bool
}

var (
	SignedIn = Requirement{}
	Verified = Requirement{CheckVerified: true}
	Admin    = Requirement{Role: models.RoleAdmin, CheckVerified: true}
)

// Gate resolves bearer tokens to users and enforces role and verification.
type Gate struct {
	Tokens *Tokens
	Users  UserLookup
	Log    *zap.Logger
}

// NewGate returns a Gate.
func NewGate(tokens *Tokens, users UserLookup, log *zap.Logger) *Gate {
	return &Gate{Tokens: tokens, Users: users, Log: log}
}

// Authorize decodes token, loads its user and applies req. It has no side
// effects.
func (g *Gate) Authorize(ctx context.Context, token string, req Requirement) (*models.User, error) {
	claims, err := g.Tokens.Parse(token)
	if err != nil {
		return nil, ErrCodeInvalidToken
	}
	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, ErrCodeInvalidToken
	}

	u, err := g.Users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrCodeUserNotFound
	}
	if err != nil {
		return nil, apperr.Internal("load user", err)
	}

	if req.Role == models.RoleAdmin && !u.IsAdmin() {
		return nil, ErrCodeForbidden
	}
	if req.CheckVerified && !u.IsVerified {
		return nil, ErrCodeAccountNotVerified
	}
	return u, nil
}

// Require returns middleware that authorizes the request's bearer token
// against req and stores the user in the request context.
func (g *Gate) Require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
			u, err := g.Authorize(ctx, respond.BearerToken(r), req)
			cancel()
			if err != nil {
				respond.Error(w, r, g.Log, err)
				return
			}
			next.ServeHTTP(w, WithUser(r, u))
		})
	}
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user placed in context by Require.
func CurrentUser(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*models.User)
	return u, ok && u != nil
}

// WithUser returns r carrying u.
func WithUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}
