package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/donorhub/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
)

// TokenClass selects the lifetime of an issued token.
type TokenClass int

const (
	// Session tokens are issued at login and OAuth sign-in.
	Session TokenClass = iota
	// Profile tokens are reissued after a profile edit.
	Profile
)

const (
	SessionTTL = 24 * time.Hour
	ProfileTTL = 30 * 24 * time.Hour
)

// TTL returns the lifetime of tokens of class c.
func (c TokenClass) TTL() time.Duration {
	if c == Profile {
		return ProfileTTL
	}
	return SessionTTL
}

// Snapshot is the sanitized user data carried inside a token.
type Snapshot struct {
	Username      string `json:"username"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	TypeOfSponsor string `json:"typeOfSponsor,omitempty"`
	IsVerified    bool   `json:"isVerified"`
}

// Claims are the JWT claims. Subject holds the user id hex.
type Claims struct {
	jwt.RegisteredClaims
	User Snapshot `json:"user"`
}

var ErrInvalidToken = errors.New("invalid token")

// Tokens issues and validates HS256 bearer tokens.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

// NewTokens returns a token service signing with secret.
func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for u with the lifetime of class.
func (t *Tokens) Issue(u *models.User, class TokenClass) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(class.TTL())
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		User: Snapshot{
			Username:      u.Username,
			Name:          u.Name,
			Email:         u.Email,
			Role:          u.Role,
			TypeOfSponsor: u.TypeOfSponsor,
			IsVerified:    u.IsVerified,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse validates signature and expiry and returns the claims. Any failure
// is reported as ErrInvalidToken wrapping the cause.
func (t *Tokens) Parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
