package auth

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const stateSessionName = "donorhub-oauth"

const stateKey = "oauth_state"

// StateStore keeps the OAuth state parameter in a signed cookie between the
// redirect to the provider and the callback.
type StateStore struct {
	store *sessions.CookieStore
}

// NewStateStore builds a cookie store keyed by sessionKey. secure marks the
// cookie Secure and SameSite=None for cross-site HTTPS deployments.
func NewStateStore(sessionKey string, secure bool, logger *zap.Logger) (*StateStore, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	cs := sessions.NewCookieStore([]byte(sessionKey))
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		cs.Options.SameSite = http.SameSiteNoneMode
	}
	return &StateStore{store: cs}, nil
}

// Begin generates a random state, stores it in the cookie and returns it.
func (s *StateStore) Begin(w http.ResponseWriter, r *http.Request) (string, error) {
	state, err := RandomToken(24)
	if err != nil {
		return "", err
	}
	sess, _ := s.store.Get(r, stateSessionName)
	sess.Values[stateKey] = state
	if err := sess.Save(r, w); err != nil {
		return "", err
	}
	return state, nil
}

// Consume checks got against the stored state and clears it.
func (s *StateStore) Consume(w http.ResponseWriter, r *http.Request, got string) bool {
	sess, err := s.store.Get(r, stateSessionName)
	if err != nil {
		return false
	}
	want, _ := sess.Values[stateKey].(string)
	delete(sess.Values, stateKey)
	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)
	return want != "" && got == want
}

// ErrNoEntropy is returned when the system random source fails.
var ErrNoEntropy = errors.New("auth: random source unavailable")

// RandomToken returns n random bytes, hex encoded.
func RandomToken(n int) (string, error) {
	key := securecookie.GenerateRandomKey(n)
	if key == nil {
		return "", ErrNoEntropy
	}
	return hex.EncodeToString(key), nil
}
