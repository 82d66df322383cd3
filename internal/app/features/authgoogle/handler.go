// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	accountsvc "github.com/dalemusser/donorhub/internal/app/services/accounts"
	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/dalemusser/donorhub/internal/app/system/timeouts"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultUserInfoURL is Google's v2 userinfo endpoint.
const DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// SignIn resolves a Google identity to a donorhub session.
type SignIn interface {
	GoogleLogin(ctx context.Context, p accountsvc.GoogleProfile) (*accountsvc.Session, error)
}

// Handler runs the Google OAuth flow and hands the resulting bearer token to
// the frontend.
type Handler struct {
	Accounts SignIn
	State    *auth.StateStore
	Log      *zap.Logger

	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://api.example.org/auth/google/callback"
	FrontendURL  string

	// Endpoint and UserInfoURL default to Google's.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// NewHandler creates a Google OAuth handler. baseURL is this server's public
// origin.
func NewHandler(accounts SignIn, state *auth.StateStore, clientID, clientSecret, baseURL, frontendURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts:     accounts,
		State:        state,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  strings.TrimRight(baseURL, "/") + "/auth/google/callback",
		FrontendURL:  strings.TrimRight(frontendURL, "/"),
		Endpoint:     google.Endpoint,
		UserInfoURL:  DefaultUserInfoURL,
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: h.Endpoint,
	}
}

// IsConfigured reports whether client credentials are present.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, h.FrontendURL+"/login?error="+url.QueryEscape(reason), http.StatusSeeOther)
}

// ServeLogin handles GET /auth/google by redirecting to the consent screen.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("google oauth not configured")
		h.fail(w, r, "google_not_configured")
		return
	}
	state, err := h.State.Begin(w, r)
	if err != nil {
		h.Log.Error("failed to store oauth state", zap.Error(err))
		h.fail(w, r, "internal")
		return
	}
	http.Redirect(w, r, h.oauth2Config().AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// ServeCallback handles GET /auth/google/callback: check state, exchange the
// code, fetch the profile, sign in and redirect to
// <frontend>/auth/callback?token=….
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		h.Log.Warn("google oauth error", zap.String("error", e), zap.String("description", q.Get("error_description")))
		h.fail(w, r, "google_denied")
		return
	}
	if !h.State.Consume(w, r, q.Get("state")) {
		h.Log.Warn("invalid or expired oauth state")
		h.fail(w, r, "invalid_state")
		return
	}
	code := q.Get("code")
	if code == "" {
		h.fail(w, r, "invalid_code")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange oauth code", zap.Error(err))
		h.fail(w, r, "token_exchange")
		return
	}
	profile, err := h.fetchProfile(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch google user info", zap.Error(err))
		h.fail(w, r, "user_info")
		return
	}

	sess, err := h.Accounts.GoogleLogin(ctx, profile)
	if err != nil {
		h.Log.Warn("google sign-in failed", zap.String("email", profile.Email), zap.Error(err))
		h.fail(w, r, "auth_failed")
		return
	}
	h.Log.Info("google sign-in", zap.String("username", sess.User.Username))
	http.Redirect(w, r, h.FrontendURL+"/auth/callback?token="+url.QueryEscape(sess.Token), http.StatusSeeOther)
}

type userInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (h *Handler) fetchProfile(ctx context.Context, token *oauth2.Token) (accountsvc.GoogleProfile, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		return accountsvc.GoogleProfile{}, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return accountsvc.GoogleProfile{}, fmt.Errorf("user info: unexpected status %d", resp.StatusCode)
	}
	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return accountsvc.GoogleProfile{}, fmt.Errorf("decode user info: %w", err)
	}
	if !info.EmailVerified {
		return accountsvc.GoogleProfile{}, fmt.Errorf("google email %q is not verified", info.Email)
	}
	return accountsvc.GoogleProfile{ID: info.ID, Email: info.Email, Name: info.Name, Picture: info.Picture}, nil
}
