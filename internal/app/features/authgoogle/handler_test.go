package authgoogle_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/dalemusser/donorhub/internal/app/features/authgoogle"
	accountsvc "github.com/dalemusser/donorhub/internal/app/services/accounts"
	"github.com/dalemusser/donorhub/internal/app/system/apperr"
	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type fakeAccounts struct {
	got *accountsvc.GoogleProfile
	err error
}

func (f *fakeAccounts) GoogleLogin(_ context.Context, p accountsvc.GoogleProfile) (*accountsvc.Session, error) {
	f.got = &p
	if f.err != nil {
		return nil, f.err
	}
	return &accountsvc.Session{Token: "signed.jwt.token", User: &models.User{Username: p.Email}}, nil
}

// fakeGoogle serves the token and userinfo endpoints.
func fakeGoogle(t *testing.T, verified bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "at-123", "token_type": "Bearer", "expires_in": 3600})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "g-42", "email": "meera@example.org", "verified_email": verified, "name": "Meera",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newHandler(t *testing.T, accounts authgoogle.SignIn, google *httptest.Server) *authgoogle.Handler {
	t.Helper()
	state, err := auth.NewStateStore("0123456789abcdef0123456789abcdef", false, zap.NewNop())
	require.NoError(t, err)
	h := authgoogle.NewHandler(accounts, state, "client-id", "client-secret", "http://api.test", "http://app.test/", zap.NewNop())
	if google != nil {
		h.Endpoint = oauth2.Endpoint{AuthURL: google.URL + "/auth", TokenURL: google.URL + "/token", AuthStyle: oauth2.AuthStyleInParams}
		h.UserInfoURL = google.URL + "/userinfo"
	}
	return h
}

// begin runs the login redirect and returns the state and cookies.
func begin(t *testing.T, router http.Handler) (string, []*http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "http://api.test/auth/google/callback", loc.Query().Get("redirect_uri"))
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	return state, rec.Result().Cookies()
}

func callback(t *testing.T, router http.Handler, query string, cookies []*http.Cookie) *url.URL {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/callback?"+query, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	return loc
}

func TestCallback_Success(t *testing.T) {
	accounts := &fakeAccounts{}
	router := authgoogle.Routes(newHandler(t, accounts, fakeGoogle(t, true)))

	state, cookies := begin(t, router)
	loc := callback(t, router, "state="+state+"&code=abc", cookies)

	assert.Equal(t, "/auth/callback", loc.Path)
	assert.Equal(t, "app.test", loc.Host)
	assert.Equal(t, "signed.jwt.token", loc.Query().Get("token"))
	require.NotNil(t, accounts.got)
	assert.Equal(t, "g-42", accounts.got.ID)
	assert.Equal(t, "meera@example.org", accounts.got.Email)
}

func TestCallback_Failures(t *testing.T) {
	t.Run("state mismatch", func(t *testing.T) {
		router := authgoogle.Routes(newHandler(t, &fakeAccounts{}, fakeGoogle(t, true)))
		_, cookies := begin(t, router)
		loc := callback(t, router, "state=forged&code=abc", cookies)
		assert.Equal(t, "invalid_state", loc.Query().Get("error"))
	})
	t.Run("no cookie", func(t *testing.T) {
		router := authgoogle.Routes(newHandler(t, &fakeAccounts{}, fakeGoogle(t, true)))
		state, _ := begin(t, router)
		loc := callback(t, router, "state="+state+"&code=abc", nil)
		assert.Equal(t, "invalid_state", loc.Query().Get("error"))
	})
	t.Run("denied", func(t *testing.T) {
		router := authgoogle.Routes(newHandler(t, &fakeAccounts{}, fakeGoogle(t, true)))
		loc := callback(t, router, "error=access_denied", nil)
		assert.Equal(t, "google_denied", loc.Query().Get("error"))
	})
	t.Run("unverified email", func(t *testing.T) {
		accounts := &fakeAccounts{}
		router := authgoogle.Routes(newHandler(t, accounts, fakeGoogle(t, false)))
		state, cookies := begin(t, router)
		loc := callback(t, router, "state="+state+"&code=abc", cookies)
		assert.Equal(t, "user_info", loc.Query().Get("error"))
		assert.Nil(t, accounts.got)
	})
	t.Run("sign-in rejected", func(t *testing.T) {
		accounts := &fakeAccounts{err: apperr.Validation("INVALID_GOOGLE_PROFILE", "bad")}
		router := authgoogle.Routes(newHandler(t, accounts, fakeGoogle(t, true)))
		state, cookies := begin(t, router)
		loc := callback(t, router, "state="+state+"&code=abc", cookies)
		assert.Equal(t, "/login", loc.Path)
		assert.Equal(t, "auth_failed", loc.Query().Get("error"))
	})
}

func TestServeLogin_NotConfigured(t *testing.T) {
	h := newHandler(t, &fakeAccounts{}, nil)
	h.ClientID = ""
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/google", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "http://app.test/login?error=google_not_configured", rec.Header().Get("Location"))
}
