package admin_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/donorhub/internal/app/features/admin"
	donationstore "github.com/dalemusser/donorhub/internal/app/store/donations"
	studentstore "github.com/dalemusser/donorhub/internal/app/store/students"
	userstore "github.com/dalemusser/donorhub/internal/app/store/users"
	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"github.com/dalemusser/donorhub/internal/testutil"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type harness struct {
	db       *mongo.Database
	h        *admin.Handler
	router   http.Handler
	fx       *testutil.Fixtures
	users    *userstore.Store
	donation *donationstore.Store
	students *studentstore.Store
	tokens   *auth.Tokens
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.SetupTestDB(t)
	tokens := auth.NewTokens("admin-handler-test-secret-0123456789")
	us := userstore.New(db)
	ds := donationstore.New(db)
	ss := studentstore.New(db)
	h := admin.NewHandler(db, us, ds, ss, zap.NewNop())
	return &harness{
		db:       db,
		h:        h,
		router:   admin.Routes(h, auth.NewGate(tokens, us, zap.NewNop())),
		fx:       testutil.NewFixtures(t, db),
		users:    us,
		donation: ds,
		students: ss,
		tokens:   tokens,
	}
}

func (hs *harness) serve(t *testing.T, u *models.User, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	tok, _, err := hs.tokens.Issue(u, auth.Session)
	require.NoError(t, err)
	r.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	hs.router.ServeHTTP(rec, r)
	return rec
}

func TestStats(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	root := hs.fx.CreateUser(ctx, "root", "root@example.org", models.RoleAdmin, true)
	donor := hs.fx.CreateUser(ctx, "donor", "donor@example.org", models.RoleRegular, true)
	hs.fx.CreateUser(ctx, "lapsed", "lapsed@example.org", models.RoleRegular, true)

	verified := hs.fx.CreateDonation(ctx, 1000, donor.Email, &donor.ID)
	rejected := hs.fx.CreateDonation(ctx, 50, "x@example.org", nil)
	hs.fx.CreateDonation(ctx, 200, "y@example.org", nil)
	now := time.Now().UTC()
	require.NoError(t, hs.donation.MarkVerified(ctx, verified.ID, root.ID, now, now.Add(models.DonationVerifyWindow)))
	require.NoError(t, hs.donation.MarkRejected(ctx, rejected.ID, root.ID, "duplicate", now))
	require.NoError(t, hs.users.CreditDonation(ctx, donor.ID, 1000, now))

	st := hs.fx.CreateStudent(ctx, "Asha", "R-1")
	hs.fx.CreateStudent(ctx, "Binu", "R-2")
	require.NoError(t, hs.students.SetSponsor(ctx, st.ID, donor.ID, 100))
	require.NoError(t, hs.users.AddSponsoredStudent(ctx, donor.ID, st.ID))

	rec := hs.serve(t, &donor, testutil.NewRequest(http.MethodGet, "/stats"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = hs.serve(t, &root, testutil.NewRequest(http.MethodGet, "/stats"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Stats admin.Stats `json:"stats"`
	}
	testutil.DecodeJSON(t, rec, &body)
	s := body.Stats
	assert.Equal(t, int64(3), s.Users.Total)
	assert.Equal(t, int64(1), s.Users.Active)
	assert.Equal(t, admin.DonationStats{Total: 3, Verified: 1, Pending: 1, Rejected: 1, Amount: 1000}, s.Donations)
	assert.Equal(t, int64(1), s.Sponsorship.TotalChildren)
	assert.Equal(t, int64(1), s.Sponsorship.StudentsSponsored)
}

func TestStats_EmptyDatabase(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s, err := hs.h.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, admin.Stats{}, s)
}

func TestBackup_StripsCredentials(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	root := hs.fx.CreateUser(ctx, "root", "root@example.org", models.RoleAdmin, true)
	donor := hs.fx.CreateUser(ctx, "donor", "donor@example.org", models.RoleRegular, false)
	require.NoError(t, hs.users.SetOTP(ctx, donor.ID, models.OTP{OTPEmail: "123456"}, time.Now().Add(time.Hour)))
	require.NoError(t, hs.users.SetResetToken(ctx, donor.ID, "tokenhash", time.Now().Add(time.Hour)))
	hs.fx.CreateDonation(ctx, 10, donor.Email, &donor.ID)

	rec := hs.serve(t, &root, testutil.NewRequest(http.MethodGet, "/backup"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	entries := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		entries[f.Name] = string(b)
	}

	require.Contains(t, entries, "users.json")
	require.Contains(t, entries, "donations.json")
	users := entries["users.json"]
	assert.Contains(t, users, `"username":"donor"`)
	for _, field := range []string{"password_hash", "otp_expiry", "reset_token_hash", "reset_token_expiry", "123456"} {
		assert.NotContains(t, users, field)
	}
	assert.Contains(t, entries["donations.json"], donor.ID.Hex())
}
