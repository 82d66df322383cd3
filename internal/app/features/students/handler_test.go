package students_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/donorhub/internal/app/features/students"
	sponsorshipsvc "github.com/dalemusser/donorhub/internal/app/services/sponsorship"
	studentstore "github.com/dalemusser/donorhub/internal/app/store/students"
	userstore "github.com/dalemusser/donorhub/internal/app/store/users"
	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/dalemusser/donorhub/internal/app/system/txn"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"github.com/dalemusser/donorhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type harness struct {
	router   http.Handler
	students *studentstore.Store
	users    *userstore.Store
	fx       *testutil.Fixtures
	tokens   *auth.Tokens
	blobRoot string
	admin    models.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.SetupTestDB(t)
	blobs, root := testutil.LocalBlobs(t)
	tokens := auth.NewTokens("students-handler-test-secret-01234")
	ss := studentstore.New(db)
	us := userstore.New(db)
	sponsorship := sponsorshipsvc.New(ss, us, txn.New(db, zap.NewNop()), zap.NewNop())
	h := students.NewHandler(ss, sponsorship, blobs, zap.NewNop())

	hs := &harness{
		router:   students.Routes(h, auth.NewGate(tokens, us, zap.NewNop())),
		students: ss,
		users:    us,
		fx:       testutil.NewFixtures(t, db),
		tokens:   tokens,
		blobRoot: root,
	}
	ctx, cancel := testutil.TestContext()
	defer cancel()
	hs.admin = hs.fx.CreateUser(ctx, "root", "root@example.org", models.RoleAdmin, true)
	return hs
}

func (hs *harness) serve(t *testing.T, u *models.User, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if u != nil {
		tok, _, err := hs.tokens.Issue(u, auth.Session)
		require.NoError(t, err)
		r.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	hs.router.ServeHTTP(rec, r)
	return rec
}

type studentBody struct {
	Student models.Student `json:"student"`
}

func addFields(roll string) map[string]string {
	return map[string]string{
		"studentName":  "Asha Kumari",
		"rollNumber":   roll,
		"gender":       "Female",
		"dob":          "2014-03-09",
		"fathersName":  "Ravi Kumar",
		"centre":       "Dhanbad",
		"annualIncome": "48000",
		"annualFees":   "6000",
		"aadhar":       "on",
	}
}

func TestAdd_AdminOnly(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	donor := hs.fx.CreateUser(ctx, "donor", "donor@example.org", models.RoleRegular, true)

	req := testutil.MultipartRequest(t, http.MethodPost, "/add", addFields("R-1"), "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, hs.serve(t, nil, req).Code)

	req = testutil.MultipartRequest(t, http.MethodPost, "/add", addFields("R-1"), "", "", nil)
	assert.Equal(t, http.StatusForbidden, hs.serve(t, &donor, req).Code)
}

func TestAdd_WithPhoto(t *testing.T) {
	hs := newHarness(t)

	req := testutil.MultipartRequest(t, http.MethodPost, "/add", addFields("R-1"), "profilePicture", "asha.jpg", []byte("jpeg"))
	rec := hs.serve(t, &hs.admin, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body studentBody
	testutil.DecodeJSON(t, rec, &body)
	assert.Equal(t, "R-1", body.Student.RollNumber)
	assert.True(t, body.Student.ActiveStatus)
	assert.True(t, body.Student.Aadhar)
	assert.False(t, body.Student.SponsorshipStatus)
	assert.NotEmpty(t, body.Student.ProfilePhoto)
	assert.Equal(t, 1, testutil.CountFiles(t, hs.blobRoot))
}

func TestAdd_DuplicateRollRemovesPhoto(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	hs.fx.CreateStudent(ctx, "Existing", "R-1")

	req := testutil.MultipartRequest(t, http.MethodPost, "/add", addFields("R-1"), "profilePicture", "asha.jpg", []byte("jpeg"))
	rec := hs.serve(t, &hs.admin, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 0, testutil.CountFiles(t, hs.blobRoot))
}

func TestAdd_Validation(t *testing.T) {
	hs := newHarness(t)
	tests := []struct {
		name  string
		field string
		value string
	}{
		{"missing name", "studentName", ""},
		{"bad gender", "gender", "Unknown"},
		{"bad date", "dob", "yesterday"},
		{"bad income", "annualIncome", "lots"},
		{"missing centre", "centre", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fields := addFields("R-9")
			fields[tc.field] = tc.value
			req := testutil.MultipartRequest(t, http.MethodPost, "/add", fields, "profilePicture", "a.jpg", []byte("jpeg"))
			rec := hs.serve(t, &hs.admin, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, 0, testutil.CountFiles(t, hs.blobRoot))
		})
	}
}

func TestEdit(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	st := hs.fx.CreateStudent(ctx, "Asha", "R-1")
	path := "/" + st.ID.Hex() + "/edit"

	rec := hs.serve(t, &hs.admin, testutil.NewJSONRequest(t, http.MethodPut, path, map[string]any{}))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty edit")

	rec = hs.serve(t, &hs.admin, testutil.NewJSONRequest(t, http.MethodPut, path, map[string]any{"gender": "Unknown"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = hs.serve(t, &hs.admin, testutil.NewJSONRequest(t, http.MethodPut, path, map[string]any{"school": "DAV Public", "annualFees": 7200}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body studentBody
	testutil.DecodeJSON(t, rec, &body)
	assert.Equal(t, "DAV Public", body.Student.School)
	assert.Equal(t, 7200.0, body.Student.AnnualFees)
	assert.Equal(t, "Asha", body.Student.StudentName)

	rec = hs.serve(t, &hs.admin, testutil.NewJSONRequest(t, http.MethodPut, "/"+primitive.NewObjectID().Hex()+"/edit", map[string]any{"school": "x"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = hs.serve(t, &hs.admin, testutil.NewJSONRequest(t, http.MethodPut, "/not-an-id/edit", map[string]any{"school": "x"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditResult_Appends(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	st := hs.fx.CreateStudent(ctx, "Asha", "R-1")
	path := "/" + st.ID.Hex() + "/editresult"

	rec := hs.serve(t, &hs.admin, testutil.NewJSONRequest(t, http.MethodPut, path, map[string]string{"session": "2024-25"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = hs.serve(t, &hs.admin, testutil.NewJSONRequest(t, http.MethodPut, path, map[string]string{
		"session": "2024-25", "class": "6", "result": "Passed with distinction",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body studentBody
	testutil.DecodeJSON(t, rec, &body)
	require.Len(t, body.Student.Results, 1)
	assert.Equal(t, "Passed with distinction", body.Student.Result)
	assert.Equal(t, "6", body.Student.Class)
}

func TestSponsorLifecycle(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	st := hs.fx.CreateStudent(ctx, "Asha", "R-1")
	sponsor := hs.fx.CreateUser(ctx, "sponsor", "s@example.org", models.RoleRegular, true)
	base := "/" + st.ID.Hex()

	rec := hs.serve(t, &hs.admin, testutil.NewJSONRequest(t, http.MethodPut, base+"/editsponsor", map[string]any{"sponsor": "nobody"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = hs.serve(t, &hs.admin, testutil.NewJSONRequest(t, http.MethodPut, base+"/editsponsor", map[string]any{"sponsor": "sponsor", "percent": 150}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = hs.serve(t, &hs.admin, testutil.NewJSONRequest(t, http.MethodPut, base+"/editsponsor", map[string]any{"sponsor": "sponsor", "percent": 50}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = hs.serve(t, &hs.admin, testutil.NewRequest(http.MethodGet, "/all?sponsored=true"))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Students []models.Student `json:"students"`
	}
	testutil.DecodeJSON(t, rec, &list)
	require.Len(t, list.Students, 1)
	assert.Equal(t, 50.0, list.Students[0].SponsorshipPercent)

	u, err := hs.users.GetByID(ctx, sponsor.ID)
	require.NoError(t, err)
	assert.Contains(t, u.SponsoredStudents, st.ID)

	rec = hs.serve(t, &hs.admin, testutil.NewRequest(http.MethodDelete, base+"/sponsor"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	u, err = hs.users.GetByID(ctx, sponsor.ID)
	require.NoError(t, err)
	assert.NotContains(t, u.SponsoredStudents, st.ID)
	stored, err := hs.students.GetByID(ctx, st.ID)
	require.NoError(t, err)
	assert.False(t, stored.SponsorshipStatus)
	assert.Nil(t, stored.SponsorID)
}

func TestList_Filters(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	hs.fx.CreateStudent(ctx, "Asha", "R-1")
	hs.fx.CreateStudent(ctx, "Binu", "R-2")

	rec := hs.serve(t, &hs.admin, testutil.NewRequest(http.MethodGet, "/all?centre=Dhanbad&sponsored=false"))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Students []models.Student `json:"students"`
	}
	testutil.DecodeJSON(t, rec, &list)
	assert.Len(t, list.Students, 2)

	rec = hs.serve(t, &hs.admin, testutil.NewRequest(http.MethodGet, "/all?centre=Ranchi"))
	require.Equal(t, http.StatusOK, rec.Code)
	testutil.DecodeJSON(t, rec, &list)
	assert.Empty(t, list.Students)

	rec = hs.serve(t, &hs.admin, testutil.NewRequest(http.MethodGet, "/all?sponsored=maybe"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDelete_ReleasesSponsor(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	st := hs.fx.CreateStudent(ctx, "Asha", "R-1")
	sponsor := hs.fx.CreateUser(ctx, "sponsor", "s@example.org", models.RoleRegular, true)
	require.NoError(t, hs.students.SetSponsor(ctx, st.ID, sponsor.ID, 100))
	require.NoError(t, hs.users.AddSponsoredStudent(ctx, sponsor.ID, st.ID))

	rec := hs.serve(t, &hs.admin, testutil.NewRequest(http.MethodDelete, "/"+st.ID.Hex()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	u, err := hs.users.GetByID(ctx, sponsor.ID)
	require.NoError(t, err)
	assert.NotContains(t, u.SponsoredStudents, st.ID)

	rec = hs.serve(t, &hs.admin, testutil.NewRequest(http.MethodGet, "/"+st.ID.Hex()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
