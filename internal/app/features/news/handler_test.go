package news_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/donorhub/internal/app/features/news"
	newsstore "github.com/dalemusser/donorhub/internal/app/store/news"
	userstore "github.com/dalemusser/donorhub/internal/app/store/users"
	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"github.com/dalemusser/donorhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	router   http.Handler
	tokens   *auth.Tokens
	blobRoot string
	admin    models.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.SetupTestDB(t)
	blobs, root := testutil.LocalBlobs(t)
	tokens := auth.NewTokens("news-handler-test-secret-0123456789ab")
	h := news.NewHandler(newsstore.New(db), blobs, zap.NewNop())

	ctx, cancel := testutil.TestContext()
	defer cancel()
	return &harness{
		router:   news.Routes(h, auth.NewGate(tokens, userstore.New(db), zap.NewNop())),
		tokens:   tokens,
		blobRoot: root,
		admin:    testutil.NewFixtures(t, db).CreateUser(ctx, "root", "root@example.org", models.RoleAdmin, true),
	}
}

func (hs *harness) serve(t *testing.T, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	tok, _, err := hs.tokens.Issue(&hs.admin, auth.Session)
	require.NoError(t, err)
	r.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	hs.router.ServeHTTP(rec, r)
	return rec
}

func TestAddAndList(t *testing.T) {
	hs := newHarness(t)

	story := map[string]string{"type": "story", "title": "Topper", "studentName": "Asha", "category": "academics", "date": "2024-05-01"}
	rec := hs.serve(t, testutil.MultipartRequest(t, http.MethodPost, "/add", story, "studentImage", "asha.jpg", []byte("jpeg")))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	milestone := map[string]string{"type": "milestone", "title": "Students placed", "category": "placements", "number": "120"}
	rec = hs.serve(t, testutil.MultipartRequest(t, http.MethodPost, "/add", milestone, "", "", nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	update := map[string]string{"type": "update", "title": "Board results", "examType": "CBSE"}
	rec = hs.serve(t, testutil.MultipartRequest(t, http.MethodPost, "/add", update, "", "", nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	hs.router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/all"))
	require.Equal(t, http.StatusOK, rec.Code)
	var feed newsstore.Feed
	testutil.DecodeJSON(t, rec, &feed)
	require.Len(t, feed.StudentStories, 1)
	assert.NotEmpty(t, feed.StudentStories[0].StudentImage)
	require.Len(t, feed.AcademicMilestones, 1)
	assert.Equal(t, 120, feed.AcademicMilestones[0].Number)
	assert.Len(t, feed.RecentUpdates, 1)
}

func TestAdd_Rejections(t *testing.T) {
	hs := newHarness(t)
	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"unknown type", map[string]string{"type": "poem", "title": "t"}},
		{"missing title", map[string]string{"type": "story", "studentName": "Asha"}},
		{"story without student", map[string]string{"type": "story", "title": "t"}},
		{"milestone bad number", map[string]string{"type": "milestone", "title": "t", "category": "c", "number": "many"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := hs.serve(t, testutil.MultipartRequest(t, http.MethodPost, "/add", tc.fields, "studentImage", "a.jpg", []byte("jpeg")))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, 0, testutil.CountFiles(t, hs.blobRoot))
		})
	}
}

func TestDelete_StoryDropsImage(t *testing.T) {
	hs := newHarness(t)
	story := map[string]string{"type": "story", "title": "Topper", "studentName": "Asha"}
	rec := hs.serve(t, testutil.MultipartRequest(t, http.MethodPost, "/add", story, "studentImage", "asha.jpg", []byte("jpeg")))
	require.Equal(t, http.StatusCreated, rec.Code)
	var body struct {
		Content models.StudentStory `json:"content"`
	}
	testutil.DecodeJSON(t, rec, &body)
	require.Equal(t, 1, testutil.CountFiles(t, hs.blobRoot))

	rec = hs.serve(t, testutil.NewRequest(http.MethodDelete, "/"+body.Content.ID.Hex()))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "type is required")

	rec = hs.serve(t, testutil.NewRequest(http.MethodDelete, "/"+body.Content.ID.Hex()+"?type=milestone"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = hs.serve(t, testutil.NewRequest(http.MethodDelete, "/"+body.Content.ID.Hex()+"?type=story"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 0, testutil.CountFiles(t, hs.blobRoot))
}
