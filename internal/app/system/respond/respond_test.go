package respond_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/donorhub/internal/app/system/apperr"
	"github.com/dalemusser/donorhub/internal/app/system/respond"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestError_Classified(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/donation/x", nil)

	respond.Error(rec, req, zap.NewNop(), apperr.NotFound("DONATION_NOT_FOUND", "Donation not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "DONATION_NOT_FOUND", body["code"])
	assert.Equal(t, "Donation not found", body["message"])
}

func TestError_Unclassified(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	respond.Error(rec, req, zap.NewNop(), errors.New("mongo exploded"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "mongo exploded")
}

func TestDecode(t *testing.T) {
	var dst struct {
		Reason string `json:"reason"`
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"blurry"}`))
	require.NoError(t, respond.Decode(rec, req, &dst))
	assert.Equal(t, "blurry", dst.Reason)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))
	err := respond.Decode(rec, req, &dst)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.NoError(t, respond.Decode(rec, req, &dst))
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", respond.BearerToken(req))

	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	assert.Equal(t, "abc.def.ghi", respond.BearerToken(req))

	req.Header.Set("Authorization", "abc.def.ghi")
	assert.Equal(t, "abc.def.ghi", respond.BearerToken(req))
}
