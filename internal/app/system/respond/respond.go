// Package respond writes JSON responses and maps application errors to
// status codes for the API handlers.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dalemusser/donorhub/internal/app/system/apperr"
	"go.uber.org/zap"
)

// maxJSONBody bounds non-multipart request bodies.
const maxJSONBody = 1 << 20

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with 200.
func OK(w http.ResponseWriter, v any) { JSON(w, http.StatusOK, v) }

// Created writes v with 201.
func Created(w http.ResponseWriter, v any) { JSON(w, http.StatusCreated, v) }

// Error renders err. Classified errors keep their code and message;
// anything else becomes a generic 500 and is logged with the request path.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	ae, ok := apperr.As(err)
	if !ok {
		ae = apperr.Internal("Something went wrong.", err)
	}
	status := ae.Status()
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("code", ae.Code),
			zap.Error(err))
	}
	JSON(w, status, errorBody{Code: ae.Code, Message: ae.Message})
}

// Decode reads a JSON body into dst. An empty body leaves dst untouched.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return apperr.Validation("BODY_TOO_LARGE", "Request body is too large.")
		}
		return apperr.Validation("INVALID_JSON", "Request body is not valid JSON.")
	}
	return nil
}

// BearerToken extracts the token from an "Authorization: Bearer <t>" header.
// A bare token without the scheme is accepted as well.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return ""
	}
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return h
}
