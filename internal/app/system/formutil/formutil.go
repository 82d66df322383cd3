// Package formutil reads multipart and urlencoded forms for the upload
// endpoints: body ceilings, typed field getters, and the single file part
// each form may carry.
//
// Example usage:
//
//	if err := formutil.Parse(w, r, limits.MaxImageUpload); err != nil {
//		respond.Error(w, r, h.Log, err)
//		return
//	}
//	f, err := formutil.OpenFile(r, "profilePicture", "user", limits.MaxImageUpload)
//	if err != nil { ... }
//	if f != nil {
//		defer f.Close()
//		// f.Upload is ready for blob.Manager.UploadThenPersist
//	}
package formutil

import (
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/donorhub/internal/app/system/apperr"
	"github.com/dalemusser/donorhub/internal/app/system/blob"
	"github.com/dalemusser/donorhub/internal/app/system/limits"
)

// memoryLimit is how much of a multipart body is kept in memory before
// spilling file parts to disk.
const memoryLimit = 8 << 20

// Parse bounds the body and parses it as multipart or urlencoded.
func Parse(w http.ResponseWriter, r *http.Request, fileLimit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limits.Body(fileLimit))

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(memoryLimit)
	} else {
		err = r.ParseForm()
	}
	if err == nil {
		return nil
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) || errors.Is(err, multipart.ErrMessageTooLarge) ||
		strings.Contains(err.Error(), "request body too large") {
		return tooLarge(fileLimit)
	}
	return apperr.Validation("INVALID_FORM", "Request body is not a valid form.")
}

func tooLarge(limit int64) error {
	return apperr.Validation("FILE_TOO_LARGE", fmt.Sprintf("File exceeds the %d MB limit.", limit>>20))
}

// File is an opened file part. Close it when the upload is done.
type File struct {
	blob.Upload
	f multipart.File
}

// Close releases the part.
func (f *File) Close() error { return f.f.Close() }

// OpenFile opens the file part named field. It returns nil, nil when the
// form has no such part.
func OpenFile(r *http.Request, field, prefix string, maxSize int64) (*File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Validation("INVALID_FILE", "Uploaded file could not be read.")
	}
	if hdr.Size > maxSize {
		_ = f.Close()
		return nil, tooLarge(maxSize)
	}
	ct := hdr.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &File{
		Upload: blob.Upload{
			Prefix:      prefix,
			Filename:    hdr.Filename,
			ContentType: ct,
			Size:        hdr.Size,
			Body:        f,
		},
		f: f,
	}, nil
}

// String returns the trimmed value of key.
func String(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

// Bool reads checkbox-style values: true, on, 1 and yes are true.
func Bool(r *http.Request, key string) bool {
	switch strings.ToLower(String(r, key)) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}

// OptBool is Bool that also reports whether the key was present.
func OptBool(r *http.Request, key string) *bool {
	if _, ok := r.Form[key]; !ok {
		return nil
	}
	v := Bool(r, key)
	return &v
}

// Float parses key as a number. Empty yields 0.
func Float(r *http.Request, key string) (float64, error) {
	s := String(r, key)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperr.Validation("INVALID_NUMBER", fmt.Sprintf("%s must be a number.", key))
	}
	return v, nil
}

// Int parses key as an integer. Empty yields 0.
func Int(r *http.Request, key string) (int, error) {
	s := String(r, key)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperr.Validation("INVALID_NUMBER", fmt.Sprintf("%s must be a whole number.", key))
	}
	return v, nil
}

// dateLayouts are tried in order.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// ParseDate accepts RFC 3339 timestamps and plain dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Date parses key with ParseDate. Empty yields the zero time.
func Date(r *http.Request, key string) (time.Time, error) {
	s := String(r, key)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, apperr.Validation("INVALID_DATE", fmt.Sprintf("%s must be a date (YYYY-MM-DD).", key))
	}
	return t, nil
}

// CSV splits key on commas, dropping empty entries.
func CSV(r *http.Request, key string) []string {
	out := []string{}
	for _, part := range strings.Split(String(r, key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
