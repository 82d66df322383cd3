// Package blob stores uploaded files in object storage and keeps uploads and
// database writes consistent with a compensating delete.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Store is an object storage backend.
type Store interface {
	// Put writes body under key and returns its public URL.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	// Delete removes key.
	Delete(ctx context.Context, key string) error
	// KeyFromURL maps a URL returned by Put back to its key.
	KeyFromURL(url string) (string, error)
	// Container names the bucket, container or directory.
	Container() string
}

// ErrForeignURL is returned by KeyFromURL for URLs the store did not issue.
var ErrForeignURL = errors.New("blob: url does not belong to this store")

// Ref points at an uploaded object. It lives only for the duration of an
// upload-then-persist sequence; entities keep just the URL.
type Ref struct {
	URL       string
	Container string
	Key       string
}

// Upload describes one incoming file.
type Upload struct {
	Prefix      string // virtual directory, e.g. "user" or "donation"
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// NewKey builds prefix/YYYY/MM/<uuid8>-<filename>.
func NewKey(prefix, filename string, now time.Time) string {
	now = now.UTC()
	name := fmt.Sprintf("%s-%s", uuid.New().String()[:8], sanitizeFilename(filename))
	return path.Join(sanitizeSegment(prefix), fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", now.Month()), name)
}

func sanitizeSegment(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return "misc"
	}
	return string(out)
}

// sanitizeFilename keeps only the base name and replaces anything outside
// [A-Za-z0-9._-] with '_'. Long names are cut to 100 bytes, keeping the
// extension.
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filepath.ToSlash(filename))
	if filename == "." || filename == "/" {
		return "file"
	}

	result := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if isAllowedFilenameChar(c) {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}

	if len(result) == 0 {
		return "file"
	}
	if len(result) > 100 {
		ext := filepath.Ext(string(result))
		if len(ext) > 0 && len(ext) < 10 {
			result = append(result[:100-len(ext)], ext...)
		} else {
			result = result[:100]
		}
	}
	return string(result)
}

func isAllowedFilenameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}
