// internal/app/system/limits/limits.go
package limits

// Upload ceilings per feature. Multipart bodies above the ceiling are
// rejected before any blob is written.
const (
	// MaxImageUpload covers profile pictures, student photos and story images.
	MaxImageUpload = 5 << 20 // 5 MB

	// MaxMediaUpload covers gallery photos.
	MaxMediaUpload = 10 << 20 // 10 MB

	// MaxDocumentUpload covers admin documents.
	MaxDocumentUpload = 10 << 20 // 10 MB

	// multipartOverhead is slack for the non-file fields of a form.
	multipartOverhead = 1 << 20
)

// Body returns the request body ceiling for a form carrying one file of at
// most fileLimit bytes.
func Body(fileLimit int64) int64 {
	return fileLimit + multipartOverhead
}
