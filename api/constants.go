package api

const (
	// DefaultFilePermissions for upload directory creation
	DefaultFilePermissions = 0755

	// MaxErrorMessageLength truncates operation errors returned to clients
	MaxErrorMessageLength = 200

	// RequestIDHeader carries the per-request ID in both directions
	RequestIDHeader = "X-Request-ID"
)

// Accepted upload types, checked by content sniffing rather than extension.
var (
	pdfTypes    = []string{"application/pdf"}
	imageTypes  = []string{"image/jpeg", "image/png", "image/tiff"}
	uploadTypes = append(append([]string{}, pdfTypes...), imageTypes...)
)
