package vars

import (
	"os"
	"path/filepath"
)

// GetEnv returns the environment variable or fallback when it is unset.
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

const (
	// OutputFormatMarkdown is the only target format the gateway requests.
	OutputFormatMarkdown = "markdown"

	// Converter backends
	BackendMarker  = "marker"
	BackendPDFText = "pdftext"

	// Conversion record status
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusExpired   = "expired"

	// Scratch layout
	UploadsDir = "uploads"
	OutputDir  = "output"

	EnvPrefix = "CONVERT_GATEWAY"
)

// AllowedExtensions is matched against the lowercased suffix after the last dot.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"docx": {},
}

// DefaultScratchDir lives under the system temp dir unless overridden.
var DefaultScratchDir = filepath.Join(os.TempDir(), "convert-gateway")
