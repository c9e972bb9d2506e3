// SPDX-License-Identifier: MIT
package media

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// AllowedTypes is the fixed set of media types accepted for ingestion
var AllowedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"video/mp4",
	"audio/mp3",
}

// extensionTypes maps lowercase file extensions to media types. Types outside
// the allow-list are listed so callers can report what was rejected.
var extensionTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".jpe":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".svg":  "image/svg+xml",
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/avi",
	".mp3":  "audio/mp3",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".txt":  "text/plain",
	".html": "text/html",
}

// aliases folds equivalent type names onto the allow-list spelling
var aliases = map[string]string{
	"image/jpg":      "image/jpeg",
	"image/pjpeg":    "image/jpeg",
	"audio/mpeg":     "audio/mp3",
	"audio/mpeg3":    "audio/mp3",
	"audio/x-mpeg-3": "audio/mp3",
	"audio/x-mp3":    "audio/mp3",
}

// preferredExtensions is used when a stored filename must be corrected to
// match its content
var preferredExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"video/mp4":  ".mp4",
	"audio/mp3":  ".mp3",
}

// TypeByExtension returns the media type implied by the filename's
// extension, or "" if the extension is unknown.
func TypeByExtension(filename string) string {
	return extensionTypes[strings.ToLower(filepath.Ext(filename))]
}

// Canonical strips parameters and folds aliases so types can be compared
func Canonical(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if alias, ok := aliases[mimeType]; ok {
		return alias
	}
	return mimeType
}

// IsAllowed reports whether the media type is on the allow-list
func IsAllowed(mimeType string) bool {
	c := Canonical(mimeType)
	if c == "" {
		return false
	}
	for _, allowed := range AllowedTypes {
		if c == allowed {
			return true
		}
	}
	return false
}

// ExtensionFor returns the preferred extension (with dot) for an allowed type
func ExtensionFor(mimeType string) string {
	return preferredExtensions[Canonical(mimeType)]
}

// IsImage reports whether the type's top-level category is image
func IsImage(mimeType string) bool {
	top, _, _ := strings.Cut(Canonical(mimeType), "/")
	return top == "image"
}

// DetectFile sniffs the media type of a file from its content
func DetectFile(path string) (string, error) {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to detect content type: %w", err)
	}
	mimeType, _, _ := strings.Cut(m.String(), ";")
	return strings.TrimSpace(mimeType), nil
}
