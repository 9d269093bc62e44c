// Package media holds the file policy shared by uploads and streaming:
// which video formats are accepted, how they map to MIME types, how blobs
// are named on disk, and how display titles are derived from file names.
package media

import (
	"path/filepath"
	"strings"
)

// DefaultContentType is served for files with an unknown or missing extension.
const DefaultContentType = "video/mp4"

var contentTypes = map[string]string{
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
}

// supportedTypes lists the MIME types accepted on upload.
// video/avi is a common non-standard alias for video/x-msvideo.
var supportedTypes = map[string]bool{
	"video/mp4":        true,
	"video/avi":        true,
	"video/x-msvideo":  true,
	"video/quicktime":  true,
	"video/x-ms-wmv":   true,
	"video/x-flv":      true,
	"video/webm":       true,
	"video/x-matroska": true,
}

// Ext returns the lowercased extension of name, including the dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// ContentTypeFor resolves the MIME type served for a stored file.
func ContentTypeFor(name string) string {
	if ct, ok := contentTypes[Ext(name)]; ok {
		return ct
	}
	return DefaultContentType
}

// IsSupportedExtension reports whether name ends in a supported video extension.
func IsSupportedExtension(name string) bool {
	_, ok := contentTypes[Ext(name)]
	return ok
}

// IsSupportedType reports whether mimeType is an accepted video MIME type.
// Parameters such as "; codecs=..." are ignored.
func IsSupportedType(mimeType string) bool {
	base, _, _ := strings.Cut(mimeType, ";")
	return supportedTypes[strings.ToLower(strings.TrimSpace(base))]
}

// IsSupported reports whether an upload is an accepted video. Either the
// declared MIME type or the file extension is enough: browsers commonly send
// application/octet-stream for containers such as mkv.
func IsSupported(name, mimeType string) bool {
	return IsSupportedType(mimeType) || IsSupportedExtension(name)
}

// ResolveMimeType returns the MIME type recorded for an upload, preferring the
// declared one when it is a supported video type.
func ResolveMimeType(name, mimeType string) string {
	if IsSupportedType(mimeType) {
		base, _, _ := strings.Cut(mimeType, ";")
		return strings.ToLower(strings.TrimSpace(base))
	}
	return ContentTypeFor(name)
}

// SupportedExtensions returns the accepted extensions in display order.
func SupportedExtensions() []string {
	return []string{".mp4", ".avi", ".mov", ".wmv", ".flv", ".webm", ".mkv"}
}
