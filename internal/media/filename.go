package media

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// Namer generates the storage filename for an uploaded file.
type Namer interface {
	StorageName(originalName string) string
}

// NamerFunc adapts a function to Namer.
type NamerFunc func(originalName string) string

func (f NamerFunc) StorageName(originalName string) string {
	return f(originalName)
}

// UniqueNamer appends a millisecond timestamp and a random number to the
// original base name: "clip.mp4" becomes "clip-1700000000000-123456789.mp4".
type UniqueNamer struct {
	Now func() time.Time
}

func (n UniqueNamer) StorageName(originalName string) string {
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	suffix := fmt.Sprintf("%d-%d", now().UnixMilli(), rand.Intn(1e9))
	return BaseName(originalName) + "-" + suffix + filepath.Ext(SafeName(originalName))
}

// BaseName returns the sanitized original name with its extension stripped.
func BaseName(originalName string) string {
	safe := SafeName(originalName)
	base := strings.TrimLeft(strings.TrimSuffix(safe, filepath.Ext(safe)), ".")
	if base == "" {
		return "video"
	}
	return base
}

// SafeName reduces a client-supplied name to a single path element without
// separators or control characters.
func SafeName(originalName string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, originalName)

	return strings.TrimSpace(name)
}
