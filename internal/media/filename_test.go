package media

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestUniqueNamer_StorageName(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	namer := UniqueNamer{Now: func() time.Time { return fixed }}

	tests := []struct {
		name     string
		original string
		pattern  string
	}{
		{name: "simple", original: "clip.mp4", pattern: `^clip-1700000000000-\d+\.mp4$`},
		{name: "extension case preserved", original: "Clip.MOV", pattern: `^Clip-1700000000000-\d+\.MOV$`},
		{name: "dots in base name", original: "my.holiday.2024.mkv", pattern: `^my\.holiday\.2024-1700000000000-\d+\.mkv$`},
		{name: "no extension", original: "clip", pattern: `^clip-1700000000000-\d+$`},
		{name: "path separators removed", original: "../../etc/passwd.mp4", pattern: `^_\.\._etc_passwd-1700000000000-\d+\.mp4$`},
		{name: "only extension", original: ".mp4", pattern: `^video-1700000000000-\d+\.mp4$`},
		{name: "unicode kept", original: "café.webm", pattern: `^café-1700000000000-\d+\.webm$`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := namer.StorageName(tt.original)
			if !regexp.MustCompile(tt.pattern).MatchString(got) {
				t.Errorf("StorageName(%q) = %q, want match %s", tt.original, got, tt.pattern)
			}
			if strings.ContainsAny(got, `/\`) {
				t.Errorf("StorageName(%q) = %q contains a path separator", tt.original, got)
			}
		})
	}
}

func TestUniqueNamer_Distinct(t *testing.T) {
	namer := UniqueNamer{}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		name := namer.StorageName("clip.mp4")
		if seen[name] {
			t.Fatalf("StorageName produced duplicate %q", name)
		}
		seen[name] = true
	}
}

func TestNamerFunc(t *testing.T) {
	namer := NamerFunc(func(original string) string { return "fixed-" + original })
	if got := namer.StorageName("a.mp4"); got != "fixed-a.mp4" {
		t.Errorf("StorageName() = %q, want %q", got, "fixed-a.mp4")
	}
}
