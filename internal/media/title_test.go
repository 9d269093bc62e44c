package media

import (
	"strings"
	"testing"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "ascii unchanged", input: "Holiday 2024", want: "Holiday 2024"},
		{name: "precomposed unchanged", input: "caf\u00e9 cr\u00e8me", want: "caf\u00e9 cr\u00e8me"},
		{name: "well-formed curly quotes unchanged", input: "Don’t “stop”", want: "Don’t “stop”"},
		{name: "circumflex unchanged", input: "pâté", want: "pâté"},
		{name: "combining mark composed", input: "cafe\u0301", want: "caf\u00e9"},
		{name: "mis-decoded apostrophe", input: "Donâ€™t stop", want: "Don’t stop"},
		{name: "mis-decoded double quotes", input: "â€œHelloâ€\u009d", want: "“Hello”"},
		{name: "mis-decoded en dash", input: "Part 1 â€“ Intro", want: "Part 1 – Intro"},
		{name: "mis-decoded em dash", input: "Wait â€” what", want: "Wait — what"},
		{name: "mis-decoded accented letters", input: "cafÃ© naÃ¯ve", want: "café naïve"},
		{name: "mixed repair", input: "Donâ€™t cafÃ©", want: "Don’t café"},
		{name: "mis-decoded twice", input: "cafÃƒÂ©", want: "café"},
		{name: "cjk unchanged", input: "東京の夜", want: "東京の夜"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTitle(tt.input); got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitle_Idempotent(t *testing.T) {
	inputs := []string{
		"Holiday 2024",
		"cafe\u0301",
		"Donâ€™t stop",
		"cafÃ© naÃ¯ve",
		"Part 1 â€“ Intro",
		"東京の夜",
		"Ünïcödé — “quoted”",
		"cafÃƒÂ©",
		"naÃƒÂ¯ve cafÃƒÂ©",
	}

	for _, in := range inputs {
		once := NormalizeTitle(in)
		twice := NormalizeTitle(once)
		if once != twice {
			t.Errorf("NormalizeTitle not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		name     string
		original string
		maxLen   int
		want     string
	}{
		{name: "extension stripped", original: "Holiday.mp4", maxLen: 200, want: "Holiday"},
		{name: "only last extension stripped", original: "my.holiday.mkv", maxLen: 200, want: "my.holiday"},
		{name: "normalized", original: "cafe\u0301.webm", maxLen: 200, want: "caf\u00e9"},
		{name: "repaired", original: "Donâ€™t.mp4", maxLen: 200, want: "Don’t"},
		{name: "whitespace trimmed", original: "  spaced  .mp4", maxLen: 200, want: "spaced"},
		{name: "empty base", original: ".mp4", maxLen: 200, want: "Untitled"},
		{name: "truncated by characters", original: strings.Repeat("\u00e9", 10) + ".mp4", maxLen: 5, want: strings.Repeat("\u00e9", 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleFromFilename(tt.original, tt.maxLen); got != tt.want {
				t.Errorf("TitleFromFilename(%q) = %q, want %q", tt.original, got, tt.want)
			}
		})
	}
}
