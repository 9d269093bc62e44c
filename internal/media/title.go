package media

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// mojibake maps UTF-8 punctuation that was decoded as Windows-1252 back to
// the intended characters.
var mojibake = strings.NewReplacer(
	"â€™", "’",
	"â€˜", "‘",
	"â€œ", "“",
	"â€\u009d", "”",
	"â€�", "”", // ” with the undefined byte replaced
	"â€“", "–",
	"â€”", "—",
	"â€¦", "…",
)

// maxRepairPasses bounds how many nested mis-decodings are undone.
const maxRepairPasses = 3

// NormalizeTitle repairs common mis-decoded punctuation and composes combining
// marks (NFC). Well-formed input is returned unchanged.
func NormalizeTitle(s string) string {
	for i := 0; i < maxRepairPasses; i++ {
		repaired := repairLatin1(s)
		if repaired == s {
			break
		}
		s = repaired
	}
	s = mojibake.Replace(s)
	return norm.NFC.String(s)
}

// repairLatin1 undoes a whole-string UTF-8 → Windows-1252 mis-decoding such as
// "cafÃ©" → "café". The string is only rewritten when re-encoding it yields
// valid UTF-8 that is strictly shorter in runes, which well-formed text never does.
func repairLatin1(s string) string {
	if !strings.ContainsAny(s, "ÂÃâ") {
		return s
	}

	raw, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil || !utf8.ValidString(raw) {
		return s
	}
	if utf8.RuneCountInString(raw) >= utf8.RuneCountInString(s) {
		return s
	}
	return raw
}

// TitleFromFilename derives a display title from a client file name: the
// extension is stripped, the text normalized, and the result truncated to
// maxLen characters.
func TitleFromFilename(originalName string, maxLen int) string {
	base := strings.TrimSuffix(originalName, filepath.Ext(originalName))
	title := strings.TrimSpace(NormalizeTitle(base))
	if title == "" {
		title = "Untitled"
	}
	if maxLen > 0 && utf8.RuneCountInString(title) > maxLen {
		title = string([]rune(title)[:maxLen])
	}
	return title
}
