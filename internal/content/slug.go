package content

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent strips combining marks so accented titles produce clean
// ASCII slugs ("Crème Brûlée" -> "creme brulee").
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts a title into a URL-safe slug: lowercase, spaces to
// hyphens, everything outside [a-z0-9-] dropped, runs of hyphens
// collapsed.
func Slugify(title string) string {
	s, _, err := transform.String(deaccent, title)
	if err != nil {
		s = title
	}
	s = strings.ToLower(s)

	var b strings.Builder
	lastHyphen := true // suppress leading hyphens
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '-' || r == '_' || r == '\t':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
