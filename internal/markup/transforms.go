package markup

import (
	"regexp"
	"strings"
)

// Text-level cleanups applied before block-level mutation. All are
// idempotent: tags that already carry a style attribute are left
// alone, and re-running any cleanup on its own output is a no-op.

var (
	dupStyleRe   = regexp.MustCompile(`style="([^"]*)"\s+style="([^"]*)"`)
	h2TagRe      = regexp.MustCompile(`(?i)<h2[^>]*>`)
	blankRunRe   = regexp.MustCompile(`\n{4,}`)
	openTagRe    = regexp.MustCompile(`(?i)<(p|h2|h3|li)((?:\s[^>]*)?)>`)
	hasStyleRe   = regexp.MustCompile(`(?i)\sstyle=`)
	spacingStyle = map[string]string{
		"p":  pStyle,
		"h2": h2Style,
		"h3": h3Style,
		"li": liStyle,
	}
)

// fixMalformedStyles collapses duplicate style attributes inside h2
// tags (style="a" style="b" -> style="a b"), which break the block
// editor.
func fixMalformedStyles(body string) string {
	return h2TagRe.ReplaceAllStringFunc(body, func(tag string) string {
		return dupStyleRe.ReplaceAllString(tag, `style="$1 $2"`)
	})
}

// addSpacingStyles gives p/h2/h3/li tags the theme's spacing styles
// when they have none.
func addSpacingStyles(body string) string {
	return openTagRe.ReplaceAllStringFunc(body, func(tag string) string {
		if hasStyleRe.MatchString(tag) {
			return tag
		}
		m := openTagRe.FindStringSubmatch(tag)
		name := strings.ToLower(m[1])
		return "<" + m[1] + m[2] + ` style="` + spacingStyle[name] + `">`
	})
}

// normalizeWhitespace collapses runs of four or more newlines while
// keeping intentional blank-line separation.
func normalizeWhitespace(body string) string {
	return blankRunRe.ReplaceAllString(body, "\n\n")
}

// CleanBody applies all text-level cleanups in order.
func CleanBody(body string) string {
	body = fixMalformedStyles(body)
	body = addSpacingStyles(body)
	return normalizeWhitespace(body)
}

var (
	tagStripRe = regexp.MustCompile(`<[^>]+>`)
	wordRe     = regexp.MustCompile(`\w+`)
)

// WordCount counts words in the markup with tags stripped. Drives the
// auto-TOC threshold.
func WordCount(body string) int {
	return len(wordRe.FindAllString(tagStripRe.ReplaceAllString(body, " "), -1))
}
