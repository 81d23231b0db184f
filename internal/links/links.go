// Package links resolves {{link:slug}} placeholders in body markup
// against the slugs known to exist on the target site.
package links

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	// href="{{link:slug|Anchor}}" resolves to href="url"; the anchor
	// part is already the element's visible text.
	hrefRe = regexp.MustCompile(`(?i)href\s*=\s*(["'])\{\{link:([^|}]+)(?:\|[^}]+)?\}\}(["'])`)
	// Standalone {{link:slug}} or {{link:slug|anchor text}}.
	placeholderRe = regexp.MustCompile(`\{\{link:([^|}]+)(?:\|([^}]+))?\}\}`)
)

// Map holds slug to permalink mappings for one run. Aliases from the
// client config fill gaps for slugs that are not real entities on the
// site (hand-maintained landing pages, external canonical URLs).
type Map struct {
	urls map[string]string
}

// NewMap builds a link map from resolved site slugs plus aliases.
// Aliases never shadow a real slug.
func NewMap(siteSlugs, aliases map[string]string) *Map {
	m := &Map{urls: make(map[string]string, len(siteSlugs)+len(aliases))}
	for slug, url := range siteSlugs {
		m.Register(slug, url)
	}
	for slug, url := range aliases {
		if slug == "" || url == "" {
			continue
		}
		if _, ok := m.urls[slug]; !ok {
			m.urls[slug] = url
		}
	}
	return m
}

// Register records a slug to URL mapping, overwriting any previous one.
func (m *Map) Register(slug, url string) {
	if slug == "" || url == "" {
		return
	}
	m.urls[slug] = url
}

// URL looks up the permalink for a slug.
func (m *Map) URL(slug string) (string, bool) {
	u, ok := m.urls[slug]
	return u, ok
}

// Len returns the number of known mappings.
func (m *Map) Len() int { return len(m.urls) }

// Placeholders lists the target slugs of every placeholder in the
// body, in document order, duplicates included.
func Placeholders(body string) []string {
	var slugs []string
	for _, match := range placeholderRe.FindAllStringSubmatch(body, -1) {
		slugs = append(slugs, strings.TrimSpace(match[1]))
	}
	return slugs
}

// Resolve replaces every placeholder whose slug is known with a real
// hyperlink (or bare URL inside href attributes). Unknown slugs stay
// in place and come back as a sorted, de-duplicated list so the
// validation gate can report them.
func (m *Map) Resolve(body string) (string, []string) {
	unresolved := map[string]bool{}

	body = hrefRe.ReplaceAllStringFunc(body, func(match string) string {
		sub := hrefRe.FindStringSubmatch(match)
		if sub[1] != sub[3] {
			return match
		}
		slug := strings.TrimSpace(sub[2])
		url, ok := m.urls[slug]
		if !ok {
			return match
		}
		return fmt.Sprintf("href=%s%s%s", sub[1], url, sub[1])
	})

	body = placeholderRe.ReplaceAllStringFunc(body, func(match string) string {
		sub := placeholderRe.FindStringSubmatch(match)
		slug := strings.TrimSpace(sub[1])
		url, ok := m.urls[slug]
		if !ok {
			unresolved[slug] = true
			return match
		}
		if anchor := strings.TrimSpace(sub[2]); anchor != "" {
			return fmt.Sprintf(`<a href="%s">%s</a>`, url, anchor)
		}
		return url
	})

	missing := make([]string, 0, len(unresolved))
	for slug := range unresolved {
		missing = append(missing, slug)
	}
	sort.Strings(missing)
	return body, missing
}
