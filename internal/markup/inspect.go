package markup

import (
	"regexp"
	"sort"
)

var h3Re = regexp.MustCompile(`(?i)<h3[\s>]`)

// InBodyImageIDs returns the sorted distinct media ids referenced by
// wp-image-N classes in the body markup.
func InBodyImageIDs(body string) []int {
	seen := map[int]bool{}
	for _, m := range imageIDRe.FindAllStringSubmatch(body, -1) {
		if id := atoiSafe(m[1]); id > 0 {
			seen[id] = true
		}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// FAQQuestionCount counts question headings inside the FAQ section.
// Returns 0 when no FAQ section is present.
func FAQQuestionCount(body string) int {
	doc := Parse(body)
	idx := doc.First(KindFaq)
	if idx < 0 {
		return 0
	}
	return len(h3Re.FindAllString(doc.Blocks[idx].Raw, -1))
}

// HasLevel2Heading reports whether the body contains at least one h2.
func HasLevel2Heading(body string) bool {
	for _, b := range Parse(body).Blocks {
		if b.Kind == KindHeading && b.Level == 2 {
			return true
		}
	}
	return false
}
