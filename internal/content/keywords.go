package content

import "strings"

// KeywordSeed derives a short, de-duplicated keyword list from the
// item's title, slug, target keywords, and tags. Used to score media
// library candidates when the source file does not pin image ids.
func (i *Item) KeywordSeed() []string {
	var words []string
	words = append(words, splitWords(i.Title)...)
	words = append(words, splitWords(i.Slug)...)
	for _, k := range i.TargetKeywords {
		words = append(words, splitWords(k)...)
	}
	for _, t := range i.Tags {
		words = append(words, splitWords(t)...)
	}

	seen := make(map[string]struct{}, len(words))
	var out []string
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if len(w) < 4 {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) == 12 {
			break
		}
	}
	return out
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '\t' || r == '\n'
	})
}
