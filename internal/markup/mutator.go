package markup

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/content"
)

// Options tunes the mutation pass. Zero values fall back to the
// long-form defaults.
type Options struct {
	EnableTOC        bool
	TOCWordThreshold int
	MinImages        int
	MaxImages        int
}

func (o Options) withDefaults() Options {
	if o.TOCWordThreshold == 0 {
		o.TOCWordThreshold = 1500
	}
	if o.MinImages == 0 {
		o.MinImages = 2
	}
	if o.MaxImages == 0 {
		o.MaxImages = 4
	}
	return o
}

// Report lists what a mutation pass did and what it flagged. Nothing
// in here is ever silently dropped from the run summary.
type Report struct {
	Applied  []string
	Warnings []string
}

func (r *Report) applied(format string, args ...interface{}) {
	r.Applied = append(r.Applied, fmt.Sprintf(format, args...))
}

func (r *Report) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ProtectedMarkerError is the hard stop raised when a mutation would
// drop a safety-critical content fragment.
type ProtectedMarkerError struct {
	Marker string
}

func (e *ProtectedMarkerError) Error() string {
	return fmt.Sprintf("mutation would remove protected marker %q", e.Marker)
}

var labelPolicy = bluemonday.StrictPolicy()

// headingLabel extracts the plain-text label of a heading's inner HTML.
func headingLabel(inner string) string {
	return strings.TrimSpace(html.UnescapeString(labelPolicy.Sanitize(inner)))
}

// Apply runs the full idempotent mutation pass over body markup.
// On a protected-marker violation the original body is returned
// untouched alongside the error.
func Apply(body string, item *content.Item, opts Options) (string, *Report, error) {
	opts = opts.withDefaults()
	report := &Report{}

	cleaned := CleanBody(body)
	doc := Parse(cleaned)

	ensureHeadingAnchors(doc, report)
	dedupeSingular(doc, KindToc, report)
	dedupeSingular(doc, KindFaq, report)
	dedupeSingular(doc, KindCta, report)

	tocWanted := opts.EnableTOC || item.EnableTOC || WordCount(cleaned) >= opts.TOCWordThreshold
	if tocWanted {
		ensureTOC(doc, report)
	}
	if len(item.FAQ) > 0 {
		ensureFAQ(doc, item.FAQ, report)
	}
	if item.CallToAction != nil {
		ensureCTA(doc, *item.CallToAction, report)
	}
	distributeImages(doc, item, opts, report)

	out := doc.String()
	for _, marker := range item.ProtectedMarkers {
		if !strings.Contains(out, marker) {
			return body, report, &ProtectedMarkerError{Marker: marker}
		}
	}
	return out, report, nil
}

var (
	// Not anchored: a heading block's raw text may start with its
	// Gutenberg open comment rather than the tag itself.
	idAttrRe = regexp.MustCompile(`\sid="([^"]+)"`)
	h2OpenRe = regexp.MustCompile(`(?i)<h2([^>]*)>`)
)

// ensureHeadingAnchors gives every level-2 heading a stable id so TOC
// links have somewhere to land. Existing ids are kept; generated ids
// are slugified labels disambiguated with -2, -3, ... suffixes.
func ensureHeadingAnchors(doc *Document, report *Report) {
	used := map[string]bool{}
	for _, b := range doc.Blocks {
		for _, m := range idAttrRe.FindAllStringSubmatch(b.Raw, -1) {
			used[m[1]] = true
		}
	}

	added := 0
	for i, b := range doc.Blocks {
		if b.Kind != KindHeading || b.Level != 2 {
			continue
		}
		if idAttrRe.MatchString(h2OpenRe.FindString(b.Raw)) {
			continue
		}
		base := content.Slugify(headingLabel(b.InnerHTML))
		if base == "" {
			base = "section"
		}
		candidate := base
		for n := 2; used[candidate]; n++ {
			candidate = fmt.Sprintf("%s-%d", base, n)
		}
		used[candidate] = true
		doc.Blocks[i].Raw = h2OpenRe.ReplaceAllString(b.Raw, fmt.Sprintf(`<h2$1 id="%s">`, candidate))
		added++
	}
	if added > 0 {
		report.applied("added %d heading anchor id(s)", added)
	}
}

// anchorID returns the id attribute of a heading block's opening tag.
func anchorID(b Block) string {
	if m := idAttrRe.FindStringSubmatch(h2OpenRe.FindString(b.Raw)); m != nil {
		return m[1]
	}
	return ""
}

// dedupeSingular keeps the first block of a singular kind and removes
// the rest. Self-healing for duplicates left by earlier bad runs.
func dedupeSingular(doc *Document, kind Kind, report *Report) {
	seen := false
	kept := doc.Blocks[:0]
	removed := 0
	for _, b := range doc.Blocks {
		if b.Kind == kind {
			if seen {
				removed++
				continue
			}
			seen = true
		}
		kept = append(kept, b)
	}
	doc.Blocks = kept
	if removed > 0 {
		report.warn("removed %d duplicate %s block(s)", removed, kind)
	}
}

// ensureTOC inserts a table of contents immediately after the first
// heading, built from the level-2 headings in document order. A
// present TOC block means the work is already done.
func ensureTOC(doc *Document, report *Report) {
	if doc.Count(KindToc) > 0 {
		return
	}
	var entries []TocEntry
	for _, b := range doc.Blocks {
		if b.Kind != KindHeading || b.Level != 2 {
			continue
		}
		label := headingLabel(b.InnerHTML)
		if strings.HasPrefix(strings.ToLower(label), "frequently asked") {
			continue
		}
		if id := anchorID(b); id != "" {
			entries = append(entries, TocEntry{ID: id, Label: label})
		}
	}
	if len(entries) == 0 {
		return
	}
	first := doc.First(KindHeading)
	if first < 0 {
		return
	}
	doc.Insert(first+1, Block{Kind: KindToc, Raw: renderTOC(entries)})
	report.applied("inserted table of contents with %d entries", len(entries))
}

// ensureFAQ appends the visible FAQ section (with its JSON-LD twin)
// before the end of the document, ahead of a trailing CTA.
func ensureFAQ(doc *Document, faqs []content.QA, report *Report) {
	if doc.Count(KindFaq) > 0 {
		return
	}
	idx := len(doc.Blocks)
	if idx > 0 && doc.Blocks[idx-1].Kind == KindCta {
		idx--
	}
	doc.Insert(idx, Block{Kind: KindFaq, Raw: renderFAQ(faqs)})
	report.applied("inserted FAQ section with %d question(s)", len(faqs))
}

// ensureCTA appends the call-to-action banner at the end of the body.
func ensureCTA(doc *Document, cta content.CTA, report *Report) {
	if doc.Count(KindCta) > 0 {
		return
	}
	if cta.Heading == "" && cta.Text == "" {
		return
	}
	doc.Insert(len(doc.Blocks), Block{Kind: KindCta, Raw: renderCTA(cta)})
	report.applied("inserted call-to-action banner")
}

// distributeImages inserts missing in-body images after the paragraph
// that follows evenly-spaced level-2 headings. Images whose unique
// class already appears anywhere in the body are never inserted twice,
// and the featured image identity is never placed in the body.
func distributeImages(doc *Document, item *content.Item, opts Options, report *Report) {
	present := map[int]bool{}
	for _, b := range doc.Blocks {
		if b.Kind == KindImage && b.MediaID > 0 {
			present[b.MediaID] = true
		}
	}

	desired := item.ContentImageCount
	if desired == 0 {
		desired = opts.MaxImages
	}
	if desired < opts.MinImages {
		desired = opts.MinImages
	}
	if desired > opts.MaxImages {
		desired = opts.MaxImages
	}

	var candidates []content.Image
	for _, img := range item.Images {
		switch {
		case img.MediaID == 0 || img.URL == "":
			report.warn("skipping image without media id and url (%s)", img.Filename)
		case img.MediaID == item.FeaturedMediaID:
			report.warn("skipping image %d: matches featured image", img.MediaID)
		case present[img.MediaID]:
			// Already in the body; idempotence.
		default:
			candidates = append(candidates, img)
		}
	}

	needed := desired - len(present)
	if needed <= 0 || len(candidates) == 0 {
		return
	}
	if needed > len(candidates) {
		needed = len(candidates)
	}

	inserted := 0
	for _, img := range candidates[:needed] {
		pos := nextImageSlot(doc, inserted, needed)
		if pos < 0 {
			report.warn("no insertion point left for image %d", img.MediaID)
			break
		}
		doc.Insert(pos, Block{Kind: KindImage, Raw: renderImage(img), MediaID: img.MediaID})
		inserted++
	}
	if inserted > 0 {
		report.applied("inserted %d in-body image(s)", inserted)
	}
}

// nextImageSlot picks the insertion index for the n-th of total new
// images: after the paragraph following an evenly-spaced level-2
// heading, never directly adjacent to another image block.
func nextImageSlot(doc *Document, n, total int) int {
	var sections []int
	for i, b := range doc.Blocks {
		if b.Kind == KindHeading && b.Level == 2 {
			sections = append(sections, i)
		}
	}

	var anchors []int
	if len(sections) == 0 {
		// No headings: fall back to after the second paragraph.
		count := 0
		for i, b := range doc.Blocks {
			if b.Kind == KindParagraph {
				count++
				if count == 2 {
					anchors = append(anchors, i)
					break
				}
			}
		}
	} else {
		pick := sections[n*len(sections)/max(total, 1)%len(sections)]
		for i := pick + 1; i < len(doc.Blocks); i++ {
			if doc.Blocks[i].Kind == KindParagraph {
				anchors = append(anchors, i)
				break
			}
			if doc.Blocks[i].Kind == KindHeading {
				break
			}
		}
		if len(anchors) == 0 {
			anchors = append(anchors, pick)
		}
	}

	for _, a := range anchors {
		if a+1 <= len(doc.Blocks) {
			if doc.Blocks[a].Kind == KindImage {
				continue
			}
			if a+1 < len(doc.Blocks) && doc.Blocks[a+1].Kind == KindImage {
				continue
			}
			return a + 1
		}
	}
	return -1
}
