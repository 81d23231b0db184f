// Package markup parses Gutenberg-style body markup into a sequence of
// typed blocks and applies the idempotent layout mutations (TOC, FAQ,
// CTA, in-body images). Whether a TOC already exists is a structural
// question about the block sequence, never a substring guess.
package markup

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Kind classifies a top-level block.
type Kind int

const (
	KindRaw Kind = iota
	KindParagraph
	KindHeading
	KindImage
	KindToc
	KindFaq
	KindCta
)

func (k Kind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindHeading:
		return "heading"
	case KindImage:
		return "image"
	case KindToc:
		return "toc"
	case KindFaq:
		return "faq"
	case KindCta:
		return "cta"
	default:
		return "raw"
	}
}

// Marker classes embedded in fragments this tool inserts. Their
// presence in a parsed block is the idempotence signal.
const (
	tocClass = "table-of-contents"
	faqClass = "faq-section"
	ctaClass = "cta-banner"
)

// Block is one top-level unit of body markup. Raw holds the exact
// source text, so untouched blocks round-trip byte-identically.
type Block struct {
	Kind Kind
	Raw  string

	// Heading-only fields.
	Level     int
	InnerHTML string

	// Image-only field: the wp-image-N media id, 0 when unknown.
	MediaID int
}

// Document is a parsed body.
type Document struct {
	Blocks []Block
}

// String reassembles the document. Blocks are joined with blank lines;
// block bytes themselves are preserved.
func (d *Document) String() string {
	parts := make([]string, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		parts = append(parts, b.Raw)
	}
	return strings.Join(parts, "\n\n")
}

// First returns the index of the first block of the given kind, or -1.
func (d *Document) First(kind Kind) int {
	for i, b := range d.Blocks {
		if b.Kind == kind {
			return i
		}
	}
	return -1
}

// Count returns how many blocks of the given kind exist.
func (d *Document) Count(kind Kind) int {
	n := 0
	for _, b := range d.Blocks {
		if b.Kind == kind {
			n++
		}
	}
	return n
}

// Insert places a block at index i, shifting the rest right.
func (d *Document) Insert(i int, b Block) {
	if i < 0 {
		i = 0
	}
	if i > len(d.Blocks) {
		i = len(d.Blocks)
	}
	d.Blocks = append(d.Blocks, Block{})
	copy(d.Blocks[i+1:], d.Blocks[i:])
	d.Blocks[i] = b
}

var (
	wpOpenRe    = regexp.MustCompile(`^\s*wp:([a-z0-9/_-]+)`)
	wpCloseRe   = regexp.MustCompile(`^\s*/wp:([a-z0-9/_-]+)`)
	wpSelfRe    = regexp.MustCompile(`/-->\s*$`)
	imageIDRe   = regexp.MustCompile(`wp-image-(\d+)`)
	headingRe   = regexp.MustCompile(`(?is)<h([1-6])[^>]*>(.*?)</h[1-6]\s*>`)
	classAttrRe = regexp.MustCompile(`(?i)\sclass\s*=\s*"([^"]*)"`)
)

// voidElements never receive a closing tag; depth tracking must not
// wait for one.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Parse splits body markup into typed top-level blocks. Gutenberg
// comment pairs (<!-- wp:x --> ... <!-- /wp:x -->) and self-closing
// comments are kept whole; plain HTML is split at top-level elements.
func Parse(markup string) *Document {
	doc := &Document{}
	z := html.NewTokenizer(strings.NewReader(markup))

	var chunk strings.Builder // current top-level chunk
	var chunkTag string       // tag that opened the chunk
	var chunkClass string     // class attr of the opening tag
	var innerHTML strings.Builder
	depth := 0

	var wpName string // non-empty while inside a Gutenberg comment pair

	flush := func() {
		raw := chunk.String()
		if strings.TrimSpace(raw) == "" {
			chunk.Reset()
			innerHTML.Reset()
			chunkTag, chunkClass = "", ""
			return
		}
		doc.Blocks = append(doc.Blocks, classify(raw, chunkTag, chunkClass, strings.TrimSpace(innerHTML.String())))
		chunk.Reset()
		innerHTML.Reset()
		chunkTag, chunkClass = "", ""
	}

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			flush()
			break
		}
		raw := string(z.Raw())

		if wpName != "" {
			// Inside a Gutenberg block: accumulate until the matching
			// close comment.
			chunk.WriteString(raw)
			if tt == html.CommentToken {
				if m := wpCloseRe.FindStringSubmatch(commentText(raw)); m != nil && m[1] == wpName {
					wpName = ""
					flush()
				}
			}
			continue
		}

		switch tt {
		case html.CommentToken:
			text := commentText(raw)
			if m := wpOpenRe.FindStringSubmatch(text); m != nil && depth == 0 {
				flush()
				chunk.WriteString(raw)
				if wpSelfRe.MatchString(raw) {
					flush() // self-closing block comment
				} else {
					wpName = m[1]
				}
				continue
			}
			chunk.WriteString(raw)
		case html.StartTagToken:
			tag, attrs := tagAndAttrs(z)
			if depth == 0 {
				flush()
				chunkTag = tag
				chunkClass = attrs["class"]
			} else {
				innerHTML.WriteString(raw)
			}
			chunk.WriteString(raw)
			if !voidElements[tag] {
				depth++
			}
		case html.EndTagToken:
			tag, _ := tagAndAttrs(z)
			if depth > 0 {
				depth--
			}
			if depth > 0 {
				innerHTML.WriteString(raw)
			}
			chunk.WriteString(raw)
			if depth == 0 && tag == chunkTag {
				flush()
			}
		case html.SelfClosingTagToken:
			if depth == 0 {
				flush()
				tag, attrs := tagAndAttrs(z)
				chunkTag = tag
				chunkClass = attrs["class"]
				chunk.WriteString(raw)
				flush()
			} else {
				innerHTML.WriteString(raw)
				chunk.WriteString(raw)
			}
		default: // text, doctype
			if depth == 0 && strings.TrimSpace(raw) != "" && chunk.Len() == 0 {
				// Bare top-level text becomes its own raw block.
				chunk.WriteString(raw)
				flush()
				continue
			}
			if depth > 0 {
				innerHTML.WriteString(raw)
			}
			if chunk.Len() > 0 || strings.TrimSpace(raw) != "" {
				chunk.WriteString(raw)
			}
		}
	}
	return doc
}

func commentText(raw string) string {
	s := strings.TrimPrefix(raw, "<!--")
	s = strings.TrimSuffix(strings.TrimSpace(s), "-->")
	return strings.TrimSpace(s)
}

func tagAndAttrs(z *html.Tokenizer) (string, map[string]string) {
	name, hasAttr := z.TagName()
	attrs := map[string]string{}
	for hasAttr {
		var k, v []byte
		k, v, hasAttr = z.TagAttr()
		attrs[string(k)] = string(v)
	}
	return string(name), attrs
}

// classify decides the Kind of a finished chunk.
func classify(raw, tag, class, inner string) Block {
	b := Block{Kind: KindRaw, Raw: raw}

	if strings.HasPrefix(strings.TrimSpace(raw), "<!--") {
		// Gutenberg comment block: classify by block name, with the
		// same marker-class and heading treatment the inner HTML would
		// get if it stood alone.
		if m := wpOpenRe.FindStringSubmatch(commentText(strings.TrimSpace(raw))); m != nil {
			if cm := classAttrRe.FindStringSubmatch(raw); cm != nil {
				switch {
				case strings.Contains(cm[1], tocClass):
					b.Kind = KindToc
					return b
				case strings.Contains(cm[1], faqClass):
					b.Kind = KindFaq
					return b
				case strings.Contains(cm[1], ctaClass):
					b.Kind = KindCta
					return b
				}
			}
			switch m[1] {
			case "image":
				b.Kind = KindImage
				if im := imageIDRe.FindStringSubmatch(raw); im != nil {
					b.MediaID = atoiSafe(im[1])
				}
			case "heading":
				if hm := headingRe.FindStringSubmatch(raw); hm != nil {
					b.Kind = KindHeading
					b.Level = int(hm[1][0] - '0')
					b.InnerHTML = strings.TrimSpace(hm[2])
				}
			case "paragraph":
				b.Kind = KindParagraph
			}
		}
		return b
	}

	switch {
	case strings.Contains(class, tocClass):
		b.Kind = KindToc
	case strings.Contains(class, faqClass):
		b.Kind = KindFaq
	case strings.Contains(class, ctaClass):
		b.Kind = KindCta
	case len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6':
		b.Kind = KindHeading
		b.Level = int(tag[1] - '0')
		b.InnerHTML = inner
	case tag == "p":
		b.Kind = KindParagraph
	case tag == "figure" || tag == "img":
		if im := imageIDRe.FindStringSubmatch(raw); im != nil {
			b.Kind = KindImage
			b.MediaID = atoiSafe(im[1])
		}
	}
	return b
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
