package markup

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/aymerick/raymond"

	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/content"
)

// Inline styles shared by inserted fragments. Matching the styles the
// site theme expects keeps inserted blocks visually consistent with
// hand-authored ones.
const (
	pStyle  = "margin-bottom: 1.5rem; line-height: 1.7;"
	h2Style = "margin-top: 2.5rem; margin-bottom: 1.5rem; line-height: 1.3;"
	h3Style = "margin-top: 2rem; margin-bottom: 1rem; line-height: 1.4;"
	liStyle = "margin-bottom: 0.5rem;"
)

const tocTemplate = `<div class="table-of-contents" style="background-color: #f9f9f9; padding: 2rem; margin: 2rem 0; border-left: 4px solid #0066cc; border-radius: 8px;">
<h3 style="margin-top: 0; margin-bottom: 1rem;">Table of Contents</h3>
<ul style="margin: 0; padding-left: 1.25rem;">
{{#each entries}}<li style="{{../liStyle}}"><a href="#{{id}}">{{label}}</a></li>
{{/each}}</ul>
</div>`

const faqTemplate = `<section class="faq-section">
<h2 style="{{h2Style}}">Frequently Asked Questions</h2>
{{#each faqs}}<h3 style="{{../h3Style}}">{{question}}</h3>
<p style="{{../pStyle}}">{{answer}}</p>
{{/each}}{{{jsonLD}}}
</section>`

const ctaTemplate = `<div class="cta-banner" style="background-color: #0066cc; color: #ffffff; padding: 2rem; margin: 2.5rem 0 0; border-radius: 8px; text-align: center;">
<h2 style="margin-top: 0; margin-bottom: 1rem; line-height: 1.3;">{{heading}}</h2>
<p style="margin-bottom: 1.5rem; line-height: 1.7;">{{text}}</p>
<p style="margin: 0;"><a class="cta-button" href="{{url}}" style="background-color: #ffffff; color: #0066cc; padding: 0.75rem 2rem; border-radius: 4px; text-decoration: none; font-weight: 700;">{{label}}</a></p>
</div>`

const imageTemplate = `<!-- wp:image {"align":"full","width":600,"height":400} -->
<figure class="wp-block-image alignfull" style="width:100%; max-width:100%"><img src="{{url}}" alt="{{alt}}" class="wp-image-{{id}}" style="max-width:100%; height:auto; border-radius:8px;"/></figure>
<!-- /wp:image -->`

var (
	tplOnce sync.Once
	tplTOC  *raymond.Template
	tplFAQ  *raymond.Template
	tplCTA  *raymond.Template
	tplImg  *raymond.Template
)

func compileTemplates() {
	tplTOC = raymond.MustParse(tocTemplate)
	tplFAQ = raymond.MustParse(faqTemplate)
	tplCTA = raymond.MustParse(ctaTemplate)
	tplImg = raymond.MustParse(imageTemplate)
}

// TocEntry is one table-of-contents row.
type TocEntry struct {
	ID    string
	Label string
}

func renderTOC(entries []TocEntry) string {
	tplOnce.Do(compileTemplates)
	rows := make([]map[string]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]string{"id": e.ID, "label": e.Label})
	}
	out, err := tplTOC.Exec(map[string]interface{}{"entries": rows, "liStyle": liStyle})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// faqJSONLD builds the structured-data annotation that mirrors the
// visible Q/A pairs. Marshaled in Go so the JSON is deterministic.
func faqJSONLD(faqs []content.QA) string {
	type answer struct {
		Type string `json:"@type"`
		Text string `json:"text"`
	}
	type question struct {
		Type           string `json:"@type"`
		Name           string `json:"name"`
		AcceptedAnswer answer `json:"acceptedAnswer"`
	}
	page := struct {
		Context    string     `json:"@context"`
		Type       string     `json:"@type"`
		MainEntity []question `json:"mainEntity"`
	}{
		Context: "https://schema.org",
		Type:    "FAQPage",
	}
	for _, qa := range faqs {
		page.MainEntity = append(page.MainEntity, question{
			Type: "Question",
			Name: qa.Question,
			AcceptedAnswer: answer{
				Type: "Answer",
				Text: qa.Answer,
			},
		})
	}
	data, err := json.Marshal(page)
	if err != nil {
		return ""
	}
	return fmt.Sprintf(`<script type="application/ld+json">%s</script>`, data)
}

// articleJSONLD builds the Article structured-data annotation for a
// blog post. Empty optional fields are omitted.
func articleJSONLD(item *content.Item, siteName, imageURL string) string {
	type organization struct {
		Type string `json:"@type"`
		Name string `json:"name"`
	}
	schema := struct {
		Context       string        `json:"@context"`
		Type          string        `json:"@type"`
		Headline      string        `json:"headline"`
		Description   string        `json:"description,omitempty"`
		Image         string        `json:"image,omitempty"`
		DatePublished string        `json:"datePublished,omitempty"`
		Publisher     *organization `json:"publisher,omitempty"`
	}{
		Context:       "https://schema.org",
		Type:          "Article",
		Headline:      item.Title,
		Description:   item.MetaDescription,
		Image:         imageURL,
		DatePublished: item.Date,
	}
	if schema.Description == "" {
		schema.Description = item.Excerpt
	}
	if siteName != "" {
		schema.Publisher = &organization{Type: "Organization", Name: siteName}
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return ""
	}
	return fmt.Sprintf(`<script type="application/ld+json">%s</script>`, data)
}

// EnsureArticleSchema prepends the Article JSON-LD script to a post
// body that does not already carry one. Pages are left alone.
func EnsureArticleSchema(body string, item *content.Item, siteName, imageURL string) string {
	if item.Type != content.TypePost || strings.Contains(body, `"@type":"Article"`) {
		return body
	}
	script := articleJSONLD(item, siteName, imageURL)
	if script == "" {
		return body
	}
	return script + "\n\n" + body
}

func renderFAQ(faqs []content.QA) string {
	tplOnce.Do(compileTemplates)
	rows := make([]map[string]string, 0, len(faqs))
	for _, qa := range faqs {
		rows = append(rows, map[string]string{"question": qa.Question, "answer": qa.Answer})
	}
	out, err := tplFAQ.Exec(map[string]interface{}{
		"faqs":    rows,
		"jsonLD":  faqJSONLD(faqs),
		"h2Style": h2Style,
		"h3Style": h3Style,
		"pStyle":  pStyle,
	})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func renderCTA(cta content.CTA) string {
	tplOnce.Do(compileTemplates)
	out, err := tplCTA.Exec(map[string]interface{}{
		"heading": cta.Heading,
		"text":    cta.Text,
		"label":   cta.ButtonLabel,
		"url":     cta.ButtonURL,
	})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func renderImage(img content.Image) string {
	tplOnce.Do(compileTemplates)
	out, err := tplImg.Exec(map[string]interface{}{
		"url": img.URL,
		"alt": img.Alt,
		"id":  img.MediaID,
	})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}
