// Package content loads and normalizes the JSON content items that feed
// the publishing pipeline. Every field downstream code reads is present
// after normalization, so later stages never null-check defaults.
package content

import "fmt"

// Type selects the remote collection a content item belongs to. Values
// match the WordPress REST collection names.
type Type string

const (
	TypePage Type = "pages"
	TypePost Type = "posts"
)

// Valid reports whether the type is one of the supported collections.
func (t Type) Valid() bool {
	return t == TypePage || t == TypePost
}

// Status is the WordPress publication status.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusPublish Status = "publish"
	StatusPending Status = "pending"
	StatusPrivate Status = "private"
)

// Image describes one image attached to a content item, either by
// remote media id or by local filename awaiting upload.
type Image struct {
	MediaID     int    `json:"media_id,omitempty"`
	URL         string `json:"url,omitempty"`
	Filename    string `json:"filename,omitempty"`
	Alt         string `json:"alt,omitempty"`
	Caption     string `json:"caption,omitempty"`
	Description string `json:"description,omitempty"`
}

// QA is one visible FAQ question/answer pair.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// CTA is the call-to-action copy for the end-of-document banner.
type CTA struct {
	Heading     string `json:"heading,omitempty"`
	Text        string `json:"text,omitempty"`
	ButtonLabel string `json:"button_label,omitempty"`
	ButtonURL   string `json:"button_url,omitempty"`
}

// UniqueClass returns the CSS-class marker that identifies this image
// inside body markup. At most one occurrence may survive mutation.
func (i Image) UniqueClass() string {
	if i.MediaID > 0 {
		return fmt.Sprintf("wp-image-%d", i.MediaID)
	}
	return ""
}

// Item is the unit of work: one normalized page or post.
type Item struct {
	Type    Type
	Slug    string
	Title   string
	Body    string
	Excerpt string
	Status  Status
	Date    string

	MetaTitle       string
	MetaDescription string
	FocusKeyword    string

	Categories []string
	Tags       []string

	FeaturedMediaID   int
	Images            []Image
	ContentImageCount int

	EnableTOC            bool
	FAQ                  []QA
	CallToAction         *CTA
	RequiredFAQQuestions int // 0 means no enforcement

	ProtectedMarkers []string
	UpdateExisting   bool
	TargetKeywords   []string

	// SourcePath records which file this item came from, for reporting.
	SourcePath string
}

// MissingFieldError reports a required input field that was absent or empty.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// SchemaError reports that the raw JSON failed schema validation before
// decoding.
type SchemaError struct {
	Path     string
	Problems []string
}

func (e *SchemaError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("content file %s failed validation: %s", e.Path, e.Problems[0])
	}
	return fmt.Sprintf("content file %s failed validation with %d problems", e.Path, len(e.Problems))
}
