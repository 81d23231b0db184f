package wp

import (
	"encoding/json"
	"time"
)

// renderedField is WordPress's {"raw": ..., "rendered": ...} shape.
// context=edit responses carry raw; public responses only rendered.
type renderedField struct {
	Raw      string `json:"raw"`
	Rendered string `json:"rendered"`
}

// Value prefers raw over rendered.
func (f renderedField) Value() string {
	if f.Raw != "" {
		return f.Raw
	}
	return f.Rendered
}

// entityPayload mirrors the REST fields the pipeline reads.
type entityPayload struct {
	ID            int             `json:"id"`
	Slug          string          `json:"slug"`
	Status        string          `json:"status"`
	Link          string          `json:"link"`
	ModifiedGMT   string          `json:"modified_gmt"`
	Title         renderedField   `json:"title"`
	Content       renderedField   `json:"content"`
	Excerpt       renderedField   `json:"excerpt"`
	FeaturedMedia int             `json:"featured_media"`
	Categories    []int           `json:"categories"`
	Tags          []int           `json:"tags"`
}

// RemoteEntity is the current remote state for one slug and type.
// Fetched fresh each run; Raw preserves the untouched response bytes
// for the pre-write backup snapshot.
type RemoteEntity struct {
	ID            int
	Slug          string
	Status        string
	Link          string
	Title         string
	BodyMarkup    string
	Excerpt       string
	FeaturedMedia int
	Categories    []int
	Tags          []int
	LastModified  time.Time
	Raw           json.RawMessage
}

// wpTimeLayout is the timestamp format modified_gmt uses. These are
// UTC wall-clock values without a zone suffix.
const wpTimeLayout = "2006-01-02T15:04:05"

func entityFromRaw(raw json.RawMessage) (*RemoteEntity, error) {
	var p entityPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	e := &RemoteEntity{
		ID:            p.ID,
		Slug:          p.Slug,
		Status:        p.Status,
		Link:          p.Link,
		Title:         p.Title.Value(),
		BodyMarkup:    p.Content.Value(),
		Excerpt:       p.Excerpt.Value(),
		FeaturedMedia: p.FeaturedMedia,
		Categories:    p.Categories,
		Tags:          p.Tags,
		Raw:           raw,
	}
	if t, err := time.Parse(wpTimeLayout, p.ModifiedGMT); err == nil {
		e.LastModified = t.UTC()
	}
	return e, nil
}
