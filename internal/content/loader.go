package content

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/schema"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/pkg/safeio"
)

// rawItem mirrors the on-disk JSON shape. Field names follow the
// source-file convention rather than Go style.
type rawItem struct {
	Title                string   `json:"title"`
	Slug                 string   `json:"slug"`
	Content              string   `json:"content"`
	BodyMarkup           string   `json:"bodyMarkup"`
	Excerpt              string   `json:"excerpt"`
	Status               string   `json:"status"`
	Date                 string   `json:"date"`
	MetaTitle            string   `json:"meta_title"`
	MetaDescription      string   `json:"meta_description"`
	FocusKeyword         string   `json:"focus_keyword"`
	Categories           []string `json:"categories"`
	Tags                 []string `json:"tags"`
	FeaturedMediaID      int      `json:"featured_media_id"`
	ContentImageCount    int      `json:"content_image_count"`
	EnableTOC            bool     `json:"enable_toc"`
	FAQ                  []QA     `json:"faq"`
	CallToAction         *CTA     `json:"cta"`
	RequiredFAQQuestions int      `json:"required_faq_questions"`
	ProtectedMarkers     []string `json:"protected_markers"`
	Images               []Image  `json:"images"`
	UpdateExisting       bool     `json:"_update_existing"`
	TargetKeywords       []string `json:"_target_keywords"`
}

// unescapeHTMLString undoes the JSON-escape artifacts editors leave
// inside large HTML string fields.
func unescapeHTMLString(s string) string {
	r := strings.NewReplacer(`\n`, "\n", `\"`, `"`, `\/`, "/", "&amp;", "&")
	return r.Replace(s)
}

// Load reads, validates, and normalizes a single content JSON file.
func Load(path string, contentType Type) (*Item, error) {
	clean, err := safeio.CleanUserPath(path)
	if err != nil {
		return nil, fmt.Errorf("content path %q: %w", path, err)
	}
	data, err := os.ReadFile(clean) // #nosec G304 -- path cleaned above
	if err != nil {
		return nil, fmt.Errorf("read content file: %w", err)
	}
	item, err := Decode(data, contentType)
	if err != nil {
		if se, ok := err.(*SchemaError); ok {
			se.Path = clean
		}
		return nil, err
	}
	item.SourcePath = clean
	return item, nil
}

// Decode validates raw JSON against the content-item schema, decodes
// it, and normalizes the result.
func Decode(data []byte, contentType Type) (*Item, error) {
	res, err := schema.Validate(schema.ContentItem, data)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		se := &SchemaError{}
		for _, e := range res.Errors {
			se.Problems = append(se.Problems, fmt.Sprintf("%s: %s", e.Path, e.Message))
		}
		return nil, se
	}

	var raw rawItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode content JSON: %w", err)
	}
	return normalize(raw, contentType)
}

// normalize converts a raw decoded item into a canonical Item, filling
// defaults and rejecting missing required fields. Pure transform.
func normalize(raw rawItem, contentType Type) (*Item, error) {
	title := strings.TrimSpace(unescapeHTMLString(raw.Title))
	if title == "" {
		return nil, &MissingFieldError{Field: "title"}
	}
	body := raw.Content
	if body == "" {
		body = raw.BodyMarkup
	}
	if strings.TrimSpace(body) == "" {
		return nil, &MissingFieldError{Field: "content"}
	}

	item := &Item{
		Type:                 contentType,
		Title:                title,
		Slug:                 strings.TrimSpace(raw.Slug),
		Body:                 unescapeHTMLString(body),
		Excerpt:              unescapeHTMLString(raw.Excerpt),
		Status:               Status(raw.Status),
		Date:                 raw.Date,
		MetaTitle:            unescapeHTMLString(raw.MetaTitle),
		MetaDescription:      unescapeHTMLString(raw.MetaDescription),
		FocusKeyword:         raw.FocusKeyword,
		Categories:           raw.Categories,
		Tags:                 raw.Tags,
		FeaturedMediaID:      raw.FeaturedMediaID,
		Images:               raw.Images,
		ContentImageCount:    raw.ContentImageCount,
		EnableTOC:            raw.EnableTOC,
		FAQ:                  raw.FAQ,
		CallToAction:         raw.CallToAction,
		RequiredFAQQuestions: raw.RequiredFAQQuestions,
		ProtectedMarkers:     raw.ProtectedMarkers,
		UpdateExisting:       raw.UpdateExisting,
		TargetKeywords:       raw.TargetKeywords,
	}

	if item.Slug == "" {
		item.Slug = Slugify(item.Title)
	}
	if item.Status == "" {
		item.Status = StatusDraft
	}
	if item.Categories == nil {
		item.Categories = []string{}
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}
	if item.ProtectedMarkers == nil {
		item.ProtectedMarkers = []string{}
	}
	return item, nil
}

// LoadDir loads every content file under dir whose relative path
// matches one of the glob patterns (default "**/*.json"). Results are
// ordered by path so batch runs are deterministic.
func LoadDir(dir string, contentType Type, patterns []string) ([]*Item, []error) {
	if len(patterns) == 0 {
		patterns = []string{"**/*.json"}
	}

	var paths []string
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(dir, p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		for _, pat := range patterns {
			if ok, _ := doublestar.Match(pat, rel); ok {
				paths = append(paths, p)
				return nil
			}
		}
		return nil
	})
	sort.Strings(paths)

	var items []*Item
	var errs []error
	for _, p := range paths {
		item, err := Load(p, contentType)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		items = append(items, item)
	}
	return items, errs
}
