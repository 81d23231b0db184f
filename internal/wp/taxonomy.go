package wp

import (
	"context"
	"net/url"
	"strings"

	"github.com/Jasonmellet/hogeye-seo-publisher-2026/pkg/logger"
)

// Taxonomies maps category and tag names to WordPress term ids,
// creating missing terms on demand. Lookups are cached for the life
// of one run.
type Taxonomies struct {
	client     *Client
	categories map[string]int
	tags       map[string]int
}

// NewTaxonomies wraps a client.
func NewTaxonomies(client *Client) *Taxonomies {
	return &Taxonomies{
		client:     client,
		categories: map[string]int{},
		tags:       map[string]int{},
	}
}

// CategoryID returns the term id for a category name, creating the
// category when it does not exist yet.
func (t *Taxonomies) CategoryID(ctx context.Context, name string) (int, error) {
	return t.getOrCreate(ctx, "categories", name, t.categories)
}

// TagID returns the term id for a tag name, creating the tag when it
// does not exist yet.
func (t *Taxonomies) TagID(ctx context.Context, name string) (int, error) {
	return t.getOrCreate(ctx, "tags", name, t.tags)
}

func (t *Taxonomies) getOrCreate(ctx context.Context, endpoint, name string, cache map[string]int) (int, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return 0, nil
	}
	if id, ok := cache[key]; ok {
		return id, nil
	}

	var terms []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	params := url.Values{"search": {name}, "per_page": {"100"}}
	if err := t.client.GetJSON(ctx, endpoint, params, &terms); err != nil {
		return 0, err
	}
	for _, term := range terms {
		if strings.ToLower(strings.TrimSpace(term.Name)) == key && term.ID != 0 {
			cache[key] = term.ID
			return term.ID, nil
		}
	}

	var created struct {
		ID int `json:"id"`
	}
	if err := t.client.PostJSON(ctx, endpoint, map[string]string{"name": name}, &created); err != nil {
		return 0, err
	}
	logger.Debug("created taxonomy term", logger.String("endpoint", endpoint), logger.String("name", name), logger.Int("id", created.ID))
	cache[key] = created.ID
	return created.ID, nil
}
