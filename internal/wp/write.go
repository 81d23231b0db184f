package wp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/content"
)

// WritePayload is the body of a create or update call. Zero-valued
// fields are omitted so updates only touch what the pipeline set.
type WritePayload struct {
	Title         string            `json:"title,omitempty"`
	Content       string            `json:"content,omitempty"`
	Excerpt       string            `json:"excerpt,omitempty"`
	Slug          string            `json:"slug,omitempty"`
	Status        string            `json:"status,omitempty"`
	Date          string            `json:"date,omitempty"`
	FeaturedMedia int               `json:"featured_media,omitempty"`
	Categories    []int             `json:"categories,omitempty"`
	Tags          []int             `json:"tags,omitempty"`
	Meta          map[string]string `json:"meta,omitempty"`
}

// YoastMeta builds the Yoast SEO meta fields for an item. Yoast
// expects underscore-prefixed keys over REST.
func YoastMeta(item *content.Item) map[string]string {
	meta := map[string]string{}
	if item.MetaTitle != "" {
		meta["_yoast_wpseo_title"] = item.MetaTitle
	}
	if item.MetaDescription != "" {
		meta["_yoast_wpseo_metadesc"] = item.MetaDescription
	}
	if item.FocusKeyword != "" {
		meta["_yoast_wpseo_focuskw"] = item.FocusKeyword
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

// Create makes a new entity of the given type and returns its remote
// state.
func (c *Client) Create(ctx context.Context, ct content.Type, payload WritePayload) (*RemoteEntity, error) {
	var raw json.RawMessage
	if err := c.PostJSON(ctx, string(ct), payload, &raw); err != nil {
		return nil, err
	}
	return entityFromRaw(raw)
}

// Update writes new state to an existing entity by id.
func (c *Client) Update(ctx context.Context, ct content.Type, id int, payload WritePayload) (*RemoteEntity, error) {
	var raw json.RawMessage
	if err := c.PostJSON(ctx, fmt.Sprintf("%s/%d", ct, id), payload, &raw); err != nil {
		return nil, err
	}
	return entityFromRaw(raw)
}
