package wp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/content"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/pkg/logger"
)

// DuplicateEntityWarning is surfaced when more than one remote entity
// matches a slug. Non-fatal; the resolver picks a winner but the
// operator needs to know the store is inconsistent.
type DuplicateEntityWarning struct {
	Slug string
	IDs  []int
}

func (w *DuplicateEntityWarning) String() string {
	return fmt.Sprintf("multiple entities share slug %q: ids %v", w.Slug, w.IDs)
}

// Resolver answers "does this slug already exist remotely" and fetches
// entities by id for read-back verification. Nothing is cached across
// runs.
type Resolver struct {
	client *Client
}

// NewResolver wraps a client.
func NewResolver(client *Client) *Resolver {
	return &Resolver{client: client}
}

// Resolve finds the remote entity for a slug and type. Returns
// ErrNotFound when nothing matches. When several entities share the
// slug, the most recently modified wins (higher id breaks a tie) and
// a DuplicateEntityWarning reports every candidate id.
func (r *Resolver) Resolve(ctx context.Context, ct content.Type, slug string) (*RemoteEntity, *DuplicateEntityWarning, error) {
	params := url.Values{
		"slug":     {slug},
		"status":   {"any"},
		"per_page": {"10"},
		"context":  {"edit"},
	}
	var raws []json.RawMessage
	if err := r.client.GetJSON(ctx, string(ct), params, &raws); err != nil {
		return nil, nil, err
	}
	if len(raws) == 0 {
		return nil, nil, fmt.Errorf("%w: %s %q", ErrNotFound, ct, slug)
	}

	entities := make([]*RemoteEntity, 0, len(raws))
	for _, raw := range raws {
		e, err := entityFromRaw(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("decoding entity for slug %q: %w", slug, err)
		}
		entities = append(entities, e)
	}

	if len(entities) == 1 {
		return entities[0], nil, nil
	}

	sort.Slice(entities, func(i, j int) bool {
		if !entities[i].LastModified.Equal(entities[j].LastModified) {
			return entities[i].LastModified.After(entities[j].LastModified)
		}
		return entities[i].ID > entities[j].ID
	})
	warn := &DuplicateEntityWarning{Slug: slug}
	for _, e := range entities {
		warn.IDs = append(warn.IDs, e.ID)
	}
	logger.Warn("duplicate entities for slug", logger.String("slug", slug), logger.Int("winner", entities[0].ID))
	return entities[0], warn, nil
}

// ResolveByID fetches a single entity, used for post-write
// verification.
func (r *Resolver) ResolveByID(ctx context.Context, ct content.Type, id int) (*RemoteEntity, error) {
	params := url.Values{"context": {"edit"}}
	var raw json.RawMessage
	endpoint := fmt.Sprintf("%s/%d", ct, id)
	if err := r.client.GetJSON(ctx, endpoint, params, &raw); err != nil {
		return nil, err
	}
	return entityFromRaw(raw)
}

// SlugMap walks every page and post on the site and returns the
// slug to permalink mapping internal-link resolution needs.
func (r *Resolver) SlugMap(ctx context.Context) (map[string]string, error) {
	out := map[string]string{}
	for _, ct := range []content.Type{content.TypePage, content.TypePost} {
		for page := 1; ; page++ {
			params := url.Values{
				"per_page": {"100"},
				"page":     {strconv.Itoa(page)},
				"status":   {"any"},
			}
			var items []struct {
				Slug string `json:"slug"`
				Link string `json:"link"`
			}
			if err := r.client.GetJSON(ctx, string(ct), params, &items); err != nil {
				// Paging past the end is a 400 from WordPress, not an
				// empty list.
				var apiErr *APIError
				if errors.As(err, &apiErr) && page > 1 {
					break
				}
				return nil, err
			}
			if len(items) == 0 {
				break
			}
			for _, it := range items {
				if it.Slug != "" && it.Link != "" {
					out[it.Slug] = it.Link
				}
			}
		}
	}
	return out, nil
}
