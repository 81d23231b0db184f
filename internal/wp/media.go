package wp

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// mediaItem mirrors the REST fields keyword scoring reads.
type mediaItem struct {
	ID        int           `json:"id"`
	SourceURL string        `json:"source_url"`
	AltText   string        `json:"alt_text"`
	Title     renderedField `json:"title"`
	Caption   renderedField `json:"caption"`
}

func (m mediaItem) score(keywords []string) int {
	hay := strings.ToLower(m.Title.Rendered + " " + m.AltText + " " + m.Caption.Rendered)
	score := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(hay, strings.ToLower(kw)) {
			score++
		}
	}
	return score
}

// MediaFinder locates library images relevant to a content item by
// keyword search and scoring against title, alt text, and caption.
type MediaFinder struct {
	client *Client
}

// NewMediaFinder wraps a client.
func NewMediaFinder(client *Client) *MediaFinder {
	return &MediaFinder{client: client}
}

// FindBest returns up to limit media ids ranked by keyword relevance,
// skipping excluded ids. Falls back to the most recent uploads when
// no keyword search matches anything.
func (f *MediaFinder) FindBest(ctx context.Context, keywords []string, exclude []int, limit int) ([]int, error) {
	excluded := map[int]bool{}
	for _, id := range exclude {
		excluded[id] = true
	}

	scores := map[int]int{}
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		var items []mediaItem
		params := url.Values{"search": {kw}, "per_page": {"20"}}
		if err := f.client.GetJSON(ctx, "media", params, &items); err != nil {
			continue
		}
		for _, it := range items {
			if it.ID == 0 || excluded[it.ID] {
				continue
			}
			if s := it.score(keywords); s > scores[it.ID] {
				scores[it.ID] = s
			}
		}
	}

	if len(scores) == 0 {
		var items []mediaItem
		if err := f.client.GetJSON(ctx, "media", url.Values{"per_page": {"50"}}, &items); err != nil {
			return nil, err
		}
		for _, it := range items {
			if it.ID == 0 || excluded[it.ID] {
				continue
			}
			scores[it.ID] = it.score(keywords)
		}
	}

	ids := make([]int, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// URLAndAlt fetches the source URL and alt text of one media item.
// Alt text falls back to the media title.
func (f *MediaFinder) URLAndAlt(ctx context.Context, mediaID int) (string, string, error) {
	var item mediaItem
	if err := f.client.GetJSON(ctx, fmt.Sprintf("media/%d", mediaID), nil, &item); err != nil {
		return "", "", err
	}
	alt := item.AltText
	if alt == "" {
		alt = item.Title.Rendered
	}
	return item.SourceURL, alt, nil
}
