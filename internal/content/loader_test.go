package content

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDefaults(t *testing.T) {
	item, err := Decode([]byte(`{"title": "Summer Camp Packing List", "content": "<p>Pack light.</p>"}`), TypePost)
	require.NoError(t, err)

	assert.Equal(t, "summer-camp-packing-list", item.Slug)
	assert.Equal(t, StatusDraft, item.Status)
	assert.NotNil(t, item.Categories)
	assert.NotNil(t, item.Tags)
	assert.NotNil(t, item.ProtectedMarkers)
	assert.Equal(t, 0, item.RequiredFAQQuestions)
}

func TestDecodeMissingRequiredFields(t *testing.T) {
	tests := []struct {
		name     string
		document string
		field    string
	}{
		{"no content", `{"title": "x", "content": "  "}`, "content"},
		{"blank title", `{"title": "   ", "content": "<p>x</p>"}`, "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.document), TypePost)
			var missing *MissingFieldError
			require.True(t, errors.As(err, &missing), "expected MissingFieldError, got %v", err)
			assert.Equal(t, tt.field, missing.Field)
		})
	}
}

func TestDecodeSchemaRejection(t *testing.T) {
	_, err := Decode([]byte(`{"title": "x", "content": "<p>x</p>", "status": "live"}`), TypePost)
	var se *SchemaError
	require.True(t, errors.As(err, &se), "expected SchemaError, got %v", err)
	assert.NotEmpty(t, se.Problems)
}

func TestDecodeUnescapesHTMLStrings(t *testing.T) {
	doc := `{"title": "x", "content": "<a href=\\\"{{link:contact}}\\\">Contact</a>\\nSecond line &amp; more"}`
	item, err := Decode([]byte(doc), TypePage)
	require.NoError(t, err)
	assert.Contains(t, item.Body, `href="{{link:contact}}"`)
	assert.Contains(t, item.Body, "\nSecond line & more")
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Summer Camp Packing List", "summer-camp-packing-list"},
		{"Crème Brûlée 101", "creme-brulee-101"},
		{"  What's new? (2026) ", "whats-new-2026"},
		{"already-a-slug", "already-a-slug"},
		{"Multiple   spaces -- and_underscores", "multiple-spaces-and-underscores"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "Slugify(%q)", tt.in)
	}
}

func TestKeywordSeed(t *testing.T) {
	item := &Item{
		Title:          "Hogeye Ranch Summer Camp",
		Slug:           "hogeye-ranch-summer-camp",
		Tags:           []string{"summer camp", "ranch life", "fun"},
		TargetKeywords: []string{"horse riding camp"},
	}
	seed := item.KeywordSeed()
	assert.Contains(t, seed, "hogeye")
	assert.Contains(t, seed, "summer")
	assert.Contains(t, seed, "horse")
	assert.Contains(t, seed, "life", "four-letter words make the cut")
	assert.NotContains(t, seed, "fun", "words under four letters are dropped")
	assert.LessOrEqual(t, len(seed), 12)

	// De-dupe preserves first occurrence order.
	assert.Equal(t, "hogeye", seed[0])
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("b-post.json", `{"title": "B", "content": "<p>b</p>"}`)
	write("a-post.json", `{"title": "A", "content": "<p>a</p>"}`)
	write("broken.json", `{"title": ""`)
	write("notes.txt", "not json")

	items, errs := LoadDir(dir, TypePost, nil)
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].Title, "items are ordered by path")
	assert.Equal(t, "B", items[1].Title)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "broken.json")
}

func TestImageUniqueClass(t *testing.T) {
	assert.Equal(t, "wp-image-42", Image{MediaID: 42}.UniqueClass())
	assert.Equal(t, "", Image{Filename: "local.jpg"}.UniqueClass())
}
