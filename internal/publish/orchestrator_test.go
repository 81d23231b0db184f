package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/config"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/content"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/markup"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/wp"
)

const testBody = `<h2 id="setup">Setup</h2>
<p>Long intro text about owl boxes.</p>
<figure><img src="a.jpg" class="wp-image-101"/></figure>
<p>More text.</p>
<figure><img src="b.jpg" class="wp-image-102"/></figure>`

func testItem() *content.Item {
	return &content.Item{
		Type:            content.TypePost,
		Slug:            "owl-box-guide",
		Title:           "Owl Box Guide",
		Body:            testBody,
		Status:          content.StatusDraft,
		FeaturedMediaID: 900,
	}
}

// fakeSite simulates the WordPress REST endpoints the orchestrator
// touches and records the order of mutating calls.
type fakeSite struct {
	t            *testing.T
	existing     map[string]map[string]interface{} // slug -> entity
	media        []map[string]interface{}
	writtenBody  string
	calls        []string
	createdID    int
	updateStatus string
}

func newFakeSite(t *testing.T) *fakeSite {
	return &fakeSite{t: t, existing: map[string]map[string]interface{}{}, createdID: 500}
}

func (f *fakeSite) addExisting(slug, status, body string, id int) {
	f.existing[slug] = map[string]interface{}{
		"id":           id,
		"slug":         slug,
		"status":       status,
		"link":         "https://example.com/" + slug + "/",
		"modified_gmt": "2026-06-01T00:00:00",
		"content":      map[string]string{"raw": body},
	}
}

func (f *fakeSite) handler(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/wp-json/wp/v2/")
	switch {
	case r.Method == http.MethodGet && path == "posts":
		slug := r.URL.Query().Get("slug")
		f.calls = append(f.calls, "resolve "+slug)
		if e, ok := f.existing[slug]; ok {
			json.NewEncoder(w).Encode([]interface{}{e})
			return
		}
		fmt.Fprint(w, `[]`)
	case r.Method == http.MethodPost && path == "posts":
		var payload map[string]interface{}
		json.NewDecoder(r.Body).Decode(&payload)
		f.calls = append(f.calls, "create")
		f.writtenBody, _ = payload["content"].(string)
		f.updateStatus, _ = payload["status"].(string)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": f.createdID, "slug": payload["slug"], "status": payload["status"],
			"content": map[string]string{"raw": f.writtenBody},
		})
	case r.Method == http.MethodPost && strings.HasPrefix(path, "posts/"):
		var payload map[string]interface{}
		json.NewDecoder(r.Body).Decode(&payload)
		f.calls = append(f.calls, "update "+strings.TrimPrefix(path, "posts/"))
		f.writtenBody, _ = payload["content"].(string)
		f.updateStatus, _ = payload["status"].(string)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": 77, "status": payload["status"],
			"content": map[string]string{"raw": f.writtenBody},
		})
	case r.Method == http.MethodGet && strings.HasPrefix(path, "posts/"):
		f.calls = append(f.calls, "readback "+strings.TrimPrefix(path, "posts/"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": 77, "status": f.updateStatus,
			"content": map[string]string{"raw": f.writtenBody},
		})
	case r.Method == http.MethodGet && path == "media":
		json.NewEncoder(w).Encode(f.media)
	case r.Method == http.MethodGet && strings.HasPrefix(path, "media/"):
		want := strings.TrimPrefix(path, "media/")
		for _, m := range f.media {
			if fmt.Sprint(m["id"]) == want {
				json.NewEncoder(w).Encode(m)
				return
			}
		}
		http.NotFound(w, r)
	default:
		f.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		http.NotFound(w, r)
	}
}

func newOrchestrator(t *testing.T, site *fakeSite, backupDir string, opts Options) *Orchestrator {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(site.handler))
	t.Cleanup(srv.Close)
	client := wp.NewClient(wp.Config{SiteURL: srv.URL, Username: "u", AppPassword: "p"})
	return New(Deps{
		Client:   client,
		Resolver: wp.NewResolver(client),
		Media:    wp.NewMediaFinder(client),
		Profile: &config.Profile{
			MinImages: 2, MaxImages: 4, TOCWordThreshold: 1500,
			BackupDir: backupDir,
		},
	}, opts)
}

func TestCreateModeDefaultsToDraft(t *testing.T) {
	site := newFakeSite(t)
	o := newOrchestrator(t, site, t.TempDir(), Options{Status: content.StatusPublish})

	result := o.PublishItem(context.Background(), testItem())
	require.NoError(t, result.Err)
	assert.Equal(t, ModeCreate, result.Mode)
	assert.Equal(t, StateVerified, result.State)
	// Requested publish without --confirm: draft-first wins.
	assert.Equal(t, content.StatusDraft, result.StatusWritten)
	assert.Equal(t, "draft", site.updateStatus)
	assert.Empty(t, result.BackupPath)
	// Posts pick up Article structured data on the way out.
	assert.Contains(t, site.writtenBody, `"@type":"Article"`)
}

func TestUpdateBackupPrecedesWrite(t *testing.T) {
	site := newFakeSite(t)
	site.addExisting("owl-box-guide", "draft", "<p>old body</p>", 77)
	backupDir := t.TempDir()
	o := newOrchestrator(t, site, backupDir, Options{Status: content.StatusDraft})

	result := o.PublishItem(context.Background(), testItem())
	require.NoError(t, result.Err)
	require.Equal(t, ModeUpdate, result.Mode)
	assert.Equal(t, StateVerified, result.State)

	// Backup file exists and holds the pre-update snapshot.
	require.NotEmpty(t, result.BackupPath)
	data, err := os.ReadFile(result.BackupPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "old body")
	assert.Contains(t, filepath.Base(result.BackupPath), "posts_owl-box-guide_77_")

	// One mutating network call, issued after resolution; combined
	// with TestBackupFailureAbortsBeforeWrite this pins the ordering:
	// backup always lands on disk before the update goes out.
	assert.Equal(t, []string{"resolve owl-box-guide", "update 77", "readback 77"}, site.calls)
}

func TestBackupFailureAbortsBeforeWrite(t *testing.T) {
	site := newFakeSite(t)
	site.addExisting("owl-box-guide", "draft", "<p>old body</p>", 77)

	// Point the backup store at a path that cannot be created.
	blocked := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("file, not dir"), 0o644))
	o := newOrchestrator(t, site, filepath.Join(blocked, "backups"), Options{Status: content.StatusDraft})

	result := o.PublishItem(context.Background(), testItem())
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "backup failed")
	var be *BackupError
	assert.ErrorAs(t, result.Err, &be)
	// No mutating network call was issued.
	assert.Equal(t, []string{"resolve owl-box-guide"}, site.calls)
}

func TestPublishOverPublishRequiresConfirm(t *testing.T) {
	site := newFakeSite(t)
	site.addExisting("owl-box-guide", "publish", "<p>live body</p>", 77)
	o := newOrchestrator(t, site, t.TempDir(), Options{Status: content.StatusPublish})

	result := o.PublishItem(context.Background(), testItem())
	require.NoError(t, result.Err)
	assert.Equal(t, content.StatusDraft, result.StatusWritten)
	require.NotEmpty(t, result.Notices)
	assert.Contains(t, result.Notices[0], NoticePublishConfirmationRequired)
	assert.Equal(t, "draft", site.updateStatus)
}

func TestPublishOverPublishWithConfirm(t *testing.T) {
	site := newFakeSite(t)
	site.addExisting("owl-box-guide", "publish", "<p>live body</p>", 77)
	o := newOrchestrator(t, site, t.TempDir(), Options{Status: content.StatusPublish, Confirm: true})

	result := o.PublishItem(context.Background(), testItem())
	require.NoError(t, result.Err)
	assert.Equal(t, content.StatusPublish, result.StatusWritten)
	assert.Empty(t, result.Notices)
}

func TestValidationFailureDowngradesPublishToDraft(t *testing.T) {
	site := newFakeSite(t)
	o := newOrchestrator(t, site, t.TempDir(), Options{Status: content.StatusPublish})

	item := testItem()
	item.Body = `<p>No headings, no images, just text.</p>`
	result := o.PublishItem(context.Background(), item)
	require.NoError(t, result.Err)
	assert.NotEmpty(t, result.Failures)
	assert.Equal(t, content.StatusDraft, result.StatusWritten)
	assert.False(t, result.OK())
	// Draft still gets written despite the failures.
	assert.Equal(t, "draft", site.updateStatus)
}

func TestDryRunIssuesNoWrites(t *testing.T) {
	site := newFakeSite(t)
	site.addExisting("owl-box-guide", "draft", "<p>old</p>", 77)
	o := newOrchestrator(t, site, t.TempDir(), Options{Status: content.StatusDraft, DryRun: true})

	result := o.PublishItem(context.Background(), testItem())
	require.NoError(t, result.Err)
	assert.Equal(t, StateValidated, result.State)
	assert.Equal(t, []string{"resolve owl-box-guide"}, site.calls)
	require.NotEmpty(t, result.Notices)
	assert.Contains(t, result.Notices[0], "dry run")
}

func TestProtectedMarkerStopsBeforeAnyNetworkCall(t *testing.T) {
	site := newFakeSite(t)
	o := newOrchestrator(t, site, t.TempDir(), Options{Status: content.StatusDraft})

	item := testItem()
	item.ProtectedMarkers = []string{"countdown-widget-v2"}
	result := o.PublishItem(context.Background(), item)
	require.Error(t, result.Err)
	assert.Equal(t, StateRejected, result.State)
	assert.Contains(t, result.Err.Error(), "ProtectedContentRemoved")
	assert.Empty(t, site.calls)
}

func TestBatchIsolation(t *testing.T) {
	site := newFakeSite(t)
	o := newOrchestrator(t, site, t.TempDir(), Options{Status: content.StatusDraft})

	bad := testItem()
	bad.Slug = "bad-item"
	bad.ProtectedMarkers = []string{"missing-marker"}
	good := testItem()

	results := o.Run(context.Background(), []*content.Item{bad, good})
	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, StateVerified, results[1].State)
}

func TestFeaturedFallbackSkipsInBodyImages(t *testing.T) {
	site := newFakeSite(t)
	site.media = []map[string]interface{}{
		{"id": 101, "source_url": "https://cdn.example.com/a.jpg", "title": map[string]string{"rendered": "Owl box guide cover"}},
		{"id": 303, "source_url": "https://cdn.example.com/c.jpg", "title": map[string]string{"rendered": "Guide hero shot"}},
	}
	o := newOrchestrator(t, site, t.TempDir(), Options{Status: content.StatusDraft})

	item := testItem()
	item.FeaturedMediaID = 0
	result := o.PublishItem(context.Background(), item)
	require.NoError(t, result.Err)
	// 101 is already pinned in the body, so the library fallback must
	// pick the other candidate.
	assert.Equal(t, 303, item.FeaturedMediaID)
	assert.True(t, result.OK(), "failures: %v", result.Failures)
}

func TestMediaTopUpFillsSparseBody(t *testing.T) {
	site := newFakeSite(t)
	site.media = []map[string]interface{}{
		{"id": 201, "source_url": "https://cdn.example.com/field.jpg", "alt_text": "owls over a field", "title": map[string]string{"rendered": "Guide to owl fields"}},
		{"id": 202, "source_url": "https://cdn.example.com/box.jpg", "title": map[string]string{"rendered": "Owl box guide build"}},
	}
	o := newOrchestrator(t, site, t.TempDir(), Options{Status: content.StatusDraft})

	item := testItem()
	item.Body = `<h2>Setup</h2>
<p>Long intro text about owl boxes.</p>
<h2>Placement</h2>
<p>More text about where the box goes.</p>`
	result := o.PublishItem(context.Background(), item)
	require.NoError(t, result.Err)
	assert.True(t, result.OK(), "failures: %v", result.Failures)

	assert.Equal(t, []int{201, 202}, markup.InBodyImageIDs(site.writtenBody))
	assert.Contains(t, site.writtenBody, `alt="owls over a field"`)
}

func TestBackupStoreNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	store := NewBackupStore(dir)
	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	entity := &wp.RemoteEntity{ID: 9, Slug: "about", Raw: json.RawMessage(`{"id":9}`)}
	path, err := store.Write(content.TypePage, entity)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pages_about_9_20260801T120000Z.json"), path)

	_, err = store.Write(content.TypePage, entity)
	assert.Error(t, err)
}
