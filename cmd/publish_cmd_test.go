package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/publish"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/wp"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/pkg/exitcode"
)

const validItemJSON = `{
  "title": "Owl Box Guide",
  "slug": "owl-box-guide",
  "content": "<h2>Setup</h2><p>Intro text.</p><figure><img src=\"a.jpg\" class=\"wp-image-101\"/></figure><figure><img src=\"b.jpg\" class=\"wp-image-102\"/></figure>",
  "featured_media_id": 900
}`

func writeWorkspace(t *testing.T, siteURL string) string {
	t.Helper()
	dir := t.TempDir()
	postsDir := filepath.Join(dir, "content", "posts")
	require.NoError(t, os.MkdirAll(postsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(postsDir, "owl-box-guide.json"), []byte(validItemJSON), 0o644))

	clientCfg := fmt.Sprintf(`{
  "schemaVersion": 1,
  "clientName": "Hogeye",
  "expectedWpSiteUrl": %q,
  "expectedWpSiteHost": "127.0.0.1",
  "environment": "development"
}`, siteURL)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "client.config.json"), []byte(clientCfg), 0o644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	return dir
}

func fakeWordPress(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Slug lookups come back empty: every item is a create.
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `[]`)
			return
		}
		var payload map[string]interface{}
		json.NewDecoder(r.Body).Decode(&payload)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": 321, "slug": payload["slug"], "status": payload["status"],
			"content": map[string]string{"raw": payload["content"].(string)},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setSiteEnv(t *testing.T, siteURL string) {
	t.Setenv("WP_SITE_URL", siteURL)
	t.Setenv("WP_USERNAME", "editor")
	t.Setenv("WP_APP_PASSWORD", "abcd efgh")
	t.Setenv("DRY_RUN", "")
}

func TestPublishDryRun(t *testing.T) {
	srv := fakeWordPress(t)
	writeWorkspace(t, srv.URL)
	setSiteEnv(t, srv.URL)

	root, out := newTestRoot()
	root.SetArgs([]string{"publish", "content/posts", "--dry-run"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "owl-box-guide")
	assert.Contains(t, out.String(), "dry run")
}

func TestPublishBlockedOnWrongSite(t *testing.T) {
	srv := fakeWordPress(t)
	writeWorkspace(t, srv.URL)
	setSiteEnv(t, "https://wrong.example.com")

	root, _ := newTestRoot()
	root.SetArgs([]string{"publish", "content/posts", "--dry-run"})
	root.SilenceErrors = true
	err := root.Execute()
	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, exitcode.PublishBlocked, ee.code)
}

func TestPublishMissingCredentials(t *testing.T) {
	srv := fakeWordPress(t)
	writeWorkspace(t, srv.URL)
	t.Setenv("WP_SITE_URL", "")
	t.Setenv("WP_USERNAME", "")
	t.Setenv("WP_APP_PASSWORD", "")

	root, _ := newTestRoot()
	root.SetArgs([]string{"publish", "content/posts"})
	root.SilenceErrors = true
	err := root.Execute()
	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, exitcode.ConfigError, ee.code)
}

func TestValidateCommand(t *testing.T) {
	srv := fakeWordPress(t)
	writeWorkspace(t, srv.URL)

	root, out := newTestRoot()
	root.SetArgs([]string{"validate", "content/posts"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "owl-box-guide: ok")
}

func TestValidateCommandFailure(t *testing.T) {
	dir := t.TempDir()
	bad := `{"title": "No Structure", "content": "<p>just a paragraph</p>"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(bad), 0o644))

	root, out := newTestRoot()
	root.SetArgs([]string{"validate", filepath.Join(dir, "bad.json"), "--type", "posts"})
	root.SilenceErrors = true
	err := root.Execute()
	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, exitcode.ValidationError, ee.code)
	assert.Contains(t, out.String(), "FAIL")
}

func TestBatchVerdictExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"timeout", fmt.Errorf("writing: %w", wp.ErrTimeout), exitcode.TimeoutError},
		{"network", fmt.Errorf("resolving: %w", wp.ErrUnavailable), exitcode.NetworkError},
		{"backup", &publish.BackupError{Err: errors.New("disk full")}, exitcode.FileSystemError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := batchVerdict([]*publish.ItemResult{{Slug: "x", Err: tt.err}}, 0)
			var ee *exitError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, tt.code, ee.code)
		})
	}

	// Timeouts outrank other failures in a mixed batch.
	err := batchVerdict([]*publish.ItemResult{
		{Slug: "a", Err: &publish.BackupError{Err: errors.New("disk full")}},
		{Slug: "b", Err: fmt.Errorf("writing: %w", wp.ErrTimeout)},
	}, 0)
	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, exitcode.TimeoutError, ee.code)
}

func TestLinksCommandLists(t *testing.T) {
	dir := t.TempDir()
	item := `{"title": "Linky", "content": "<p>{{link:contact|Reach out}}</p><h2>H</h2>"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "linky.json"), []byte(item), 0o644))

	root, out := newTestRoot()
	root.SetArgs([]string{"links", filepath.Join(dir, "linky.json"), "--type", "posts"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "1 placeholder(s)")
	assert.Contains(t, out.String(), "{{link:contact}}")
}
