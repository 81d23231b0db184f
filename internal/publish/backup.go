package publish

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/content"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/wp"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/pkg/safeio"
)

var unsafeSlugRe = regexp.MustCompile(`[^a-zA-Z0-9\-_]+`)

// BackupError marks a failed pre-update snapshot. The write it would
// have protected is never issued.
type BackupError struct {
	Err error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup failed, aborting before write: %v", e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }

// BackupStore writes pre-update snapshots of remote entities to local
// disk. Snapshots are append-only: a name collision is an error, never
// an overwrite, because these files are the rollback mechanism.
type BackupStore struct {
	Dir string

	// now is swappable for tests.
	now func() time.Time
}

// NewBackupStore roots a store at dir.
func NewBackupStore(dir string) *BackupStore {
	return &BackupStore{Dir: dir, now: time.Now}
}

// Write snapshots the entity's raw remote state. Returns the path of
// the written file. Any failure here must abort the update, so errors
// are never swallowed.
func (b *BackupStore) Write(ct content.Type, entity *wp.RemoteEntity) (string, error) {
	if len(entity.Raw) == 0 {
		return "", fmt.Errorf("no raw snapshot available for entity %d", entity.ID)
	}
	slug := unsafeSlugRe.ReplaceAllString(entity.Slug, "_")
	if slug == "" {
		slug = fmt.Sprintf("%d", entity.ID)
	}
	ts := b.now().UTC().Format("20060102T150405Z")
	path := filepath.Join(b.Dir, fmt.Sprintf("%s_%s_%d_%s.json", ct, slug, entity.ID, ts))
	if err := safeio.WriteFileNoClobber(path, entity.Raw); err != nil {
		return "", fmt.Errorf("writing backup %s: %w", path, err)
	}
	return path, nil
}
