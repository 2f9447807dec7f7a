package testutil

import (
	"path/filepath"
	"testing"

	"pm-go/internal/checksum"
	"pm-go/internal/database"
	"pm-go/internal/hashindex"
	"pm-go/internal/pm"
)

// ArchiveFixture is an archive rooted in a temp directory with its
// collaborators exposed for assertions.
type ArchiveFixture struct {
	Root    string
	Source  string // scratch directory for files to import
	Index   *hashindex.Index
	FS      *FaultyFilesystem
	DB      *database.SQLiteDatabase
	Clock   *StubClock
	Archive *pm.Archive
	OpID    int64
}

// NewArchiveFixture builds an archive over an empty temp directory with a
// journal attached.
func NewArchiveFixture(t *testing.T, opts pm.Options) *ArchiveFixture {
	t.Helper()
	return newArchiveFixture(t, t.TempDir(), opts)
}

// ReopenArchive builds a fresh archive over the same root, loading the ledger
// written by the previous one.
func (f *ArchiveFixture) ReopenArchive(t *testing.T, opts pm.Options) *ArchiveFixture {
	t.Helper()
	return newArchiveFixture(t, f.Root, opts)
}

func newArchiveFixture(t *testing.T, root string, opts pm.Options) *ArchiveFixture {
	t.Helper()

	idx, err := hashindex.Open(filepath.Join(root, hashindex.DefaultName))
	if err != nil {
		t.Fatalf("opening index: %v", err)
	}

	clock := FixedClock()
	db := NewTestDatabase(t)
	op, err := db.CreateOperation("test", "")
	if err != nil {
		t.Fatalf("creating operation: %v", err)
	}

	fsmgr := NewFaultyFilesystem()
	archive := pm.NewArchive(root, idx, fsmgr, checksum.NewMD5(), pm.NewNopLogger(), clock, opts)
	archive.AttachJournal(db, op.ID)

	return &ArchiveFixture{
		Root:    root,
		Source:  t.TempDir(),
		Index:   idx,
		FS:      fsmgr,
		DB:      db,
		Clock:   clock,
		Archive: archive,
		OpID:    op.ID,
	}
}

// SourceFile writes a file into the fixture's scratch directory.
func (f *ArchiveFixture) SourceFile(t *testing.T, name, content string) string {
	t.Helper()
	return WriteFile(t, filepath.Join(f.Source, filepath.FromSlash(name)), content)
}

// ArchiveFile writes a file directly into the archive tree, bypassing the index.
func (f *ArchiveFixture) ArchiveFile(t *testing.T, rel, content string) string {
	t.Helper()
	return WriteFile(t, filepath.Join(f.Root, filepath.FromSlash(rel)), content)
}

// Events returns the journal entries recorded for an archive path.
func (f *ArchiveFixture) Events(t *testing.T, rel string) []string {
	t.Helper()
	events, err := f.DB.FindEventsByArchivePath(rel)
	if err != nil {
		t.Fatalf("finding events: %v", err)
	}
	var actions []string
	for _, e := range events {
		actions = append(actions, e.Action+":"+e.Status)
	}
	return actions
}
