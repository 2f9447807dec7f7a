package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	pmfs "pm-go/internal/fs"
	"pm-go/internal/pm"
)

// FaultyFilesystem wraps the real filesystem manager and fails selected
// operations on demand.
type FaultyFilesystem struct {
	*pmfs.OSFilesystemManager

	// FailCopy makes CopyFile fail when set.
	FailCopy bool
	// FailRename makes Rename fail for a source path when set.
	FailRename map[string]bool
}

var _ pm.FilesystemManager = (*FaultyFilesystem)(nil)

// NewFaultyFilesystem wraps a real filesystem manager using the default
// ignore list and ".DS_Store" as clutter.
func NewFaultyFilesystem() *FaultyFilesystem {
	return &FaultyFilesystem{
		OSFilesystemManager: pmfs.NewOSFilesystemManager(pmfs.NewIgnoreMatcher(nil), []string{".DS_Store"}),
		FailRename:          make(map[string]bool),
	}
}

func (f *FaultyFilesystem) CopyFile(src, dst string) error {
	if f.FailCopy {
		return fmt.Errorf("injected copy failure: %s", src)
	}
	return f.OSFilesystemManager.CopyFile(src, dst)
}

func (f *FaultyFilesystem) Rename(src, dst string) error {
	if f.FailRename[src] {
		return fmt.Errorf("injected rename failure: %s", src)
	}
	return f.OSFilesystemManager.Rename(src, dst)
}

// WriteFile creates path with content, making parent directories, and
// returns path.
func WriteFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// WriteFileAt creates path with content and sets its modification time.
func WriteFileAt(t *testing.T, path, content string, mtime time.Time) string {
	t.Helper()
	WriteFile(t, path, content)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("setting times on %s: %v", path, err)
	}
	return path
}
