package fs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"pm-go/internal/pm"
)

// OSFilesystemManager is the real filesystem implementation of FilesystemManager.
// It performs actual filesystem operations using the os package.
type OSFilesystemManager struct {
	ignore  *IgnoreMatcher
	clutter map[string]struct{}
}

// NewOSFilesystemManager creates a filesystem manager that skips paths matching
// ignore and deletes files whose base name is listed in clutter.
func NewOSFilesystemManager(ignore *IgnoreMatcher, clutter []string) *OSFilesystemManager {
	if ignore == nil {
		ignore = NewIgnoreMatcher(nil)
	}
	set := make(map[string]struct{}, len(clutter))
	for _, name := range clutter {
		set[name] = struct{}{}
	}
	return &OSFilesystemManager{ignore: ignore, clutter: set}
}

// Exists reports whether anything exists at path.
func (m *OSFilesystemManager) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// CopyFile copies src to dst through a temp file in dst's directory, then renames
// it into place. Permissions and timestamps are carried over from src.
func (m *OSFilesystemManager) CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", src)
	}

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, in); err != nil {
		tmpFile.Close()
		return fmt.Errorf("copying data: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Chtimes(tmpPath, accessTime(info), info.ModTime()); err != nil {
		return fmt.Errorf("setting timestamps: %w", err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}

// Rename moves src to dst, creating dst's parent directories.
func (m *OSFilesystemManager) Rename(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("renaming: %w", err)
	}
	return nil
}

// Remove deletes a single file.
func (m *OSFilesystemManager) Remove(path string) error {
	return os.Remove(path)
}

// Walk enumerates directories and regular files under root. Symlinks, devices,
// pipes and sockets are skipped.
func (m *OSFilesystemManager) Walk(root string, fn pm.WalkFunc) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("calculating relative path: %w", err)
		}
		if d.IsDir() {
			return fn(rel, true)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return fn(rel, false)
	})
}

// IsIgnored reports whether rel matches the ignore rules.
func (m *OSFilesystemManager) IsIgnored(rel string, isDir bool) bool {
	return m.ignore.Match(rel, isDir)
}

// IsClutter reports whether name is a configured clutter file name.
func (m *OSFilesystemManager) IsClutter(name string) bool {
	_, ok := m.clutter[name]
	return ok
}

// Compile-time check that OSFilesystemManager implements pm.FilesystemManager interface
var _ pm.FilesystemManager = (*OSFilesystemManager)(nil)
