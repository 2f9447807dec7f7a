package pm

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// SyncReport describes what a Sync pass found and changed.
type SyncReport struct {
	Removed []string // indexed paths missing on disk, dropped from the index
	Unknown []string // files on disk the index does not know
	Adopted []string // unknown files admitted into the index
	Clutter []string // OS artifacts deleted during the walk
}

// Changed reports whether the pass modified the index.
func (r *SyncReport) Changed() bool {
	return len(r.Removed) > 0 || len(r.Adopted) > 0
}

// Sync reconciles the directory tree with the index. Index entries whose files
// are gone are removed; files the index does not know are reported, or indexed
// by content hash when adopt is set. Hidden entries, ignored paths and clutter
// never reach the index. The index is saved when anything changed.
func (a *Archive) Sync(adopt bool) (*SyncReport, error) {
	report := &SyncReport{}

	onDisk, err := a.listFiles(report)
	if err != nil {
		return nil, err
	}
	present := make(map[string]struct{}, len(onDisk))
	for _, rel := range onDisk {
		present[rel] = struct{}{}
	}

	for _, rel := range a.index.Paths() {
		if _, ok := present[rel]; ok {
			continue
		}
		report.Removed = append(report.Removed, rel)
		if a.opts.DryRun {
			a.logger.Info("would drop missing file from index", "path", rel)
			continue
		}
		hash, _ := a.index.Lookup(rel)
		a.index.Remove(rel)
		a.logger.Info("dropped missing file from index", "path", rel)
		a.record("remove", "", Result{Status: StatusOK, Path: rel, Hash: hash}, "")
	}

	for _, rel := range onDisk {
		if _, ok := a.index.Lookup(rel); ok {
			continue
		}
		if adopt && a.adopt(rel) {
			report.Adopted = append(report.Adopted, rel)
			continue
		}
		report.Unknown = append(report.Unknown, rel)
		if !adopt {
			a.logger.Warn("file not in index", "path", rel)
		}
	}

	if report.Changed() {
		if err := a.Flush(); err != nil {
			return report, err
		}
	}

	a.logger.Debug("sync finished",
		"removed", len(report.Removed),
		"unknown", len(report.Unknown),
		"adopted", len(report.Adopted),
		"clutter", len(report.Clutter))
	return report, nil
}

// adopt indexes an unknown on-disk file by its content hash. Files whose content
// is already indexed elsewhere are left unknown.
func (a *Archive) adopt(rel string) bool {
	hash, err := a.hasher.HashFile(a.abs(rel))
	if err != nil {
		a.logger.Warn("cannot hash unknown file", "path", rel, "error", err)
		return false
	}
	if a.index.Exists(hash) {
		a.logger.Warn("unknown file duplicates archived content", "path", rel, "hash", hash)
		return false
	}
	if a.opts.DryRun {
		a.logger.Info("would adopt file", "path", rel)
		return true
	}
	if !a.index.Add(rel, hash, false) {
		a.logger.Error("index rejected unknown file", "path", rel, "hash", hash)
		return false
	}
	a.logger.Info("adopted file", "path", rel)
	a.record("adopt", "", Result{Status: StatusOK, Path: rel, Hash: hash}, "")
	return true
}

// listFiles walks the archive root and returns the relative paths of all candidate
// files, sorted. Clutter files are deleted (or reported in dry-run mode).
func (a *Archive) listFiles(report *SyncReport) ([]string, error) {
	var files []string
	err := a.fsmgr.Walk(a.root, func(rel string, isDir bool) error {
		name := filepath.Base(rel)
		if isDir {
			if strings.HasPrefix(name, ".") || a.fsmgr.IsIgnored(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if a.fsmgr.IsClutter(name) {
			report.Clutter = append(report.Clutter, filepath.ToSlash(rel))
			if a.opts.DryRun {
				a.logger.Info("would delete clutter", "path", rel)
				return nil
			}
			if err := a.fsmgr.Remove(filepath.Join(a.root, rel)); err != nil {
				a.logger.Warn("cannot delete clutter", "path", rel, "error", err)
			} else {
				a.logger.Debug("deleted clutter", "path", rel)
			}
			return nil
		}

		if strings.HasPrefix(name, ".") || a.fsmgr.IsIgnored(rel, false) {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking archive: %w", err)
	}
	slices.Sort(files)
	return files, nil
}
