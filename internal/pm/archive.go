package pm

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"pm-go/internal/model"
)

// Options is the run mode threaded into the archive at construction.
type Options struct {
	// DryRun reports what would happen without touching files, the index or the ledger.
	DryRun bool

	// MaxSeq bounds the sequence suffix per capture second. Zero means DefaultMaxSeq.
	MaxSeq int

	// Location interprets timestamps that carry no zone. Nil means time.Local.
	Location *time.Location
}

// Archive is the orchestration layer over the hash index and the timestamp resolver.
// It files content under canonical date paths, relocates misfiled items and reconciles
// the directory tree with the index. It owns the index's lifecycle: the caller must
// call Close when the session ends.
type Archive struct {
	root     string
	index    Index
	fsmgr    FilesystemManager
	hasher   Hasher
	logger   Logger
	clock    Clock
	opts     Options
	database Database
	opID     int64
}

// NewArchive creates an Archive rooted at the absolute directory root.
func NewArchive(root string, index Index, fsmgr FilesystemManager, hasher Hasher, logger Logger, clock Clock, opts Options) *Archive {
	if opts.MaxSeq <= 0 {
		opts.MaxSeq = DefaultMaxSeq
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Archive{
		root:   root,
		index:  index,
		fsmgr:  fsmgr,
		hasher: hasher,
		logger: logger,
		clock:  clock,
		opts:   opts,
	}
}

// AttachJournal makes the archive record per-file events under operationID.
func (a *Archive) AttachJournal(database Database, operationID int64) {
	a.database = database
	a.opID = operationID
}

// Root returns the archive root directory.
func (a *Archive) Root() string {
	return a.root
}

// Exists reports whether content with the given hash is already archived.
func (a *Archive) Exists(hash string) bool {
	return a.index.Exists(hash)
}

// AddFile copies src into the archive at the canonical path for at.
// The source is never moved or modified. Content already archived is reported as
// StatusDupe unless overwrite is set, in which case the content is re-filed and
// the file at its previous path is deleted.
func (a *Archive) AddFile(src string, at time.Time, overwrite bool) Result {
	hash, err := a.hasher.HashFile(src)
	if err != nil {
		a.logger.Warn("cannot hash source", "path", src, "error", err)
		return failed("md5", fmt.Errorf("%w: %v", ErrUnreadableSource, err))
	}

	if a.index.Exists(hash) && !overwrite {
		a.logger.Debug("ignoring duplicate content", "path", src, "hash", hash)
		return Result{Status: StatusDupe, Hash: hash}
	}

	rel, ok := a.nextFreePath(at, NormalizeExt(filepath.Ext(src)))
	if !ok {
		a.logger.Error("too many filename collisions", "path", src, "time", at.Format(time.DateTime))
		return Result{Status: StatusCollision, Hash: hash, Err: fmt.Errorf("%w: %s", ErrCollision, src)}
	}

	if a.opts.DryRun {
		a.logger.Info("would add file", "source", src, "path", rel)
		if old, ok := a.index.PathOf(hash); ok {
			a.logger.Info("would delete replaced file", "path", old)
		}
		return Result{Status: StatusOK, Path: rel, Hash: hash}
	}

	displaced, _ := a.index.PathOf(hash)

	dst := a.abs(rel)
	if err := a.fsmgr.CopyFile(src, dst); err != nil {
		a.logger.Error("copy failed", "source", src, "path", rel, "error", err)
		r := failed("copy", fmt.Errorf("copying %s: %w", src, err))
		r.Hash = hash
		return r
	}

	if !a.index.Add(rel, hash, overwrite) {
		if err := a.fsmgr.Remove(dst); err != nil {
			a.logger.Error("cannot remove rejected copy", "path", rel, "error", err)
		}
		a.logger.Error("index rejected new file", "path", rel, "hash", hash)
		r := failed("add", fmt.Errorf("%w: index rejected %s", ErrIndexInconsistency, rel))
		r.Hash = hash
		return r
	}

	if displaced != "" && displaced != rel {
		a.removeDisplaced(displaced, hash)
	}

	a.logger.Info("file added", "source", src, "path", rel)
	return Result{Status: StatusOK, Path: rel, Hash: hash}
}

// removeDisplaced deletes the file an overwriting add evicted from the index,
// so no unindexed copy of indexed content stays on disk.
func (a *Archive) removeDisplaced(rel, hash string) {
	abs := a.abs(rel)
	if a.fsmgr.Exists(abs) {
		if err := a.fsmgr.Remove(abs); err != nil {
			a.logger.Error("cannot delete replaced file", "path", rel, "error", err)
			return
		}
	}
	a.logger.Info("deleted replaced file", "path", rel, "hash", hash)
	a.record("remove", "", Result{Status: StatusOK, Path: rel, Hash: hash}, "")
}

// MoveFile relocates an archived file to the canonical path for at.
// current may be absolute or relative to the archive root. A file already filed
// under the right second is left alone (StatusSame). If the index refuses the
// rename, the file is moved back so disk and index stay consistent.
func (a *Archive) MoveFile(current string, at time.Time) Result {
	oldRel, err := a.rel(current)
	if err != nil {
		return failed("rename", err)
	}

	if isFiledAt(oldRel, at) {
		return Result{Status: StatusSame, Path: oldRel}
	}

	newRel, ok := a.nextFreePath(at, NormalizeExt(path.Ext(oldRel)))
	if !ok {
		a.logger.Error("too many filename collisions", "path", oldRel, "time", at.Format(time.DateTime))
		return Result{Status: StatusCollision, Err: fmt.Errorf("%w: %s", ErrCollision, oldRel)}
	}

	hash, _ := a.index.Lookup(oldRel)

	if a.opts.DryRun {
		a.logger.Info("would move file", "from", oldRel, "to", newRel)
		return Result{Status: StatusOK, Path: newRel, Hash: hash}
	}

	oldAbs, newAbs := a.abs(oldRel), a.abs(newRel)
	if err := a.fsmgr.Rename(oldAbs, newAbs); err != nil {
		a.logger.Error("move failed", "from", oldRel, "to", newRel, "error", err)
		return failed("move", fmt.Errorf("moving %s: %w", oldRel, err))
	}

	if !a.index.Rename(oldRel, newRel, false) {
		if err := a.fsmgr.Rename(newAbs, oldAbs); err != nil {
			a.logger.Error("cannot roll back move", "from", newRel, "to", oldRel, "error", err)
		}
		a.logger.Error("index rejected rename", "from", oldRel, "to", newRel)
		return failed("rename", fmt.Errorf("%w: index rejected %s -> %s", ErrIndexInconsistency, oldRel, newRel))
	}

	a.logger.Info("file moved", "from", oldRel, "to", newRel)
	return Result{Status: StatusOK, Path: newRel, Hash: hash}
}

// Flush persists the index if it changed. It is a no-op in dry-run mode.
func (a *Archive) Flush() error {
	if a.opts.DryRun {
		return nil
	}
	if err := a.index.Save(); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}
	return nil
}

// Close ends the session, flushing the index.
func (a *Archive) Close() error {
	return a.Flush()
}

// nextFreePath returns the first archive-relative canonical path for at that does
// not exist on disk.
func (a *Archive) nextFreePath(at time.Time, ext string) (string, bool) {
	dir := CanonicalDir(at)
	for seq := 0; seq < a.opts.MaxSeq; seq++ {
		rel := path.Join(dir, CanonicalName(at, seq, ext))
		if !a.fsmgr.Exists(a.abs(rel)) {
			return rel, true
		}
	}
	return "", false
}

// abs converts an archive-relative slash path into an absolute OS path.
func (a *Archive) abs(rel string) string {
	return filepath.Join(a.root, filepath.FromSlash(rel))
}

// rel converts an absolute or root-relative path into an archive-relative slash path.
func (a *Archive) rel(p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(a.root, p)
	}
	rel, err := filepath.Rel(a.root, p)
	if err != nil {
		return "", fmt.Errorf("calculating relative path: %w", err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path is outside the archive: %s", p)
	}
	return filepath.ToSlash(rel), nil
}

// record journals a per-file event when a journal is attached.
func (a *Archive) record(action, source string, r Result, resolvedFrom string) {
	if a.database == nil || a.opID == 0 || a.opts.DryRun {
		return
	}
	event := &model.Event{
		OperationID:  a.opID,
		Action:       action,
		SourcePath:   source,
		ArchivePath:  r.Path,
		Hash:         r.Hash,
		Status:       r.Label(),
		ResolvedFrom: resolvedFrom,
		CreatedAt:    a.clock.Now(),
	}
	if err := a.database.RecordEvent(event); err != nil {
		a.logger.Warn("cannot record event", "action", action, "path", r.Path, "error", err)
	}
}
