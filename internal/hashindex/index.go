// Package hashindex implements the archive ledger: a text file of
// "<hash> <relative-path>" lines held in memory as a bidirectional map.
package hashindex

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pm-go/internal/pm"
)

// DefaultName is the ledger's file name inside the archive root.
const DefaultName = ".hash"

// Index is the file-backed implementation of pm.Index.
// It is not safe for concurrent use.
type Index struct {
	path  string
	m     *biMap
	dirty bool
}

// New creates an empty index persisted at path. Call Load to read an existing ledger.
func New(path string) *Index {
	return &Index{path: path, m: newBiMap()}
}

// Open creates an index for path and loads it.
func Open(path string) (*Index, error) {
	idx := New(path)
	if err := idx.Load(); err != nil {
		return nil, err
	}
	return idx, nil
}

// Path returns the ledger file path.
func (idx *Index) Path() string {
	return idx.path
}

// Load replaces the in-memory contents with the ledger file. A missing file
// yields an empty index. A repeated hash or path, or a line without a path,
// is reported as pm.ErrCorruptLedger.
func (idx *Index) Load() error {
	f, err := os.Open(idx.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			idx.m = newBiMap()
			idx.dirty = false
			return nil
		}
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	m, err := decode(f)
	if err != nil {
		return fmt.Errorf("loading %s: %w", idx.path, err)
	}
	idx.m = m
	idx.dirty = false
	return nil
}

// Exists reports whether content with the given hash is indexed.
func (idx *Index) Exists(hash string) bool {
	_, ok := idx.m.pathOf(hash)
	return ok
}

// Lookup returns the hash recorded for path.
func (idx *Index) Lookup(path string) (string, bool) {
	return idx.m.hashOf(path)
}

// PathOf returns the path recorded for hash.
func (idx *Index) PathOf(hash string) (string, bool) {
	return idx.m.pathOf(hash)
}

// Add records path <-> hash. Without overwrite it is rejected when path is
// already indexed or hash belongs to another path. With overwrite, entries
// displaced on either side are evicted.
func (idx *Index) Add(path, hash string, overwrite bool) bool {
	if !overwrite {
		if _, ok := idx.m.hashOf(path); ok {
			return false
		}
		if other, ok := idx.m.pathOf(hash); ok && other != path {
			return false
		}
	}
	idx.m.put(path, hash)
	idx.dirty = true
	return true
}

// Remove deletes the entry for path.
func (idx *Index) Remove(path string) bool {
	if !idx.m.deletePath(path) {
		return false
	}
	idx.dirty = true
	return true
}

// Rename re-keys oldPath to newPath, keeping its hash.
func (idx *Index) Rename(oldPath, newPath string, overwrite bool) bool {
	hash, ok := idx.m.hashOf(oldPath)
	if !ok {
		return false
	}
	if oldPath == newPath {
		return true
	}
	if _, taken := idx.m.hashOf(newPath); taken {
		if !overwrite {
			return false
		}
		idx.m.deletePath(newPath)
	}
	idx.m.deletePath(oldPath)
	idx.m.put(newPath, hash)
	idx.dirty = true
	return true
}

// Paths returns all indexed paths, sorted.
func (idx *Index) Paths() []string {
	return idx.m.paths()
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	return idx.m.len()
}

// Dirty reports whether there are unsaved changes.
func (idx *Index) Dirty() bool {
	return idx.dirty
}

// WriteTo writes the ledger serialization, one "<hash> <path>" line per entry
// in path order.
func (idx *Index) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, p := range idx.m.paths() {
		hash, _ := idx.m.hashOf(p)
		written, err := fmt.Fprintf(bw, "%s %s\n", hash, p)
		n += int64(written)
		if err != nil {
			return n, fmt.Errorf("writing ledger: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("flushing ledger: %w", err)
	}
	return n, nil
}

// Save persists the index when it has unsaved changes. The ledger is written to
// a temp file next to it, synced, then renamed over the old one, so a crash
// leaves either the old or the new ledger in place.
func (idx *Index) Save() error {
	if !idx.dirty {
		return nil
	}
	if err := idx.m.verify(); err != nil {
		return fmt.Errorf("%w: %v", pm.ErrIndexInconsistency, err)
	}
	tmpPath, err := idx.writeTemp()
	if err != nil {
		return err
	}
	if err := idx.commit(tmpPath); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}

// writeTemp serializes the index into a temp file in the ledger's directory.
func (idx *Index) writeTemp() (string, error) {
	dir, base := filepath.Split(idx.path)
	if !strings.HasPrefix(base, ".") {
		base = "." + base
	}
	tmpFile, err := os.CreateTemp(dir, base+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp ledger: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := idx.WriteTo(tmpFile); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("syncing temp ledger: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp ledger: %w", err)
	}
	return tmpPath, nil
}

// commit atomically replaces the ledger with the temp file.
func (idx *Index) commit(tmpPath string) error {
	if err := os.Rename(tmpPath, idx.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing ledger: %w", err)
	}
	return nil
}

// Replace validates a ledger stream and atomically writes it to path,
// returning the number of entries. Nothing is written when validation fails.
func Replace(path string, r io.Reader) (int, error) {
	m, err := decode(r)
	if err != nil {
		return 0, err
	}
	idx := &Index{path: path, m: m, dirty: true}
	if err := idx.Save(); err != nil {
		return 0, err
	}
	return m.len(), nil
}

// Decode parses and validates a ledger stream, returning the number of entries.
// It applies the same rules as Load.
func Decode(r io.Reader) (int, error) {
	m, err := decode(r)
	if err != nil {
		return 0, err
	}
	return m.len(), nil
}

func decode(r io.Reader) (*biMap, error) {
	m := newBiMap()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		hash, path, ok := splitLine(line)
		if !ok {
			return nil, fmt.Errorf("%w: line %d: missing path", pm.ErrCorruptLedger, n)
		}
		if other, dup := m.pathOf(hash); dup {
			return nil, fmt.Errorf("%w: line %d: hash %s already recorded for %s", pm.ErrCorruptLedger, n, hash, other)
		}
		if _, dup := m.hashOf(path); dup {
			return nil, fmt.Errorf("%w: line %d: path %s recorded twice", pm.ErrCorruptLedger, n, path)
		}
		m.put(path, hash)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	return m, nil
}

// splitLine splits "<hash><whitespace><path>". The path is everything after the
// first whitespace run and may itself contain spaces; trailing whitespace is
// dropped.
func splitLine(line string) (hash, path string, ok bool) {
	line = strings.TrimLeft(line, " \t")
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return "", "", false
	}
	hash = line[:i]
	path = strings.Trim(line[i:], " \t")
	if path == "" {
		return "", "", false
	}
	return hash, path, true
}

// Compile-time check that Index implements pm.Index interface
var _ pm.Index = (*Index)(nil)
