package pm

// Index is the persistent ledger mapping content hashes to archive-relative paths.
// Hashes and paths are both unique keys and the two directions are always exact
// inverses. Expected "not found" and "already exists" cases are reported as false,
// never as errors.
type Index interface {
	// Exists reports whether content with the given hash is indexed.
	Exists(hash string) bool

	// Lookup returns the hash recorded for an archive-relative path.
	Lookup(path string) (string, bool)

	// PathOf returns the archive-relative path recorded for a hash.
	PathOf(hash string) (string, bool)

	// Add records path <-> hash. It is rejected when path is already indexed, or
	// when hash already belongs to a different path, unless overwrite is set.
	Add(path, hash string, overwrite bool) bool

	// Remove deletes the entry for path in both directions.
	Remove(path string) bool

	// Rename re-keys oldPath to newPath, keeping the hash. It is rejected when
	// oldPath is absent, or newPath is present and overwrite is not set.
	Rename(oldPath, newPath string, overwrite bool) bool

	// Paths returns a snapshot of all indexed paths, sorted.
	Paths() []string

	// Len returns the number of entries.
	Len() int

	// Save persists the index if it has unsaved changes.
	Save() error
}
