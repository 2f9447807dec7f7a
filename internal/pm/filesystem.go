package pm

// WalkFunc is called for every directory and regular file below the walk root, with
// rel relative to that root. Returning filepath.SkipDir for a directory skips it.
type WalkFunc func(rel string, isDir bool) error

// FilesystemManager provides the filesystem primitives the archive needs.
// It abstracts file access so the archive logic can be exercised against temp dirs.
type FilesystemManager interface {
	// Exists reports whether anything exists at path.
	Exists(path string) bool

	// CopyFile copies src to dst preserving permissions and timestamps. dst appears
	// atomically: either fully written or not at all. Parent directories are created.
	CopyFile(src, dst string) error

	// Rename moves src to dst, creating dst's parent directories as needed.
	Rename(src, dst string) error

	// Remove deletes a single file.
	Remove(path string) error

	// Walk enumerates root recursively, yielding paths relative to root.
	Walk(root string, fn WalkFunc) error

	// IsIgnored reports whether a relative path matches the configured ignore rules.
	IsIgnored(rel string, isDir bool) bool

	// IsClutter reports whether a base name is an OS-generated artifact that
	// should be deleted when encountered.
	IsClutter(name string) bool
}

// Hasher computes the content digest that identifies archived files.
type Hasher interface {
	// HashFile returns the lowercase hex digest of the file's content.
	HashFile(path string) (string, error)

	// Algorithm returns the digest name, e.g. "md5".
	Algorithm() string
}
