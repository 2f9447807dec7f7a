// Package checksum computes the content digests that identify archived files.
package checksum

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"pm-go/internal/pm"
)

// FileHasher hashes whole files with a fixed algorithm.
type FileHasher struct {
	algorithm string
	newHash   func() hash.Hash
}

// NewMD5 returns the default hasher, compatible with existing ledgers.
func NewMD5() *FileHasher {
	return &FileHasher{algorithm: "md5", newHash: md5.New}
}

// NewSHA256 returns a SHA-256 hasher.
func NewSHA256() *FileHasher {
	return &FileHasher{algorithm: "sha256", newHash: sha256.New}
}

// New returns the hasher for a configured algorithm name.
func New(algorithm string) (*FileHasher, error) {
	switch algorithm {
	case "", "md5":
		return NewMD5(), nil
	case "sha256":
		return NewSHA256(), nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm: %s", algorithm)
	}
}

// HashFile streams the file at path through the digest.
func (h *FileHasher) HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return h.HashReader(f)
}

// HashReader digests everything read from r.
func (h *FileHasher) HashReader(r io.Reader) (string, error) {
	d := h.newHash()
	if _, err := io.Copy(d, r); err != nil {
		return "", fmt.Errorf("reading content: %w", err)
	}
	return hex.EncodeToString(d.Sum(nil)), nil
}

// Algorithm returns the digest name.
func (h *FileHasher) Algorithm() string {
	return h.algorithm
}

// Compile-time check that FileHasher implements pm.Hasher interface
var _ pm.Hasher = (*FileHasher)(nil)
