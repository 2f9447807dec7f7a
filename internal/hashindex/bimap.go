package hashindex

import (
	"fmt"
	"slices"
)

// biMap keeps hash -> path and path -> hash as exact inverses.
type biMap struct {
	byHash map[string]string
	byPath map[string]string
}

func newBiMap() *biMap {
	return &biMap{
		byHash: make(map[string]string),
		byPath: make(map[string]string),
	}
}

func (m *biMap) len() int {
	return len(m.byPath)
}

func (m *biMap) hashOf(path string) (string, bool) {
	h, ok := m.byPath[path]
	return h, ok
}

func (m *biMap) pathOf(hash string) (string, bool) {
	p, ok := m.byHash[hash]
	return p, ok
}

// put links path and hash, evicting whatever either side was linked to before.
func (m *biMap) put(path, hash string) {
	if oldHash, ok := m.byPath[path]; ok {
		delete(m.byHash, oldHash)
	}
	if oldPath, ok := m.byHash[hash]; ok {
		delete(m.byPath, oldPath)
	}
	m.byPath[path] = hash
	m.byHash[hash] = path
}

func (m *biMap) deletePath(path string) bool {
	hash, ok := m.byPath[path]
	if !ok {
		return false
	}
	delete(m.byPath, path)
	delete(m.byHash, hash)
	return true
}

func (m *biMap) paths() []string {
	out := make([]string, 0, len(m.byPath))
	for p := range m.byPath {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// verify checks that the two directions are exact inverses.
func (m *biMap) verify() error {
	if len(m.byHash) != len(m.byPath) {
		return fmt.Errorf("size mismatch: %d hashes, %d paths", len(m.byHash), len(m.byPath))
	}
	for path, hash := range m.byPath {
		if back, ok := m.byHash[hash]; !ok || back != path {
			return fmt.Errorf("path %q maps to hash %s which maps to %q", path, hash, back)
		}
	}
	return nil
}
