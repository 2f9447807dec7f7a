package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"pm-go/internal/pm"
)

// MemoryVault is an in-memory implementation of the Vault interface.
// It keeps every item in memory, making it useful for testing.
// This implementation is safe for concurrent use.
type MemoryVault struct {
	name     string
	items    map[string][]byte // "archiveID/name" -> data
	versions map[string]int64  // "archiveID/name" -> version
	mu       sync.RWMutex
}

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:     name,
		items:    make(map[string][]byte),
		versions: make(map[string]int64),
	}
}

// itemKey returns the map key for an archive/name pair.
func itemKey(archiveID, name string) string {
	return archiveID + "/" + name
}

// PutMetadata stores a named metadata item for an archive.
func (m *MemoryVault) PutMetadata(archiveID string, name string, r io.Reader, size int64, version int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}

	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := itemKey(archiveID, name)
	m.items[key] = data
	m.versions[key] = version
	return nil
}

// GetMetadataVersion returns the version stored with a named item.
// Returns 0 if nothing has been stored for this archive/name.
func (m *MemoryVault) GetMetadataVersion(archiveID string, name string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.versions[itemKey(archiveID, name)], nil
}

// GetMetadata retrieves a named metadata item for an archive.
func (m *MemoryVault) GetMetadata(archiveID string, name string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.items[itemKey(archiveID, name)]
	if !ok {
		return fmt.Errorf("metadata %q not found for archive: %s", name, archiveID)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}

// Compile-time check that MemoryVault implements pm.Vault interface
var _ pm.Vault = (*MemoryVault)(nil)
