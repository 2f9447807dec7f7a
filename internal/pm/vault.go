package pm

import "io"

// Vault stores off-site copies of archive metadata (ledger snapshots).
// All operations stream through io.Reader/io.Writer.
type Vault interface {
	// PutMetadata stores a named metadata item for an archive.
	// size is the number of bytes that will be read from r.
	// version is stored alongside for consistency checks.
	PutMetadata(archiveID string, name string, r io.Reader, size int64, version int64) error

	// GetMetadata retrieves a named metadata item and writes it to w.
	GetMetadata(archiveID string, name string, w io.Writer) error

	// GetMetadataVersion returns the stored version, or 0 if nothing was stored.
	GetMetadataVersion(archiveID string, name string) (int64, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
