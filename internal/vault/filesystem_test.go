package vault

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileSystemVault_PutAndGetMetadata(t *testing.T) {
	root := t.TempDir()
	vault, err := NewFileSystemVault("fs", root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	content := "2024/01/01/000000_00.jpg,abc\n"
	if err := vault.PutMetadata("archive-1", "ledger", strings.NewReader(content), int64(len(content)), 5); err != nil {
		t.Fatalf("PutMetadata() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "metadata", "archive-1", "ledger")); err != nil {
		t.Errorf("expected item file on disk: %v", err)
	}

	var buf bytes.Buffer
	if err := vault.GetMetadata("archive-1", "ledger", &buf); err != nil {
		t.Fatalf("GetMetadata() error = %v", err)
	}
	if buf.String() != content {
		t.Errorf("GetMetadata() = %q, want %q", buf.String(), content)
	}

	version, err := vault.GetMetadataVersion("archive-1", "ledger")
	if err != nil {
		t.Fatalf("GetMetadataVersion() error = %v", err)
	}
	if version != 5 {
		t.Errorf("GetMetadataVersion() = %d, want 5", version)
	}
}

func TestFileSystemVault_Missing(t *testing.T) {
	vault, err := NewFileSystemVault("fs", t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	version, err := vault.GetMetadataVersion("archive-1", "ledger")
	if err != nil {
		t.Fatalf("GetMetadataVersion() error = %v", err)
	}
	if version != 0 {
		t.Errorf("GetMetadataVersion() = %d, want 0", version)
	}

	var buf bytes.Buffer
	if err := vault.GetMetadata("archive-1", "ledger", &buf); err == nil {
		t.Error("GetMetadata() expected error for missing item")
	}
}

func TestFileSystemVault_SizeMismatchLeavesNothing(t *testing.T) {
	root := t.TempDir()
	vault, err := NewFileSystemVault("fs", root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	if err := vault.PutMetadata("archive-1", "ledger", strings.NewReader("abc"), 10, 1); err == nil {
		t.Fatal("PutMetadata() expected size mismatch error")
	}

	entries, err := os.ReadDir(filepath.Join(root, "metadata", "archive-1"))
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no files after failed put, got %d", len(entries))
	}
}

func TestFileSystemVault_ValidateSetup(t *testing.T) {
	root := t.TempDir()
	vault, err := NewFileSystemVault("fs", root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}
	if err := vault.ValidateSetup(); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}

	if err := os.RemoveAll(filepath.Join(root, "metadata")); err != nil {
		t.Fatal(err)
	}
	if err := vault.ValidateSetup(); err == nil {
		t.Error("ValidateSetup() expected error after metadata dir removed")
	}
}
