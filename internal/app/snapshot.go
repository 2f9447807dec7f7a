package app

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"pm-go/internal/pm"
)

// Vault item names for an archive's snapshots.
const (
	ledgerItem  = "ledger"
	historyItem = "history"
)

// sealSnapshot compresses r with zstd and encrypts the result when enc is set.
func sealSnapshot(r io.Reader, enc pm.Encryptor) ([]byte, error) {
	var compressed bytes.Buffer
	zw, err := zstd.NewWriter(&compressed, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("creating compressor: %w", err)
	}
	if _, err := io.Copy(zw, r); err != nil {
		zw.Close()
		return nil, fmt.Errorf("compressing snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing compression: %w", err)
	}

	if enc == nil {
		return compressed.Bytes(), nil
	}

	var sealed bytes.Buffer
	if err := enc.Encrypt(&compressed, &sealed); err != nil {
		return nil, fmt.Errorf("encrypting snapshot: %w", err)
	}
	return sealed.Bytes(), nil
}

// openSnapshot reverses sealSnapshot. dec is nil for unencrypted snapshots.
func openSnapshot(r io.Reader, dec pm.DecryptionContext) ([]byte, error) {
	if dec != nil {
		var plain bytes.Buffer
		if err := dec.Decrypt(r, &plain); err != nil {
			return nil, fmt.Errorf("decrypting snapshot: %w", err)
		}
		r = &plain
	}

	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("creating decompressor: %w", err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompressing snapshot: %w", err)
	}
	return data, nil
}

// putSnapshot seals r and stores it in the vault as item name.
func putSnapshot(v pm.Vault, enc pm.Encryptor, archiveID, name string, r io.Reader, version int64) error {
	data, err := sealSnapshot(r, enc)
	if err != nil {
		return err
	}
	if err := v.PutMetadata(archiveID, name, bytes.NewReader(data), int64(len(data)), version); err != nil {
		return fmt.Errorf("uploading %s snapshot: %w", name, err)
	}
	return nil
}

// getSnapshot fetches item name from the vault and opens it.
func getSnapshot(v pm.Vault, dec pm.DecryptionContext, archiveID, name string) ([]byte, error) {
	var buf bytes.Buffer
	if err := v.GetMetadata(archiveID, name, &buf); err != nil {
		return nil, fmt.Errorf("downloading %s snapshot: %w", name, err)
	}
	return openSnapshot(&buf, dec)
}
