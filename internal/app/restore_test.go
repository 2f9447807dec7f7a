package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRestoreLedger(t *testing.T) {
	t.Run("restores a missing ledger", func(t *testing.T) {
		cfg := testConfig(t)
		runImport(t, cfg, quiet(), writeImport(t, "photo", "2023:05:01 08:00:00+00:00"))

		ledger := filepath.Join(cfg.Archive.Root, ".hash")
		want, _ := os.ReadFile(ledger)
		if err := os.Remove(ledger); err != nil {
			t.Fatal(err)
		}

		result, err := RestoreLedger(cfg, quiet(), nil, false)
		if err != nil {
			t.Fatalf("RestoreLedger() error = %v", err)
		}
		if result.Entries != 1 || result.Version != 1 {
			t.Errorf("result = %+v", result)
		}
		if result.HistoryRestored {
			t.Error("existing history database was replaced without force")
		}

		got, err := os.ReadFile(ledger)
		if err != nil {
			t.Fatalf("ledger not restored: %v", err)
		}
		if string(got) != string(want) {
			t.Errorf("restored ledger = %q, want %q", got, want)
		}
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		cfg := testConfig(t)
		runImport(t, cfg, quiet(), writeImport(t, "photo", "2023:05:01 08:00:00+00:00"))

		if _, err := RestoreLedger(cfg, quiet(), nil, false); !errors.Is(err, ErrLedgerExists) {
			t.Errorf("RestoreLedger() error = %v, want ErrLedgerExists", err)
		}
	})

	t.Run("no snapshot in vault", func(t *testing.T) {
		cfg := testConfig(t)
		if _, err := RestoreLedger(cfg, quiet(), nil, false); err == nil {
			t.Error("RestoreLedger() expected error when vault is empty")
		}
	})

	t.Run("no vault configured", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Vaults = nil
		if _, err := RestoreLedger(cfg, quiet(), nil, false); err == nil {
			t.Error("RestoreLedger() expected error without a vault")
		}
	})

	t.Run("encrypted snapshots ask for the passphrase", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Encryption.Type = "test"
		runImport(t, cfg, quiet(), writeImport(t, "photo", "2023:05:01 08:00:00+00:00"))

		if _, err := getSnapshot(openVault(t, cfg), nil, cfg.ArchiveID, ledgerItem); err == nil {
			t.Error("encrypted snapshot opened without decryption")
		}

		asked := false
		passphrase := func() (string, error) {
			asked = true
			return "secret", nil
		}
		result, err := RestoreLedger(cfg, quiet(), passphrase, true)
		if err != nil {
			t.Fatalf("RestoreLedger() error = %v", err)
		}
		if !asked {
			t.Error("passphrase was not requested")
		}
		if result.Entries != 1 {
			t.Errorf("Entries = %d, want 1", result.Entries)
		}
	})

	t.Run("dry run validates without writing", func(t *testing.T) {
		cfg := testConfig(t)
		runImport(t, cfg, quiet(), writeImport(t, "photo", "2023:05:01 08:00:00+00:00"))
		ledger := filepath.Join(cfg.Archive.Root, ".hash")
		os.Remove(ledger)

		opts := quiet()
		opts.DryRun = true
		result, err := RestoreLedger(cfg, opts, nil, false)
		if err != nil {
			t.Fatalf("RestoreLedger() error = %v", err)
		}
		if result.Entries != 1 {
			t.Errorf("Entries = %d, want 1", result.Entries)
		}
		if _, err := os.Stat(ledger); !os.IsNotExist(err) {
			t.Error("dry run wrote the ledger")
		}
	})
}
