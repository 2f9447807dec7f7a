package app

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"pm-go/internal/config"
	"pm-go/internal/encryption"
	"pm-go/internal/hashindex"
	"pm-go/internal/pm"
	"pm-go/internal/vault"
)

// ErrLedgerExists is returned by RestoreLedger when a local ledger is present
// and force was not given.
var ErrLedgerExists = errors.New("ledger already exists")

// RestoreResult describes what RestoreLedger wrote.
type RestoreResult struct {
	LedgerPath      string
	Entries         int
	Version         int64
	HistoryPath     string // local database path; empty when the vault holds no history snapshot
	HistoryRestored bool
}

// RestoreLedger downloads the newest ledger snapshot from the first vault and
// writes it into the archive root. passphrase is called only when snapshots are
// encrypted. The history database is restored too when the vault holds one and
// no local database exists, or when force is set.
func RestoreLedger(cfg *config.Config, opts RunOptions, passphrase func() (string, error), force bool) (*RestoreResult, error) {
	root, err := resolveRoot(cfg.Archive.Root, opts.Home)
	if err != nil {
		return nil, err
	}

	ledgerName := cfg.Archive.LedgerName
	if ledgerName == "" {
		ledgerName = hashindex.DefaultName
	}
	ledgerPath := filepath.Join(root, ledgerName)
	if _, err := os.Stat(ledgerPath); err == nil && !force {
		return nil, fmt.Errorf("%w at %s: use --force to replace it", ErrLedgerExists, ledgerPath)
	}

	if len(cfg.Vaults) == 0 {
		return nil, fmt.Errorf("no vaults configured")
	}
	v, err := vault.NewVaultFromConfig(cfg.Vaults[0])
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}

	version, err := v.GetMetadataVersion(cfg.ArchiveID, ledgerItem)
	if err != nil {
		return nil, fmt.Errorf("checking remote snapshot version: %w", err)
	}
	if version == 0 {
		return nil, fmt.Errorf("no ledger snapshot in vault for archive %s", cfg.ArchiveID)
	}

	dec, err := unlock(cfg.Encryption, passphrase)
	if err != nil {
		return nil, err
	}

	data, err := getSnapshot(v, dec, cfg.ArchiveID, ledgerItem)
	if err != nil {
		return nil, err
	}
	if opts.DryRun {
		n, err := hashindex.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("validating ledger snapshot: %w", err)
		}
		return &RestoreResult{LedgerPath: ledgerPath, Entries: n, Version: version}, nil
	}

	n, err := hashindex.Replace(ledgerPath, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("restoring ledger: %w", err)
	}
	result := &RestoreResult{LedgerPath: ledgerPath, Entries: n, Version: version}

	if err := restoreHistory(cfg, v, dec, force, result); err != nil {
		return result, err
	}
	return result, nil
}

// unlock returns the decryption context for the configured encryption, or nil
// when snapshots are stored unencrypted.
func unlock(cfg config.EncryptionConfig, passphrase func() (string, error)) (pm.DecryptionContext, error) {
	enc, err := encryption.NewEncryptorFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	if enc == nil {
		return nil, nil
	}
	if !enc.IsConfigured() {
		return nil, fmt.Errorf("encryption keys not found: run `pm config init` first")
	}

	pass, err := passphrase()
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	dec, err := enc.Unlock(pass)
	if err != nil {
		return nil, fmt.Errorf("unlocking private key: %w", err)
	}
	return dec, nil
}

// restoreHistory writes the history snapshot to the configured database path.
func restoreHistory(cfg *config.Config, v pm.Vault, dec pm.DecryptionContext, force bool, result *RestoreResult) error {
	if cfg.Database.Type != "sqlite" {
		return nil
	}
	version, err := v.GetMetadataVersion(cfg.ArchiveID, historyItem)
	if err != nil || version == 0 {
		return err
	}

	dbPath := filepath.Join(cfg.Database.DataDir, cfg.ArchiveID+".db")
	result.HistoryPath = dbPath
	if _, err := os.Stat(dbPath); err == nil && !force {
		return nil
	}

	data, err := getSnapshot(v, dec, cfg.ArchiveID, historyItem)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dbPath), ".restore-*.db")
	if err != nil {
		return fmt.Errorf("creating temp database: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing database: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing database: %w", err)
	}
	if err := os.Rename(tmpPath, dbPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing database: %w", err)
	}

	result.HistoryRestored = true
	return nil
}
