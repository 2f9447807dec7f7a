package app

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"pm-go/internal/checksum"
	"pm-go/internal/config"
	"pm-go/internal/database"
	"pm-go/internal/encryption"
	"pm-go/internal/fs"
	"pm-go/internal/hashindex"
	"pm-go/internal/model"
	"pm-go/internal/pm"
	"pm-go/internal/vault"
)

// RunOptions is the run mode chosen on the command line.
type RunOptions struct {
	DryRun  bool
	Verbose bool
	Home    string    // archive root override; empty uses archive.root
	Stderr  io.Writer // log destination next to the log file; nil means os.Stderr
}

// PMApp is the application layer between the CLI and the archive.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and manages the session lifecycle on Close.
type PMApp struct {
	cfg       *config.Config
	opts      RunOptions
	root      string
	index     *hashindex.Index
	db        *database.SQLiteDatabase
	vault     pm.Vault // nil when no vault is configured
	encryptor pm.Encryptor
	archive   *pm.Archive
	op        *Operation
	logger    *slogAdapter
	logFile   *os.File
}

// NewPMApp creates a fully wired PMApp from the given config.
// operation names the CLI command being run (e.g. "import", "sync").
// A corrupt ledger aborts construction. The caller must call Close when done.
func NewPMApp(cfg *config.Config, opts RunOptions, operation, parameters string) (*PMApp, error) {
	root, err := resolveRoot(cfg.Archive.Root, opts.Home)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Archive.Location()
	if err != nil {
		return nil, err
	}

	hasher, err := checksum.New(cfg.Archive.Hash)
	if err != nil {
		return nil, err
	}

	ignore, err := fs.LoadIgnoreMatcher(root, cfg.Filesystem.Ignore)
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}
	fsmgr := fs.NewOSFilesystemManager(ignore, cfg.Filesystem.Clutter)

	ledgerName := cfg.Archive.LedgerName
	if ledgerName == "" {
		ledgerName = hashindex.DefaultName
	}
	index, err := hashindex.Open(filepath.Join(root, ledgerName))
	if err != nil {
		return nil, fmt.Errorf("loading ledger: %w", err)
	}

	var v pm.Vault
	if len(cfg.Vaults) > 0 {
		v, err = vault.NewVaultFromConfig(cfg.Vaults[0])
		if err != nil {
			return nil, fmt.Errorf("creating vault: %w", err)
		}
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.ArchiveID, pm.RealClock{})
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	if v != nil {
		if err := checkBehindRemote(v, db, cfg.ArchiveID); err != nil {
			db.Close()
			return nil, err
		}
	}

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	sessionID := pm.UUIDGenerator{}.New()[:8]
	slogger, logFile, err := newLogger(cfg.LogDir, sessionID, opts.Verbose, stderr)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	archive := pm.NewArchive(root, index, fsmgr, hasher, logger, pm.RealClock{}, pm.Options{
		DryRun:   opts.DryRun,
		MaxSeq:   cfg.Archive.MaxSeq,
		Location: loc,
	})
	// History reads need the database; events are recorded only once an
	// operation is persisted.
	archive.AttachJournal(db, 0)

	logger.Debug("session started", "operation", operation, "root", root, "entries", index.Len(), "dry_run", opts.DryRun)

	return &PMApp{
		cfg:       cfg,
		opts:      opts,
		root:      root,
		index:     index,
		db:        db,
		vault:     v,
		encryptor: enc,
		archive:   archive,
		op:        NewOperation(operation, parameters),
		logger:    logger,
		logFile:   logFile,
	}, nil
}

// checkBehindRemote refuses to run when the vault holds a ledger snapshot from
// an operation this history database has never seen.
func checkBehindRemote(v pm.Vault, db pm.Database, archiveID string) error {
	remoteVersion, err := v.GetMetadataVersion(archiveID, ledgerItem)
	if err != nil {
		return fmt.Errorf("checking remote snapshot version: %w", err)
	}

	localMax, err := db.MaxOperationID()
	if err != nil {
		return fmt.Errorf("checking local history version: %w", err)
	}

	if remoteVersion > localMax {
		return fmt.Errorf("local history is behind remote (local=%d, remote=%d): run `pm ledger restore --force` or re-initialize", localMax, remoteVersion)
	}
	return nil
}

// persistOperation saves the operation to the database, giving it an ID, and
// attaches the per-file journal. Dry runs are never recorded.
func (a *PMApp) persistOperation() error {
	if a.opts.DryRun || a.op.Persisted() {
		return nil
	}
	dbOp, err := a.db.CreateOperation(a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	a.logger.setOpID(strconv.FormatInt(dbOp.ID, 10))
	a.archive.AttachJournal(a.db, dbOp.ID)
	return nil
}

// Root returns the archive root directory.
func (a *PMApp) Root() string {
	return a.root
}

// Import ingests the files listed in the datefile at path ("-" reads stdin).
// The ledger is saved before Import returns.
func (a *PMApp) Import(path string, overwrite bool) (*pm.Summary, error) {
	if err := a.persistOperation(); err != nil {
		return nil, err
	}

	r, closeFn, err := openDatefile(path)
	if err != nil {
		return nil, a.op.Fail(err)
	}
	defer closeFn()

	summary, err := a.archive.Import(r, overwrite)
	if summary != nil {
		a.op.Summary = summary.String()
	}
	if err != nil {
		return summary, a.op.Fail(err)
	}
	if err := a.archive.Flush(); err != nil {
		return summary, a.op.Fail(err)
	}
	a.logger.Info("import finished", "summary", a.op.Summary)
	return summary, nil
}

// Relocate moves archived files listed in the datefile at path to their
// canonical locations. The ledger is saved before Relocate returns.
func (a *PMApp) Relocate(path string) (*pm.Summary, error) {
	if err := a.persistOperation(); err != nil {
		return nil, err
	}

	r, closeFn, err := openDatefile(path)
	if err != nil {
		return nil, a.op.Fail(err)
	}
	defer closeFn()

	summary, err := a.archive.Relocate(r)
	if summary != nil {
		a.op.Summary = summary.String()
	}
	if err != nil {
		return summary, a.op.Fail(err)
	}
	if err := a.archive.Flush(); err != nil {
		return summary, a.op.Fail(err)
	}
	a.logger.Info("relocate finished", "summary", a.op.Summary)
	return summary, nil
}

// Sync reconciles the archive tree with the ledger.
func (a *PMApp) Sync(adopt bool) (*pm.SyncReport, error) {
	if err := a.persistOperation(); err != nil {
		return nil, err
	}

	report, err := a.archive.Sync(adopt)
	if report != nil {
		a.op.Summary = fmt.Sprintf("removed=%d unknown=%d adopted=%d clutter=%d",
			len(report.Removed), len(report.Unknown), len(report.Adopted), len(report.Clutter))
	}
	if err != nil {
		return report, a.op.Fail(err)
	}
	return report, nil
}

// Stat returns per-extension counts and the total number of archived files.
func (a *PMApp) Stat() ([]pm.SuffixCount, int) {
	return a.archive.StatSuffix(), a.archive.Len()
}

// GetHistory returns the most recent operations.
func (a *PMApp) GetHistory(limit int) ([]*model.Operation, error) {
	return a.archive.GetHistory(limit)
}

// GetFileLog returns the journal entries for an archive path.
func (a *PMApp) GetFileLog(path string) ([]*model.Event, error) {
	return a.archive.GetFileLog(path)
}

// Close finalizes the session and releases all resources, keeping the first
// error. For persisted operations it finishes the operation record and
// uploads the ledger and history snapshots when a vault is configured.
func (a *PMApp) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := a.archive.Close(); err != nil {
		a.op.Status = "error"
		keep(fmt.Errorf("closing archive: %w", err))
	}

	if a.op.Persisted() {
		keep(a.finishOperation())
		if a.vault != nil && a.op.Status == "success" {
			keep(a.uploadSnapshots())
		}
	}

	if err := a.db.Close(); err != nil {
		keep(fmt.Errorf("closing database: %w", err))
	}

	if firstErr != nil {
		a.logger.Error("session closed with errors", "error", firstErr)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

func (a *PMApp) finishOperation() error {
	if err := a.db.FinishOperation(a.op.ID, a.op.Status, a.op.Summary); err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

// uploadSnapshots stores the ledger and a copy of the history database in the
// vault, both versioned by the operation ID.
func (a *PMApp) uploadSnapshots() error {
	var ledger bytes.Buffer
	if _, err := a.index.WriteTo(&ledger); err != nil {
		return fmt.Errorf("serializing ledger: %w", err)
	}
	if err := putSnapshot(a.vault, a.encryptor, a.cfg.ArchiveID, ledgerItem, &ledger, a.op.ID); err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "pm-history-*")
	if err != nil {
		return fmt.Errorf("creating temp dir for history snapshot: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, "history.db")
	if err := a.db.BackupTo(tmpPath); err != nil {
		return err
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("opening history snapshot: %w", err)
	}
	defer f.Close()

	if err := putSnapshot(a.vault, a.encryptor, a.cfg.ArchiveID, historyItem, f, a.op.ID); err != nil {
		return err
	}

	a.logger.Info("uploaded snapshots", "version", a.op.ID)
	return nil
}

// openDatefile opens path for reading; "-" is stdin.
func openDatefile(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening datefile: %w", err)
	}
	return f, func() { f.Close() }, nil
}
