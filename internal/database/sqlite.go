package database

import (
	"context"
	"database/sql"
	"fmt"

	"pm-go/internal/database/migrations"
	"pm-go/internal/model"
	"pm-go/internal/pm"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the Database interface using SQLite.
type SQLiteDatabase struct {
	db    *sql.DB
	path  string
	clock pm.Clock
}

// NewSQLiteDatabase opens the database at path, applying pending migrations.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string, clock pm.Clock) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	return NewSQLiteDatabaseFromDB(db, path, clock), nil
}

// NewSQLiteDatabaseFromDB wraps an existing, already migrated connection.
func NewSQLiteDatabaseFromDB(db *sql.DB, path string, clock pm.Clock) *SQLiteDatabase {
	if clock == nil {
		clock = pm.RealClock{}
	}
	return &SQLiteDatabase{db: db, path: path, clock: clock}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// It is limited to one connection, which keeps ":memory:" databases whole and
// matches the single-threaded use.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// SQLite leaves foreign keys off by default
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Operation tracking

func (s *SQLiteDatabase) CreateOperation(operation, parameters string) (*model.Operation, error) {
	op := &model.Operation{
		Operation:  operation,
		Parameters: parameters,
		StartedAt:  s.clock.Now().UTC(),
		Status:     "running",
	}
	res, err := s.db.ExecContext(context.Background(),
		`INSERT INTO operations (operation, parameters, started_at, status) VALUES (?, ?, ?, ?)`,
		op.Operation, op.Parameters, op.StartedAt, op.Status)
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	op.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading operation id: %w", err)
	}
	return op, nil
}

func (s *SQLiteDatabase) FinishOperation(id int64, status, summary string) error {
	res, err := s.db.ExecContext(context.Background(),
		`UPDATE operations SET finished_at = ?, status = ?, summary = ? WHERE id = ?`,
		s.clock.Now().UTC(), status, summary, id)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finishing operation: no operation with id %d", id)
	}
	return nil
}

func (s *SQLiteDatabase) ListOperations(limit int) ([]*model.Operation, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT id, operation, parameters, started_at, finished_at, status, summary
		 FROM operations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*model.Operation
	for rows.Next() {
		op := &model.Operation{}
		if err := rows.Scan(&op.ID, &op.Operation, &op.Parameters, &op.StartedAt, &op.FinishedAt, &op.Status, &op.Summary); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

func (s *SQLiteDatabase) MaxOperationID() (int64, error) {
	var id int64
	err := s.db.QueryRowContext(context.Background(),
		`SELECT COALESCE(MAX(id), 0) FROM operations`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("getting max operation ID: %w", err)
	}
	return id, nil
}

// Event journal

func (s *SQLiteDatabase) RecordEvent(event *model.Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.clock.Now()
	}
	res, err := s.db.ExecContext(context.Background(),
		`INSERT INTO events (operation_id, action, source_path, archive_path, hash, status, resolved_from, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.OperationID, event.Action, event.SourcePath, event.ArchivePath,
		event.Hash, event.Status, event.ResolvedFrom, event.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("recording event: %w", err)
	}
	event.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading event id: %w", err)
	}
	return nil
}

// FindEventsByArchivePath returns the events that put a file at archivePath or
// moved it away from there, oldest first.
func (s *SQLiteDatabase) FindEventsByArchivePath(archivePath string) ([]*model.Event, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT id, operation_id, action, source_path, archive_path, hash, status, resolved_from, created_at
		 FROM events
		 WHERE archive_path = ? OR (action = 'move' AND source_path = ?)
		 ORDER BY id`, archivePath, archivePath)
	if err != nil {
		return nil, fmt.Errorf("finding events: %w", err)
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		e := &model.Event{}
		if err := rows.Scan(&e.ID, &e.OperationID, &e.Action, &e.SourcePath, &e.ArchivePath,
			&e.Hash, &e.Status, &e.ResolvedFrom, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("finding events: %w", err)
	}
	return events, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements pm.Database interface
var _ pm.Database = (*SQLiteDatabase)(nil)
