package pm

import "pm-go/internal/model"

// Database stores the operation history and the per-file event journal.
// The ledger itself never lives here; it is the Index's text file.
type Database interface {
	// CreateOperation starts a new operation record and returns it with its ID.
	CreateOperation(operation, parameters string) (*model.Operation, error)

	// FinishOperation marks an operation as finished with a final status and summary.
	FinishOperation(id int64, status, summary string) error

	// ListOperations returns the most recent operations, newest first.
	ListOperations(limit int) ([]*model.Operation, error)

	// MaxOperationID returns the highest operation ID, or 0 when there are none.
	MaxOperationID() (int64, error)

	// RecordEvent appends an event to the journal.
	RecordEvent(event *model.Event) error

	// FindEventsByArchivePath returns events touching an archive path, oldest first.
	FindEventsByArchivePath(archivePath string) ([]*model.Event, error)

	// Close closes the database connection.
	Close() error
}
