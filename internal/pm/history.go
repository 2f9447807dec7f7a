package pm

import (
	"errors"
	"fmt"

	"pm-go/internal/model"
)

var errNoJournal = errors.New("no history database attached")

// GetHistory returns the most recent operations, ordered newest first.
func (a *Archive) GetHistory(limit int) ([]*model.Operation, error) {
	if a.database == nil {
		return nil, errNoJournal
	}
	ops, err := a.database.ListOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

// GetFileLog returns the journal entries for an archive path, oldest first.
// path may be absolute or relative to the archive root.
func (a *Archive) GetFileLog(path string) ([]*model.Event, error) {
	if a.database == nil {
		return nil, errNoJournal
	}
	rel, err := a.rel(path)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("fetching file log", "path", rel)

	events, err := a.database.FindEventsByArchivePath(rel)
	if err != nil {
		return nil, fmt.Errorf("finding events: %w", err)
	}
	return events, nil
}
