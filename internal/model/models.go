package model

import (
	"database/sql"
	"time"
)

// Operation is one CLI session that mutated the archive (import, sync, relocate).
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Status     string // "running", "success" or "error"
	Summary    string // outcome counts, e.g. "ok=3 dupe=1"
}

// Event records what happened to a single file during an operation.
type Event struct {
	ID           int64
	OperationID  int64
	Action       string // "add", "move", "remove", "adopt"
	SourcePath   string // original location; empty for remove/adopt
	ArchivePath  string // archive-relative path after the action
	Hash         string
	Status       string // result label, e.g. "ok", "dupe", "err=md5"
	ResolvedFrom string // timestamp source that decided the archive path
	CreatedAt    time.Time
}
