package app

// Operation tracks a CLI command that may mutate the archive.
// Operations are created in memory with ID=0. Only mutating commands persist
// them, receiving an auto-increment ID from the history database.
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string // "success" or "error"
	Summary    string
}

// NewOperation creates a new in-memory operation.
func NewOperation(operation, parameters string) *Operation {
	return &Operation{
		Operation:  operation,
		Parameters: parameters,
		Status:     "success",
	}
}

// Persisted returns true if this operation has been saved to the database.
func (op *Operation) Persisted() bool {
	return op.ID != 0
}

// Fail marks the operation as failed. A non-nil err is a convenience for
// callers that pass their error through.
func (op *Operation) Fail(err error) error {
	op.Status = "error"
	return err
}
