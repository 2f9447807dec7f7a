package pm

import "errors"

var (
	// ErrUnreadableSource means a source file vanished or could not be read at hash time.
	ErrUnreadableSource = errors.New("source file unreadable")

	// ErrCollision means every sequence slot for a capture second is taken.
	ErrCollision = errors.New("sequence numbers exhausted")

	// ErrIndexInconsistency means the index rejected an add or rename that prior
	// checks said must succeed. Physical state is rolled back where possible.
	ErrIndexInconsistency = errors.New("index inconsistency")

	// ErrCorruptLedger means the ledger file failed validation at load time.
	// It is never repaired automatically.
	ErrCorruptLedger = errors.New("corrupt ledger")
)
