package cand

import "cand-go/internal/model"

// RecordStore persists the candidate table. There is no partial-update primitive:
// every edit reads the whole table, changes it in memory and replaces it.
type RecordStore interface {
	// ReplaceAll discards the stored table and persists t in its place, atomically.
	// On failure the previous table is left intact and a *PersistenceError is returned.
	ReplaceAll(t *model.Table) error

	// ReadAll returns every record in storage order. A store that was never
	// initialized yields an empty table, not an error.
	ReadAll() (*model.Table, error)

	// DeleteAll truncates the table. Calling it on an empty store is a no-op.
	DeleteAll() error

	// Close releases the underlying connection.
	Close() error
}

// OperationLog records mutating operations for the history command.
type OperationLog interface {
	// CreateOperation stores a started operation and returns it with its assigned ID.
	CreateOperation(operation, parameters string) (*model.Operation, error)

	// FinishOperation marks an operation finished with the given status.
	FinishOperation(id int64, status string) error

	// ListOperations returns the most recent operations, newest first.
	ListOperations(limit int) ([]*model.Operation, error)
}
