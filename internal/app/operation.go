package app

import "strings"

// Operation statuses as stored in the operations table.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)

// Operation tracks one mutating call. It is created in memory with ID=0 and
// gets an auto-increment ID once persisted to the operations table.
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string
}

// NewOperation creates a new in-memory operation. Parameters are joined with
// spaces; callers must not pass secrets.
func NewOperation(operation string, parameters ...string) *Operation {
	return &Operation{
		Operation:  operation,
		Parameters: strings.Join(parameters, " "),
		Status:     StatusRunning,
	}
}

// Persisted returns true if this operation has been saved to the database.
func (op *Operation) Persisted() bool {
	return op.ID != 0
}

// Finish sets the final status from the outcome of the operation.
func (op *Operation) Finish(err error) {
	if err != nil {
		op.Status = StatusError
		return
	}
	op.Status = StatusSuccess
}
