package cand

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when an import has no rows. Callers surface it as a warning.
	ErrEmptyInput = errors.New("no rows to import")

	// ErrAccessDenied is returned when the reset secret does not match.
	ErrAccessDenied = errors.New("incorrect reset secret")

	// ErrNotConfirmed is returned when a reset is attempted without explicit confirmation.
	ErrNotConfirmed = errors.New("reset not confirmed")

	ErrUnknownDocumentType  = errors.New("unknown document type")
	ErrUnsupportedExtension = errors.New("unsupported document extension")
	ErrUnknownColumn        = errors.New("unknown column")
	ErrDuplicateColumn      = errors.New("duplicate column name")
	ErrInvalidName          = errors.New("invalid name")
)

// PersistenceError reports a Record Store failure. The store's prior state is left intact.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// InvalidAgeError reports an EDAD value that is non-numeric or outside [0,100].
type InvalidAgeError struct {
	Value string
}

func (e *InvalidAgeError) Error() string {
	return fmt.Sprintf("invalid age %q: must be a whole number between %d and %d", e.Value, MinAge, MaxAge)
}

// FilesystemError reports a document storage I/O failure.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("filesystem: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// NotFoundError reports a missing document or record index.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
