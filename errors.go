package siack

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthenticated is returned when an operation requires a principal and none is present
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the principal may not access the resource
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned when a unique resource already exists
	ErrConflict = errors.New("conflict")
)

// Token verification failures.
var (
	ErrInvalidSignature  = errors.New("token signature is invalid")
	ErrExpired           = errors.New("token is expired")
	ErrMalformed         = errors.New("token is malformed")
	ErrUnsupportedFormat = errors.New("token format is not supported")
)

// Storage failure kinds. Backends report them inside a *StorageError.
var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrConfiguration   = errors.New("storage configuration error")
	ErrConnect         = errors.New("storage connect failure")
	ErrTransfer        = errors.New("storage transfer failure")
	ErrIOFailure       = errors.New("storage io failure")
)

// StorageError is returned by storage backends. Kind is one of the storage
// failure kinds (or ErrNotFound) and Err is the underlying cause, if any.
// Both are visible to errors.Is and errors.As.
type StorageError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *StorageError) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StorageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewStorageError builds a *StorageError.
func NewStorageError(op, path string, kind, err error) *StorageError {
	return &StorageError{Op: op, Path: path, Kind: kind, Err: err}
}

// StorageErrorf builds a *StorageError whose cause is a formatted message.
func StorageErrorf(op, path string, kind error, format string, args ...any) *StorageError {
	return &StorageError{Op: op, Path: path, Kind: kind, Err: fmt.Errorf(format, args...)}
}
