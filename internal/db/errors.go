package db

import (
	"errors"
	"fmt"
)

// ErrorKind classifies store failures
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindSchemaVersionMismatch
	KindValidationFailed
	KindIOFailure
)

// String returns the display name for a kind
func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindSchemaVersionMismatch:
		return "schema version mismatch"
	case KindValidationFailed:
		return "validation failed"
	case KindIOFailure:
		return "i/o failure"
	default:
		return "unknown"
	}
}

// StorageError is returned by every store operation that fails
type StorageError struct {
	Kind ErrorKind
	Op   string
	ID   string
	Err  error
}

func (e *StorageError) Error() string {
	msg := "db"
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.ID != "" {
		msg += " " + e.ID
	}
	msg += ": " + e.Kind.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels below, so errors.Is(err, ErrNotFound) works
// for any not-found error regardless of op or id.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok || t.Op != "" || t.ID != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

// Kind sentinels
var (
	ErrNotFound              = &StorageError{Kind: KindNotFound}
	ErrSchemaVersionMismatch = &StorageError{Kind: KindSchemaVersionMismatch}
	ErrValidationFailed      = &StorageError{Kind: KindValidationFailed}
	ErrIOFailure             = &StorageError{Kind: KindIOFailure}
)

func notFound(op, id string) error {
	return &StorageError{Kind: KindNotFound, Op: op, ID: id}
}

func invalid(op, format string, args ...any) error {
	return &StorageError{Kind: KindValidationFailed, Op: op, Err: fmt.Errorf(format, args...)}
}

// ioFailure wraps err as an IOFailure unless it already is a StorageError
func ioFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Kind: KindIOFailure, Op: op, Err: err}
}
