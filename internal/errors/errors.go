package errors

import (
	"fmt"
	"time"
)

// Error types for the log indexing core
type ErrorType string

const (
	// File errors
	ErrorTypeOpen ErrorType = "open"
	ErrorTypeRead ErrorType = "read"
	ErrorTypeStat ErrorType = "stat"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"

	// File monitor errors
	ErrorTypeWatch ErrorType = "watch"

	// Internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// IndexError represents a failure while indexing or monitoring a log file
type IndexError struct {
	Type        ErrorType
	Path        string
	Operation   string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

// NewOpenError creates an error for a file that could not be opened
func NewOpenError(path string, err error) *IndexError {
	return &IndexError{
		Type:       ErrorTypeOpen,
		Path:       path,
		Operation:  "open",
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// NewReadError creates an error for a failed read. Reads are recoverable:
// the index keeps whatever was accumulated before the failure.
func NewReadError(path string, err error) *IndexError {
	return &IndexError{
		Type:        ErrorTypeRead,
		Path:        path,
		Operation:   "read",
		Underlying:  err,
		Timestamp:   time.Now(),
		Recoverable: true,
	}
}

// NewStatError creates an error for a failed stat call
func NewStatError(path string, err error) *IndexError {
	return &IndexError{
		Type:       ErrorTypeStat,
		Path:       path,
		Operation:  "stat",
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// NewConfigError creates an error for invalid or unreadable configuration
func NewConfigError(op string, err error) *IndexError {
	return &IndexError{
		Type:       ErrorTypeConfig,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// NewWatchError creates an error for a file monitor failure
func NewWatchError(path string, op string, err error) *IndexError {
	return &IndexError{
		Type:       ErrorTypeWatch,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithRecoverable marks the error as recoverable
func (e *IndexError) WithRecoverable(recoverable bool) *IndexError {
	e.Recoverable = recoverable
	return e
}

// Error implements the error interface
func (e *IndexError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Type, e.Operation, e.Path, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Type, e.Operation, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *IndexError) Unwrap() error {
	return e.Underlying
}

// IsRecoverable checks if the operation can continue past the error
func (e *IndexError) IsRecoverable() bool {
	return e.Recoverable
}
