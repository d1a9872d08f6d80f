package storekit

import (
	"errors"
	"fmt"
)

// Common store errors
var (
	ErrInvalidAddress        = errors.New("invalid storage address")
	ErrUnrecognizedStoreType = errors.New("unrecognized store type")
	ErrConfiguration         = errors.New("invalid store configuration")
	ErrConnection            = errors.New("store connection failed")
	ErrObjectExists          = errors.New("key exists")
	ErrInvalidPath           = errors.New("invalid local path")
	ErrNotFound              = errors.New("object does not exist")
	ErrTransfer              = errors.New("transfer failed")
)

// PathError records an error and the operation and address that caused it
type PathError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *PathError) Unwrap() error {
	return e.Err
}

// NewPathError builds a PathError whose chain contains kind and, when non-nil, cause.
func NewPathError(op, path string, kind, cause error) error {
	if cause == nil {
		return &PathError{Op: op, Path: path, Err: kind}
	}
	if errors.Is(cause, kind) {
		return &PathError{Op: op, Path: path, Err: cause}
	}
	return &PathError{Op: op, Path: path, Err: fmt.Errorf("%w: %w", kind, cause)}
}

// ConfigError reports a credential problem found while connecting. The result
// matches both ErrConnection and ErrConfiguration.
func ConfigError(op, path string, cause error) error {
	if errors.Is(cause, ErrConfiguration) {
		return &PathError{Op: op, Path: path, Err: fmt.Errorf("%w: %w", ErrConnection, cause)}
	}
	return &PathError{Op: op, Path: path, Err: fmt.Errorf("%w: %w: %w", ErrConnection, ErrConfiguration, cause)}
}

// IsNotFound reports whether an error indicates that an object or path
// does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsExist reports whether an error indicates that the target key already exists
func IsExist(err error) bool {
	return errors.Is(err, ErrObjectExists)
}

// IsConfiguration reports whether an error was caused by missing or malformed credentials
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsConnection reports whether an error happened while building a backend connection
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}
