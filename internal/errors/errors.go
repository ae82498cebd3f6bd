package errors

import (
	stderrors "errors"
	"fmt"
)

type Kind string

const (
	InvalidConfig     Kind = "invalid_config"
	InvalidRange      Kind = "invalid_range"
	InvalidResolution Kind = "invalid_resolution"
	Transient         Kind = "transient"
	Permanent         Kind = "permanent"
	IOFailure         Kind = "io_failure"
	Locked            Kind = "locked"
	Internal          Kind = "internal"
)

var (
	ErrInvalidRange      = stderrors.New("start date is after the end date")
	ErrInvalidResolution = stderrors.New("resolution must be a positive integer")
	ErrNoLayers          = stderrors.New("layers must be provided")
	ErrLocked            = stderrors.New("output directory is locked by another run")
)

type AppError struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *AppError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Wrap(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Kind: kind,
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// KindOf returns the kind of the outermost AppError in err's chain, or
// Internal when there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// IsConfig reports whether err is a validation failure that should stop the
// run before any side effect.
func IsConfig(err error) bool {
	switch KindOf(err) {
	case InvalidConfig, InvalidRange, InvalidResolution:
		return true
	}
	return stderrors.Is(err, ErrInvalidRange) ||
		stderrors.Is(err, ErrInvalidResolution) ||
		stderrors.Is(err, ErrNoLayers)
}

func UserMessage(err error) string {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return err.Error()
	}
	switch appErr.Kind {
	case InvalidConfig, InvalidRange, InvalidResolution:
		return fmt.Sprintf("Invalid configuration: %v", appErr.Err)
	case IOFailure:
		return fmt.Sprintf("I/O error: %s: %v", appErr.Path, appErr.Err)
	case Locked:
		return fmt.Sprintf("Output directory is in use by another run: %s", appErr.Path)
	case Transient:
		return fmt.Sprintf("Network error: %s", appErr.Path)
	case Permanent:
		return fmt.Sprintf("Request rejected: %v", appErr.Err)
	default:
		return fmt.Sprintf("Unexpected error: %v", appErr.Err)
	}
}
