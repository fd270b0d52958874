package service

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure classes the gateway reports.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindStaging    ErrorKind = "staging"
	KindConversion ErrorKind = "conversion"
)

// Sentinel errors for request handling.
var (
	ErrMissingFile     = errors.New("no file part")
	ErrNoSelectedFile  = errors.New("no selected file")
	ErrUnsupportedType = errors.New("file type not allowed")
	ErrFileTooLarge    = errors.New("file too large")

	ErrStaging           = errors.New("staging upload failed")
	ErrConversion        = errors.New("conversion failed")
	ErrConversionTimeout = errors.New("conversion timed out")

	ErrHistoryDisabled = errors.New("conversion history is disabled")
)

// ConversionError tags a failure with its kind. Unwrap exposes both the
// kind's sentinel and the underlying cause to errors.Is.
type ConversionError struct {
	Kind     ErrorKind
	Sentinel error
	Err      error
}

func (e *ConversionError) Error() string {
	if e.Err == nil {
		return e.Sentinel.Error()
	}
	return fmt.Sprintf("%s: %v", e.Sentinel, e.Err)
}

func (e *ConversionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Err}
}

func newError(kind ErrorKind, sentinel, cause error) *ConversionError {
	return &ConversionError{Kind: kind, Sentinel: sentinel, Err: cause}
}

// KindOf classifies err. Untagged errors count as conversion failures.
func KindOf(err error) ErrorKind {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	switch {
	case errors.Is(err, ErrMissingFile),
		errors.Is(err, ErrNoSelectedFile),
		errors.Is(err, ErrUnsupportedType),
		errors.Is(err, ErrFileTooLarge):
		return KindValidation
	case errors.Is(err, ErrStaging):
		return KindStaging
	default:
		return KindConversion
	}
}
