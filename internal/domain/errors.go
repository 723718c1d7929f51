package domain

import (
	"errors"
	"fmt"
)

// Sentinel kinds for the failure taxonomy. Callers classify with errors.Is;
// the message itself stays verbatim for the UI.
var (
	ErrValidation = errors.New("validation failed")
	ErrUpload     = errors.New("upload failed")
	ErrStore      = errors.New("store failed")
	ErrGeneration = errors.New("generation failed")
	ErrBusy       = errors.New("operation already in flight")
	ErrNotFound   = errors.New("not found")
)

// Error pairs a sentinel kind with a human-readable message. Error() returns
// only the message so collaborator failures surface unchanged.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Validationf reports missing or malformed caller input.
func Validationf(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

// Uploadf reports an image host failure.
func Uploadf(format string, args ...any) error {
	return newError(ErrUpload, format, args...)
}

// Storef reports a document store failure.
func Storef(format string, args ...any) error {
	return newError(ErrStore, format, args...)
}

// Generationf reports an image generation collaborator failure.
func Generationf(format string, args ...any) error {
	return newError(ErrGeneration, format, args...)
}

// Busyf reports that a conflicting operation is already in flight.
func Busyf(format string, args ...any) error {
	return newError(ErrBusy, format, args...)
}

// NotFoundf reports a missing record.
func NotFoundf(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}
