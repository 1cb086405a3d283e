package converter

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by ConvertFile matches exactly one of
// them with errors.Is.
var (
	// ErrSourceRead covers missing, unreadable or invalid input files.
	ErrSourceRead = errors.New("source read failure")

	// ErrConversion covers unexpected data shape while building the document.
	ErrConversion = errors.New("conversion failure")

	// ErrWrite covers failures to write the output file.
	ErrWrite = errors.New("write failure")
)

// Error describes a failed conversion.
type Error struct {
	// Kind is one of ErrSourceRead, ErrConversion or ErrWrite.
	Kind error

	// Path is the file involved: the input for read and conversion
	// failures, the output for write failures.
	Path string

	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func newError(kind error, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}
