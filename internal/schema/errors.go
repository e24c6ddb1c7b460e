package schema

import (
	"errors"
	"fmt"
	"strings"
)

// InvalidDataError reports document data that does not conform to its schema.
// Path is the trail of field names and indices from the document root to the
// offending value, outermost first. It is a configuration-authoring error and
// is always surfaced to the caller; contrast with internal inconsistencies,
// which indicate a bug in the schema engine itself and panic instead.
type InvalidDataError struct {
	Path []string
	Msg  string
	Err  error // underlying cause, may be nil
}

// Error returns a human-readable message prefixed with the document path.
func (e *InvalidDataError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if len(e.Path) == 0 {
		return msg
	}
	return strings.Join(e.Path, ".") + ": " + msg
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *InvalidDataError) Unwrap() error {
	return e.Err
}

// IsInvalidData reports whether err is (or wraps) an InvalidDataError.
func IsInvalidData(err error) bool {
	var ie *InvalidDataError
	return errors.As(err, &ie)
}

// invalidf builds an InvalidDataError with a formatted message.
func invalidf(format string, args ...any) *InvalidDataError {
	return &InvalidDataError{Msg: fmt.Sprintf(format, args...)}
}

// at prepends a path element to err's trail. Non-InvalidData errors are
// wrapped so the trail is never lost.
func at(elem string, err error) error {
	var ie *InvalidDataError
	if errors.As(err, &ie) {
		return &InvalidDataError{Path: append([]string{elem}, ie.Path...), Msg: ie.Msg, Err: ie.Err}
	}
	return &InvalidDataError{Path: []string{elem}, Msg: err.Error(), Err: err}
}
