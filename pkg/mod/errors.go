package mod

import (
	"errors"
	"fmt"
)

// ErrMalformedModule is returned when the input is too short for the
// declared layout or carries an out-of-range structural field.
var ErrMalformedModule = errors.New("malformed module")

// ParseError records which field of the module could not be read.
type ParseError struct {
	Field  string
	Offset int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at offset %d: %v", e.Field, e.Offset, e.Err)
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Err
}

func malformed(field string, offset int, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Field:  field,
		Offset: offset,
		Err:    fmt.Errorf("%w: "+format, append([]interface{}{ErrMalformedModule}, args...)...),
	}
}
