package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already registered")
	ErrEmptyDataset  = errors.New("csv contains no data rows")
	ErrUploadTooBig  = errors.New("upload exceeds size limit")
	ErrTooManyRows   = errors.New("csv exceeds row limit")
	ErrInvalidLogin  = errors.New("invalid username or password")
	ErrRenderFailure = errors.New("stored summary is incomplete")
)

// SchemaError reports the required CSV columns missing from an upload.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("csv is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// FormatError reports a payload that is not parseable CSV.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("not a valid csv file: %s", e.Reason)
}

// CoercionError reports a cell that could not be converted to a number.
// Line is 1-based and counts the header as line 1.
type CoercionError struct {
	Column string
	Value  string
	Line   int
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("column %q has non-numeric value %q on line %d", e.Column, e.Value, e.Line)
}
