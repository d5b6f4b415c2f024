package csvutil

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidProjection is returned by Read when the projection list holds
	// an empty or repeated column name.
	ErrInvalidProjection = errors.New("csvutil: invalid projection")
	// ErrUnknownEncoding is returned for an encoding name that cannot be resolved.
	ErrUnknownEncoding = errors.New("csvutil: unknown encoding")
	// ErrFieldTooLarge is returned when a cell exceeds the reader's field limit.
	ErrFieldTooLarge = errors.New("csvutil: field larger than field limit")
	// ErrTooManyFields is returned when a row has more cells than the header.
	ErrTooManyFields = errors.New("csvutil: row has more fields than header")
	// ErrUnsupportedValue is returned by Of for Go types it cannot convert.
	ErrUnsupportedValue = errors.New("csvutil: unsupported value type")
)

// MissingColumnError reports a column that is absent from a row. Available
// holds the row's real columns so delimiter or encoding mismatches are easy
// to spot.
type MissingColumnError struct {
	Column    string
	Available []string
}

func (e *MissingColumnError) Error() string {
	quoted := make([]string, len(e.Available))
	for i, name := range e.Available {
		quoted[i] = fmt.Sprintf("%q", name)
	}
	return fmt.Sprintf("csvutil: field %q not found, available columns: %s",
		e.Column, strings.Join(quoted, ", "))
}

// ParseError locates a reader failure in its source file.
type ParseError struct {
	Path  string
	Line  int
	Field int
	Err   error
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("csvutil: %s line %d, field %d: %v", e.Path, e.Line, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
