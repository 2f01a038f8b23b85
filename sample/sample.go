// Package sample defines how raw lines from a device link become samples.
package sample

import (
	"bytes"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/pkg/errors"
)

var (
	// ErrNoData is returned when no record is currently available.
	ErrNoData = errors.New("no data available")

	// ErrDecode marks a line that is not valid UTF-8.
	ErrDecode = errors.New("invalid utf-8")

	// ErrFormat marks a line that is not a base-10 integer.
	ErrFormat = errors.New("not an integer")

	// ErrLineTooLong marks a record that exceeded the maximum line length
	// before a newline was seen.
	ErrLineTooLong = errors.New("line too long")
)

// A Source yields newline-delimited records from a device link.
type Source interface {
	// Poll returns the next line without its terminator. It returns
	// ErrNoData if nothing is available and a *MalformedError if the link
	// delivered an unusable record. Any other error is unexpected.
	Poll() ([]byte, error)

	Close() error
}

// MalformedError is an expected, discardable record.
type MalformedError struct {
	Line []byte
	Err  error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed line %q: %v", e.Line, e.Err)
}
func (e *MalformedError) Unwrap() error { return e.Err }

// IsMalformed reports whether err is, or wraps, a *MalformedError.
func IsMalformed(err error) bool {
	var m *MalformedError
	return errors.As(err, &m)
}

// Parse decodes a line into a sample.
//
// Surrounding whitespace is ignored and a blank line yields ErrNoData.
func Parse(line []byte) (int64, error) {
	if !utf8.Valid(line) {
		return 0, &MalformedError{Line: line, Err: ErrDecode}
	}
	s := bytes.TrimSpace(line)
	if len(s) == 0 {
		return 0, ErrNoData
	}
	v, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil {
		return 0, &MalformedError{Line: line, Err: ErrFormat}
	}
	return v, nil
}
