package rules

import (
	"errors"
	"fmt"
)

// Pattern syntax errors.
var (
	// ErrInvalidCaptureName is returned when a {name} or {*name} component has
	// an empty name or one containing characters outside [A-Za-z0-9_].
	ErrInvalidCaptureName = errors.New("invalid capture name")

	// ErrWildcardNotTerminal is returned when a {*name} component is followed
	// by further components.
	ErrWildcardNotTerminal = errors.New("wildcard segment must be the last segment")

	// ErrDuplicateCaptureName is returned when two components of one pattern
	// bind the same name.
	ErrDuplicateCaptureName = errors.New("duplicate capture name")
)

// Headers file errors.
var (
	// ErrOrphanedHeaderLine is returned when an indented header line appears
	// before any path pattern line.
	ErrOrphanedHeaderLine = errors.New("header line appears before any path pattern")

	// ErrMissingHeaderColon is returned when an indented header line has no
	// colon separating name and value.
	ErrMissingHeaderColon = errors.New("header line missing colon")
)

// Redirects file errors.
var (
	// ErrMalformedRedirectLine is returned when a redirect line does not split
	// into two or three whitespace-separated fields.
	ErrMalformedRedirectLine = errors.New("redirect line must have 2 or 3 fields")

	// ErrInvalidStatusCode is returned when the optional status field is not a
	// positive integer.
	ErrInvalidStatusCode = errors.New("invalid redirect status code")

	// ErrUnknownCaptureReference is returned when a redirect target references
	// a name the source pattern does not bind.
	ErrUnknownCaptureReference = errors.New("target references a capture the pattern does not bind")
)

// ParseError locates a configuration error on a specific line of a rule file.
// It wraps one of the sentinel errors above, so callers can classify failures
// with errors.Is.
type ParseError struct {
	// Line is the 1-based line number in the source text.
	Line int

	// Err is the underlying error, wrapping one of the package sentinels.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErrorf(line int, err error, format string, args ...any) *ParseError {
	wrapped := fmt.Errorf(format+": %w", append(args, err)...)
	return &ParseError{Line: line, Err: wrapped}
}
