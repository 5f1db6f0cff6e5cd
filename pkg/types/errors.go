package types

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrUnknownFileKind   = errors.New("unknown file kind")
	ErrInvalidPackage    = errors.New("invalid package name")
	ErrPackageNotFound   = errors.New("package not found")
	ErrListingDecode     = errors.New("invalid listing output")
	ErrNoRecognizedFiles = errors.New("no recognized files")
	ErrParse             = errors.New("parse failed")
	ErrFetch             = errors.New("fetch failed")
	ErrPersist           = errors.New("persist failed")
)

// ListingError is returned when a package listing cannot be produced.
// It wraps ErrPackageNotFound or ErrListingDecode.
type ListingError struct {
	Package string
	Detail  string
	Err     error
}

func (e *ListingError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Package)
	}
	return fmt.Sprintf("%v: %s: %s", e.Err, e.Package, e.Detail)
}

func (e *ListingError) Unwrap() error {
	return e.Err
}

// FetchError is returned when remote file content cannot be retrieved
type FetchError struct {
	URL        string
	StatusCode int // Zero for transport failures
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetch}
	}
	return []error{ErrFetch, e.Err}
}

// Retryable reports whether the failure may succeed on another attempt
func (e *FetchError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}

// ParseError carries diagnostics for a file that could not be parsed.
// Offset is a byte position for XML errors; Line is 1-based for line formats.
type ParseError struct {
	Kind   FileKind
	Path   string
	Offset int64
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("%s: %s line %d: %s", e.Kind, e.Path, e.Line, e.Reason)
	case e.Offset > 0:
		return fmt.Sprintf("%s: error at position %d in %s: %s", e.Kind, e.Offset, e.Path, e.Reason)
	default:
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Reason)
	}
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// PersistError wraps a persistence sink failure
type PersistError struct {
	Package string
	Path    string
	Err     error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s/%s: %v", e.Package, e.Path, e.Err)
}

func (e *PersistError) Unwrap() []error {
	return []error{ErrPersist, e.Err}
}
