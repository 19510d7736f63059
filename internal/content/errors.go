package content

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks against ParseError kinds.
var (
	ErrMissingField    = errors.New("missing required field")
	ErrMalformedHeader = errors.New("malformed front matter")
	ErrDuplicateID     = errors.New("duplicate document id")

	// ErrModelFrozen is returned by Model.Add once the index has been built.
	ErrModelFrozen = errors.New("content model is frozen")
)

// ParseErrorKind classifies document ingestion failures.
type ParseErrorKind string

const (
	KindMissingField    ParseErrorKind = "MissingField"
	KindMalformedHeader ParseErrorKind = "MalformedHeader"
	KindDuplicateID     ParseErrorKind = "DuplicateId"
)

// ParseError is a per-document ingestion failure. It never aborts the build.
type ParseError struct {
	Kind  ParseErrorKind
	Path  string // source path relative to the content root
	DocID string // empty when the id could not be derived
	Field string // offending key for MissingField / DuplicateId
	Err   error  // underlying cause, may be nil
}

func (e *ParseError) Error() string {
	var detail string
	switch e.Kind {
	case KindMissingField:
		detail = fmt.Sprintf("missing field %q", e.Field)
	case KindDuplicateID:
		detail = fmt.Sprintf("duplicate %s %q", e.Field, e.DocID)
	default:
		detail = "malformed header"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Path, e.Kind, detail, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Kind, detail)
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *ParseError) Unwrap() []error {
	errs := []error{e.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (e *ParseError) sentinel() error {
	switch e.Kind {
	case KindMissingField:
		return ErrMissingField
	case KindDuplicateID:
		return ErrDuplicateID
	default:
		return ErrMalformedHeader
	}
}

func malformed(path string, err error) *ParseError {
	return &ParseError{Kind: KindMalformedHeader, Path: path, Err: err}
}

func missingField(path, field string) *ParseError {
	return &ParseError{Kind: KindMissingField, Path: path, Field: field}
}
