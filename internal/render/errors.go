package render

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against RenderError kinds.
var (
	ErrUnknownLayout         = errors.New("unknown layout")
	ErrTemplateBindingFailed = errors.New("template binding failed")
)

// ErrorKind classifies per-document render failures.
type ErrorKind string

const (
	KindUnknownLayout         ErrorKind = "UnknownLayout"
	KindTemplateBindingFailed ErrorKind = "TemplateBindingFailed"
)

// RenderError is a per-document render failure. It never aborts the build.
type RenderError struct {
	Kind   ErrorKind
	DocID  string
	Layout string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s: %s (layout %q): %v", e.DocID, e.Kind, e.Layout, e.Err)
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *RenderError) Unwrap() []error {
	s := ErrTemplateBindingFailed
	if e.Kind == KindUnknownLayout {
		s = ErrUnknownLayout
	}
	if e.Err == nil {
		return []error{s}
	}
	return []error{s, e.Err}
}
