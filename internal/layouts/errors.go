package layouts

import "errors"

var (
	// ErrUnknownLayout is returned when no layout file or embedded default matches a name.
	ErrUnknownLayout = errors.New("unknown layout")
	// ErrLayoutTooDeep is returned when a wrapping layout itself declares a parent.
	ErrLayoutTooDeep = errors.New("layout nesting deeper than one level")
)
