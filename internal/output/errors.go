package output

import "fmt"

// WriteError is an I/O failure while producing an output file. It is fatal
// for the build.
type WriteError struct {
	Path string // relative output path
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
