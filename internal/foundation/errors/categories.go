package errors

// ErrorCategory groups errors by what went wrong, and decides the exit code.
type ErrorCategory string

const (
	// CategoryConfig covers configuration files and command line input.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// CategoryDocuments reports that one or more documents failed to parse or render.
	CategoryDocuments ErrorCategory = "documents"

	// CategoryBuild covers the pipeline itself and the files it writes.
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryCache      ErrorCategory = "cache"

	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity says whether the build can go on.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // stops the build
	SeverityError   ErrorSeverity = "error"   // fails one document or operation
	SeverityWarning ErrorSeverity = "warning" // output is degraded but complete
)

// Field is one key/value pair attached to a ClassifiedError. Fields keep
// the order they were added in.
type Field struct {
	Key   string
	Value any
}

// Fields is the ordered context of a ClassifiedError.
type Fields []Field

// Lookup returns the last value stored under key.
func (f Fields) Lookup(key string) (any, bool) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i].Key == key {
			return f[i].Value, true
		}
	}
	return nil, false
}
