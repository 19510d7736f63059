package site

import "errors"

var (
	// ErrContentDirMissing is returned when the content directory does not exist.
	ErrContentDirMissing = errors.New("content directory not found")
	// ErrNoDocuments is returned when documents were found but none survived.
	ErrNoDocuments = errors.New("no document was built successfully")
)
