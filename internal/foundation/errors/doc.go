// Package errors classifies sitebuilder errors by category and severity and
// maps them to process exit codes.
//
//	err := errors.WrapError(ioErr, errors.CategoryFileSystem, "write output").
//		Fatal().
//		WithContext("path", outPath).
//		Build()
//
// Per-document failures are not classified errors; they are collected in the
// build report and surface as a single CategoryDocuments error at the end.
package errors
