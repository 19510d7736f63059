// Package site runs a complete build: it discovers source documents, parses
// them into a content model, freezes the index, renders every document and
// generated page, and writes the results.
//
// A build is a fixed sequence of stages sharing one BuildState. Per-document
// failures are recorded in the BuildReport and never stop the build; a stage
// returning a fatal StageError does.
package site
