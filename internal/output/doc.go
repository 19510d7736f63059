// Package output writes rendered files into the output directory.
//
// Every file is written to a temporary sibling and renamed into place, so a
// reader never observes a partially written page. Writes to the same path
// are serialized; writes to different paths may run in parallel. Files whose
// content hash matches the previous build and that are still present on disk
// are left untouched.
package output
