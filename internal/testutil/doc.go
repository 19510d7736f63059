// Package testutil holds helpers shared by package tests: content tree
// fixtures, output assertions and throwaway git repositories.
package testutil
