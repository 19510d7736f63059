package output

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// CopyStats counts the outcome of CopyTree.
type CopyStats struct {
	Written   int
	Unchanged int
	Shadowed  []string // already produced by the build, not copied
}

// CopyTree copies every regular file below src into the output root,
// preserving relative paths. Hidden files are skipped, as are paths this
// writer already produced. A missing src copies nothing.
func (w *Writer) CopyTree(src string) (CopyStats, error) {
	var stats CopyStats
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return stats, nil
	}
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return &WriteError{Path: p, Op: "walk", Err: walkErr}
		}
		if p != src && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, relErr := filepath.Rel(src, p)
		if relErr != nil {
			return &WriteError{Path: p, Op: "walk", Err: relErr}
		}
		target := filepath.ToSlash(rel)
		if w.Has(target) {
			stats.Shadowed = append(stats.Shadowed, target)
			return nil
		}
		data, readErr := os.ReadFile(p)
		if readErr != nil {
			return &WriteError{Path: target, Op: "read", Err: readErr}
		}
		res, writeErr := w.Write(target, "", data)
		if writeErr != nil {
			return writeErr
		}
		if res == Unchanged {
			stats.Unchanged++
		} else {
			stats.Written++
		}
		return nil
	})
	return stats, err
}
