package output

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"git.home.luguber.info/inful/sitebuilder/internal/cache"
)

// Result reports what Write did.
type Result string

const (
	Written   Result = "written"
	Unchanged Result = "unchanged"
)

// Writer writes files below a root directory. It is safe for concurrent use.
type Writer struct {
	root     string
	previous map[string]cache.Output
	locks    pathLocks

	mu      sync.Mutex
	current map[string]cache.Output
}

// NewWriter returns a Writer rooted at root. previous holds the outputs of
// the last build, keyed by relative path; nil disables unchanged detection
// and pruning.
func NewWriter(root string, previous map[string]cache.Output) *Writer {
	if previous == nil {
		previous = map[string]cache.Output{}
	}
	return &Writer{root: root, previous: previous, current: make(map[string]cache.Output)}
}

// Write stores data at rel (slash-separated, relative to the root). docID
// is recorded with the output and may be empty.
func (w *Writer) Write(rel, docID string, data []byte) (Result, error) {
	rel, err := clean(rel)
	if err != nil {
		return "", &WriteError{Path: rel, Op: "validate", Err: err}
	}
	unlock := w.locks.lock(rel)
	defer unlock()

	hash := cache.HashContent(data)
	target := filepath.Join(w.root, filepath.FromSlash(rel))
	result := Written
	if prev, ok := w.previous[rel]; ok && prev.Hash == hash && sameSize(target, len(data)) {
		result = Unchanged
	} else if err := writeAtomic(target, data); err != nil {
		return "", &WriteError{Path: rel, Op: "write", Err: err}
	}

	w.mu.Lock()
	w.current[rel] = cache.Output{Path: rel, Hash: hash, DocID: docID}
	w.mu.Unlock()
	return result, nil
}

// Outputs returns every path written or confirmed by this writer, sorted.
func (w *Writer) Outputs() []cache.Output {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]cache.Output, 0, len(w.current))
	for _, o := range w.current {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Has reports whether rel was produced by this writer.
func (w *Writer) Has(rel string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.current[rel]
	return ok
}

// Prune removes files recorded by the previous build that this build did not
// produce, then removes directories left empty. Files the writer never
// recorded are not touched. It returns the removed paths, sorted.
func (w *Writer) Prune() ([]string, error) {
	w.mu.Lock()
	var stale []string
	for p := range w.previous {
		if _, ok := w.current[p]; !ok {
			stale = append(stale, p)
		}
	}
	w.mu.Unlock()
	sort.Strings(stale)

	var removed []string
	for _, rel := range stale {
		target := filepath.Join(w.root, filepath.FromSlash(rel))
		if err := os.Remove(target); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return removed, &WriteError{Path: rel, Op: "prune", Err: err}
		}
		removed = append(removed, rel)
		w.removeEmptyParents(path.Dir(rel))
	}
	return removed, nil
}

func (w *Writer) removeEmptyParents(dir string) {
	for dir != "." && dir != "/" && dir != "" {
		abs := filepath.Join(w.root, filepath.FromSlash(dir))
		entries, err := os.ReadDir(abs)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(abs); err != nil {
			return
		}
		dir = path.Dir(dir)
	}
}

func writeAtomic(target string, data []byte) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func sameSize(target string, size int) bool {
	info, err := os.Stat(target)
	return err == nil && info.Mode().IsRegular() && info.Size() == int64(size)
}

var errEscapesRoot = errors.New("path escapes output root")

func clean(rel string) (string, error) {
	rel = path.Clean(strings.ReplaceAll(rel, "\\", "/"))
	if rel == "." || path.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, "../") {
		return rel, errEscapesRoot
	}
	return rel, nil
}
