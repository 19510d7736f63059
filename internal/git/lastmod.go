// Package git reads version control metadata for content files.
package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	ggit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotRepository is returned by Open when the directory is not inside a
// git working tree.
var ErrNotRepository = errors.New("not a git repository")

// History answers last-modified queries for files below a content directory.
// It is not safe for concurrent use.
type History struct {
	repo   *ggit.Repository
	prefix string // content dir relative to the worktree root, slash-separated
}

// Open locates the repository containing contentDir, searching parent
// directories for .git.
func Open(contentDir string) (*History, error) {
	abs, err := filepath.Abs(contentDir)
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	repo, err := ggit.PlainOpenWithOptions(abs, &ggit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, ggit.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	root := wt.Filesystem.Root()
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return nil, err
	}
	prefix := filepath.ToSlash(rel)
	if prefix == "." {
		prefix = ""
	}
	return &History{repo: repo, prefix: prefix}, nil
}

// LastModified returns the committer time of the newest commit touching
// relPath (relative to the content directory). ok is false for files that
// were never committed.
func (h *History) LastModified(relPath string) (t time.Time, ok bool, err error) {
	head, err := h.repo.Head()
	if err != nil {
		// Empty repository: nothing committed yet.
		return time.Time{}, false, nil
	}
	name := strings.TrimPrefix(filepath.ToSlash(filepath.Join(h.prefix, relPath)), "./")
	iter, err := h.repo.Log(&ggit.LogOptions{From: head.Hash(), FileName: &name})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("log %s: %w", name, err)
	}
	defer iter.Close()

	c, err := iter.Next()
	if err != nil {
		return time.Time{}, false, nil
	}
	return committed(c), true, nil
}

func committed(c *object.Commit) time.Time {
	if !c.Committer.When.IsZero() {
		return c.Committer.When
	}
	return c.Author.When
}
