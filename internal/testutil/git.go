package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// InitRepo initializes a git repository in a fresh temporary directory.
func InitRepo(t *testing.T) (*git.Repository, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to initialize git repo: %v", err)
	}
	return repo, dir
}

// CommitFile writes body to rel below root and commits it with when as
// both author and committer time.
func CommitFile(t *testing.T, repo *git.Repository, root, rel, body string, when time.Time) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if _, err := wt.Add(filepath.ToSlash(rel)); err != nil {
		t.Fatalf("add %s: %v", rel, err)
	}
	sig := &object.Signature{Name: "tester", Email: "tester@example.com", When: when}
	if _, err := wt.Commit("update "+rel, &git.CommitOptions{Author: sig, Committer: sig}); err != nil {
		t.Fatalf("commit %s: %v", rel, err)
	}
}
