package output

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/cache"
)

func TestWriter_WriteCreatesParents(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root, nil)

	res, err := w.Write("2023/06/01/hello/index.html", "2023-06-01-hello", []byte("<p>hi</p>"))
	require.NoError(t, err)
	assert.Equal(t, Written, res)

	data, err := os.ReadFile(filepath.Join(root, "2023", "06", "01", "hello", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", string(data))

	outs := w.Outputs()
	require.Len(t, outs, 1)
	assert.Equal(t, "2023-06-01-hello", outs[0].DocID)
	assert.Equal(t, cache.HashContent([]byte("<p>hi</p>")), outs[0].Hash)

	entries, err := os.ReadDir(filepath.Join(root, "2023", "06", "01", "hello"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriter_SkipsUnchanged(t *testing.T) {
	root := t.TempDir()
	first := NewWriter(root, nil)
	_, err := first.Write("index.html", "", []byte("same"))
	require.NoError(t, err)

	prev := map[string]cache.Output{}
	for _, o := range first.Outputs() {
		prev[o.Path] = o
	}

	second := NewWriter(root, prev)
	res, err := second.Write("index.html", "", []byte("same"))
	require.NoError(t, err)
	assert.Equal(t, Unchanged, res)

	res, err = second.Write("index.html", "", []byte("different"))
	require.NoError(t, err)
	assert.Equal(t, Written, res)
}

func TestWriter_RewritesMissingFile(t *testing.T) {
	root := t.TempDir()
	prev := map[string]cache.Output{"a.html": {Path: "a.html", Hash: cache.HashContent([]byte("x"))}}
	w := NewWriter(root, prev)

	res, err := w.Write("a.html", "", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, Written, res)
	assert.FileExists(t, filepath.Join(root, "a.html"))
}

func TestWriter_RejectsEscapingPaths(t *testing.T) {
	w := NewWriter(t.TempDir(), nil)
	for _, p := range []string{"../x.html", "/etc/x", "."} {
		_, err := w.Write(p, "", []byte("x"))
		var we *WriteError
		require.ErrorAs(t, err, &we, p)
	}
}

func TestWriter_ConcurrentSamePath(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root, nil)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.Write("shared/index.html", "", []byte("payload"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(filepath.Join(root, "shared", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestWriter_Prune(t *testing.T) {
	root := t.TempDir()
	first := NewWriter(root, nil)
	for _, p := range []string{"index.html", "2023/01/01/old/index.html", "2023/01/02/kept/index.html"} {
		_, err := first.Write(p, "", []byte(p))
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "CNAME"), []byte("example.org"), 0o644))

	prev := map[string]cache.Output{}
	for _, o := range first.Outputs() {
		prev[o.Path] = o
	}
	second := NewWriter(root, prev)
	for _, p := range []string{"index.html", "2023/01/02/kept/index.html"} {
		_, err := second.Write(p, "", []byte(p))
		require.NoError(t, err)
	}

	removed, err := second.Prune()
	require.NoError(t, err)
	assert.Equal(t, []string{"2023/01/01/old/index.html"}, removed)
	assert.NoDirExists(t, filepath.Join(root, "2023", "01", "01"))
	assert.DirExists(t, filepath.Join(root, "2023", "01", "02"))
	assert.FileExists(t, filepath.Join(root, "CNAME"), "unrecorded files are left alone")
}

func TestWriter_CopyTree(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "css", "site.css"), []byte("body{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, ".DS_Store"), []byte("x"), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(src, "index.html"), []byte("static"), 0o644))

	root := t.TempDir()
	w := NewWriter(root, nil)
	_, err := w.Write("index.html", "", []byte("generated"))
	require.NoError(t, err)

	stats, err := w.CopyTree(src)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Written)
	assert.Zero(t, stats.Unchanged)
	assert.Equal(t, []string{"index.html"}, stats.Shadowed)
	assert.FileExists(t, filepath.Join(root, "css", "site.css"))
	assert.NoFileExists(t, filepath.Join(root, ".DS_Store"))

	data, err := os.ReadFile(filepath.Join(root, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "generated", string(data))

	stats, err = w.CopyTree(filepath.Join(src, "missing"))
	require.NoError(t, err)
	assert.Zero(t, stats.Written)
}
