package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_ReplaceOutputs(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	ctx := t.Context()

	require.NoError(t, store.ReplaceOutputs(ctx, []Output{
		{Path: "index.html", Hash: "h1"},
		{Path: "2023/01/01/a/index.html", Hash: "h2", DocID: "2023-01-01-a"},
	}))
	got, err := store.Outputs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]Output{
		"index.html":              {Path: "index.html", Hash: "h1"},
		"2023/01/01/a/index.html": {Path: "2023/01/01/a/index.html", Hash: "h2", DocID: "2023-01-01-a"},
	}, got)

	require.NoError(t, store.ReplaceOutputs(ctx, []Output{{Path: "index.html", Hash: "h3"}}))
	got, err = store.Outputs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]Output{"index.html": {Path: "index.html", Hash: "h3"}}, got)
}

func TestSQLiteStore_Sources(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	ctx := t.Context()

	require.NoError(t, store.ReplaceSources(ctx, []Source{{DocID: "a", Path: "a.md", Fingerprint: "fp"}}))
	got, err := store.Sources(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fp", got["a"].Fingerprint)
}

func TestSQLiteStore_BuildHistoryPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	ctx := t.Context()

	started := time.UnixMilli(1700000000000)
	require.NoError(t, store.RecordBuild(ctx, BuildRecord{BuildID: "one", StartedAt: started, Duration: 1500 * time.Millisecond, Outcome: "success", Rendered: 3}))
	require.NoError(t, store.RecordBuild(ctx, BuildRecord{BuildID: "two", StartedAt: started.Add(time.Minute), Outcome: "partial", Failed: 1}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	builds, err := reopened.Builds(ctx, 10)
	require.NoError(t, err)
	require.Len(t, builds, 2)
	assert.Equal(t, "two", builds[0].BuildID)
	assert.Equal(t, 1500*time.Millisecond, builds[1].Duration)
	assert.True(t, builds[1].StartedAt.Equal(started))
	assert.Equal(t, 3, builds[1].Rendered)
}

func TestHashContent(t *testing.T) {
	assert.Equal(t, HashContent([]byte("a")), HashContent([]byte("a")))
	assert.NotEqual(t, HashContent([]byte("a")), HashContent([]byte("b")))
	assert.Len(t, HashContent(nil), 64)
}
