// Package cache persists incremental build state between runs: the hash of
// every output file, the fingerprint of every source document and a short
// build history.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// FileName is the cache database name inside the state directory.
const FileName = "cache.db"

// Output is the recorded state of one output file.
type Output struct {
	Path  string // slash-separated, relative to the output root
	Hash  string
	DocID string // empty for generated and static files
}

// Source is the recorded fingerprint of one source document.
type Source struct {
	DocID       string
	Path        string
	Fingerprint string
}

// BuildRecord summarizes one finished build.
type BuildRecord struct {
	BuildID   string
	StartedAt time.Time
	Duration  time.Duration
	Outcome   string
	Rendered  int
	Failed    int
	Written   int
	Unchanged int
}

// Store is the incremental build state.
type Store interface {
	Outputs(ctx context.Context) (map[string]Output, error)
	ReplaceOutputs(ctx context.Context, outputs []Output) error
	Sources(ctx context.Context) (map[string]Source, error)
	ReplaceSources(ctx context.Context, sources []Source) error
	RecordBuild(ctx context.Context, rec BuildRecord) error
	Builds(ctx context.Context, limit int) ([]BuildRecord, error)
	Close() error
}

// HashContent returns the hex SHA-256 of data.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
