package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDocID      = "doc_id"
	KeyPath       = "path"
	KeyLayout     = "layout"
	KeyTag        = "tag"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyOutcome    = "outcome"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DocID(id string) slog.Attr       { return slog.String(KeyDocID, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Layout(name string) slog.Attr    { return slog.String(KeyLayout, name) }
func Tag(tag string) slog.Attr        { return slog.String(KeyTag, tag) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Duration converts d to milliseconds under the canonical duration key.
func Duration(d time.Duration) slog.Attr {
	return DurationMS(float64(d.Microseconds()) / 1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
