// Package events publishes build lifecycle notifications.
package events

import (
	"context"
	"sync"
	"time"
)

// Failure is one per-document failure carried in a BuildCompleted event.
type Failure struct {
	DocID   string `json:"doc_id,omitempty"`
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// BuildCompleted is published once per build, successful or not.
type BuildCompleted struct {
	BuildID     string    `json:"build_id"`
	Outcome     string    `json:"outcome"`
	Discovered  int       `json:"discovered"`
	Rendered    int       `json:"rendered"`
	Failed      int       `json:"failed"`
	Written     int       `json:"written"`
	Unchanged   int       `json:"unchanged"`
	BrokenLinks int       `json:"broken_links"`
	DurationMS  float64   `json:"duration_ms"`
	Failures    []Failure `json:"failures,omitempty"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Publisher delivers build events.
type Publisher interface {
	PublishBuildCompleted(ctx context.Context, ev *BuildCompleted) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) PublishBuildCompleted(context.Context, *BuildCompleted) error { return nil }
func (NoopPublisher) Close() error                                                 { return nil }

// RecorderPublisher keeps events in memory. Useful in tests.
type RecorderPublisher struct {
	mu     sync.Mutex
	events []*BuildCompleted
}

// PublishBuildCompleted records ev.
func (r *RecorderPublisher) PublishBuildCompleted(_ context.Context, ev *BuildCompleted) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Close is a no-op.
func (r *RecorderPublisher) Close() error { return nil }

// Events returns a copy of the recorded events.
func (r *RecorderPublisher) Events() []*BuildCompleted {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*BuildCompleted, len(r.events))
	copy(out, r.events)
	return out
}
