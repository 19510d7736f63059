package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCompleted_JSONShape(t *testing.T) {
	ev := &BuildCompleted{
		BuildID:    "b-1",
		Outcome:    "partial",
		Discovered: 3,
		Rendered:   2,
		Failed:     1,
		Failures:   []Failure{{DocID: "x", Path: "x.md", Kind: "MissingField", Message: "missing field \"layout\""}},
		FinishedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "b-1", decoded["build_id"])
	assert.Equal(t, "2024-01-02T03:04:05Z", decoded["finished_at"])
	assert.Len(t, decoded["failures"], 1)
}

func TestRecorderPublisher(t *testing.T) {
	var r RecorderPublisher
	require.NoError(t, r.PublishBuildCompleted(context.Background(), &BuildCompleted{BuildID: "a"}))
	require.NoError(t, r.PublishBuildCompleted(context.Background(), &BuildCompleted{BuildID: "b"}))

	evs := r.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, "b", evs[1].BuildID)
	require.NoError(t, r.Close())
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.PublishBuildCompleted(context.Background(), &BuildCompleted{}))
	assert.NoError(t, p.Close())
}

func TestNewNATSPublisher_Errors(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:4222", "", nil)
	require.Error(t, err)

	// Nothing listens on the discard port.
	_, err = NewNATSPublisher("nats://127.0.0.1:9", "sitebuilder.test", nil)
	require.Error(t, err)
}
