package metrics

import (
	"sync"
	"time"
)

// testRecorder counts calls; shared by tests in this package.
type testRecorder struct {
	mu             sync.Mutex
	stageDurations map[string]int
	stageResults   map[string]map[ResultLabel]int
	buildDurations int
	buildOutcomes  map[string]int
	documents      map[DocumentResult]int
}

var _ Recorder = (*testRecorder)(nil)

func newTestRecorder() *testRecorder {
	return &testRecorder{
		stageDurations: map[string]int{},
		stageResults:   map[string]map[ResultLabel]int{},
		buildOutcomes:  map[string]int{},
		documents:      map[DocumentResult]int{},
	}
}

func (t *testRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stageDurations[stage]++
}

func (t *testRecorder) ObserveBuildDuration(time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buildDurations++
}

func (t *testRecorder) IncStageResult(stage string, result ResultLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.stageResults[stage]
	if !ok {
		m = map[ResultLabel]int{}
		t.stageResults[stage] = m
	}
	m[result]++
}

func (t *testRecorder) IncBuildOutcome(outcome string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buildOutcomes[outcome]++
}

func (t *testRecorder) ObserveRenderDuration(time.Duration) {}

func (t *testRecorder) IncDocuments(result DocumentResult, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.documents[result] += n
}

func (t *testRecorder) IncFiles(FileResult, int) {}
func (t *testRecorder) SetBrokenLinks(int)       {}
func (t *testRecorder) SetWorkers(int)           {}
