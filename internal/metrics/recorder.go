package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// DocumentResult enumerates per-document outcomes.
type DocumentResult string

const (
	DocRendered DocumentResult = "rendered"
	DocFailed   DocumentResult = "failed"
	DocSkipped  DocumentResult = "skipped" // drafts
)

// FileResult enumerates write outcomes for output files.
type FileResult string

const (
	FileWritten   FileResult = "written"
	FileUnchanged FileResult = "unchanged"
	FilePruned    FileResult = "pruned"
)

// Recorder defines observability hooks for build and stage metrics.
// Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome string) // success|partial|failed|canceled
	ObserveRenderDuration(d time.Duration)
	IncDocuments(result DocumentResult, n int)
	IncFiles(result FileResult, n int)
	SetBrokenLinks(n int)
	SetWorkers(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
func (NoopRecorder) ObserveRenderDuration(time.Duration)        {}
func (NoopRecorder) IncDocuments(DocumentResult, int)           {}
func (NoopRecorder) IncFiles(FileResult, int)                   {}
func (NoopRecorder) SetBrokenLinks(int)                         {}
func (NoopRecorder) SetWorkers(int)                             {}
