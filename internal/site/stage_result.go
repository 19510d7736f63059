package site

import "git.home.luguber.info/inful/sitebuilder/internal/metrics"

// StageResult enumerates per-stage classification outcomes.
// Values mirror metrics.ResultLabel.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

// recordStageResult updates BuildReport counters and emits metrics.
func (r *BuildReport) recordStageResult(stage StageName, res StageResult, recorder metrics.Recorder) {
	sc := r.StageCounts[stage]
	switch res {
	case StageResultSuccess:
		sc.Success++
	case StageResultWarning:
		sc.Warning++
	case StageResultFatal:
		sc.Fatal++
	case StageResultCanceled:
		sc.Canceled++
	}
	r.StageCounts[stage] = sc
	if recorder != nil {
		recorder.IncStageResult(string(stage), metrics.ResultLabel(res))
	}
}
