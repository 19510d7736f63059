package site

import (
	"context"
	"fmt"
	"time"
)

// runStages executes stages in order, recording timing and stopping on the
// first fatal or canceled stage. Cancellation is only observed between stages.
func runStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.Name, ctx.Err())
			bs.Report.StageErrorKinds[st.Name] = se.Kind
			bs.Report.AddIssue(IssueCanceled, st.Name, SeverityError, se.Error(), se)
			bs.Report.recordStageResult(st.Name, StageResultCanceled, bs.recorder)
			bs.notifyStageComplete(st.Name, 0, StageResultCanceled)
			return se
		default:
		}

		bs.notifyStageStart(st.Name)
		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.Report.StageDurations[string(st.Name)] = dur

		out := classifyStageResult(st.Name, err)
		if out.Error != nil {
			bs.Report.StageErrorKinds[st.Name] = out.Error.Kind
			bs.Report.AddIssue(out.IssueCode, out.Stage, out.Severity, out.Error.Error(), out.Error)
		}
		bs.Report.recordStageResult(st.Name, out.Result, bs.recorder)
		bs.notifyStageComplete(st.Name, dur, out.Result)
		if out.Abort {
			if out.Error != nil {
				return out.Error
			}
			return fmt.Errorf("stage %s aborted", st.Name)
		}
	}
	return nil
}

func (bs *BuildState) notifyStageStart(stage StageName) {
	for _, o := range bs.observers {
		o.OnStageStart(stage)
	}
}

func (bs *BuildState) notifyStageComplete(stage StageName, d time.Duration, res StageResult) {
	for _, o := range bs.observers {
		o.OnStageComplete(stage, d, res)
	}
}

func (bs *BuildState) notifyBuildComplete() {
	for _, o := range bs.observers {
		o.OnBuildComplete(bs.Report)
	}
}
