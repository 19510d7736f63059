package site

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// BuildObserver receives callbacks around stage execution and the build
// lifecycle.
type BuildObserver interface {
	OnStageStart(stage StageName)
	OnStageComplete(stage StageName, duration time.Duration, result StageResult)
	OnBuildComplete(report *BuildReport)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnStageStart(StageName)                                {}
func (NoopObserver) OnStageComplete(StageName, time.Duration, StageResult) {}
func (NoopObserver) OnBuildComplete(*BuildReport)                          {}

// recorderObserver adapts metrics.Recorder into a BuildObserver.
type recorderObserver struct{ rec metrics.Recorder }

func (r recorderObserver) OnStageStart(StageName) {}

func (r recorderObserver) OnStageComplete(stage StageName, d time.Duration, _ StageResult) {
	r.rec.ObserveStageDuration(string(stage), d)
}

func (r recorderObserver) OnBuildComplete(report *BuildReport) {
	r.rec.ObserveBuildDuration(report.Duration())
	r.rec.IncBuildOutcome(string(report.Outcome))
	r.rec.IncDocuments(metrics.DocRendered, report.Rendered)
	r.rec.IncDocuments(metrics.DocFailed, report.Failed())
	r.rec.IncDocuments(metrics.DocSkipped, report.Drafts)
	r.rec.IncFiles(metrics.FileWritten, report.Written)
	r.rec.IncFiles(metrics.FileUnchanged, report.Unchanged)
	r.rec.IncFiles(metrics.FilePruned, report.Pruned)
	r.rec.SetBrokenLinks(len(report.BrokenLinks))
}

// logObserver logs stage progress.
type logObserver struct{ logger *slog.Logger }

func (l logObserver) OnStageStart(stage StageName) {
	l.logger.Debug("Stage started", logfields.Stage(string(stage)))
}

func (l logObserver) OnStageComplete(stage StageName, d time.Duration, result StageResult) {
	level := slog.LevelDebug
	if result != StageResultSuccess {
		level = slog.LevelWarn
	}
	l.logger.Log(context.Background(), level, "Stage completed",
		logfields.Stage(string(stage)),
		logfields.Outcome(string(result)),
		logfields.Duration(d))
}

func (l logObserver) OnBuildComplete(report *BuildReport) {
	l.logger.Info("Build completed",
		logfields.Outcome(string(report.Outcome)),
		slog.Int("rendered", report.Rendered),
		slog.Int("failed", report.Failed()),
		slog.Int("written", report.Written),
		slog.Int("unchanged", report.Unchanged),
		logfields.Duration(report.Duration()))
}
