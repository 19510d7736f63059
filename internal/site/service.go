package site

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitebuilder/internal/cache"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/events"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// MetricsFile is the Prometheus textfile written into the state directory.
const MetricsFile = "metrics.prom"

// textfileWriter is implemented by recorders that can dump their registry.
type textfileWriter interface {
	WriteTextfile(path string) error
}

// Service runs builds for one configuration. Builds must not overlap.
type Service struct {
	cfg       *config.Config
	logger    *slog.Logger
	recorder  metrics.Recorder
	publisher events.Publisher
	observers []BuildObserver
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithPublisher sets the build event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithObserver adds a build observer.
func WithObserver(o BuildObserver) Option {
	return func(s *Service) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// NewService returns a Service building cfg.
func NewService(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:       cfg,
		logger:    slog.Default(),
		recorder:  metrics.NoopRecorder{},
		publisher: events.NoopPublisher{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build runs one complete build. The report is always returned. The error
// is non-nil only for a terminal failure; per-document failures are
// available through BuildReport.Err.
func (s *Service) Build(ctx context.Context) (*BuildReport, error) {
	buildID := uuid.NewString()
	logger := s.logger.With(logfields.BuildID(buildID))
	report := newBuildReport(buildID, s.now())

	bs := newBuildState(s.cfg, report, logger, s.recorder)
	bs.observers = append([]BuildObserver{recorderObserver{rec: s.recorder}, logObserver{logger: logger}}, s.observers...)
	s.recorder.SetWorkers(bs.workers())

	if store := s.openStore(ctx, bs); store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("Failed to close cache", logfields.Error(err))
			}
		}()
	}

	logger.Info("Build started",
		logfields.Path(s.cfg.Build.ContentDir),
		slog.String("output", s.cfg.Build.OutputDir))
	runErr := runStages(ctx, bs, Pipeline())

	report.finish(s.now())
	report.deriveOutcome()
	bs.notifyBuildComplete()
	s.finalize(bs)

	if runErr == nil {
		return report, nil
	}
	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		return report, ferrors.WrapError(runErr, ferrors.CategoryRuntime, "build canceled").Build()
	}
	if ferrors.IsClassified(runErr) {
		return report, runErr
	}
	return report, ferrors.WrapError(runErr, ferrors.CategoryBuild, "build failed").Fatal().Build()
}

// openStore opens the incremental cache and loads the previous build's
// state. Failures degrade to a full build.
func (s *Service) openStore(ctx context.Context, bs *BuildState) cache.Store {
	dir := s.cfg.Build.StateDir
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.cacheIssue(bs, "create state directory", err)
		return nil
	}
	store, err := cache.NewSQLiteStore(filepath.Join(dir, cache.FileName))
	if err != nil {
		s.cacheIssue(bs, "open cache", err)
		return nil
	}
	outputs, err := store.Outputs(ctx)
	if err != nil {
		s.cacheIssue(bs, "load previous outputs", err)
		_ = store.Close()
		return nil
	}
	sources, err := store.Sources(ctx)
	if err != nil {
		s.cacheIssue(bs, "load previous sources", err)
		_ = store.Close()
		return nil
	}
	bs.store = store
	bs.previousOutputs = outputs
	bs.previousSources = sources
	return store
}

func (s *Service) cacheIssue(bs *BuildState, msg string, err error) {
	ce := ferrors.WrapError(err, ferrors.CategoryCache, msg).Warning().Build()
	bs.Report.AddIssue(IssueCache, StageDiscover, SeverityWarning, ce.Error(), ce)
	bs.Logger.Warn("Incremental cache unavailable", logfields.Error(ce))
}

// finalize records history, persists the report and metrics and publishes
// the completion event. None of these affect the build outcome.
func (s *Service) finalize(bs *BuildState) {
	report := bs.Report
	ctx := context.Background()

	if bs.store != nil {
		rec := cache.BuildRecord{
			BuildID:   report.BuildID,
			StartedAt: report.Start,
			Duration:  report.Duration(),
			Outcome:   string(report.Outcome),
			Rendered:  report.Rendered,
			Failed:    report.Failed(),
			Written:   report.Written,
			Unchanged: report.Unchanged,
		}
		if err := bs.store.RecordBuild(ctx, rec); err != nil {
			bs.Logger.Warn("Failed to record build history", logfields.Error(err))
		}
	}

	if dir := s.cfg.Build.StateDir; dir != "" {
		if err := report.Persist(dir); err != nil {
			bs.Logger.Warn("Failed to persist build report", logfields.Error(err))
		}
		if tw, ok := s.recorder.(textfileWriter); ok {
			if err := tw.WriteTextfile(filepath.Join(dir, MetricsFile)); err != nil {
				bs.Logger.Warn("Failed to write metrics textfile", logfields.Error(err))
			}
		}
	}

	if err := s.publisher.PublishBuildCompleted(ctx, buildCompletedEvent(report, s.now())); err != nil {
		bs.Logger.Warn("Failed to publish build event", logfields.Error(err))
	}
}

func buildCompletedEvent(r *BuildReport, at time.Time) *events.BuildCompleted {
	ev := &events.BuildCompleted{
		BuildID:     r.BuildID,
		Outcome:     string(r.Outcome),
		Discovered:  r.Discovered,
		Rendered:    r.Rendered,
		Failed:      r.Failed(),
		Written:     r.Written,
		Unchanged:   r.Unchanged,
		BrokenLinks: len(r.BrokenLinks),
		DurationMS:  float64(r.Duration().Microseconds()) / 1000,
		FinishedAt:  at.UTC(),
	}
	for _, f := range r.Failures {
		ev.Failures = append(ev.Failures, events.Failure{DocID: f.DocID, Path: f.Path, Kind: f.Kind, Message: f.Message})
	}
	return ev
}
