package site

import (
	"log/slog"
	"runtime"

	"git.home.luguber.info/inful/sitebuilder/internal/cache"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/layouts"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/output"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
)

// SourceFile is one discovered content file.
type SourceFile struct {
	RelPath string // slash-separated, relative to the content directory
	AbsPath string
}

// BuildState carries everything one build pass produces. It is created per
// build, handed to each stage in turn and discarded afterwards.
type BuildState struct {
	Config *config.Config
	Report *BuildReport
	Logger *slog.Logger

	Sources  []SourceFile       // discover
	Model    *content.Model     // parse
	Index    *content.Index     // index; read-only once set
	Pages    []*render.Rendered // render
	Writer   *output.Writer     // write
	resolver *layouts.Resolver
	renderer *render.Renderer

	store           cache.Store // nil when the state directory is disabled
	previousOutputs map[string]cache.Output
	previousSources map[string]cache.Source

	recorder  metrics.Recorder
	observers []BuildObserver
}

func newBuildState(cfg *config.Config, report *BuildReport, logger *slog.Logger, recorder metrics.Recorder) *BuildState {
	return &BuildState{
		Config:          cfg,
		Report:          report,
		Logger:          logger,
		recorder:        recorder,
		previousOutputs: map[string]cache.Output{},
		previousSources: map[string]cache.Source{},
	}
}

func (bs *BuildState) workers() int {
	if n := bs.Config.Build.Workers; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// fail records a per-document failure and logs it.
func (bs *BuildState) fail(stage StageName, path, docID string, err error) {
	bs.Report.AddFailure(stage, path, docID, err)
	bs.Logger.Warn("Document failed",
		logfields.Stage(string(stage)),
		logfields.Path(path),
		logfields.DocID(docID),
		logfields.Error(err))
}
