package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitebuilder/internal/cache"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/linkverify"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/output"
)

// stageWrite writes every page atomically, copies static assets, prunes
// outputs of earlier builds and records the new output set. Any I/O error
// aborts the build.
func stageWrite(ctx context.Context, bs *BuildState) error {
	b := bs.Config.Build
	previous := bs.previousOutputs
	if !b.Incremental {
		previous = nil
	}
	w := output.NewWriter(b.OutputDir, previous)
	bs.Writer = w

	results := make([]output.Result, len(bs.Pages))
	var g errgroup.Group
	g.SetLimit(bs.workers())
	for i, p := range bs.Pages {
		g.Go(func() error {
			res, err := w.Write(p.OutputPath, p.DocID, p.HTML)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return newFatalStageError(StageWrite, writeFailure(err))
	}
	for _, res := range results {
		if res == output.Unchanged {
			bs.Report.Unchanged++
		} else {
			bs.Report.Written++
		}
	}

	stats, err := w.CopyTree(b.StaticDir)
	if err != nil {
		return newFatalStageError(StageWrite, writeFailure(err))
	}
	bs.Report.Written += stats.Written
	bs.Report.Unchanged += stats.Unchanged
	bs.Report.StaticFiles = stats.Written + stats.Unchanged
	for _, p := range stats.Shadowed {
		err := fmt.Errorf("static file %s shadowed by a generated output", p)
		bs.Report.AddIssue(IssueOutputCollision, StageWrite, SeverityWarning, err.Error(), err)
	}

	if b.PruneStale && previous != nil {
		removed, err := w.Prune()
		if err != nil {
			return newFatalStageError(StageWrite, writeFailure(err))
		}
		bs.Report.Pruned = len(removed)
		for _, p := range removed {
			bs.Logger.Debug("Pruned stale output", logfields.Path(p))
		}
	}

	if b.LinkCheck {
		bs.checkLinks()
	}

	if bs.store != nil {
		if err := bs.saveState(ctx); err != nil {
			return newWarnStageError(StageWrite,
				ferrors.WrapError(err, ferrors.CategoryCache, "save incremental state").Warning().Build())
		}
	}
	return nil
}

func writeFailure(err error) error {
	b := ferrors.WrapError(err, ferrors.CategoryFileSystem, "write output").Fatal()
	var we *output.WriteError
	if errors.As(err, &we) {
		b = b.WithContext("path", we.Path)
	}
	return b.Build()
}

func (bs *BuildState) checkLinks() {
	outputs := bs.Writer.Outputs()
	paths := make([]string, len(outputs))
	for i, o := range outputs {
		paths[i] = o.Path
	}
	pages := make([]linkverify.Page, 0, len(bs.Pages))
	for _, p := range bs.Pages {
		if strings.HasSuffix(p.OutputPath, ".html") {
			pages = append(pages, linkverify.Page{OutputPath: p.OutputPath, Permalink: p.Permalink, HTML: p.HTML})
		}
	}
	broken := linkverify.NewVerifier(bs.Config.Site.BaseURL, paths).Verify(pages)
	bs.Report.BrokenLinks = broken
	for _, l := range broken {
		err := fmt.Errorf("broken link %s on %s", l.URL, l.Page)
		bs.Report.AddIssue(IssueBrokenLink, StageWrite, SeverityWarning, err.Error(), err)
	}
	if len(broken) > 0 {
		bs.Logger.Warn("Broken internal links", logfields.Count(len(broken)))
	}
}

func (bs *BuildState) saveState(ctx context.Context) error {
	if err := bs.store.ReplaceOutputs(ctx, bs.Writer.Outputs()); err != nil {
		return err
	}
	docs := bs.Model.Documents()
	sources := make([]cache.Source, 0, len(docs))
	for _, d := range docs {
		sources = append(sources, cache.Source{DocID: d.ID, Path: d.SourcePath, Fingerprint: d.Fingerprint})
	}
	if err := bs.store.ReplaceSources(ctx, sources); err != nil {
		return err
	}
	bs.Logger.Debug("Saved incremental state", slog.Int("outputs", len(bs.Writer.Outputs())), slog.Int("sources", len(sources)))
	return nil
}
