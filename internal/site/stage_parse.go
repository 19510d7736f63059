package site

import (
	"context"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

type parsed struct {
	doc *content.Document
	err error
}

// stageParse parses sources in parallel, then adds them to a fresh model in
// discovery order so duplicate resolution does not depend on scheduling.
func stageParse(_ context.Context, bs *BuildState) error {
	opts := content.ParseOptions{
		Permalink: bs.Config.Build.Permalink,
		Location:  bs.Config.Location(),
	}
	results := make([]parsed, len(bs.Sources))

	var g errgroup.Group
	g.SetLimit(bs.workers())
	for i, src := range bs.Sources {
		g.Go(func() error {
			raw, err := os.ReadFile(src.AbsPath)
			if err != nil {
				results[i] = parsed{err: err}
				return nil
			}
			doc, err := content.Parse(src.RelPath, raw, opts)
			results[i] = parsed{doc: doc, err: err}
			return nil
		})
	}
	_ = g.Wait()

	bs.Model = content.NewModel()
	for i, r := range results {
		src := bs.Sources[i]
		if r.err != nil {
			bs.fail(StageParse, src.RelPath, content.DeriveID(src.RelPath), r.err)
			continue
		}
		if r.doc.Meta.Draft && !bs.Config.Build.Drafts {
			bs.Report.Drafts++
			bs.Logger.Debug("Skipping draft", logfields.DocID(r.doc.ID))
			continue
		}
		if err := bs.Model.Add(r.doc); err != nil {
			bs.fail(StageParse, src.RelPath, r.doc.ID, err)
			continue
		}
	}
	bs.Report.Parsed = bs.Model.Len()
	bs.Logger.Debug("Parsed documents",
		logfields.Count(bs.Report.Parsed),
		slog.Int("failed", bs.Report.Failed()),
		slog.Int("drafts", bs.Report.Drafts))

	if bs.Model.Len() == 0 && bs.Report.Failed() > 0 {
		return newFatalStageError(StageParse,
			ferrors.WrapError(ErrNoDocuments, ferrors.CategoryBuild, "parse documents").
				WithContext("failed", bs.Report.Failed()).
				Fatal().
				Build())
	}
	return nil
}
