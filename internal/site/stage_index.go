package site

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/git"
	"git.home.luguber.info/inful/sitebuilder/internal/layouts"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
)

// stageIndex loads layouts, enriches documents with summaries and version
// control dates, then freezes the model. After this stage the index is
// shared read-only by every render worker.
func stageIndex(_ context.Context, bs *BuildState) error {
	cfg := bs.Config
	resolver, err := layouts.Load(cfg.Build.LayoutsDir, layouts.Options{
		BaseURL:  cfg.Site.BaseURL,
		Language: cfg.Site.Language,
	})
	if err != nil {
		return newFatalStageError(StageIndex,
			ferrors.WrapError(err, ferrors.CategoryConfig, "load layouts").
				WithContext("dir", cfg.Build.LayoutsDir).
				Fatal().
				Build())
	}
	bs.resolver = resolver
	bs.Logger.Debug("Layouts loaded", logfields.Path(cfg.Build.LayoutsDir), slog.Any("layouts", resolver.Names()))
	bs.renderer = render.New(resolver, render.Options{
		Site: render.SiteData{
			Title:       cfg.Site.Title,
			BaseURL:     cfg.Site.BaseURL,
			Description: cfg.Site.Description,
			Language:    cfg.Site.Language,
			Author:      cfg.Site.Author,
			Params:      cfg.Site.Params,
		},
		UnsafeHTML:    cfg.Render.UnsafeHTML,
		SummaryLength: cfg.Render.SummaryLength,
		RelatedLimit:  cfg.Render.RelatedLimit,
		PageSize:      cfg.Render.PageSize,
	})

	docs := bs.Model.Documents()
	for _, doc := range docs {
		summary, err := bs.renderer.Summarize(doc)
		if err != nil {
			bs.Logger.Warn("Summary unavailable", logfields.DocID(doc.ID), logfields.Error(err))
		} else {
			doc.Summary = summary
		}
		if prev, ok := bs.previousSources[doc.ID]; !ok || prev.Fingerprint != doc.Fingerprint {
			bs.Report.Changed++
		}
	}

	var warn error
	if cfg.Build.GitLastmod {
		warn = enrichLastmod(cfg.Build.ContentDir, docs)
	}

	bs.Index = bs.Model.Freeze()
	if warn != nil {
		return newWarnStageError(StageIndex, warn)
	}
	return nil
}

// enrichLastmod sets Lastmod from the newest commit touching each document.
func enrichLastmod(contentDir string, docs []*content.Document) error {
	history, err := git.Open(contentDir)
	if err != nil {
		return fmt.Errorf("git lastmod: %w", err)
	}
	for _, doc := range docs {
		t, ok, err := history.LastModified(doc.SourcePath)
		if err != nil {
			return fmt.Errorf("git lastmod %s: %w", doc.SourcePath, err)
		}
		if ok {
			doc.Lastmod = t
		}
	}
	return nil
}
