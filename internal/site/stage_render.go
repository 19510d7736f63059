package site

import (
	"context"
	"fmt"
	"path"
	"time"

	"golang.org/x/sync/errgroup"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
)

type renderResult struct {
	page *render.Rendered
	err  error
}

// stageRender renders every document against the frozen index, then the
// generated pages. Workers only read the index; each writes the
// RenderedBody of the one document it owns.
func stageRender(_ context.Context, bs *BuildState) error {
	docs := bs.Model.Documents()
	results := make([]renderResult, len(docs))

	var g errgroup.Group
	g.SetLimit(bs.workers())
	for i, doc := range docs {
		g.Go(func() error {
			t0 := time.Now()
			page, err := bs.renderer.Render(doc, bs.Index)
			bs.recorder.ObserveRenderDuration(time.Since(t0))
			results[i] = renderResult{page: page, err: err}
			return nil
		})
	}
	_ = g.Wait()

	owned := make(map[string]bool, len(docs))
	failed := make(map[string]bool)
	for i, r := range results {
		if r.err != nil {
			bs.fail(StageRender, docs[i].SourcePath, docs[i].ID, r.err)
			failed[docs[i].ID] = true
			continue
		}
		bs.Pages = append(bs.Pages, r.page)
		owned[outputKey(r.page.OutputPath)] = true
		bs.Report.recordLayout(r.page)
	}
	bs.Report.Rendered = len(bs.Pages)

	if len(docs) > 0 && bs.Report.Rendered == 0 {
		return newFatalStageError(StageRender,
			ferrors.WrapError(ErrNoDocuments, ferrors.CategoryBuild, "render documents").
				WithContext("failed", bs.Report.Failed()).
				Fatal().
				Build())
	}

	// Listings only link to documents that were actually rendered.
	bs.renderGenerated(owned, bs.Index.Without(failed))
	return nil
}

// outputKey normalizes an output path so that spellings of the same file
// compare equal.
func outputKey(p string) string {
	return path.Clean(p)
}

// renderGenerated adds list, tag, feed and sitemap pages built from listed.
// A generated page never replaces another output; the collision is
// reported instead.
func (bs *BuildState) renderGenerated(owned map[string]bool, listed *content.Index) {
	var sitemap []render.SitemapEntry
	for _, p := range bs.Pages {
		if doc, ok := listed.Get(p.DocID); ok {
			sitemap = append(sitemap, render.SitemapEntryFor(doc))
		}
	}

	add := func(page *render.Rendered) bool {
		key := outputKey(page.OutputPath)
		if owned[key] {
			err := fmt.Errorf("generated page %s collides with an earlier output", page.OutputPath)
			bs.Report.AddIssue(IssueOutputCollision, StageRender, SeverityWarning, err.Error(), err)
			return false
		}
		owned[key] = true
		bs.Pages = append(bs.Pages, page)
		bs.Report.Generated++
		bs.Report.recordLayout(page)
		return true
	}

	for _, lp := range bs.renderer.ListPages(listed) {
		if owned[outputKey(lp.OutputPath)] {
			add(&render.Rendered{OutputPath: lp.OutputPath, Permalink: lp.Permalink})
			continue
		}
		page, err := bs.renderer.RenderList(lp, listed)
		if err != nil {
			bs.Report.AddIssue(IssueGeneratedPage, StageRender, SeverityWarning, err.Error(), err)
			bs.Logger.Warn("Generated page failed", logfields.Path(lp.OutputPath), logfields.Error(err))
			continue
		}
		if add(page) {
			sitemap = append(sitemap, render.SitemapEntry{Permalink: lp.Permalink})
		}
	}

	if bs.Config.Render.Feed {
		add(&render.Rendered{
			OutputPath: render.FeedFile,
			Permalink:  "/" + render.FeedFile,
			HTML:       bs.renderer.Feed(listed, bs.Config.Render.FeedSize),
		})
	}
	if bs.Config.Render.Sitemap {
		add(&render.Rendered{
			OutputPath: render.SitemapFile,
			Permalink:  "/" + render.SitemapFile,
			HTML:       bs.renderer.Sitemap(sitemap),
		})
	}
}
