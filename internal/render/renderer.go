// Package render turns documents of a frozen content index into HTML pages.
package render

import (
	"bytes"
	"html/template"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/layouts"
)

// Options configures a Renderer.
type Options struct {
	Site          SiteData
	UnsafeHTML    bool
	SummaryLength int // runes, default 200
	RelatedLimit  int
	PageSize      int // documents per home page, default 10
}

// Rendered is one output file produced by the renderer.
type Rendered struct {
	DocID      string // empty for generated pages
	OutputPath string
	Permalink  string
	Layout     string
	Parent     string
	Source     layouts.Source
	HTML       []byte
}

// Renderer binds documents into their layouts. It holds no per-document
// state and is safe for concurrent use.
type Renderer struct {
	md      *Markdown
	layouts *layouts.Resolver
	opts    Options
}

// New returns a Renderer resolving layouts through resolver.
func New(resolver *layouts.Resolver, opts Options) *Renderer {
	if opts.SummaryLength <= 0 {
		opts.SummaryLength = 200
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.Site.Params == nil {
		opts.Site.Params = map[string]any{}
	}
	return &Renderer{md: NewMarkdown(opts.UnsafeHTML), layouts: resolver, opts: opts}
}

// Render converts doc's body, stores it in doc.RenderedBody and executes the
// document's layout with the body and cross-document data from idx. The
// caller must own doc; idx is only read.
func (r *Renderer) Render(doc *content.Document, idx *content.Index) (*Rendered, error) {
	layoutName := doc.Meta.Layout
	bound, err := r.layouts.Resolve(layoutName)
	if err != nil {
		return nil, &RenderError{Kind: KindUnknownLayout, DocID: doc.ID, Layout: layoutName, Err: err}
	}

	body, err := r.md.Convert(doc.Body)
	if err != nil {
		return nil, &RenderError{Kind: KindTemplateBindingFailed, DocID: doc.ID, Layout: layoutName, Err: err}
	}
	doc.RenderedBody = body

	newer, older := idx.Neighbors(doc)
	page := &PageData{
		ID:        doc.ID,
		Title:     doc.Title(),
		Permalink: doc.Permalink,
		Slug:      doc.Slug,
		Summary:   doc.Summary,
		Date:      doc.PublishedAt,
		Lastmod:   doc.Lastmod,
		Tags:      doc.Tags(),
		Layout:    layoutName,
		Params:    mergeParams(r.opts.Site.Params, bound.Defaults, doc.Meta.Params()),
		Newer:     refPtr(newer),
		Older:     refPtr(older),
	}
	for _, rel := range idx.Related(doc, r.opts.RelatedLimit) {
		page.Related = append(page.Related, refOf(rel))
	}

	ctx := PageContext{
		Site:    r.site(idx),
		Page:    page,
		Content: template.HTML(body), // #nosec G203 -- produced by the markdown converter
	}
	out, err := execute(bound, ctx)
	if err != nil {
		return nil, &RenderError{Kind: KindTemplateBindingFailed, DocID: doc.ID, Layout: layoutName, Err: err}
	}
	return &Rendered{
		DocID:      doc.ID,
		OutputPath: doc.OutputPath,
		Permalink:  doc.Permalink,
		Layout:     bound.Name,
		Parent:     bound.Parent,
		Source:     bound.Source,
		HTML:       out,
	}, nil
}

func (r *Renderer) site(idx *content.Index) *SiteData {
	s := r.opts.Site
	s.Tags = idx.Tags()
	return &s
}

func execute(bound *layouts.Bound, ctx PageContext) ([]byte, error) {
	var buf bytes.Buffer
	if err := bound.Execute(&buf, ctx); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
