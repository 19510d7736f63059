package render

import (
	"fmt"
	"path"
	"strconv"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/layouts"
)

// ListKind identifies a generated page type. Its value is also the name of
// the layout used to render it.
type ListKind string

const (
	ListHome ListKind = "list"
	ListTag  ListKind = "tag"
	ListTags ListKind = "tags"
)

// ListPage describes one generated page.
type ListPage struct {
	Kind       ListKind
	Tag        string // ListTag only
	Number     int    // 1-based, ListHome only
	Total      int
	Permalink  string
	OutputPath string
}

// ListPages plans every generated page for idx: the paginated home listing,
// the tags overview and one page per tag.
func (r *Renderer) ListPages(idx *content.Index) []ListPage {
	_, total := idx.Page(1, r.opts.PageSize)
	pages := make([]ListPage, 0, total+1+len(idx.Tags()))
	for n := 1; n <= total; n++ {
		pages = append(pages, ListPage{
			Kind:       ListHome,
			Number:     n,
			Total:      total,
			Permalink:  homeURL(n),
			OutputPath: outputFor(homeURL(n)),
		})
	}
	tags := idx.Tags()
	if len(tags) == 0 {
		return pages
	}
	pages = append(pages, ListPage{Kind: ListTags, Permalink: "/tags/", OutputPath: "tags/index.html"})
	for _, t := range tags {
		u := layouts.TagURL(t.Name)
		pages = append(pages, ListPage{Kind: ListTag, Tag: t.Name, Permalink: u, OutputPath: outputFor(u)})
	}
	return pages
}

// RenderList renders a generated page planned by ListPages.
func (r *Renderer) RenderList(p ListPage, idx *content.Index) (*Rendered, error) {
	name := string(p.Kind)
	bound, err := r.layouts.Resolve(name)
	if err != nil {
		return nil, &RenderError{Kind: KindUnknownLayout, DocID: p.Permalink, Layout: name, Err: err}
	}

	list := &ListData{Kind: p.Kind, Tag: p.Tag, PageNumber: p.Number, TotalPages: p.Total}
	switch p.Kind {
	case ListHome:
		docs, _ := idx.Page(p.Number, r.opts.PageSize)
		list.Pages = refsOf(docs)
		if p.Number > 1 {
			list.PrevURL = homeURL(p.Number - 1)
		}
		if p.Number < p.Total {
			list.NextURL = homeURL(p.Number + 1)
		}
	case ListTag:
		if !idx.HasTag(p.Tag) {
			return nil, fmt.Errorf("tag %q has no documents", p.Tag)
		}
		for d := range idx.ByTag(p.Tag) {
			list.Pages = append(list.Pages, refOf(d))
		}
	case ListTags:
		list.Tags = idx.Tags()
	default:
		return nil, fmt.Errorf("unknown list kind %q", p.Kind)
	}

	ctx := PageContext{
		Site: r.site(idx),
		Page: &PageData{Permalink: p.Permalink, Layout: name, Title: r.opts.Site.Title, Params: mergeParams(r.opts.Site.Params, bound.Defaults)},
		List: list,
	}
	out, err := execute(bound, ctx)
	if err != nil {
		return nil, &RenderError{Kind: KindTemplateBindingFailed, DocID: p.Permalink, Layout: name, Err: err}
	}
	return &Rendered{
		OutputPath: p.OutputPath,
		Permalink:  p.Permalink,
		Layout:     bound.Name,
		Parent:     bound.Parent,
		Source:     bound.Source,
		HTML:       out,
	}, nil
}

func refsOf(docs []*content.Document) []PageRef {
	refs := make([]PageRef, len(docs))
	for i, d := range docs {
		refs[i] = refOf(d)
	}
	return refs
}

func homeURL(n int) string {
	if n <= 1 {
		return "/"
	}
	return "/page/" + strconv.Itoa(n) + "/"
}

func outputFor(permalink string) string {
	if permalink == "/" {
		return "index.html"
	}
	return path.Clean(permalink[1:] + "index.html")
}
