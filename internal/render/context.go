package render

import (
	"html/template"
	"maps"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/layouts"
)

// SiteData is exposed to templates as .Site.
type SiteData struct {
	Title       string
	BaseURL     string
	Description string
	Language    string
	Author      string
	Params      map[string]any
	Tags        []content.TagCount
}

// PageRef is a lightweight reference to another document.
type PageRef struct {
	ID        string
	Title     string
	Permalink string
	Summary   string
	Date      time.Time
	Tags      []string
}

// PageData is exposed to templates as .Page.
type PageData struct {
	ID        string
	Title     string
	Permalink string
	Slug      string
	Summary   string
	Date      time.Time
	Lastmod   time.Time
	Tags      []string
	Layout    string

	// Params merges site params, layout defaults and document metadata, later
	// sources winning. Lookups of absent keys fail the render.
	Params map[string]any

	Related []PageRef
	Newer   *PageRef
	Older   *PageRef
}

// ListData is exposed to templates of generated pages as .List.
type ListData struct {
	Kind       ListKind
	Tag        string
	Pages      []PageRef
	Tags       []content.TagCount
	PageNumber int
	TotalPages int
	PrevURL    string
	NextURL    string
}

// PageContext is the root value every layout executes against.
type PageContext struct {
	Site    *SiteData
	Page    *PageData
	List    *ListData
	Content template.HTML
}

// WithContent implements layouts.Wrappable.
func (c PageContext) WithContent(html template.HTML) layouts.Wrappable {
	c.Content = html
	return c
}

func refOf(d *content.Document) PageRef {
	return PageRef{
		ID:        d.ID,
		Title:     d.Title(),
		Permalink: d.Permalink,
		Summary:   d.Summary,
		Date:      d.PublishedAt,
		Tags:      d.Tags(),
	}
}

func refPtr(d *content.Document) *PageRef {
	if d == nil {
		return nil
	}
	r := refOf(d)
	return &r
}

func mergeParams(layers ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, l := range layers {
		maps.Copy(out, l)
	}
	return out
}
