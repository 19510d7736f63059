package content

import (
	"path"
	"regexp"
	"strings"
	"time"
)

// DefaultPermalink is the output layout used when none is configured.
const DefaultPermalink = ":year/:month/:day/:slug"

var datedName = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-(.+)$`)

// Document is one parsed content unit.
//
// Everything except RenderedBody is fixed once the document is added to a Model.
// RenderedBody is written only by the render worker that owns the document.
type Document struct {
	ID         string // derived from SourcePath, unique within a Model
	SourcePath string // slash-separated, relative to the content root
	Meta       Metadata
	Body       []byte

	PublishedAt time.Time
	Lastmod     time.Time // zero unless enriched from version control
	Slug        string
	Permalink   string // site-relative URL, leading and trailing slash
	OutputPath  string // slash-separated file path relative to the output root

	Summary     string // plain text excerpt
	Fingerprint string // content fingerprint of header + body

	RenderedBody string
}

// Title is shorthand for d.Meta.Title.
func (d *Document) Title() string { return d.Meta.Title }

// Tags is shorthand for d.Meta.Tags.
func (d *Document) Tags() []string { return d.Meta.Tags }

// DeriveID maps a source path to a document id: slash separated, extension
// removed, lower-cased. "Posts/2023-01-01-Hello.md" -> "posts/2023-01-01-hello".
func DeriveID(relPath string) string {
	p := path.Clean(strings.ReplaceAll(relPath, "\\", "/"))
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimSuffix(p, path.Ext(p))
	return strings.ToLower(p)
}

// splitDatedName separates a "YYYY-MM-DD-" filename prefix from the rest of
// the base name. ok is false when the name carries no date.
func splitDatedName(relPath string) (date, rest string, ok bool) {
	base := path.Base(strings.ReplaceAll(relPath, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	m := datedName.FindStringSubmatch(base)
	if m == nil {
		return "", base, false
	}
	return m[1], m[2], true
}

// ExpandPermalink substitutes :year, :month, :day, :slug and :id in pattern and
// returns the site-relative URL and the output file path.
func ExpandPermalink(pattern string, d *Document) (permalink, outputPath string) {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultPermalink
	}
	r := strings.NewReplacer(
		":year", d.PublishedAt.Format("2006"),
		":month", d.PublishedAt.Format("01"),
		":day", d.PublishedAt.Format("02"),
		":slug", d.Slug,
		":id", d.ID,
	)
	p := strings.Trim(path.Clean("/"+r.Replace(pattern)), "/")
	if p == "" {
		return "/", "index.html"
	}
	return "/" + p + "/", p + "/index.html"
}
