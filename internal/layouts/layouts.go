// Package layouts loads page layouts and resolves a layout name to a bound,
// executable template.
//
// A layout is an html/template file in the layouts directory, optionally
// starting with its own front matter:
//
//	---
//	layout: base
//	defaults:
//	  author: Staff
//	---
//	<article>{{ .Content }}</article>
//
// A layout may be wrapped by exactly one parent layout. The inner layout's
// output becomes the parent's .Content.
package layouts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// Source records where a layout was loaded from.
type Source string

const (
	SourceFile     Source = "file"
	SourceEmbedded Source = "embedded"
)

// Ext is the layout file extension.
const Ext = ".html"

const partialsDir = "partials"

//go:embed defaults/*.html
var embeddedLayouts embed.FS

// Options configures Load.
type Options struct {
	// BaseURL is prefixed by the absURL template function.
	BaseURL string
	// Language drives title casing.
	Language string
	// Funcs are merged over the built-in function map.
	Funcs template.FuncMap
}

// Layout is one parsed layout file.
type Layout struct {
	Name     string
	Parent   string
	Defaults map[string]any
	Source   Source
	Path     string // empty for embedded layouts

	tmpl *template.Template
}

// Wrappable is implemented by template data that can carry an inner layout's
// output into a wrapping layout.
type Wrappable interface {
	WithContent(html template.HTML) Wrappable
}

// Bound is a resolved layout chain ready for execution.
type Bound struct {
	Name     string
	Parent   string         // empty when the layout is not wrapped
	Defaults map[string]any // parent defaults overlaid by the layout's own
	Source   Source

	inner *template.Template
	outer *template.Template
}

// Execute renders data through the layout chain. Nothing is written to w
// unless every layer succeeds.
func (b *Bound) Execute(w io.Writer, data Wrappable) error {
	var buf bytes.Buffer
	if err := b.inner.Execute(&buf, data); err != nil {
		return err
	}
	if b.outer != nil {
		inner := template.HTML(buf.String()) // #nosec G203 -- output of html/template
		buf.Reset()
		if err := b.outer.Execute(&buf, data.WithContent(inner)); err != nil {
			return err
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Resolver maps layout names to bound templates. It is immutable after Load and
// safe for concurrent use.
type Resolver struct {
	layouts map[string]*Layout
}

// Load parses every *.html file directly in dir plus partials/*.html, which
// are available to all layouts as {{ template "partials/<file>" . }}. A
// missing dir yields a resolver holding only the embedded defaults.
func Load(dir string, opts Options) (*Resolver, error) {
	base := template.New("").Funcs(FuncMap(opts)).Option("missingkey=error")
	if opts.Funcs != nil {
		base = base.Funcs(opts.Funcs)
	}

	r := &Resolver{layouts: make(map[string]*Layout)}

	files, err := layoutFiles(dir)
	if err != nil {
		return nil, err
	}
	partials, err := layoutFiles(filepath.Join(dir, partialsDir))
	if err != nil {
		return nil, err
	}
	for _, p := range partials {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read partial %s: %w", p, err)
		}
		name := partialsDir + "/" + filepath.Base(p)
		if _, err := base.New(name).Parse(string(raw)); err != nil {
			return nil, fmt.Errorf("parse partial %s: %w", p, err)
		}
	}

	for _, p := range files {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read layout %s: %w", p, err)
		}
		l, err := parseLayout(base, nameOf(p), raw)
		if err != nil {
			return nil, fmt.Errorf("layout %s: %w", p, err)
		}
		l.Source = SourceFile
		l.Path = p
		r.layouts[l.Name] = l
	}

	defaults, err := fs.Glob(embeddedLayouts, "defaults/*"+Ext)
	if err != nil {
		return nil, err
	}
	for _, p := range defaults {
		name := strings.TrimSuffix(path.Base(p), Ext)
		if _, exists := r.layouts[name]; exists {
			continue
		}
		raw, err := embeddedLayouts.ReadFile(p)
		if err != nil {
			return nil, err
		}
		l, err := parseLayout(base, name, raw)
		if err != nil {
			panic(fmt.Sprintf("embedded layout %s: %v", name, err))
		}
		l.Source = SourceEmbedded
		r.layouts[name] = l
	}
	return r, nil
}

func layoutFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read layouts dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || filepath.Ext(e.Name()) != Ext {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func nameOf(p string) string {
	return strings.TrimSuffix(filepath.Base(p), Ext)
}

func parseLayout(base *template.Template, name string, raw []byte) (*Layout, error) {
	l := &Layout{Name: name, Defaults: map[string]any{}}
	body := raw
	block, err := frontmatter.Split(raw)
	switch {
	case err == nil:
		fields, _, perr := frontmatter.ParseYAML(block.Raw)
		if perr != nil {
			return nil, perr
		}
		if err := l.applyHeader(fields); err != nil {
			return nil, err
		}
		body = block.Body
	case errors.Is(err, frontmatter.ErrMissingOpeningDelimiter):
	default:
		return nil, err
	}

	set, err := base.Clone()
	if err != nil {
		return nil, err
	}
	l.tmpl, err = set.New(name).Parse(string(body))
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Layout) applyHeader(fields map[string]any) error {
	if v, ok := fields["layout"]; ok && v != nil {
		parent, ok := v.(string)
		if !ok {
			return fmt.Errorf("layout must be a string, got %T", v)
		}
		l.Parent = strings.TrimSpace(parent)
	}
	if v, ok := fields["defaults"]; ok && v != nil {
		d, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("defaults must be a mapping, got %T", v)
		}
		l.Defaults = d
	}
	return nil
}

// Resolve returns the bound template for name. Unknown names and unknown
// parents fail with ErrUnknownLayout; a parent that declares its own parent
// fails with ErrLayoutTooDeep.
func (r *Resolver) Resolve(name string) (*Bound, error) {
	l, ok := r.layouts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
	}
	b := &Bound{
		Name:     l.Name,
		Source:   l.Source,
		Defaults: maps.Clone(l.Defaults),
		inner:    l.tmpl,
	}
	if l.Parent == "" {
		return b, nil
	}

	parent, ok := r.layouts[l.Parent]
	if !ok {
		return nil, fmt.Errorf("%w: %q (parent of %q)", ErrUnknownLayout, l.Parent, name)
	}
	if parent.Parent != "" {
		return nil, fmt.Errorf("%w: %s -> %s -> %s", ErrLayoutTooDeep, name, parent.Name, parent.Parent)
	}
	b.Parent = parent.Name
	b.outer = parent.tmpl
	b.Defaults = maps.Clone(parent.Defaults)
	maps.Copy(b.Defaults, l.Defaults)
	return b, nil
}

// Has reports whether a layout named name exists.
func (r *Resolver) Has(name string) bool {
	_, ok := r.layouts[name]
	return ok
}

// Source reports where the named layout came from.
func (r *Resolver) Source(name string) (Source, bool) {
	l, ok := r.layouts[name]
	if !ok {
		return "", false
	}
	return l.Source, true
}

// Names lists every available layout, sorted.
func (r *Resolver) Names() []string {
	names := make([]string, 0, len(r.layouts))
	for n := range r.layouts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
