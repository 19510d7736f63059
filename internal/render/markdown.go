package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// MoreSeparator marks the end of a document's summary in its body.
const MoreSeparator = "<!--more-->"

// Markdown converts markdown bodies to HTML. A Markdown value is stateless
// and safe for concurrent use.
type Markdown struct {
	engine goldmark.Markdown
}

// NewMarkdown builds a converter with GFM, footnotes and automatic heading
// ids. unsafe allows raw HTML in the source to pass through.
func NewMarkdown(unsafe bool) *Markdown {
	var rendererOptions []renderer.Option
	if unsafe {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}
	return &Markdown{engine: goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOptions...),
	)}
}

// Convert renders body to HTML.
func (m *Markdown) Convert(body []byte) (string, error) {
	var buf bytes.Buffer
	if err := m.engine.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return buf.String(), nil
}
