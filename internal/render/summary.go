package render

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
)

// Summarize returns the plain text summary of doc: the summary metadata
// key when set, otherwise the body before MoreSeparator, otherwise the first
// paragraph. The result is cut to at most limit runes on a word boundary.
func (r *Renderer) Summarize(doc *content.Document) (string, error) {
	if doc.Meta.Summary != "" {
		return truncateRunes(doc.Meta.Summary, r.opts.SummaryLength), nil
	}

	body := doc.Body
	excerpt := false
	if i := bytes.Index(body, []byte(MoreSeparator)); i >= 0 {
		body = body[:i]
		excerpt = true
	}
	rendered, err := r.md.Convert(body)
	if err != nil {
		return "", err
	}
	text, err := plainText(rendered, !excerpt)
	if err != nil {
		return "", err
	}
	return truncateRunes(text, r.opts.SummaryLength), nil
}

// plainText extracts the text of an HTML fragment with whitespace collapsed.
// With firstParagraph set only the first <p> element is considered.
func plainText(fragment string, firstParagraph bool) (string, error) {
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}
	if firstParagraph {
		if p := findElement(root, "p"); p != nil {
			root = p
		}
	}
	var b strings.Builder
	collectText(root, &b)
	return strings.Join(strings.Fields(b.String()), " "), nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func collectText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "sup":
			return
		case "p", "li", "br", "h1", "h2", "h3", "h4", "h5", "h6", "pre", "tr":
			defer b.WriteByte(' ')
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

func truncateRunes(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	cut := runes[:limit]
	if i := lastSpace(cut); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimRightFunc(string(cut), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}) + "…"
}

func lastSpace(rs []rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if unicode.IsSpace(rs[i]) {
			return i
		}
	}
	return -1
}
