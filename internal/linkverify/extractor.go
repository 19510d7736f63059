// Package linkverify scans rendered pages for site-relative links that point
// at nothing the build produced.
package linkverify

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Link is one link extracted from an HTML page.
type Link struct {
	URL        string // the URL or path as written
	Text       string // link text, alt text or rel
	Tag        string // a, img, script, link, ...
	Attribute  string // href or src
	IsInternal bool
}

// linkAttrs maps elements to the attribute carrying their link.
var linkAttrs = map[string]string{
	"a":      "href",
	"link":   "href",
	"img":    "src",
	"script": "src",
	"video":  "src",
	"audio":  "src",
	"source": "src",
}

// ExtractLinksFromReader extracts every link from an HTML document.
func ExtractLinksFromReader(r io.Reader, baseURL string) ([]*Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to parse HTML").Build()
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "invalid base URL").
			WithContext("base_url", baseURL).Build()
	}

	var links []*Link
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if l := elementLink(n, base); l != nil {
				links = append(links, l)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)
	return links, nil
}

func elementLink(n *html.Node, base *url.URL) *Link {
	attr, ok := linkAttrs[n.Data]
	if !ok {
		return nil
	}
	target := getAttr(n, attr)
	if target == "" {
		return nil
	}
	l := &Link{URL: target, Tag: n.Data, Attribute: attr, IsInternal: isInternalLink(target, base)}
	switch n.Data {
	case "a":
		l.Text = extractText(n)
	case "img":
		l.Text = getAttr(n, "alt")
	case "link":
		l.Text = getAttr(n, "rel")
	}
	return l
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(extractText(c))
	}
	return strings.TrimSpace(text.String())
}

// isInternalLink reports whether linkURL points into the site: relative
// references and absolute URLs on the base host.
func isInternalLink(linkURL string, baseURL *url.URL) bool {
	u, err := url.Parse(linkURL)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "mailto", "tel", "javascript", "data":
		return false
	}
	if u.Host == "" {
		return true
	}
	return baseURL != nil && baseURL.Host != "" && strings.EqualFold(u.Host, baseURL.Host)
}
