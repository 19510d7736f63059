package linkverify

import (
	"bytes"
	"net/url"
	"path"
	"sort"
	"strings"
)

// Page is a rendered output file.
type Page struct {
	OutputPath string // slash-separated, relative to the output root
	Permalink  string
	HTML       []byte
}

// BrokenLink is an internal link whose target the build does not produce.
type BrokenLink struct {
	Page   string `json:"page"` // permalink of the page holding the link
	URL    string `json:"url"`  // link as written
	Target string `json:"target"`
	Tag    string `json:"tag"`
}

// Verifier checks internal links against the set of produced files.
type Verifier struct {
	baseURL string
	known   map[string]struct{}
}

// NewVerifier returns a Verifier that treats every path in outputs (files in
// the output tree, slash-separated) as existing.
func NewVerifier(baseURL string, outputs []string) *Verifier {
	known := make(map[string]struct{}, len(outputs))
	for _, o := range outputs {
		known[strings.TrimPrefix(path.Clean("/"+o), "/")] = struct{}{}
	}
	return &Verifier{baseURL: baseURL, known: known}
}

// Verify returns the broken internal links of pages, sorted by page then URL.
// Pages that fail to parse are skipped.
func (v *Verifier) Verify(pages []Page) []BrokenLink {
	var broken []BrokenLink
	for _, p := range pages {
		links, err := ExtractLinksFromReader(bytes.NewReader(p.HTML), v.baseURL)
		if err != nil {
			continue
		}
		for _, l := range links {
			if !l.IsInternal {
				continue
			}
			target, ok := resolveTarget(p.Permalink, l.URL)
			if !ok || v.exists(target) {
				continue
			}
			broken = append(broken, BrokenLink{Page: p.Permalink, URL: l.URL, Target: target, Tag: l.Tag})
		}
	}
	sort.SliceStable(broken, func(i, j int) bool {
		if broken[i].Page != broken[j].Page {
			return broken[i].Page < broken[j].Page
		}
		return broken[i].URL < broken[j].URL
	})
	return broken
}

func (v *Verifier) exists(target string) bool {
	if _, ok := v.known[target]; ok {
		return true
	}
	_, ok := v.known[path.Join(target, "index.html")]
	return ok
}

// resolveTarget maps a link on the page at permalink to an output path. ok is
// false for links that need no check (fragments, empty paths).
func resolveTarget(permalink, link string) (string, bool) {
	u, err := url.Parse(link)
	if err != nil || u.Path == "" {
		return "", false
	}
	p := u.Path
	if !strings.HasPrefix(p, "/") {
		p = path.Join(path.Dir(permalink+"x"), p)
	}
	p = strings.TrimPrefix(path.Clean(p), "/")
	if p == "" || p == "." {
		return "index.html", true
	}
	return p, true
}
