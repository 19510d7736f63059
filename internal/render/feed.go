package render

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
)

// Well-known generated file names.
const (
	FeedFile    = "feed.xml"
	SitemapFile = "sitemap.xml"
)

// Feed renders an RSS 2.0 document of the newest limit documents. Dates come
// from the content so the output is stable across builds.
func (r *Renderer) Feed(idx *content.Index, limit int) []byte {
	site := r.opts.Site
	base := baseURL(site.BaseURL)

	var items []*content.Document
	for d := range idx.ByDate() {
		if limit > 0 && len(items) == limit {
			break
		}
		items = append(items, d)
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<rss version="2.0">` + "\n")
	b.WriteString("  <channel>\n")
	fmt.Fprintf(&b, "    <title>%s</title>\n", escapeXML(site.Title))
	fmt.Fprintf(&b, "    <link>%s/</link>\n", escapeXML(base))
	fmt.Fprintf(&b, "    <description>%s</description>\n", escapeXML(site.Description))
	if site.Language != "" {
		fmt.Fprintf(&b, "    <language>%s</language>\n", escapeXML(site.Language))
	}
	if len(items) > 0 {
		fmt.Fprintf(&b, "    <lastBuildDate>%s</lastBuildDate>\n", items[0].PublishedAt.UTC().Format(time.RFC1123Z))
	}
	for _, d := range items {
		link := base + d.Permalink
		b.WriteString("    <item>\n")
		fmt.Fprintf(&b, "      <title>%s</title>\n", escapeXML(d.Title()))
		fmt.Fprintf(&b, "      <link>%s</link>\n", escapeXML(link))
		fmt.Fprintf(&b, "      <guid isPermaLink=\"true\">%s</guid>\n", escapeXML(link))
		fmt.Fprintf(&b, "      <pubDate>%s</pubDate>\n", d.PublishedAt.UTC().Format(time.RFC1123Z))
		for _, t := range d.Tags() {
			fmt.Fprintf(&b, "      <category>%s</category>\n", escapeXML(t))
		}
		if d.Summary != "" {
			fmt.Fprintf(&b, "      <description>%s</description>\n", escapeXML(d.Summary))
		}
		b.WriteString("    </item>\n")
	}
	b.WriteString("  </channel>\n")
	b.WriteString("</rss>\n")
	return []byte(b.String())
}

// SitemapEntry is one URL in the sitemap.
type SitemapEntry struct {
	Permalink string
	LastMod   time.Time
}

// Sitemap renders a sitemap.xml for entries, sorted by location and
// de-duplicated.
func (r *Renderer) Sitemap(entries []SitemapEntry) []byte {
	base := baseURL(r.opts.Site.BaseURL)
	sorted := make([]SitemapEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Permalink < sorted[j].Permalink })

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	seen := make(map[string]struct{}, len(sorted))
	for _, e := range sorted {
		if _, dup := seen[e.Permalink]; dup {
			continue
		}
		seen[e.Permalink] = struct{}{}
		b.WriteString("  <url>\n")
		fmt.Fprintf(&b, "    <loc>%s</loc>\n", escapeXML(base+e.Permalink))
		if !e.LastMod.IsZero() {
			fmt.Fprintf(&b, "    <lastmod>%s</lastmod>\n", e.LastMod.UTC().Format(time.RFC3339))
		}
		b.WriteString("  </url>\n")
	}
	b.WriteString("</urlset>\n")
	return []byte(b.String())
}

// SitemapEntryFor returns the sitemap entry of a document, preferring the
// version control modification time when known.
func SitemapEntryFor(d *content.Document) SitemapEntry {
	lm := d.Lastmod
	if lm.IsZero() {
		lm = d.PublishedAt
	}
	return SitemapEntry{Permalink: d.Permalink, LastMod: lm}
}

func baseURL(u string) string {
	u = strings.TrimRight(strings.TrimSpace(u), "/")
	if u == "" {
		return "http://localhost"
	}
	return u
}

func escapeXML(s string) string {
	return html.EscapeString(s)
}
