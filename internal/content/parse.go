package content

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// ParseOptions controls derived document fields.
type ParseOptions struct {
	// Permalink pattern, see ExpandPermalink. Empty means DefaultPermalink.
	Permalink string
	// Location applied to dates without an explicit offset. Nil means UTC.
	Location *time.Location
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 -07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Parse turns raw file bytes into a Document. It is a pure function of its
// inputs; any failure is returned as a *ParseError.
func Parse(relPath string, raw []byte, opts ParseOptions) (*Document, error) {
	relPath = strings.ReplaceAll(relPath, "\\", "/")
	if !utf8.Valid(raw) {
		return nil, malformed(relPath, errors.New("content is not valid UTF-8"))
	}

	block, err := frontmatter.Split(raw)
	if err != nil {
		return nil, malformed(relPath, err)
	}
	fields, keys, err := frontmatter.ParseYAML(block.Raw)
	if err != nil {
		return nil, malformed(relPath, err)
	}
	meta, err := decodeMetadata(fields, keys)
	if err != nil {
		return nil, malformed(relPath, err)
	}

	if meta.Layout == "" {
		return nil, missingField(relPath, KeyLayout)
	}
	if meta.Title == "" {
		return nil, missingField(relPath, KeyTitle)
	}

	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	fileDate, nameRest, hasFileDate := splitDatedName(relPath)
	published, err := resolveDate(meta.Date, fileDate, hasFileDate, loc)
	if err != nil {
		pe := malformed(relPath, err)
		if errors.Is(err, errNoDate) {
			pe = missingField(relPath, KeyDate)
		}
		pe.DocID = DeriveID(relPath)
		return nil, pe
	}

	doc := &Document{
		ID:          DeriveID(relPath),
		SourcePath:  relPath,
		Meta:        meta,
		Body:        block.Body,
		PublishedAt: published,
		Fingerprint: mdfp.CalculateFingerprintFromParts(string(block.Raw), string(block.Body)),
	}

	doc.Slug = Slugify(meta.Slug)
	if doc.Slug == "" {
		doc.Slug = Slugify(nameRest)
	}
	if doc.Slug == "" {
		doc.Slug = Slugify(meta.Title)
	}
	doc.Permalink, doc.OutputPath = ExpandPermalink(opts.Permalink, doc)
	return doc, nil
}

var errNoDate = errors.New("no date in metadata or filename")

// resolveDate picks the metadata date when present, otherwise the filename date.
func resolveDate(metaDate any, fileDate string, hasFileDate bool, loc *time.Location) (time.Time, error) {
	switch v := metaDate.(type) {
	case nil:
	case time.Time:
		return v, nil
	case string:
		if strings.TrimSpace(v) != "" {
			return parseDate(strings.TrimSpace(v), loc)
		}
	default:
		return time.Time{}, fmt.Errorf("%q must be a date string, got %T", KeyDate, metaDate)
	}
	if hasFileDate {
		return parseDate(fileDate, loc)
	}
	return time.Time{}, errNoDate
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
