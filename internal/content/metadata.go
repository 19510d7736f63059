package content

import (
	"fmt"
	"maps"
	"strings"
)

// Known front matter keys. Everything else lands in Metadata.Extra.
const (
	KeyLayout  = "layout"
	KeyTitle   = "title"
	KeyTags    = "tags"
	KeyDate    = "date"
	KeySlug    = "slug"
	KeyDraft   = "draft"
	KeySummary = "summary"
)

// Metadata is a document's decoded front matter: typed known fields plus an
// opaque extension map for keys the pipeline does not interpret.
type Metadata struct {
	Layout  string
	Title   string
	Tags    []string // author order, de-duplicated
	Date    any      // raw value, resolved into Document.PublishedAt
	Slug    string
	Draft   bool
	Summary string

	// Extra holds unknown keys exactly as decoded.
	Extra map[string]any
	// Keys records the source key order.
	Keys []string
}

// decodeMetadata maps decoded YAML fields onto Metadata. Type mismatches on
// known keys are reported as errors; unknown keys are never inspected.
func decodeMetadata(fields map[string]any, keys []string) (Metadata, error) {
	m := Metadata{Extra: map[string]any{}, Keys: keys}
	for _, key := range keys {
		value := fields[key]
		var err error
		switch key {
		case KeyLayout:
			m.Layout, err = stringField(key, value)
		case KeyTitle:
			m.Title, err = stringField(key, value)
		case KeySlug:
			m.Slug, err = stringField(key, value)
		case KeySummary:
			m.Summary, err = stringField(key, value)
		case KeyTags:
			m.Tags, err = tagsField(value)
		case KeyDraft:
			b, ok := value.(bool)
			if !ok && value != nil {
				err = fmt.Errorf("%q must be a boolean, got %T", key, value)
			}
			m.Draft = b
		case KeyDate:
			m.Date = value
		default:
			m.Extra[key] = value
		}
		if err != nil {
			return Metadata{}, err
		}
	}
	return m, nil
}

func stringField(key string, value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	default:
		return "", fmt.Errorf("%q must be a string, got %T", key, value)
	}
}

// tagsField accepts a list of scalars or a single string of comma or space
// separated tags.
func tagsField(value any) ([]string, error) {
	var raw []string
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		sep := " "
		if strings.Contains(v, ",") {
			sep = ","
		}
		raw = strings.Split(v, sep)
	case []any:
		for _, item := range v {
			switch s := item.(type) {
			case string:
				raw = append(raw, s)
			case int, int64, float64, bool:
				raw = append(raw, fmt.Sprint(s))
			default:
				return nil, fmt.Errorf("%q entries must be scalars, got %T", KeyTags, item)
			}
		}
	default:
		return nil, fmt.Errorf("%q must be a list of strings, got %T", KeyTags, value)
	}

	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	return tags, nil
}

// HasTag reports whether the document carries tag.
func (m Metadata) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// TagSet returns the tags as a set; two documents with the same tags in a
// different order have equal sets.
func (m Metadata) TagSet() map[string]struct{} {
	set := make(map[string]struct{}, len(m.Tags))
	for _, t := range m.Tags {
		set[t] = struct{}{}
	}
	return set
}

// Params returns every front matter key (known and unknown) as a fresh map,
// the shape templates see.
func (m Metadata) Params() map[string]any {
	p := make(map[string]any, len(m.Extra)+7)
	maps.Copy(p, m.Extra)
	p[KeyLayout] = m.Layout
	p[KeyTitle] = m.Title
	tags := make([]string, len(m.Tags))
	copy(tags, m.Tags)
	p[KeyTags] = tags
	p[KeyDraft] = m.Draft
	if m.Date != nil {
		p[KeyDate] = m.Date
	}
	if m.Slug != "" {
		p[KeySlug] = m.Slug
	}
	if m.Summary != "" {
		p[KeySummary] = m.Summary
	}
	return p
}
