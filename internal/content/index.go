package content

import (
	"iter"
	"slices"
	"sort"
)

// TagCount is one entry of the tag overview.
type TagCount struct {
	Name  string
	Slug  string
	Count int
}

// Index is the frozen, read-only view over a completed Model. All methods are
// safe for concurrent use because nothing mutates the index after construction.
type Index struct {
	byDate []*Document
	pos    map[string]int
	tags   map[string][]*Document
	names  []string
}

func newIndex(docs []*Document) *Index {
	sorted := slices.Clone(docs)
	sort.SliceStable(sorted, func(i, j int) bool { return newerFirst(sorted[i], sorted[j]) })

	idx := &Index{
		byDate: sorted,
		pos:    make(map[string]int, len(sorted)),
		tags:   make(map[string][]*Document),
	}
	// Walking the date-sorted slice keeps every tag list sorted as well.
	for i, d := range sorted {
		idx.pos[d.ID] = i
		for _, t := range d.Meta.Tags {
			idx.tags[t] = append(idx.tags[t], d)
		}
	}
	idx.names = make([]string, 0, len(idx.tags))
	for t := range idx.tags {
		idx.names = append(idx.names, t)
	}
	sort.Strings(idx.names)
	return idx
}

// newerFirst orders by PublishedAt descending, then ID ascending.
func newerFirst(a, b *Document) bool {
	if !a.PublishedAt.Equal(b.PublishedAt) {
		return a.PublishedAt.After(b.PublishedAt)
	}
	return a.ID < b.ID
}

// Without returns an index over the documents of x whose ids are not in
// ids. x is left untouched.
func (x *Index) Without(ids map[string]bool) *Index {
	if len(ids) == 0 {
		return x
	}
	kept := make([]*Document, 0, len(x.byDate))
	for _, d := range x.byDate {
		if !ids[d.ID] {
			kept = append(kept, d)
		}
	}
	return newIndex(kept)
}

// Len returns the number of indexed documents.
func (x *Index) Len() int { return len(x.byDate) }

// Get looks up a document by id.
func (x *Index) Get(id string) (*Document, bool) {
	i, ok := x.pos[id]
	if !ok {
		return nil, false
	}
	return x.byDate[i], true
}

// ByDate yields every document, newest first, ties broken by id.
func (x *Index) ByDate() iter.Seq[*Document] {
	return slices.Values(x.byDate)
}

// ByTag yields the documents carrying tag in ByDate order.
func (x *Index) ByTag(tag string) iter.Seq[*Document] {
	return slices.Values(x.tags[tag])
}

// TagIDs returns the ids of the documents carrying tag in ByDate order.
func (x *Index) TagIDs(tag string) []string {
	docs := x.tags[tag]
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids
}

// Tags returns every tag with its document count, sorted by name.
func (x *Index) Tags() []TagCount {
	out := make([]TagCount, len(x.names))
	for i, n := range x.names {
		out[i] = TagCount{Name: n, Slug: TagSlug(n), Count: len(x.tags[n])}
	}
	return out
}

// Neighbors returns the documents immediately newer and older than doc in
// ByDate order. Either may be nil.
func (x *Index) Neighbors(doc *Document) (newer, older *Document) {
	i, ok := x.pos[doc.ID]
	if !ok {
		return nil, nil
	}
	if i > 0 {
		newer = x.byDate[i-1]
	}
	if i+1 < len(x.byDate) {
		older = x.byDate[i+1]
	}
	return newer, older
}

// Related returns up to limit documents sharing at least one tag with doc,
// ordered by number of shared tags, then ByDate order.
func (x *Index) Related(doc *Document, limit int) []*Document {
	if limit <= 0 || len(doc.Meta.Tags) == 0 {
		return nil
	}
	shared := make(map[string]int)
	for _, t := range doc.Meta.Tags {
		for _, d := range x.tags[t] {
			if d.ID != doc.ID {
				shared[d.ID]++
			}
		}
	}
	related := make([]*Document, 0, len(shared))
	for id := range shared {
		related = append(related, x.byDate[x.pos[id]])
	}
	sort.Slice(related, func(i, j int) bool {
		a, b := related[i], related[j]
		if shared[a.ID] != shared[b.ID] {
			return shared[a.ID] > shared[b.ID]
		}
		return x.pos[a.ID] < x.pos[b.ID]
	})
	if len(related) > limit {
		related = related[:limit]
	}
	return related
}

// Page returns the documents for 1-based page n of size per in ByDate order,
// and the total page count (at least 1).
func (x *Index) Page(n, per int) ([]*Document, int) {
	if per <= 0 {
		per = len(x.byDate)
	}
	total := 1
	if per > 0 && len(x.byDate) > 0 {
		total = (len(x.byDate) + per - 1) / per
	}
	if n < 1 || n > total {
		return nil, total
	}
	start := (n - 1) * per
	end := min(start+per, len(x.byDate))
	return slices.Clone(x.byDate[start:end]), total
}

// HasTag reports whether any document carries tag (exact match).
func (x *Index) HasTag(tag string) bool {
	_, ok := x.tags[tag]
	return ok
}
