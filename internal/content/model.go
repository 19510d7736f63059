package content

// Model accumulates documents for one build pass. It is not safe for
// concurrent use; the builder adds documents from a single goroutine in
// discovery order so that duplicate resolution is deterministic.
type Model struct {
	docs    []*Document
	byID    map[string]*Document
	outputs map[string]string // output path -> owning doc id
	index   *Index
}

// NewModel returns an empty, unfrozen model.
func NewModel() *Model {
	return &Model{
		byID:    make(map[string]*Document),
		outputs: make(map[string]string),
	}
}

// Add inserts doc. A document whose id or output path is already taken is
// rejected with a DuplicateId ParseError and the earlier document is kept.
func (m *Model) Add(doc *Document) error {
	if m.index != nil {
		return ErrModelFrozen
	}
	if _, exists := m.byID[doc.ID]; exists {
		return &ParseError{Kind: KindDuplicateID, Path: doc.SourcePath, DocID: doc.ID, Field: "id"}
	}
	if owner, exists := m.outputs[doc.OutputPath]; exists {
		return &ParseError{
			Kind:  KindDuplicateID,
			Path:  doc.SourcePath,
			DocID: doc.ID,
			Field: "permalink",
			Err:   &conflictError{path: doc.OutputPath, owner: owner},
		}
	}
	m.byID[doc.ID] = doc
	m.outputs[doc.OutputPath] = doc.ID
	m.docs = append(m.docs, doc)
	return nil
}

// Len returns the number of accepted documents.
func (m *Model) Len() int { return len(m.docs) }

// Documents returns the accepted documents in insertion order. Callers may
// enrich them before Freeze; after Freeze they must be treated as read-only
// except for RenderedBody.
func (m *Model) Documents() []*Document {
	out := make([]*Document, len(m.docs))
	copy(out, m.docs)
	return out
}

// Frozen reports whether Freeze has been called.
func (m *Model) Frozen() bool { return m.index != nil }

// Freeze ends ingestion and builds the read-only index. Repeated calls return
// the same index.
func (m *Model) Freeze() *Index {
	if m.index == nil {
		m.index = newIndex(m.docs)
	}
	return m.index
}

type conflictError struct {
	path  string
	owner string
}

func (e *conflictError) Error() string {
	return "output path " + e.path + " already produced by " + e.owner
}
