package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

const fence = "---"

var bom = []byte{0xEF, 0xBB, 0xBF}

// ErrMissingOpeningDelimiter indicates the document does not start with a `---` fence.
var ErrMissingOpeningDelimiter = errors.New("front matter start delimiter missing")

// ErrMissingClosingDelimiter indicates the document started with a front matter
// delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

// ErrNotMapping indicates the header decoded to something other than a key/value mapping.
var ErrNotMapping = errors.New("front matter is not a mapping")

// Block is a document split at its front matter fence.
type Block struct {
	// Raw is the header text between the fences, without delimiters.
	Raw []byte
	// Body is everything after the closing fence line.
	Body []byte
	// Newline is the line ending detected on the opening fence ("\n" or "\r\n").
	Newline string
	// BodyLine is the 1-based line number at which Body starts in the source.
	BodyLine int
}

// Split separates `---` fenced front matter from the body.
//
// A leading UTF-8 byte order mark is ignored. The closing fence may be the last
// line of the file without a trailing newline.
func Split(content []byte) (Block, error) {
	content = bytes.TrimPrefix(content, bom)

	nl := detectNewline(content)
	open := []byte(fence + nl)
	if !bytes.HasPrefix(content, open) {
		return Block{Body: content, Newline: nl}, ErrMissingOpeningDelimiter
	}

	rest := content[len(open):]
	if end, ok := closingFenceAt(rest, 0, nl); ok {
		return Block{Raw: []byte{}, Body: rest[end:], Newline: nl, BodyLine: 3}, nil
	}

	sep := []byte(nl + fence)
	offset := 0
	for {
		idx := bytes.Index(rest[offset:], sep)
		if idx < 0 {
			return Block{Newline: nl}, ErrMissingClosingDelimiter
		}
		lineStart := offset + idx + len(nl)
		if end, ok := closingFenceAt(rest, lineStart, nl); ok {
			raw := rest[:lineStart]
			return Block{
				Raw:      raw,
				Body:     rest[end:],
				Newline:  nl,
				BodyLine: bytes.Count(raw, []byte("\n")) + 3,
			}, nil
		}
		offset = lineStart
	}
}

// closingFenceAt reports whether a bare `---` line starts at pos and returns the
// index just past its line ending.
func closingFenceAt(b []byte, pos int, nl string) (int, bool) {
	line := b[pos:]
	if !bytes.HasPrefix(line, []byte(fence)) {
		return 0, false
	}
	after := line[len(fence):]
	switch {
	case len(after) == 0:
		return len(b), true
	case bytes.HasPrefix(after, []byte(nl)):
		return pos + len(fence) + len(nl), true
	default:
		return 0, false
	}
}

// ParseYAML decodes raw front matter into a map, recording the source key order.
//
// Duplicate keys are rejected. An empty header yields an empty map.
func ParseYAML(raw []byte) (map[string]any, []string, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fields, nil, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return fields, nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("%w (line %d)", ErrNotMapping, root.Line)
	}

	keys := make([]string, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if _, dup := fields[k.Value]; dup {
			return nil, nil, fmt.Errorf("duplicate key %q (line %d)", k.Value, k.Line)
		}
		var value any
		if err := v.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("decode %q (line %d): %w", k.Value, v.Line, err)
		}
		fields[k.Value] = value
		keys = append(keys, k.Value)
	}
	return fields, keys, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
