package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Post describes one content document for WriteTree.
type Post struct {
	Layout string
	Title  string
	Date   string // YYYY-MM-DD, omitted from the header when empty
	Tags   []string
	Extra  map[string]string // additional header lines, written verbatim as key: value
	Body   string
}

// String renders the post as a front matter fenced document.
func (p Post) String() string {
	var b strings.Builder
	b.WriteString("---\n")
	if p.Layout != "" {
		fmt.Fprintf(&b, "layout: %s\n", p.Layout)
	}
	if p.Title != "" {
		fmt.Fprintf(&b, "title: %q\n", p.Title)
	}
	if p.Date != "" {
		fmt.Fprintf(&b, "date: %s\n", p.Date)
	}
	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(p.Tags, ", "))
	}
	for _, k := range sortedKeys(p.Extra) {
		fmt.Fprintf(&b, "%s: %s\n", k, p.Extra[k])
	}
	b.WriteString("---\n")
	b.WriteString(p.Body)
	return b.String()
}

// WriteTree creates files below root. Keys are slash-separated relative paths.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
