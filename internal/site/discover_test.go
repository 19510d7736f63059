package site

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/testutil"
)

func TestDiscoverSources(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"_posts/2023-01-02-b.md":       "",
		"_posts/2023-01-01-a.markdown": "",
		"about.MD":                     "",
		"notes.txt":                    "",
		".hidden.md":                   "",
		".git/x.md":                    "",
		"_layouts/post.md":             "",
		"_includes/x.md":               "",
		"static/readme.md":             "",
		"guides/intro.md":              "",
	})

	got, err := discoverSources(root, filepath.Join(root, "static"), "")
	require.NoError(t, err)

	var rels []string
	for _, s := range got {
		rels = append(rels, s.RelPath)
		assert.True(t, filepath.IsAbs(s.AbsPath))
	}
	assert.Equal(t, []string{
		"_posts/2023-01-01-a.markdown",
		"_posts/2023-01-02-b.md",
		"about.MD",
		"guides/intro.md",
	}, rels)
}
