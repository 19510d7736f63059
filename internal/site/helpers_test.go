package site

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/testutil"
)

const postLayout = `<article><h1>{{ .Page.Title }}</h1>{{ .Content }}</article>
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newSite writes files into a fresh content dir and returns a config
// building it into a fresh output dir with its own state dir.
func newSite(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	src := t.TempDir()
	if _, ok := files["_layouts/post.html"]; !ok {
		files["_layouts/post.html"] = postLayout
	}
	testutil.WriteTree(t, src, files)

	cfg := config.Default()
	cfg.Build.ContentDir = src
	cfg.Build.OutputDir = t.TempDir()
	cfg.Build.StateDir = filepath.Join(t.TempDir(), "state")
	cfg.Build.Workers = 4
	cfg.ResolvePaths()
	return cfg
}

func post(title, date string, tags ...string) string {
	return testutil.Post{Layout: "post", Title: title, Date: date, Tags: tags, Body: "Body of " + title + ".\n"}.String()
}
