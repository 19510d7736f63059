package site

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/cache"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/events"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/testutil"
)

func build(t *testing.T, s *Service) *BuildReport {
	t.Helper()
	report, err := s.Build(t.Context())
	require.NoError(t, err)
	return report
}

func TestBuild_MissingLayoutIsExcluded(t *testing.T) {
	cfg := newSite(t, map[string]string{
		"_posts/2023-01-01-first.md":    post("First", ""),
		"_posts/2023-01-02-nolayout.md": testutil.Post{Title: "No layout", Body: "x\n"}.String(),
		"_posts/2023-01-03-third.md":    post("Third", ""),
		"_posts/2023-01-04-unknown.md":  testutil.Post{Layout: "missing", Title: "Unknown", Body: "y\n"}.String(),
	})
	pub := &events.RecorderPublisher{}
	report := build(t, NewService(cfg, WithLogger(quietLogger()), WithPublisher(pub)))

	assert.Equal(t, 4, report.Discovered)
	assert.Equal(t, 2, report.Rendered)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, Failure{
		Stage:   StageParse,
		Path:    "_posts/2023-01-02-nolayout.md",
		DocID:   "_posts/2023-01-02-nolayout",
		Kind:    "MissingField",
		Message: report.Failures[0].Message,
	}, report.Failures[0])
	assert.Contains(t, report.Failures[0].Message, `"layout"`)
	assert.Equal(t, StageRender, report.Failures[1].Stage)
	assert.Equal(t, "UnknownLayout", report.Failures[1].Kind)
	assert.Equal(t, OutcomePartial, report.Outcome)

	err := report.Err()
	require.Error(t, err)
	assert.Equal(t, ferrors.ExitDocumentFailures, ferrors.NewCLIErrorAdapter(false, quietLogger()).ExitCodeFor(err))

	out := testutil.NewFileAssertions(t, cfg.Build.OutputDir)
	out.AssertFileContains("2023/01/01/first/index.html", "<h1>First</h1>").
		AssertFileContains("2023/01/03/third/index.html", "<h1>Third</h1>").
		AssertNoFile("2023/01/02/nolayout/index.html").
		AssertNoFile("2023/01/04/unknown/index.html")

	evs := pub.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, 2, evs[0].Failed)
	assert.Equal(t, report.BuildID, evs[0].BuildID)
}

func TestBuild_DuplicateIDKeepsFirst(t *testing.T) {
	cfg := newSite(t, map[string]string{
		"_posts/2023-01-01-Same.md":       post("First", ""),
		"_posts/2023-01-01-same.markdown": post("Second", ""),
	})
	report := build(t, NewService(cfg, WithLogger(quietLogger())))

	require.Len(t, report.Failures, 1)
	assert.Equal(t, "DuplicateId", report.Failures[0].Kind)
	assert.Equal(t, "_posts/2023-01-01-same.markdown", report.Failures[0].Path)
	assert.Equal(t, 1, report.Rendered)

	testutil.NewFileAssertions(t, cfg.Build.OutputDir).
		AssertFileContains("2023/01/01/same/index.html", "<h1>First</h1>")
}

func TestBuild_TagPageOrder(t *testing.T) {
	cfg := newSite(t, map[string]string{
		"_posts/2023-01-01-jan.md": post("January", "", "go"),
		"_posts/2023-06-01-jun.md": post("June", "", "go"),
		"_posts/2023-03-01-mar.md": post("March", "", "go"),
	})
	build(t, NewService(cfg, WithLogger(quietLogger())))

	data, err := os.ReadFile(filepath.Join(cfg.Build.OutputDir, "tags", "go", "index.html"))
	require.NoError(t, err)
	html := string(data)
	jun, mar, jan := strings.Index(html, "June"), strings.Index(html, "March"), strings.Index(html, "January")
	require.NotEqual(t, -1, jun)
	assert.Less(t, jun, mar)
	assert.Less(t, mar, jan)
}

func TestBuild_IdempotentOutput(t *testing.T) {
	files := map[string]string{
		"_posts/2023-01-01-a.md": post("Alpha", "", "x", "y"),
		"_posts/2023-02-01-b.md": post("Beta", "", "y"),
		"about.md":               post("About", "2022-12-31"),
		"static/css/site.css":    "body{}",
	}
	cfg := newSite(t, files)
	svc := NewService(cfg, WithLogger(quietLogger()))

	first := build(t, svc)
	assert.Equal(t, OutcomeSuccess, first.Outcome)
	assert.Zero(t, first.Unchanged)
	snap1 := testutil.Snapshot(t, cfg.Build.OutputDir)

	second := build(t, svc)
	assert.Equal(t, OutcomeSuccess, second.Outcome)
	assert.Zero(t, second.Written)
	assert.Equal(t, first.Written, second.Unchanged)
	assert.Zero(t, second.Changed)
	assert.Equal(t, snap1, testutil.Snapshot(t, cfg.Build.OutputDir))

	other := *cfg
	other.Build.OutputDir = t.TempDir()
	other.Build.StateDir = ""
	build(t, NewService(&other, WithLogger(quietLogger())))
	assert.Equal(t, snap1, testutil.Snapshot(t, other.Build.OutputDir))

	assert.Contains(t, snap1, "index.html")
	assert.Contains(t, snap1, "feed.xml")
	assert.Contains(t, snap1, "sitemap.xml")
	assert.Contains(t, snap1, "tags/index.html")
	assert.Contains(t, snap1, "tags/y/index.html")
	assert.Contains(t, snap1, "css/site.css")
	assert.Contains(t, snap1, "2022/12/31/about/index.html")
}

func TestBuild_PrunesRemovedDocuments(t *testing.T) {
	cfg := newSite(t, map[string]string{
		"_posts/2023-01-01-keep.md": post("Keep", "", "a"),
		"_posts/2023-01-02-gone.md": post("Gone", "", "b"),
	})
	svc := NewService(cfg, WithLogger(quietLogger()))
	build(t, svc)

	require.NoError(t, os.Remove(filepath.Join(cfg.Build.ContentDir, "_posts", "2023-01-02-gone.md")))
	report := build(t, svc)

	assert.GreaterOrEqual(t, report.Pruned, 2)
	testutil.NewFileAssertions(t, cfg.Build.OutputDir).
		AssertFileExists("2023/01/01/keep/index.html").
		AssertNoFile("2023/01/02/gone/index.html").
		AssertNoFile("tags/b/index.html")
}

func TestBuild_DraftsSkipped(t *testing.T) {
	cfg := newSite(t, map[string]string{
		"_posts/2023-01-01-pub.md":   post("Published", ""),
		"_posts/2023-01-02-draft.md": testutil.Post{Layout: "post", Title: "Draft", Extra: map[string]string{"draft": "true"}, Body: "d\n"}.String(),
	})
	report := build(t, NewService(cfg, WithLogger(quietLogger())))
	assert.Equal(t, 1, report.Drafts)
	assert.Equal(t, 1, report.Rendered)
	assert.Empty(t, report.Failures)
	testutil.NewFileAssertions(t, cfg.Build.OutputDir).AssertNoFile("2023/01/02/draft/index.html")

	cfg.Build.Drafts = true
	report = build(t, NewService(cfg, WithLogger(quietLogger())))
	assert.Equal(t, 2, report.Rendered)
}

func TestBuild_AllDocumentsFailIsTerminal(t *testing.T) {
	cfg := newSite(t, map[string]string{
		"_posts/2023-01-01-a.md": testutil.Post{Layout: "nope", Title: "A", Body: "a\n"}.String(),
	})
	report, err := NewService(cfg, WithLogger(quietLogger())).Build(t.Context())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrNoDocuments)
	assert.Equal(t, ferrors.ExitBuild, ferrors.NewCLIErrorAdapter(false, quietLogger()).ExitCodeFor(err))
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Equal(t, StageErrorFatal, report.StageErrorKinds[StageRender])
}

func TestBuild_MissingContentDir(t *testing.T) {
	cfg := newSite(t, map[string]string{})
	cfg.Build.ContentDir = filepath.Join(cfg.Build.ContentDir, "missing")
	report, err := NewService(cfg, WithLogger(quietLogger())).Build(t.Context())
	require.ErrorIs(t, err, ErrContentDirMissing)
	assert.Equal(t, ferrors.ExitConfig, ferrors.NewCLIErrorAdapter(false, quietLogger()).ExitCodeFor(err))
	assert.Equal(t, IssueContentMissing, report.Issues[0].Code)
}

func TestBuild_EmptyContentSucceeds(t *testing.T) {
	cfg := newSite(t, map[string]string{})
	report := build(t, NewService(cfg, WithLogger(quietLogger())))
	assert.Zero(t, report.Discovered)
	assert.NotEqual(t, OutcomeFailed, report.Outcome)
}

func TestBuild_Canceled(t *testing.T) {
	cfg := newSite(t, map[string]string{"_posts/2023-01-01-a.md": post("A", "")})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	report, err := NewService(cfg, WithLogger(quietLogger())).Build(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryRuntime))
	assert.Equal(t, OutcomeCanceled, report.Outcome)
}

func TestBuild_BrokenLinksAreWarnings(t *testing.T) {
	cfg := newSite(t, map[string]string{
		"_posts/2023-01-01-a.md": testutil.Post{Layout: "post", Title: "A", Body: "See [missing](/nowhere/) and [b](/2023/01/02/b/).\n"}.String(),
		"_posts/2023-01-02-b.md": post("B", ""),
	})
	report := build(t, NewService(cfg, WithLogger(quietLogger())))
	require.Len(t, report.BrokenLinks, 1)
	assert.Equal(t, "/nowhere/", report.BrokenLinks[0].URL)
	assert.Equal(t, OutcomeWarning, report.Outcome)
	assert.NoError(t, report.Err())
}

func TestBuild_PersistsReportAndHistory(t *testing.T) {
	cfg := newSite(t, map[string]string{"_posts/2023-01-01-a.md": post("A", "")})
	svc := NewService(cfg, WithLogger(quietLogger()))
	first := build(t, svc)
	build(t, svc)

	data, err := os.ReadFile(filepath.Join(cfg.Build.StateDir, ReportJSONFile))
	require.NoError(t, err)
	var persisted BuildReportSerializable
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, OutcomeSuccess, persisted.Outcome)
	assert.Equal(t, 1, persisted.Rendered)
	assert.FileExists(t, filepath.Join(cfg.Build.StateDir, ReportTextFile))

	store, err := cache.NewSQLiteStore(filepath.Join(cfg.Build.StateDir, cache.FileName))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	builds, err := store.Builds(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, builds, 2)
	assert.Equal(t, first.BuildID, builds[1].BuildID)
}

func TestBuild_GitLastmod(t *testing.T) {
	repo, src := testutil.InitRepo(t)
	testutil.WriteTree(t, src, map[string]string{"_layouts/post.html": postLayout})
	when := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	testutil.CommitFile(t, repo, src, "_posts/2023-01-01-a.md", post("A", ""), when)

	cfg := newSite(t, map[string]string{})
	cfg.Build.ContentDir = src
	cfg.Build.LayoutsDir = ""
	cfg.Build.StaticDir = ""
	cfg.Build.GitLastmod = true
	cfg.ResolvePaths()

	report := build(t, NewService(cfg, WithLogger(quietLogger())))
	assert.Equal(t, OutcomeSuccess, report.Outcome)
	testutil.NewFileAssertions(t, cfg.Build.OutputDir).
		AssertFileContains("sitemap.xml", "<lastmod>2024-03-01T10:00:00Z</lastmod>")
}

func TestBuild_GitLastmodOutsideRepositoryWarns(t *testing.T) {
	cfg := newSite(t, map[string]string{"_posts/2023-01-01-a.md": post("A", "")})
	cfg.Build.GitLastmod = true
	report := build(t, NewService(cfg, WithLogger(quietLogger())))
	assert.Equal(t, OutcomeWarning, report.Outcome)
	assert.Equal(t, StageErrorWarning, report.StageErrorKinds[StageIndex])
	assert.Equal(t, 1, report.Rendered)
}

func TestBuild_WriteErrorIsFatal(t *testing.T) {
	cfg := newSite(t, map[string]string{"_posts/2023-01-01-a.md": post("A", "")})
	blocker := filepath.Join(t.TempDir(), "public")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o644))
	cfg.Build.OutputDir = blocker

	report, err := NewService(cfg, WithLogger(quietLogger())).Build(t.Context())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
	assert.Equal(t, ferrors.ExitBuild, ferrors.NewCLIErrorAdapter(false, quietLogger()).ExitCodeFor(err))
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Equal(t, StageErrorFatal, report.StageErrorKinds[StageWrite])
	var codes []ReportIssueCode
	for _, is := range report.Issues {
		codes = append(codes, is.Code)
	}
	assert.Contains(t, codes, IssueWriteFailure)
	assert.Zero(t, report.Written)
}

func TestBuild_ParallelRenderWithTitleFunc(t *testing.T) {
	files := map[string]string{
		"_layouts/post.html": "<h1>{{ title .Page.Title }}</h1>{{ .Content }}\n",
	}
	for i := range 64 {
		files[fmt.Sprintf("_posts/2023-01-01-post-%02d.md", i)] = post(fmt.Sprintf("post number %d", i), "")
	}
	cfg := newSite(t, files)
	cfg.Build.Workers = 16

	report := build(t, NewService(cfg, WithLogger(quietLogger())))
	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Equal(t, 64, report.Rendered)
	testutil.NewFileAssertions(t, cfg.Build.OutputDir).
		AssertFileContains("2023/01/01/post-07/index.html", "<h1>Post Number 7</h1>").
		AssertFileContains("2023/01/01/post-63/index.html", "<h1>Post Number 63</h1>")
}

func TestBuild_TagWithoutSlugGetsOwnPage(t *testing.T) {
	cfg := newSite(t, map[string]string{
		"_posts/2023-01-01-a.md": post("A", "", "go", "++"),
	})
	report := build(t, NewService(cfg, WithLogger(quietLogger())))
	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Empty(t, report.Issues)

	slug := content.TagSlug("++")
	require.True(t, strings.HasPrefix(slug, "tag-"))
	testutil.NewFileAssertions(t, cfg.Build.OutputDir).
		AssertFileContains("tags/index.html", `href="/tags/`+slug+`/"`).
		AssertFileContains("tags/index.html", "<h1>Tags</h1>").
		AssertFileContains("tags/"+slug+"/index.html", "Posts tagged").
		AssertFileExists("tags/go/index.html")
}

func TestBuild_TagsSharingSlugReportCollision(t *testing.T) {
	cfg := newSite(t, map[string]string{
		"_posts/2023-01-01-a.md": post("A", "", "Go"),
		"_posts/2023-01-02-b.md": post("B", "", "go!"),
	})
	report := build(t, NewService(cfg, WithLogger(quietLogger())))

	var collisions []ReportIssue
	for _, is := range report.Issues {
		if is.Code == IssueOutputCollision {
			collisions = append(collisions, is)
		}
	}
	require.Len(t, collisions, 1)
	assert.Contains(t, collisions[0].Message, "tags/go/index.html")
	assert.Equal(t, OutcomeWarning, report.Outcome)
}

func TestBuild_FailedDocumentsLeftOutOfListings(t *testing.T) {
	cfg := newSite(t, map[string]string{
		"_posts/2023-01-01-ok.md":     post("Kept", "", "x"),
		"_posts/2023-01-02-broken.md": testutil.Post{Layout: "missing", Title: "Broken", Tags: []string{"x", "only-broken"}, Body: "b\n"}.String(),
	})
	report := build(t, NewService(cfg, WithLogger(quietLogger())))
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "UnknownLayout", report.Failures[0].Kind)

	out := testutil.NewFileAssertions(t, cfg.Build.OutputDir)
	out.AssertFileContains("tags/x/index.html", "Kept").
		AssertNoFile("tags/only-broken/index.html")
	for _, f := range []string{"index.html", "tags/x/index.html", "tags/index.html", "feed.xml", "sitemap.xml"} {
		data, err := os.ReadFile(filepath.Join(cfg.Build.OutputDir, f))
		require.NoError(t, err)
		assert.NotContains(t, string(data), "broken", f)
	}
}
