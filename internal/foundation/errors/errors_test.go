package errors

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("builder sets fields in order", func(t *testing.T) {
		err := ConfigError("invalid configuration").
			WithContext("file", "sitebuilder.yaml").
			WithContext("line", 3).
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())
		assert.Equal(t, Fields{{"file", "sitebuilder.yaml"}, {"line", 3}}, err.Context())

		v, ok := err.Context().Lookup("file")
		require.True(t, ok)
		assert.Equal(t, "sitebuilder.yaml", v)
		_, ok = err.Context().Lookup("missing")
		assert.False(t, ok)
	})

	t.Run("wrapped cause is reachable", func(t *testing.T) {
		cause := stdErrors.New("disk full")
		err := WrapError(cause, CategoryFileSystem, "write output").Fatal().Build()

		assert.ErrorIs(t, err, cause)
		assert.True(t, err.IsFatal())
		assert.Equal(t, "[filesystem:fatal] write output: disk full", err.Error())
	})

	t.Run("warning severity", func(t *testing.T) {
		err := NewError(CategoryCache, "cache unavailable").Warning().Build()
		assert.Equal(t, SeverityWarning, err.Severity())
		assert.False(t, err.IsFatal())
	})

	t.Run("found through fmt wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("load: %w", ConfigError("bad value").Build())

		assert.True(t, IsClassified(wrapped))
		assert.True(t, HasCategory(wrapped, CategoryConfig))
		assert.False(t, HasCategory(wrapped, CategoryBuild))
		assert.Equal(t, CategoryConfig, GetCategory(wrapped))
	})

	t.Run("unclassified defaults to internal", func(t *testing.T) {
		plain := stdErrors.New("boom")
		assert.False(t, IsClassified(plain))
		assert.Equal(t, CategoryInternal, GetCategory(plain))
	})

	t.Run("sentinel matching by category and message", func(t *testing.T) {
		sentinel := NewError(CategoryBuild, "no documents").Build()
		err := fmt.Errorf("render: %w", NewError(CategoryBuild, "no documents").WithContext("failed", 2).Build())
		assert.ErrorIs(t, err, sentinel)
		assert.NotErrorIs(t, err, NewError(CategoryConfig, "no documents").Build())
	})

	t.Run("builds do not share context", func(t *testing.T) {
		b := NewError(CategoryBuild, "stage failed")
		first := b.Build()
		second := b.WithContext("stage", "write").Build()

		assert.Empty(t, first.Context())
		assert.Len(t, second.Context(), 1)
	})
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", stdErrors.New("x"), ExitGeneral},
		{"config", ConfigError("c").Build(), ExitConfig},
		{"not found", NewError(CategoryNotFound, "n").Build(), ExitConfig},
		{"validation", NewError(CategoryValidation, "v").Build(), ExitUsage},
		{"documents", NewError(CategoryDocuments, "2 documents failed").Build(), ExitDocumentFailures},
		{"filesystem", NewError(CategoryFileSystem, "w").Fatal().Build(), ExitBuild},
		{"cache", NewError(CategoryCache, "c").Build(), ExitBuild},
		{"runtime", NewError(CategoryRuntime, "canceled").Build(), ExitRuntime},
		{"internal", NewError(CategoryInternal, "i").Build(), ExitInternal},
		{"wrapped", fmt.Errorf("stage: %w", NewError(CategoryBuild, "b").Build()), ExitBuild},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_Handle(t *testing.T) {
	var logs, out bytes.Buffer
	a := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil))).WithOutput(&out)

	code := a.Handle(WrapError(stdErrors.New("permission denied"), CategoryFileSystem, "write output").
		Fatal().
		WithContext("path", "posts/index.html").
		Build())

	assert.Equal(t, ExitBuild, code)
	assert.Equal(t, "Error: write output: permission denied\n", out.String())
	assert.Contains(t, logs.String(), "category=filesystem path=posts/index.html")
}

func TestCLIErrorAdapter_QuietForNonFatalUnlessVerbose(t *testing.T) {
	var logs bytes.Buffer
	err := NewError(CategoryDocuments, "1 of 3 documents failed").Build()

	NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil))).WithOutput(io.Discard).Handle(err)
	assert.Empty(t, logs.String())

	NewCLIErrorAdapter(true, slog.New(slog.NewTextHandler(&logs, nil))).WithOutput(io.Discard).Handle(err)
	assert.Contains(t, logs.String(), "1 of 3 documents failed")
}
