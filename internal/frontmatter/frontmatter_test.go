package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsOpeningError(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	b, err := Split(input)
	require.ErrorIs(t, err, ErrMissingOpeningDelimiter)
	require.Equal(t, input, b.Body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	b, err := Split([]byte("---\nkey: value\n---\n# Title\n"))
	require.NoError(t, err)
	require.Equal(t, []byte("key: value\n"), b.Raw)
	require.Equal(t, []byte("# Title\n"), b.Body)
	require.Equal(t, 4, b.BodyLine)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, err := Split([]byte("---\nkey: value\n# Title\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
}

func TestSplit_DashesInsideHeaderValueAreNotAFence(t *testing.T) {
	b, err := Split([]byte("---\ntitle: a\n----\nx: y\n---\nbody\n"))
	require.NoError(t, err)
	require.Equal(t, []byte("title: a\n----\nx: y\n"), b.Raw)
	require.Equal(t, []byte("body\n"), b.Body)
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	b, err := Split([]byte("---\r\nkey: value\r\n---\r\n# Title\r\n"))
	require.NoError(t, err)
	require.Equal(t, "\r\n", b.Newline)
	require.Equal(t, []byte("key: value\r\n"), b.Raw)
	require.Equal(t, []byte("# Title\r\n"), b.Body)
}

func TestSplit_EmptyFrontmatterBlock(t *testing.T) {
	b, err := Split([]byte("---\n---\n# Title\n"))
	require.NoError(t, err)
	require.Empty(t, b.Raw)
	require.Equal(t, []byte("# Title\n"), b.Body)
}

func TestSplit_ClosingFenceAtEOF(t *testing.T) {
	b, err := Split([]byte("---\ntitle: x\n---"))
	require.NoError(t, err)
	require.Equal(t, []byte("title: x\n"), b.Raw)
	require.Empty(t, b.Body)
}

func TestSplit_IgnoresByteOrderMark(t *testing.T) {
	b, err := Split(append([]byte{0xEF, 0xBB, 0xBF}, []byte("---\na: 1\n---\nbody")...))
	require.NoError(t, err)
	require.Equal(t, []byte("a: 1\n"), b.Raw)
}

func TestParseYAML_PreservesKeyOrder(t *testing.T) {
	fields, keys, err := ParseYAML([]byte("title: Hi\nlayout: post\ntags:\n  - one\nzeta: 1\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"title", "layout", "tags", "zeta"}, keys)
	require.Equal(t, "Hi", fields["title"])
	require.Equal(t, []any{"one"}, fields["tags"])
	require.Equal(t, 1, fields["zeta"])
}

func TestParseYAML_Empty_ReturnsEmptyMap(t *testing.T) {
	fields, keys, err := ParseYAML(nil)
	require.NoError(t, err)
	require.Empty(t, fields)
	require.Empty(t, keys)
}

func TestParseYAML_InvalidYAML_ReturnsError(t *testing.T) {
	_, _, err := ParseYAML([]byte("title: [unclosed\n"))
	require.Error(t, err)
}

func TestParseYAML_ScalarDocument_IsNotMapping(t *testing.T) {
	_, _, err := ParseYAML([]byte("just a string\n"))
	require.ErrorIs(t, err, ErrNotMapping)
}

func TestParseYAML_DuplicateKey(t *testing.T) {
	_, _, err := ParseYAML([]byte("title: a\ntitle: b\n"))
	require.Error(t, err)
}
