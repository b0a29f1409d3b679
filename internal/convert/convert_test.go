package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLToMarkdown(t *testing.T) {
	md, err := HTMLToMarkdown([]byte("<h1>Title</h1><p>Some <strong>bold</strong> text.</p>"))
	require.NoError(t, err)

	out := string(md)
	assert.Contains(t, out, "# Title")
	assert.Contains(t, out, "**bold**")
}

func TestHTMLToMarkdown_Table(t *testing.T) {
	md, err := HTMLToMarkdown([]byte(
		"<table><tr><th>a</th><th>b</th></tr><tr><td>1</td><td>2</td></tr></table>"))
	require.NoError(t, err)

	out := string(md)
	assert.Contains(t, out, "| a | b |")
	assert.Contains(t, out, "| 1 | 2 |")
}

func TestMarkdownToHTML(t *testing.T) {
	html, err := MarkdownToHTML([]byte("# Title\n\nSome **bold** text.\n"))
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, "<strong>bold</strong>")
}

func TestRoundTripPreservesStructure(t *testing.T) {
	html, err := MarkdownToHTML([]byte("## Section\n\n- one\n- two\n"))
	require.NoError(t, err)

	md, err := HTMLToMarkdown(html)
	require.NoError(t, err)

	out := string(md)
	assert.Contains(t, out, "## Section")
	assert.Contains(t, out, "- one")
	assert.Contains(t, out, "- two")
}
