// Package convert translates between the remote store's native document
// format (HTML) and the local Markdown representation.
package convert

import (
	"bytes"
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

var htmlRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// HTMLToMarkdown converts an exported HTML document to Markdown.
func HTMLToMarkdown(src []byte) ([]byte, error) {
	out, err := mdConverter.ConvertString(string(src))
	if err != nil {
		return nil, fmt.Errorf("convert html to markdown: %w", err)
	}
	return []byte(out), nil
}

// MarkdownToHTML renders local Markdown as HTML for remote document creation.
func MarkdownToHTML(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlRenderer.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("convert markdown to html: %w", err)
	}
	return buf.Bytes(), nil
}
