// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"strings"

	"github.com/pdiddy/doc2md/pkg/types"
)

// NewTable builds a Table from a header row and data rows and renders its
// Markdown. Rows shorter than the widest row are padded with empty cells.
func NewTable(page, index int, headers []string, rows [][]string) types.Table {
	cols := len(headers)
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	return types.Table{
		Page:     page,
		Index:    index,
		Rows:     len(rows),
		Columns:  cols,
		Headers:  headers,
		Data:     rows,
		Markdown: MarkdownTable(headers, rows),
	}
}

// MarkdownTable renders a GitHub-flavored Markdown table. When headers is
// empty the first row is used as the header; an empty table renders as "".
func MarkdownTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		if len(rows) == 0 {
			return ""
		}
		headers, rows = rows[0], rows[1:]
	}

	cols := len(headers)
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	if cols == 0 {
		return ""
	}

	var b strings.Builder
	writeRow(&b, headers, cols)
	b.WriteString("|")
	for i := 0; i < cols; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, r := range rows {
		writeRow(&b, r, cols)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func writeRow(b *strings.Builder, cells []string, cols int) {
	b.WriteString("|")
	for i := 0; i < cols; i++ {
		cell := ""
		if i < len(cells) {
			cell = escapeCell(cells[i])
		}
		b.WriteString(" ")
		b.WriteString(cell)
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", "<br>", "\n", "<br>", "\r", "<br>")

func escapeCell(s string) string {
	return cellEscaper.Replace(strings.TrimSpace(s))
}
