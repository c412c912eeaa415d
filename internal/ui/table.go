package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

const (
	tableCellMaxWidth = 50
	tableCellEllipsis = "..."
)

// TableBuilder collects rows and renders an aligned table.
type TableBuilder struct {
	headers []string
	rows    [][]string
}

// NewTableBuilder returns a builder with preallocated rows.
func NewTableBuilder(headers []string, capacity int) *TableBuilder {
	return &TableBuilder{headers: headers, rows: make([][]string, 0, capacity)}
}

// AddRow appends a row to the table.
func (b *TableBuilder) AddRow(row ...string) {
	b.rows = append(b.rows, row)
}

// Len returns the number of rows.
func (b *TableBuilder) Len() int {
	return len(b.rows)
}

// String renders the table.
func (b *TableBuilder) String() string {
	return FormatTable(b.headers, b.rows)
}

// FormatTable renders headers and rows as columns separated by two spaces.
// Cells may contain ANSI styling; widths are measured on visible cells.
func FormatTable(headers []string, rows [][]string) string {
	styledHeaders := make([]string, len(headers))
	for i, h := range headers {
		styledHeaders[i] = Render(TitleStyle, normalizeCell(h))
	}

	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		out := make([]string, len(row))
		for i, cell := range row {
			out[i] = TruncateCell(cell, tableCellMaxWidth)
		}
		cells = append(cells, out)
	}

	widths := make([]int, len(headers))
	for i, h := range styledHeaders {
		widths[i] = DisplayWidth(h)
	}
	for _, row := range cells {
		for i, cell := range row {
			if i < len(widths) && DisplayWidth(cell) > widths[i] {
				widths[i] = DisplayWidth(cell)
			}
		}
	}

	var sb strings.Builder
	writeRow := func(row []string) {
		for i, cell := range row {
			sb.WriteString(cell)
			if i == len(row)-1 || i >= len(widths) {
				continue
			}
			sb.WriteString(strings.Repeat(" ", widths[i]-DisplayWidth(cell)+2))
		}
		sb.WriteByte('\n')
	}
	writeRow(styledHeaders)
	for _, row := range cells {
		writeRow(row)
	}
	return sb.String()
}

// DisplayWidth is the terminal width of s, ignoring escape sequences.
func DisplayWidth(s string) int {
	if strings.ContainsRune(s, '\x1b') {
		return ansi.StringWidth(s)
	}
	return runewidth.StringWidth(s)
}

// TruncateCell flattens whitespace and limits s to max columns.
func TruncateCell(s string, max int) string {
	s = normalizeCell(s)
	if DisplayWidth(s) <= max {
		return s
	}
	if strings.ContainsRune(s, '\x1b') {
		return ansi.Truncate(s, max, tableCellEllipsis)
	}
	return runewidth.Truncate(s, max, tableCellEllipsis)
}

// PadRight pads s with spaces to width columns.
func PadRight(s string, width int) string {
	if w := DisplayWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func normalizeCell(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(s)
}
