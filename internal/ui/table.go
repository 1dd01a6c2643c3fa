package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

// CellMaxWidth is the widest a table cell renders before truncation.
const CellMaxWidth = 50

const cellEllipsis = "..."

// Table collects rows and renders them as aligned columns.
type Table struct {
	headers []string
	rows    [][]string
	header  func(string) string
}

// NewTable returns a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// StyleHeader sets how the header row is decorated.
func (t *Table) StyleHeader(style func(string) string) *Table {
	t.header = style
	return t
}

// AddRow appends a row. Cells past the header count are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	for i := range row {
		if i < len(cells) {
			row[i] = TruncateCell(cells[i])
		}
	}
	t.rows = append(t.rows, row)
}

// Len is the number of rows added.
func (t *Table) Len() int {
	return len(t.rows)
}

// String renders the table. Columns are separated by two spaces and
// the last column is not padded.
func (t *Table) String() string {
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = lipgloss.Width(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, decorate func(string) string) {
		for i, cell := range cells {
			padded := cell
			if i < len(cells)-1 {
				padded += strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+2)
			}
			if decorate != nil {
				padded = decorate(padded)
			}
			b.WriteString(padded)
		}
		b.WriteByte('\n')
	}

	headers := make([]string, len(t.headers))
	for i, header := range t.headers {
		headers[i] = normalizeCell(header)
	}
	writeRow(headers, t.header)
	for _, row := range t.rows {
		writeRow(row, nil)
	}
	return b.String()
}

// TruncateCell flattens line breaks and limits a cell to CellMaxWidth
// visible columns. Escape sequences do not count toward the width.
func TruncateCell(value string) string {
	value = normalizeCell(value)
	if lipgloss.Width(value) <= CellMaxWidth {
		return value
	}
	return truncate.StringWithTail(value, CellMaxWidth, cellEllipsis)
}

func normalizeCell(value string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(value)
}
