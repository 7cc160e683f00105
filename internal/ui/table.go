package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Alignment of a column's cells.
type Alignment int

const (
	AlignLeft Alignment = iota
	// AlignRight lines amounts up on their last digit.
	AlignRight
)

// Column defines a table column.
type Column struct {
	Title string
	Width int
	Align Alignment
}

// Row is a slice of cell values.
type Row []string

// Table renders a lipgloss-styled table.
type Table struct {
	Columns []Column
	Rows    []Row
	Footer  Row // rendered under a second divider, e.g. totals
	SelIdx  int // selected row index (-1 = none)
}

// NewTable creates a new table.
func NewTable(cols []Column) *Table {
	return &Table{Columns: cols, SelIdx: -1}
}

// AddRow appends a row.
func (t *Table) AddRow(r Row) {
	t.Rows = append(t.Rows, r)
}

// Render returns the full table as a string. Cells are fitted to their
// column by display width, so styled text and "…" do not skew the layout.
func (t *Table) Render() string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(ColorValue)
	dimStyle := lipgloss.NewStyle().Foreground(ColorMeta)

	line := func(r Row, style func(i int) lipgloss.Style) {
		cells := make([]string, len(t.Columns))
		for j, col := range t.Columns {
			val := ""
			if j < len(r) {
				val = r[j]
			}
			cells[j] = style(j).Render(fit(val, col.Width, col.Align))
		}
		sb.WriteString(strings.Join(cells, " "))
		sb.WriteString("\n")
	}
	divider := func() {
		parts := make([]string, len(t.Columns))
		for j, col := range t.Columns {
			parts[j] = dimStyle.Render(strings.Repeat("-", col.Width))
		}
		sb.WriteString(strings.Join(parts, " "))
		sb.WriteString("\n")
	}

	titles := make(Row, len(t.Columns))
	for j, col := range t.Columns {
		titles[j] = col.Title
	}
	line(titles, func(int) lipgloss.Style { return headerStyle })
	divider()

	for i, row := range t.Rows {
		style := cellStyle
		if i == t.SelIdx {
			style = StyleSelected
		}
		line(row, func(int) lipgloss.Style { return style })
	}

	if t.Footer != nil {
		divider()
		line(t.Footer, func(int) lipgloss.Style { return headerStyle })
	}
	return sb.String()
}

// fit pads or truncates s to exactly width display columns.
func fit(s string, width int, align Alignment) string {
	w := lipgloss.Width(s)
	if w > width {
		r := []rune(s)
		for w > width-1 && len(r) > 0 {
			r = r[:len(r)-1]
			w = lipgloss.Width(string(r))
		}
		return string(r) + strings.Repeat("…", min(1, width))
	}
	gap := strings.Repeat(" ", width-w)
	if align == AlignRight {
		return gap + s
	}
	return s + gap
}

// KeyValueBlock renders a set of key-value pairs in a bordered box. Keys
// are aligned on the longest one.
func KeyValueBlock(title string, pairs [][2]string) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title))
		sb.WriteString("\n")
	}
	keyWidth := 0
	for _, p := range pairs {
		keyWidth = max(keyWidth, lipgloss.Width(p[0])+1)
	}
	for _, p := range pairs {
		key := StyleMeta.Render(fmt.Sprintf("%-*s", keyWidth, p[0]+":"))
		val := StyleValue.Render(p[1])
		sb.WriteString("  " + key + " " + val + "\n")
	}
	return StyleBorder.Render(sb.String())
}
