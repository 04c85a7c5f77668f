package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// maxCellWidth caps any single column so one long value cannot starve the
// rest of the table.
const maxCellWidth = 60

// ResultsTable renders query results as a minimally bordered table with a
// header row, sized to the terminal.
type ResultsTable struct {
	display *DisplayContext
	columns []string
	rows    [][]string
}

// NewResultsTable creates a table for the given column order.
func NewResultsTable(display *DisplayContext, columns []string) *ResultsTable {
	return &ResultsTable{display: display, columns: columns}
}

// AddRow appends one result row, formatting cells by column order.
func (t *ResultsTable) AddRow(row map[string]any) {
	cells := make([]string, len(t.columns))
	for i, col := range t.columns {
		cells[i] = FormatCell(row[col])
	}
	t.rows = append(t.rows, cells)
}

// FormatCell renders a single database value for display.
func FormatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// Trim the noise from whole-valued aggregates like AVG.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%.2f", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// calculateWidths sizes columns by their longest cell, then shrinks the
// widest columns until the table fits the terminal.
func (t *ResultsTable) calculateWidths() []int {
	widths := make([]int, len(t.columns))
	for i, col := range t.columns {
		widths[i] = len(col)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	const columnPadding = 2
	for i := range widths {
		if widths[i] > maxCellWidth {
			widths[i] = maxCellWidth
		}
	}

	available := t.display.TermWidth - (len(t.columns)-1)*columnPadding
	for total(widths) > available {
		widest := 0
		for i := range widths {
			if widths[i] > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= 8 {
			break
		}
		widths[widest]--
	}
	return widths
}

func total(widths []int) int {
	sum := 0
	for _, w := range widths {
		sum += w
	}
	return sum
}

// Render generates the table output as a string.
func (t *ResultsTable) Render() string {
	if len(t.columns) == 0 {
		return ""
	}

	widths := t.calculateWidths()

	for i, row := range t.rows {
		for j, cell := range row {
			t.rows[i][j] = truncate(cell, widths[j])
		}
	}

	tbl := table.New().
		Border(lipgloss.Border{Middle: "─"}).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderRow(false).
		BorderHeader(true).
		BorderColumn(false).
		BorderStyle(Muted).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle()
			if row == table.HeaderRow {
				style = AccentBold
			}
			if col < len(widths) {
				style = style.Width(widths[col])
			}
			if col < len(t.columns)-1 {
				style = style.PaddingRight(2)
			}
			return style
		}).
		Headers(t.columns...).
		Rows(t.rows...)

	return tbl.Render()
}

// truncate shortens a cell to width, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return strings.TrimSpace(s[:width-3]) + "..."
}
