package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// column describes one text table column. Numeric columns align right.
type column struct {
	title   string
	numeric bool
}

// dateColumns leads with a left-aligned Date column; every metric column is numeric.
func dateColumns(titles []string) []column {
	cols := make([]column, 0, len(titles)+1)
	cols = append(cols, column{title: "Date"})
	for _, t := range titles {
		cols = append(cols, column{title: t, numeric: true})
	}
	return cols
}

// renderTable lays rows out under cols, one string per line, header first.
// Short rows are padded with empty cells; extra cells are dropped.
func renderTable(cols []column, rows [][]string) []string {
	if len(cols) == 0 {
		return nil
	}
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = displayWidth(c.title)
	}
	for _, row := range rows {
		for i := range cols {
			if i < len(row) {
				widths[i] = max(widths[i], displayWidth(row[i]))
			}
		}
	}

	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.title
	}
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, joinCells(cols, widths, titles))
	for _, row := range rows {
		lines = append(lines, joinCells(cols, widths, row))
	}
	return lines
}

func joinCells(cols []column, widths []int, row []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		value := ""
		if i < len(row) {
			value = row[i]
		}
		parts[i] = padCell(value, widths[i], c.numeric)
	}
	return strings.Join(parts, " ")
}

func padCell(value string, width int, right bool) string {
	gap := width - displayWidth(value)
	if gap <= 0 {
		return value
	}
	if right {
		return strings.Repeat(" ", gap) + value
	}
	return value + strings.Repeat(" ", gap)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
