// Package resultset holds the output of a SELECT: column names plus
// rows, and the two dump formats spec §6 requires. Grounded on
// original_source/db/core/ResultSet.{hpp,cpp} and
// original_source/repl's table-printing routines.
package resultset

import (
	"fmt"
	"strings"

	"github.com/essadb/essadb/pkg/value"
)

type ResultSet struct {
	ColumnNames []string
	Rows        []value.Tuple
}

func New(columnNames []string) *ResultSet {
	return &ResultSet{ColumnNames: columnNames}
}

func (r *ResultSet) AddRow(row value.Tuple) { r.Rows = append(r.Rows, row) }

func (r *ResultSet) columnWidths() []int {
	widths := make([]int, len(r.ColumnNames))
	for i, name := range r.ColumnNames {
		widths[i] = len([]rune(name))
	}
	for _, row := range r.Rows {
		for i := 0; i < row.Len() && i < len(widths); i++ {
			if w := len([]rune(row.Value(i).ToString())); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

// DumpPlain renders a minimal ASCII table: "| " separated columns, no
// box-drawing (spec §6's plain dump format).
func (r *ResultSet) DumpPlain() string {
	widths := r.columnWidths()
	var sb strings.Builder
	writeRow := func(cells []string) {
		for i, c := range cells {
			fmt.Fprintf(&sb, "| %-*s ", widths[i], c)
		}
		sb.WriteString("|\n")
	}
	writeRow(r.ColumnNames)
	for _, row := range r.Rows {
		cells := make([]string, len(r.ColumnNames))
		for i := range cells {
			if i < row.Len() {
				cells[i] = row.Value(i).ToString()
			}
		}
		writeRow(cells)
	}
	return sb.String()
}

// DumpFancy renders a Unicode box-drawing table with "null" cells
// dimmed via ANSI SGR, matching the REPL's fancier display mode
// (spec §6).
func (r *ResultSet) DumpFancy() string {
	widths := r.columnWidths()
	var sb strings.Builder

	border := func(left, mid, right string) {
		sb.WriteString(left)
		for i, w := range widths {
			sb.WriteString(strings.Repeat("─", w+2))
			if i < len(widths)-1 {
				sb.WriteString(mid)
			}
		}
		sb.WriteString(right + "\n")
	}

	writeRow := func(cells []string, dimNull []bool) {
		sb.WriteString("│")
		for i, c := range cells {
			if dimNull != nil && dimNull[i] {
				fmt.Fprintf(&sb, " \x1b[2m%-*s\x1b[0m │", widths[i], c)
			} else {
				fmt.Fprintf(&sb, " %-*s │", widths[i], c)
			}
		}
		sb.WriteString("\n")
	}

	border("┌", "┬", "┐")
	writeRow(r.ColumnNames, nil)
	border("├", "┼", "┤")
	for _, row := range r.Rows {
		cells := make([]string, len(r.ColumnNames))
		dim := make([]bool, len(r.ColumnNames))
		for i := range cells {
			if i < row.Len() {
				cells[i] = row.Value(i).ToString()
				dim[i] = row.Value(i).IsNull()
			}
		}
		writeRow(cells, dim)
	}
	border("└", "┴", "┘")
	return sb.String()
}
