package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	columnGap = "  "
	ruleRune  = "─"
)

// textTable lays out cells in aligned columns. A column whose non-empty
// cells all parse as numbers is right-aligned.
type textTable struct {
	headers []string
	rows    [][]string
}

func newTextTable(headers ...string) *textTable {
	return &textTable{headers: headers}
}

func (t *textTable) addRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *textTable) columnCount() int {
	n := len(t.headers)
	for _, row := range t.rows {
		n = max(n, len(row))
	}
	return n
}

func (t *textTable) cell(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}

func (t *textTable) layout() (widths []int, right []bool) {
	n := t.columnCount()
	widths = make([]int, n)
	right = make([]bool, n)
	for col := 0; col < n; col++ {
		widths[col] = displayWidth(t.cell(t.headers, col))
		numeric, seen := true, false
		for _, row := range t.rows {
			value := t.cell(row, col)
			widths[col] = max(widths[col], displayWidth(value))
			if value == "" {
				continue
			}
			seen = true
			if !isNumber(value) {
				numeric = false
			}
		}
		right[col] = seen && numeric
	}
	return widths, right
}

// lines returns the header, a rule under it, and one line per row.
func (t *textTable) lines() []string {
	widths, right := t.layout()
	if len(widths) == 0 {
		return nil
	}
	out := make([]string, 0, len(t.rows)+2)
	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat(ruleRune, w)
	}
	out = append(out, joinCells(t.headers, widths, right), strings.Join(rule, columnGap))
	for _, row := range t.rows {
		out = append(out, joinCells(row, widths, right))
	}
	return out
}

func (t *textTable) writeTo(w io.Writer) error {
	for _, line := range t.lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func joinCells(row []string, widths []int, right []bool) string {
	cells := make([]string, len(widths))
	for i, width := range widths {
		value := ""
		if i < len(row) {
			value = row[i]
		}
		if right[i] {
			cells[i] = runewidth.FillLeft(value, width)
		} else {
			cells[i] = runewidth.FillRight(value, width)
		}
	}
	return strings.TrimRight(strings.Join(cells, columnGap), " ")
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
