package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapText breaks every line of s at spaces so that no line is wider than
// width cells. A word wider than width is split across lines.
func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, wrapLine(line, width)...)
	}
	return strings.Join(out, "\n")
}

func wrapLine(line string, width int) []string {
	if runewidth.StringWidth(line) <= width {
		return []string{line}
	}
	var out []string
	var cur strings.Builder
	curWidth := 0
	flush := func() {
		out = append(out, cur.String())
		cur.Reset()
		curWidth = 0
	}
	for _, word := range strings.Fields(line) {
		wordWidth := runewidth.StringWidth(word)
		if curWidth > 0 && curWidth+1+wordWidth > width {
			flush()
		}
		if wordWidth > width {
			for _, part := range splitWord(word, width) {
				if curWidth > 0 {
					flush()
				}
				cur.WriteString(part)
				curWidth = runewidth.StringWidth(part)
			}
			continue
		}
		if curWidth > 0 {
			cur.WriteByte(' ')
			curWidth++
		}
		cur.WriteString(word)
		curWidth += wordWidth
	}
	if curWidth > 0 {
		flush()
	}
	return out
}

func splitWord(word string, width int) []string {
	var parts []string
	var cur strings.Builder
	curWidth := 0
	for _, r := range word {
		w := runewidth.RuneWidth(r)
		if curWidth+w > width && curWidth > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			curWidth = 0
		}
		cur.WriteRune(r)
		curWidth += w
	}
	if curWidth > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}
