// Package render draws solve results for the terminal and image files.
package render

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

// Path is a named polyline in world coordinates.
type Path struct {
	Name   string
	X      []float64
	Y      []float64
	Points bool // plot the vertices only, without connecting lines
}

type bounds struct {
	minX, maxX float64
	minY, maxY float64
}

type lineStyle struct {
	name   string
	period int
	on     int
}

type ansiColor struct {
	name string
	code string
}

const (
	defaultPlotHeight   = 12
	minPlotWidth        = 10
	axisLabelWidth      = 8
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var lineStyles = []lineStyle{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
	{name: "dashdot", period: 8, on: 3},
}

var colorPalette = []ansiColor{
	{name: "cyan", code: "\x1b[36m"},
	{name: "yellow", code: "\x1b[33m"},
	{name: "red", code: "\x1b[31m"},
	{name: "green", code: "\x1b[32m"},
	{name: "magenta", code: "\x1b[35m"},
}

// PlotPaths renders paths on shared axes as a braille text plot.
func PlotPaths(w io.Writer, title string, paths []Path, width, height int) error {
	return plotPaths(w, title, paths, width, height, false)
}

// PlotPathsWithColor renders paths with optional forced color output.
func PlotPathsWithColor(w io.Writer, title string, paths []Path, width, height int, forceColor bool) error {
	return plotPaths(w, title, paths, width, height, forceColor)
}

func plotPaths(w io.Writer, title string, paths []Path, width, height int, forceColor bool) error {
	paths = filterPaths(paths)
	if len(paths) == 0 {
		return nil
	}

	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = autoPlotWidth()
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	b := pathBounds(paths)
	dotsX, dotsY := width*2, height*4

	pathCells := make([][][]uint8, 0, len(paths))
	for pi, p := range paths {
		cells := makeCells(height, width)
		style := lineStyles[pi%len(lineStyles)]
		prevX, prevY := -1, -1
		for i := range p.X {
			px := scaleToDots(p.X[i], b.minX, b.maxX, dotsX)
			py := dotsY - 1 - scaleToDots(p.Y[i], b.minY, b.maxY, dotsY)
			if p.Points {
				setBrailleDot(cells, px, py)
				continue
			}
			if prevX >= 0 {
				drawLine(prevX, prevY, px, py, func(dx, dy int) {
					if style.shouldPlot(dx) {
						setBrailleDot(cells, dx, dy)
					}
				})
			} else {
				setBrailleDot(cells, px, py)
			}
			prevX, prevY = px, py
		}
		pathCells = append(pathCells, cells)
	}

	useColor := shouldUseColor(w, forceColor)
	axisLabels := makeAxisLabels(height, b.minY, b.maxY)

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "x: %.2f .. %.2f   y: %.2f .. %.2f\n", b.minX, b.maxX, b.minY, b.maxY); err != nil {
		return err
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(fmt.Sprintf("%*s%s", axisLabelWidth, axisLabels[y], axisSeparator))
		for x := 0; x < width; x++ {
			mask, colorIdx := composeCell(pathCells, x, y)
			ch := brailleFromMask(mask)
			if useColor && colorIdx >= 0 {
				row.WriteString(colorPalette[colorIdx%len(colorPalette)].code)
				row.WriteRune(ch)
				row.WriteString(colorReset)
			} else {
				row.WriteRune(ch)
			}
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, renderLegend(paths, useColor)); err != nil {
		return err
	}
	return nil
}

func filterPaths(paths []Path) []Path {
	out := make([]Path, 0, len(paths))
	for _, p := range paths {
		if len(p.X) == 0 || len(p.X) != len(p.Y) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func pathBounds(paths []Path) bounds {
	b := bounds{
		minX: math.Inf(1), maxX: math.Inf(-1),
		minY: math.Inf(1), maxY: math.Inf(-1),
	}
	for _, p := range paths {
		for i := range p.X {
			b.minX = math.Min(b.minX, p.X[i])
			b.maxX = math.Max(b.maxX, p.X[i])
			b.minY = math.Min(b.minY, p.Y[i])
			b.maxY = math.Max(b.maxY, p.Y[i])
		}
	}
	if math.Abs(b.maxX-b.minX) < 1e-9 {
		b.minX--
		b.maxX++
	}
	if math.Abs(b.maxY-b.minY) < 1e-9 {
		b.minY--
		b.maxY++
	}
	return b
}

func scaleToDots(v, minVal, maxVal float64, dots int) int {
	if dots <= 1 {
		return 0
	}
	pos := (v - minVal) / (maxVal - minVal)
	d := int(math.Round(pos * float64(dots-1)))
	if d < 0 {
		d = 0
	}
	if d >= dots {
		d = dots - 1
	}
	return d
}

func autoPlotWidth() int {
	return PlotWidthFor(terminalWidth())
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	plotWidth := totalWidth - axisLabelWidth - displayWidth(axisSeparator)
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func makeAxisLabels(height int, minY, maxY float64) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = formatAxisValue(maxY)
	if height > 2 {
		labels[height/2] = formatAxisValue(maxY - (maxY-minY)*float64(height/2)/float64(height-1))
	}
	if height > 1 {
		labels[height-1] = formatAxisValue(minY)
	}
	return labels
}

func formatAxisValue(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	if len(s) > axisLabelWidth {
		s = fmt.Sprintf("%.1e", v)
	}
	return s
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]uint8, width)
	}
	return cells
}

func composeCell(pathCells [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	colorIdx := -1
	for i, cells := range pathCells {
		if y < 0 || y >= len(cells) {
			continue
		}
		if x < 0 || x >= len(cells[y]) {
			continue
		}
		cellMask := cells[y][x]
		if cellMask == 0 {
			continue
		}
		if colorIdx == -1 {
			colorIdx = i
		}
		mask |= cellMask
	}
	return mask, colorIdx
}

func (ls lineStyle) shouldPlot(x int) bool {
	if ls.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%ls.period < ls.on
}

func renderLegend(paths []Path, useColor bool) string {
	parts := make([]string, 0, len(paths))
	marker := brailleFromMask(0x01)
	for i, p := range paths {
		styleName := lineStyles[i%len(lineStyles)].name
		if p.Points {
			styleName = "points"
		}
		label := fmt.Sprintf("%c %s (%s)", marker, p.Name, styleName)
		if useColor {
			label = colorPalette[i%len(colorPalette)].code + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := int(math.Abs(float64(x1 - x0)))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -int(math.Abs(float64(y1 - y0)))
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if y < 0 || x < 0 {
		return
	}
	cellY := y / 4
	cellX := x / 2
	if cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

func brailleDotMask(x, y int) uint8 {
	switch {
	case x == 0 && y == 0:
		return 0x01
	case x == 0 && y == 1:
		return 0x02
	case x == 0 && y == 2:
		return 0x04
	case x == 0 && y == 3:
		return 0x40
	case x == 1 && y == 0:
		return 0x08
	case x == 1 && y == 1:
		return 0x10
	case x == 1 && y == 2:
		return 0x20
	case x == 1 && y == 3:
		return 0x80
	default:
		return 0
	}
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
