package render

import (
	"bytes"
	"strings"
	"testing"
)

func TestPlotPaths(t *testing.T) {
	var buf bytes.Buffer
	err := PlotPaths(&buf, "Test Plot", []Path{
		{Name: "A", X: []float64{0, 1, 2, 3, 4}, Y: []float64{0, 2, 3, 2, 0}},
		{Name: "B", X: []float64{4, 2}, Y: []float64{1, 1}},
		{Name: "C", X: []float64{2}, Y: []float64{3}, Points: true},
	}, 12, 4)
	if err != nil {
		t.Fatalf("PlotPaths failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Test Plot") {
		t.Fatalf("expected title in output")
	}
	if !strings.Contains(out, "x: 0.00 .. 4.00   y: 0.00 .. 3.00") {
		t.Fatalf("expected shared bounds in output:\n%s", out)
	}
	if !strings.Contains(out, "Legend:") || !strings.Contains(out, "C (points)") {
		t.Fatalf("expected legend in output:\n%s", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	expectedMin := 1 + 1 + 4 + 1
	if len(lines) < expectedMin {
		t.Fatalf("expected at least %d lines of output, got %d", expectedMin, len(lines))
	}
	if !strings.Contains(lines[2], "3.0") {
		t.Fatalf("expected top axis label to be the max y, got %q", lines[2])
	}
}

func TestPlotPathsSkipsMismatchedPaths(t *testing.T) {
	var buf bytes.Buffer
	err := PlotPaths(&buf, "Empty", []Path{
		{Name: "bad", X: []float64{1, 2}, Y: []float64{1}},
		{Name: "none"},
	}, 12, 4)
	if err != nil {
		t.Fatalf("PlotPaths failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestScaleToDotsClamps(t *testing.T) {
	if got := scaleToDots(-5, 0, 10, 20); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := scaleToDots(15, 0, 10, 20); got != 19 {
		t.Fatalf("expected 19, got %d", got)
	}
	if got := scaleToDots(10, 0, 10, 20); got != 19 {
		t.Fatalf("expected 19, got %d", got)
	}
}
