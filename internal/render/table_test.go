package render

import "testing"

func TestTextTableAlignsNumericColumnsRight(t *testing.T) {
	tbl := newTextTable("Step", "Theta", "Verdict")
	tbl.addRow("1", "49.6456", "hit")
	tbl.addRow("12", "-3.5", "no-convergence")

	lines := tbl.lines()
	want := []string{
		"Step    Theta  Verdict",
		"────  ───────  ──────────────",
		"   1  49.6456  hit",
		"  12     -3.5  no-convergence",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestTextTableShortRows(t *testing.T) {
	tbl := newTextTable("A", "B")
	tbl.addRow("x")
	tbl.addRow("y", "z", "extra")
	lines := tbl.lines()
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if lines[2] != "x" {
		t.Fatalf("expected trailing padding trimmed, got %q", lines[2])
	}
	if lines[3] != "y  z  extra" {
		t.Fatalf("unexpected wide row %q", lines[3])
	}
}

func TestTextTableEmpty(t *testing.T) {
	if lines := newTextTable().lines(); lines != nil {
		t.Fatalf("expected no lines, got %q", lines)
	}
}

func TestDisplayWidthCountsWideRunes(t *testing.T) {
	if got := displayWidth("theta"); got != 5 {
		t.Fatalf("expected width 5, got %d", got)
	}
	if got := displayWidth("角度"); got != 4 {
		t.Fatalf("expected width 4, got %d", got)
	}
}
