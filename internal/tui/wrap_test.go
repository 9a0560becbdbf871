package tui

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestWrapTextBreaksAtSpaces(t *testing.T) {
	got := wrapText("Solution is not valid: theta = 85 degrees", 16)
	want := "Solution is not\nvalid: theta =\n85 degrees"
	if got != want {
		t.Fatalf("unexpected wrap:\n%q\nwant\n%q", got, want)
	}
}

func TestWrapTextKeepsShortLines(t *testing.T) {
	in := "short\n\nlines"
	if got := wrapText(in, 20); got != in {
		t.Fatalf("expected unchanged text, got %q", got)
	}
}

func TestWrapTextSplitsLongWords(t *testing.T) {
	got := wrapText("x 0.123456789012", 6)
	for _, line := range strings.Split(got, "\n") {
		if runewidth.StringWidth(line) > 6 {
			t.Fatalf("line %q wider than 6", line)
		}
	}
	if strings.ReplaceAll(got, "\n", "") != "x0.123456789012" {
		t.Fatalf("wrap lost characters: %q", got)
	}
}

func TestWrapTextNoWidth(t *testing.T) {
	in := "unchanged text"
	if got := wrapText(in, 0); got != in {
		t.Fatalf("expected unchanged text, got %q", got)
	}
}
