package tui

import (
	"strings"
	"testing"

	"github.com/shmtui/tui/region"
)

func TestMoveCursorIsOneIndexed(t *testing.T) {
	if got, want := MoveCursor(0, 0), "\x1b[1;1H"; got != want {
		t.Fatalf("MoveCursor(0,0) = %q, want %q", got, want)
	}
	if got, want := MoveCursor(4, 2), "\x1b[3;5H"; got != want {
		t.Fatalf("MoveCursor(4,2) = %q, want %q", got, want)
	}
}

func TestRunsToAnsiEmptyProducesEmptyString(t *testing.T) {
	if got := RunsToAnsi(nil); got != "" {
		t.Fatalf("RunsToAnsi(nil) = %q, want empty", got)
	}
}

func TestRunsToAnsiEmitsCursorMoveAndGlyph(t *testing.T) {
	runs := []CellRun{{X: 2, Y: 1, Cells: []region.Cell{{Glyph: 'x', Fg: PackRGBA(255, 0, 0, 255)}}}}
	out := RunsToAnsi(runs)
	if !strings.Contains(out, "\x1b[2;3H") {
		t.Fatalf("output %q missing cursor move to (2,1)", out)
	}
	if !strings.ContainsRune(out, 'x') {
		t.Fatalf("output %q missing glyph", out)
	}
}

func TestRunsToAnsiDoesNotRepeatIdenticalStyle(t *testing.T) {
	fg := PackRGBA(10, 20, 30, 255)
	runs := []CellRun{
		{X: 0, Y: 0, Cells: []region.Cell{{Glyph: 'a', Fg: fg}, {Glyph: 'b', Fg: fg}}},
	}
	out := RunsToAnsi(runs)
	if strings.Count(out, "38;2;10;20;30") != 1 {
		t.Fatalf("identical adjacent styles re-emitted SGR: %q", out)
	}
}

func TestRunsToAnsiSkipsWideContinuationCells(t *testing.T) {
	runs := []CellRun{
		{X: 0, Y: 0, Cells: []region.Cell{
			{Glyph: '世'}, // a wide CJK glyph
			{Glyph: 0, Attrs: region.AttrWideContinuation},
		}},
	}
	out := RunsToAnsi(runs)
	// Only one glyph rune (plus escape bytes) should be written; the
	// continuation cell contributes nothing.
	if strings.Count(out, "世") != 1 {
		t.Fatalf("expected exactly one glyph write, got %q", out)
	}
}

func TestDiffRendererEmptyFrameProducesNoOutput(t *testing.T) {
	r := twoFrameRegion(t)
	d := &DiffRenderer{}
	if out := d.Render(r); out != "" {
		t.Fatalf("Render on an unchanged blank frame = %q, want empty", out)
	}
}

func TestDiffRendererEmitsOutputOnRealChange(t *testing.T) {
	r := twoFrameRegion(t)
	d := &DiffRenderer{}
	d.Render(r) // establish lastWidth/lastHeight and swap buffers

	cur := r.Current()
	cur.Set(0, 0, region.Cell{Glyph: 'z'})

	out := d.Render(r)
	if out == "" {
		t.Fatalf("Render after a real cell change returned no output")
	}
}

func TestDiffRendererResyncsOnResize(t *testing.T) {
	r := twoFrameRegion(t)
	d := &DiffRenderer{}
	d.Render(r) // establishes lastWidth=5, lastHeight=2

	r.Header.SetTerminalSize(4, 2) // narrower, still within the region's capacity
	out := d.Render(r)
	if out == "" {
		t.Fatalf("Render after a viewport resize returned no output, want a forced full resync")
	}
}
