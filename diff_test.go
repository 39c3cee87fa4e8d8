package tui

import (
	"testing"

	"github.com/shmtui/tui/region"
)

func twoFrameRegion(t *testing.T) *region.Region {
	t.Helper()
	r, err := region.Create(region.Config{
		MaxNodes: 4, TextPoolCapacity: 64,
		MaxViewportW: 5, MaxViewportH: 2,
		EventRingCapacity: 4,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return r
}

func TestDiffFramebuffersNoChanges(t *testing.T) {
	r := twoFrameRegion(t)
	changes := DiffFramebuffers(r.Previous(), r.Current())
	if len(changes) != 0 {
		t.Fatalf("DiffFramebuffers on two zero framebuffers = %d changes, want 0", len(changes))
	}
}

func TestDiffFramebuffersDetectsChange(t *testing.T) {
	r := twoFrameRegion(t)
	cur := r.Current()
	cur.Set(2, 0, region.Cell{Glyph: 'x', Fg: 1, Bg: 2})

	changes := DiffFramebuffers(r.Previous(), r.Current())
	if len(changes) != 1 {
		t.Fatalf("DiffFramebuffers = %d changes, want 1", len(changes))
	}
	if changes[0].X != 2 || changes[0].Y != 0 || changes[0].Cell.Glyph != 'x' {
		t.Fatalf("change = %+v, want (2,0,'x')", changes[0])
	}
}

func TestFindRunsCollapsesConsecutiveCells(t *testing.T) {
	changes := []CellChange{
		{X: 0, Y: 0, Cell: region.Cell{Glyph: 'a'}},
		{X: 1, Y: 0, Cell: region.Cell{Glyph: 'b'}},
		{X: 2, Y: 0, Cell: region.Cell{Glyph: 'c'}},
		{X: 4, Y: 0, Cell: region.Cell{Glyph: 'd'}}, // gap at x=3, starts a new run
	}
	runs := FindRuns(changes)
	if len(runs) != 2 {
		t.Fatalf("FindRuns returned %d runs, want 2", len(runs))
	}
	if runs[0].X != 0 || len(runs[0].Cells) != 3 {
		t.Fatalf("first run = %+v, want X=0 len=3", runs[0])
	}
	if runs[1].X != 4 || len(runs[1].Cells) != 1 {
		t.Fatalf("second run = %+v, want X=4 len=1", runs[1])
	}
}

func TestFindRunsOnEmptyChangesReturnsNil(t *testing.T) {
	if runs := FindRuns(nil); runs != nil {
		t.Fatalf("FindRuns(nil) = %v, want nil", runs)
	}
}

func TestFindRunsSeparatesRows(t *testing.T) {
	changes := []CellChange{
		{X: 0, Y: 1, Cell: region.Cell{Glyph: 'a'}},
		{X: 0, Y: 0, Cell: region.Cell{Glyph: 'b'}},
	}
	runs := FindRuns(changes)
	if len(runs) != 2 {
		t.Fatalf("FindRuns across two rows = %d runs, want 2", len(runs))
	}
	if runs[0].Y != 0 || runs[1].Y != 1 {
		t.Fatalf("runs not ordered by row ascending: %+v", runs)
	}
}
