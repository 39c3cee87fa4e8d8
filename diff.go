package tui

import (
	"sort"

	"github.com/shmtui/tui/region"
)

// CellChange is a single differing cell between two framebuffers.
type CellChange struct {
	X, Y int
	Cell region.Cell
}

// CellRun is a maximal horizontal run of consecutive changed cells on
// one row, the unit DiffRenderer emits as one cursor-position plus a
// sequence of glyphs.
type CellRun struct {
	X, Y  int
	Cells []region.Cell
}

// DiffFramebuffers computes the cell-level diff between previous and
// current, in row-major order. Wide-continuation cells are not skipped:
// they are compared like any other cell, since the compositor already
// wrote glyph 0 there.
func DiffFramebuffers(previous, current region.FramebufferView) []CellChange {
	width, height := current.Width(), current.Height()
	estimated := int(width*height) / 5
	if estimated < 64 {
		estimated = 64
	}
	changes := make([]CellChange, 0, estimated)

	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			from := previous.Get(x, y)
			to := current.Get(x, y)
			if from != to {
				changes = append(changes, CellChange{X: int(x), Y: int(y), Cell: to})
			}
		}
	}
	return changes
}

// groupChangesByRow groups changes by row, each row sorted by column.
func groupChangesByRow(changes []CellChange) map[int][]CellChange {
	byRow := make(map[int][]CellChange)
	for _, c := range changes {
		byRow[c.Y] = append(byRow[c.Y], c)
	}
	for _, row := range byRow {
		sort.Slice(row, func(i, j int) bool { return row[i].X < row[j].X })
	}
	return byRow
}

// FindRuns collapses a set of changes into maximal consecutive runs
// per row, so the renderer emits one cursor move per contiguous
// stretch instead of one per cell.
func FindRuns(changes []CellChange) []CellRun {
	if len(changes) == 0 {
		return nil
	}
	byRow := groupChangesByRow(changes)

	rows := make([]int, 0, len(byRow))
	for y := range byRow {
		rows = append(rows, y)
	}
	sort.Ints(rows)

	runs := make([]CellRun, 0, len(changes)/4+1)
	for _, y := range rows {
		var current *CellRun
		for _, c := range byRow[y] {
			if current != nil && c.X == current.X+len(current.Cells) {
				current.Cells = append(current.Cells, c.Cell)
				continue
			}
			if current != nil {
				runs = append(runs, *current)
			}
			cells := make([]region.Cell, 1, 16)
			cells[0] = c.Cell
			current = &CellRun{X: c.X, Y: y, Cells: cells}
		}
		if current != nil {
			runs = append(runs, *current)
		}
	}
	return runs
}
