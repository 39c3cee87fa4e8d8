package tui

import (
	"testing"

	"github.com/shmtui/tui/region"
)

func smallRegion(t *testing.T, w, h uint32) *region.Region {
	t.Helper()
	r, err := region.Create(region.Config{
		MaxNodes:          64,
		TextPoolCapacity:  4096,
		MaxViewportW:      w,
		MaxViewportH:      h,
		EventRingCapacity: 16,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return r
}

func addBox(t *testing.T, r *region.Region, parent int32, style region.BoxStyle) int32 {
	t.Helper()
	idx, err := r.Nodes.Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	r.Nodes.SetComponentType(idx, region.ComponentBox)
	r.Nodes.SetVisible(idx, true)
	r.Nodes.AppendChild(parent, idx)
	r.Nodes.SetBoxStyle(idx, style)
	return idx
}

// TestLayoutThreeBoxRow lays out a root row with a fixed-width child
// and a growing child, matching the three-box terminal scenario: an
// 80x24 terminal, a 80x10 root with padding_top=1/padding_left=2 in a
// row, a 20-wide fixed child and a growing second child.
func TestLayoutThreeBoxRow(t *testing.T) {
	r := smallRegion(t, 80, 24)
	root := addBox(t, r, region.NoIndex, region.BoxStyle{
		Width: 80, WidthUnit: region.UnitCells,
		Height: 10, HeightUnit: region.UnitCells,
		Padding:       region.Edges{Top: 1, Left: 2},
		FlexDirection: region.FlexRow,
	})
	child1 := addBox(t, r, root, region.BoxStyle{
		Width: 20, WidthUnit: region.UnitCells,
		Height: 5, HeightUnit: region.UnitCells,
	})
	child2 := addBox(t, r, root, region.BoxStyle{
		Grow:   1,
		Height: 5, HeightUnit: region.UnitCells,
	})

	engine := NewLayoutEngine(r)
	engine.Run(r.Nodes, 80, 24)

	rootNode := r.Nodes.Get(root)
	if rootNode.ComputedX != 0 || rootNode.ComputedY != 0 || rootNode.ComputedWidth != 80 || rootNode.ComputedHeight != 10 {
		t.Fatalf("root computed = (%v,%v,%v,%v), want (0,0,80,10)", rootNode.ComputedX, rootNode.ComputedY, rootNode.ComputedWidth, rootNode.ComputedHeight)
	}

	c1 := r.Nodes.Get(child1)
	if c1.ComputedX != 2 || c1.ComputedY != 1 || c1.ComputedWidth != 20 || c1.ComputedHeight != 5 {
		t.Fatalf("child1 computed = (%v,%v,%v,%v), want (2,1,20,5)", c1.ComputedX, c1.ComputedY, c1.ComputedWidth, c1.ComputedHeight)
	}

	c2 := r.Nodes.Get(child2)
	if c2.ComputedX != 22 || c2.ComputedY != 1 || c2.ComputedWidth != 58 || c2.ComputedHeight != 5 {
		t.Fatalf("child2 computed = (%v,%v,%v,%v), want (22,1,58,5)", c2.ComputedX, c2.ComputedY, c2.ComputedWidth, c2.ComputedHeight)
	}
}

func TestLayoutJustifyCenter(t *testing.T) {
	r := smallRegion(t, 30, 10)
	root := addBox(t, r, region.NoIndex, region.BoxStyle{
		Width: 30, WidthUnit: region.UnitCells,
		Height: 10, HeightUnit: region.UnitCells,
		FlexDirection:  region.FlexRow,
		JustifyContent: region.JustifyCenter,
	})
	child := addBox(t, r, root, region.BoxStyle{
		Width: 10, WidthUnit: region.UnitCells,
		Height: 2, HeightUnit: region.UnitCells,
	})

	engine := NewLayoutEngine(r)
	engine.Run(r.Nodes, 30, 10)

	c := r.Nodes.Get(child)
	if c.ComputedX != 10 {
		t.Fatalf("centered child x = %v, want 10", c.ComputedX)
	}
}

func TestLayoutPercentOfAutoParentResolvesToZero(t *testing.T) {
	v, ok := resolvedDimension(50, region.UnitPercent, 0)
	if !ok || v != 0 {
		t.Fatalf("resolvedDimension(50%%, auto-parent) = (%v, %v), want (0, true)", v, ok)
	}
}

func TestLayoutRunOnEmptyTableIsNoop(t *testing.T) {
	r := smallRegion(t, 20, 10)
	engine := NewLayoutEngine(r)
	engine.Run(r.Nodes, 20, 10) // must not panic with zero roots
}

// TestLayoutRunIsolatesCyclicTreeAndPaintsDiagnostic builds a genuine
// child-link cycle through nothing but the public AppendChild API (it
// never detaches a node from a previous parent, so re-parenting one
// end of an existing edge back onto the other closes a loop) and
// checks Run neither stack-overflows nor silently swallows it: the
// cyclic root comes back in the failed list and a diagnostic cell
// lands on the framebuffer.
func TestLayoutRunIsolatesCyclicTreeAndPaintsDiagnostic(t *testing.T) {
	r := smallRegion(t, 20, 10)
	a := addBox(t, r, region.NoIndex, region.BoxStyle{})
	b := addBox(t, r, a, region.BoxStyle{})
	r.Nodes.AppendChild(b, a) // closes the cycle: a -> b -> a

	engine := NewLayoutEngine(r)
	failed := engine.Run(r.Nodes, 20, 10)

	if len(failed) != 1 || failed[0] != b {
		t.Fatalf("Run() failed roots = %v, want [%d] (b, the only remaining root once a is reparented under it)", failed, b)
	}
	if children := r.Nodes.ChildrenOf(b); len(children) != 0 {
		t.Fatalf("ChildrenOf(b) after Run = %v, want empty (isolated)", children)
	}

	comp := NewCompositor(r)
	comp.Paint(r.Nodes, r.Current())
	if got := r.Current().Get(0, 0); got != diagnosticCell {
		t.Fatalf("cell at (0,0) = %+v, want diagnosticCell %+v", got, diagnosticCell)
	}
}

// TestLayoutRunRejectsOversizedViewport exercises the other
// non-fatal-failure path: a terminalWidth x terminalHeight that
// exceeds the region's reserved capacity must not panic or attempt to
// lay anything out, and must leave a visible marker behind instead of
// failing silently.
func TestLayoutRunRejectsOversizedViewport(t *testing.T) {
	r := smallRegion(t, 20, 10)
	addBox(t, r, region.NoIndex, region.BoxStyle{
		Width: 5, WidthUnit: region.UnitCells,
		Height: 5, HeightUnit: region.UnitCells,
	})

	engine := NewLayoutEngine(r)
	failed := engine.Run(r.Nodes, 1000, 1000)
	if failed != nil {
		t.Fatalf("Run() with oversized viewport failed roots = %v, want nil", failed)
	}

	if got := r.Current().Get(0, 0); got != diagnosticCell {
		t.Fatalf("cell at (0,0) = %+v, want diagnosticCell %+v", got, diagnosticCell)
	}
}

func TestWrapTextBreaksAtWordBoundaries(t *testing.T) {
	lines := wrapText("hello world foo", 7)
	if len(lines) == 0 {
		t.Fatalf("wrapText returned no lines")
	}
	for _, l := range lines {
		if runeWidth(l) > 7 {
			t.Fatalf("line %q exceeds width 7", l)
		}
	}
}
