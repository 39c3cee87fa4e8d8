package tui

import (
	"testing"

	"github.com/shmtui/tui/region"
)

func TestCompositorPaintsBoxBackground(t *testing.T) {
	r := smallRegion(t, 10, 5)
	bg := PackRGBA(10, 20, 30, 255)
	addBox(t, r, region.NoIndex, region.BoxStyle{
		Width: 4, WidthUnit: region.UnitCells,
		Height: 2, HeightUnit: region.UnitCells,
		BgColor: bg, Opacity: 255,
	})

	layout := NewLayoutEngine(r)
	layout.Run(r.Nodes, 10, 5)

	comp := NewCompositor(r)
	comp.Paint(r.Nodes, r.Current())

	cell := r.Current().Get(0, 0)
	if cell.Bg != bg {
		t.Fatalf("painted cell Bg = %#x, want %#x", cell.Bg, bg)
	}
	// Outside the box's 4x2 extent must remain untouched (bg 0).
	outside := r.Current().Get(5, 3)
	if outside.Bg != ColorDefault {
		t.Fatalf("cell outside box has Bg = %#x, want default", outside.Bg)
	}
}

func TestCompositorPaintsTextGlyphs(t *testing.T) {
	r := smallRegion(t, 10, 5)
	textIdx, err := r.Nodes.Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	r.Nodes.SetComponentType(textIdx, region.ComponentText)
	r.Nodes.SetVisible(textIdx, true)
	r.Nodes.AppendChild(region.NoIndex, textIdx)
	off, length, err := r.Text.Write([]byte("hi"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	r.Nodes.SetText(textIdx, off, length)
	r.Nodes.SetBoxStyle(textIdx, region.BoxStyle{
		Width: 5, WidthUnit: region.UnitCells,
		Height: 1, HeightUnit: region.UnitCells,
		Opacity: 255,
	})

	layout := NewLayoutEngine(r)
	layout.Run(r.Nodes, 10, 5)
	comp := NewCompositor(r)
	comp.Paint(r.Nodes, r.Current())

	if got := r.Current().Get(0, 0).Glyph; got != 'h' {
		t.Fatalf("Get(0,0).Glyph = %q, want 'h'", got)
	}
	if got := r.Current().Get(1, 0).Glyph; got != 'i' {
		t.Fatalf("Get(1,0).Glyph = %q, want 'i'", got)
	}
}

func TestCompositorSkipsInvisibleNodes(t *testing.T) {
	r := smallRegion(t, 10, 5)
	idx := addBox(t, r, region.NoIndex, region.BoxStyle{
		Width: 4, WidthUnit: region.UnitCells,
		Height: 2, HeightUnit: region.UnitCells,
		BgColor: PackRGBA(1, 2, 3, 255), Opacity: 255,
	})
	r.Nodes.SetVisible(idx, false)

	layout := NewLayoutEngine(r)
	layout.Run(r.Nodes, 10, 5)
	comp := NewCompositor(r)
	comp.Paint(r.Nodes, r.Current())

	if got := r.Current().Get(0, 0).Bg; got != ColorDefault {
		t.Fatalf("invisible node painted Bg = %#x, want default", got)
	}
}

func TestClipRectIntersectAndContains(t *testing.T) {
	a := clipRect{minX: 0, minY: 0, maxX: 10, maxY: 10}
	b := clipRect{minX: 5, minY: 5, maxX: 15, maxY: 15}
	got := a.intersect(b)
	want := clipRect{minX: 5, minY: 5, maxX: 10, maxY: 10}
	if got != want {
		t.Fatalf("intersect = %+v, want %+v", got, want)
	}
	if !got.contains(5, 5) {
		t.Fatalf("intersect should contain its own min corner")
	}
	if got.contains(10, 10) {
		t.Fatalf("contains is exclusive at the max edge")
	}
}

func TestCompositorPaintsHigherZIndexOnTop(t *testing.T) {
	r := smallRegion(t, 10, 5)
	// back is declared first (earlier pre-order) but has the higher
	// z_index, so it must still end up painted over front.
	back := PackRGBA(1, 1, 1, 255)
	front := PackRGBA(9, 9, 9, 255)
	addBox(t, r, region.NoIndex, region.BoxStyle{
		Width: 4, WidthUnit: region.UnitCells,
		Height: 2, HeightUnit: region.UnitCells,
		BgColor: back, Opacity: 255, ZIndex: 5,
	})
	addBox(t, r, region.NoIndex, region.BoxStyle{
		Width: 4, WidthUnit: region.UnitCells,
		Height: 2, HeightUnit: region.UnitCells,
		BgColor: front, Opacity: 255, ZIndex: 1,
	})

	layout := NewLayoutEngine(r)
	layout.Run(r.Nodes, 10, 5)
	comp := NewCompositor(r)
	comp.Paint(r.Nodes, r.Current())

	if got := r.Current().Get(0, 0).Bg; got != back {
		t.Fatalf("Get(0,0).Bg = %#x, want the higher z_index box's %#x on top", got, back)
	}
}

func TestRuneWidthCJKIsDoubleWidth(t *testing.T) {
	if w := runeWidth("世"); w != 2 {
		t.Fatalf("runeWidth(CJK char) = %d, want 2", w)
	}
	if w := runeWidth("a"); w != 1 {
		t.Fatalf("runeWidth(ascii char) = %d, want 1", w)
	}
}
