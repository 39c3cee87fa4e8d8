package declarative

import (
	"testing"

	"github.com/germtb/gox"

	"github.com/shmtui/tui/region"
)

func smallRegion(t *testing.T) *region.Region {
	t.Helper()
	r, err := region.Create(region.Config{
		MaxNodes:          32,
		TextPoolCapacity:  512,
		MaxViewportW:      20,
		MaxViewportH:      10,
		EventRingCapacity: 8,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return r
}

func TestCommitBoxAllocatesNodeWithStyle(t *testing.T) {
	r := smallRegion(t)
	b := NewBuilder(r)

	tree := Box(gox.Props{"width": 10, "height": 2, "bg": uint32(0xff000000)})
	idx, err := b.Commit(tree)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	n := r.Nodes.Get(idx)
	if n.ComponentType != region.ComponentBox {
		t.Fatalf("ComponentType = %v, want ComponentBox", n.ComponentType)
	}
	if !n.Visible {
		t.Fatalf("committed box not visible")
	}
	if n.Width != 10 || n.WidthUnit != region.UnitCells {
		t.Fatalf("Width = %v/%v, want 10/UnitCells", n.Width, n.WidthUnit)
	}
	if n.BgColor != 0xff000000 {
		t.Fatalf("BgColor = %#x, want %#x", n.BgColor, uint32(0xff000000))
	}
}

func TestCommitTextWritesContentToTextPool(t *testing.T) {
	r := smallRegion(t)
	b := NewBuilder(r)

	idx, err := b.Commit(Text("hello"))
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	n := r.Nodes.Get(idx)
	if n.ComponentType != region.ComponentText {
		t.Fatalf("ComponentType = %v, want ComponentText", n.ComponentType)
	}
	got := string(r.Text.Read(n.TextOffset, n.TextLength))
	if got != "hello" {
		t.Fatalf("text pool content = %q, want %q", got, "hello")
	}
}

func TestCommitBoxAppendsChildrenInOrder(t *testing.T) {
	r := smallRegion(t)
	b := NewBuilder(r)

	tree := Box(gox.Props{}, Text("a"), Text("b"))
	root, err := b.Commit(tree)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	children := r.Nodes.ChildrenOf(root)
	if len(children) != 2 {
		t.Fatalf("len(children) = %d, want 2", len(children))
	}
	first := r.Nodes.Get(children[0])
	if got := string(r.Text.Read(first.TextOffset, first.TextLength)); got != "a" {
		t.Fatalf("first child text = %q, want %q", got, "a")
	}
}

func TestCommitBoxSetsTabIndexWhenFocusable(t *testing.T) {
	r := smallRegion(t)
	b := NewBuilder(r)

	idx, err := b.Commit(Box(gox.Props{"tab_index": 3}))
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	n := r.Nodes.Get(idx)
	if !n.Focusable {
		t.Fatalf("box with tab_index prop not marked Focusable")
	}
	if n.TabIndex != 3 {
		t.Fatalf("TabIndex = %d, want 3", n.TabIndex)
	}
}

func TestEachMapsItemsToVNodesWithIndex(t *testing.T) {
	items := []string{"x", "y", "z"}
	var seen []int
	nodes := Each(items, func(item string, index int) gox.VNode {
		seen = append(seen, index)
		return Text(item)
	})
	if len(nodes) != len(items) {
		t.Fatalf("len(nodes) = %d, want %d", len(nodes), len(items))
	}
	for i := range items {
		if i >= len(seen) || seen[i] != i {
			t.Fatalf("Each passed indices %v, want 0..%d in order", seen, len(items)-1)
		}
	}
}

func TestShowReturnsEmptyWhenFalse(t *testing.T) {
	if got := Show(false, Text("x")); got != nil {
		t.Fatalf("Show(false, ...) = %v, want nil", got)
	}
	if got := Show(true, Text("x")); len(got) != 1 {
		t.Fatalf("Show(true, ...) len = %d, want 1", len(got))
	}
}

func TestPropsToBoxStyleDefaultsOverflowUnset(t *testing.T) {
	r := smallRegion(t)
	b := NewBuilder(r)

	idx, err := b.Commit(Box(gox.Props{"width": 10, "height": 2}))
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	n := r.Nodes.Get(idx)
	if n.OverflowX != region.OverflowVisible || n.OverflowY != region.OverflowVisible {
		t.Fatalf("OverflowX/Y = %v/%v, want OverflowVisible/OverflowVisible (unset)", n.OverflowX, n.OverflowY)
	}
}

func TestPropsToBoxStyleReadsOverflowProps(t *testing.T) {
	r := smallRegion(t)
	b := NewBuilder(r)

	idx, err := b.Commit(Box(gox.Props{"width": 10, "height": 2, "overflow": "hidden"}))
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	n := r.Nodes.Get(idx)
	if n.OverflowX != region.OverflowHidden || n.OverflowY != region.OverflowHidden {
		t.Fatalf("OverflowX/Y = %v/%v, want OverflowHidden/OverflowHidden", n.OverflowX, n.OverflowY)
	}

	idx2, err := b.Commit(Box(gox.Props{"width": 10, "height": 2, "overflow_x": "scroll"}))
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	n2 := r.Nodes.Get(idx2)
	if n2.OverflowX != region.OverflowScroll {
		t.Fatalf("OverflowX = %v, want OverflowScroll", n2.OverflowX)
	}
	if n2.OverflowY != region.OverflowVisible {
		t.Fatalf("OverflowY = %v, want OverflowVisible (overflow_y left unset)", n2.OverflowY)
	}
}

func TestJustifyAndAlignFromStringFallBackToStart(t *testing.T) {
	if got := justifyFromString("center"); got != region.JustifyCenter {
		t.Fatalf("justifyFromString(center) = %v, want JustifyCenter", got)
	}
	if got := justifyFromString("bogus"); got != region.JustifyStart {
		t.Fatalf("justifyFromString(bogus) = %v, want JustifyStart", got)
	}
	if got := alignFromString("stretch"); got != region.AlignStretch {
		t.Fatalf("alignFromString(stretch) = %v, want AlignStretch", got)
	}
	if got := alignFromString("bogus"); got != region.AlignStart {
		t.Fatalf("alignFromString(bogus) = %v, want AlignStart", got)
	}
}
