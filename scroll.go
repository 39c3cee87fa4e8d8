package tui

import "github.com/shmtui/tui/region"

// detectAutoScroll implements the auto-scroll activation rule: for a
// node whose overflow on an axis is unset/auto, compare the summed
// outer extent (size + margins, plus inter-child gaps) of its
// children against the content box on that axis. If children exceed
// the box, the axis becomes implicitly scrollable — the node's own
// size stays clamped to what layoutSubtree already computed, and
// computed_scroll_extent_{x,y} records the overflow so InputRouter
// can clamp scroll offsets and the compositor can clip + offset
// painting.
func (e *LayoutEngine) detectAutoScroll(t *region.NodeTable, index int32, n region.Node, contentW, contentH float32) {
	children := t.ChildrenOf(index)
	if len(children) == 0 {
		t.SetComputedScrollExtent(index, 0, 0)
		return
	}

	isRow := n.FlexDirection == region.FlexRow
	var extentMain float32
	for i, c := range children {
		cn := t.Get(c)
		outerW := cn.ComputedWidth + cn.MarginLeft + cn.MarginRight
		outerH := cn.ComputedHeight + cn.MarginTop + cn.MarginBottom
		if isRow {
			extentMain += outerW
		} else {
			extentMain += outerH
		}
		if i > 0 {
			extentMain += n.Gap
		}
	}

	var extentX, extentY float32
	if isRow {
		extentX = extentMain
	} else {
		extentY = extentMain
	}
	// Also account for cross-axis overflow: children may individually
	// exceed the content box on the cross axis even in a single-line
	// flex (e.g. a tall item in a row).
	for _, c := range children {
		cn := t.Get(c)
		outerW := cn.ComputedWidth + cn.MarginLeft + cn.MarginRight
		outerH := cn.ComputedHeight + cn.MarginTop + cn.MarginBottom
		if isRow {
			if outerH > extentY {
				extentY = outerH
			}
		} else {
			if outerW > extentX {
				extentX = outerW
			}
		}
	}

	scrollX := autoScrollExtent(n.OverflowX, extentX, contentW)
	scrollY := autoScrollExtent(n.OverflowY, extentY, contentH)
	t.SetComputedScrollExtent(index, scrollX, scrollY)
}

// autoScrollExtent reports the overflow amount on one axis. Auto-scroll
// activates for an unset axis (OverflowVisible, the zero value a node
// gets when no producer ever touched it) the same as an explicit
// "auto", and for "scroll"; only an explicit "hidden" suppresses it.
// All three auto-eligible modes report extent-box whenever children
// exceed the box (S7's activation-iff-exceeds rule) and are otherwise
// indistinguishable here — the compositor is what treats "scroll" as
// always-clip and "auto"/unset as clip-only-when-active.
func autoScrollExtent(overflow region.Overflow, childExtent, box float32) float32 {
	switch overflow {
	case region.OverflowVisible, region.OverflowAuto, region.OverflowScroll:
		if childExtent > box {
			return childExtent - box
		}
	}
	return 0
}
