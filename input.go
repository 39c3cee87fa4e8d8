package tui

import "github.com/shmtui/tui/region"

// InputRouter turns parsed terminal events into hit-tested, dispatched
// region.Event records and scroll/focus mutations. It is the renderer
// thread's final per-frame stage, draining events an external
// stdin-reader thread has decoded into (kind, key/mouse payload,
// timestamp) before layout-dependent hit-testing was possible.
type InputRouter struct{}

// NewInputRouter builds a router. It carries no state of its own —
// every piece of routing state (focused_node_index, scroll_{x,y}) is
// header/node-table resident, so a router is safely stateless and
// reentrant.
func NewInputRouter() *InputRouter { return &InputRouter{} }

// eventBit returns the event_handler_bitmap bit a node subscribes
// with to observe events of kind.
func eventBit(kind region.EventKind) uint32 { return 1 << uint32(kind) }

// HitTest returns the deepest visible node whose computed box contains
// (x, y), honoring the same ancestor-clip rule the compositor paints
// with — a point inside a clipped-away region of a scrolling ancestor
// never hits a descendant there. Returns region.NoIndex if nothing is
// hit.
func HitTest(t *region.NodeTable, x, y float32) int32 {
	best := region.NoIndex
	var walk func(index int32, clip clipRect, scrollX, scrollY float32)
	walk = func(index int32, clip clipRect, scrollX, scrollY float32) {
		n := t.Get(index)
		if !n.Visible {
			return
		}
		// box is in screen space: a node's own position is offset by
		// its parent's scroll, the same translation paintNode applies,
		// so a point hits exactly what is actually drawn there.
		bx, by := n.ComputedX-scrollX, n.ComputedY-scrollY
		box := clipRect{bx, by, bx + n.ComputedWidth, by + n.ComputedHeight}
		if !clip.contains(x, y) {
			return
		}
		if box.contains(x, y) {
			best = index
		}

		childClip := clip
		childScrollX, childScrollY := scrollX, scrollY
		if n.ComponentType == region.ComponentBox {
			inner := clipRect{
				minX: n.ComputedX + n.PaddingLeft + n.BorderLeft,
				minY: n.ComputedY + n.PaddingTop + n.BorderTop,
				maxX: n.ComputedX + n.ComputedWidth - n.PaddingRight - n.BorderRight,
				maxY: n.ComputedY + n.ComputedHeight - n.PaddingBottom - n.BorderBottom,
			}
			if n.OverflowX == region.OverflowHidden || n.OverflowX == region.OverflowScroll ||
				n.OverflowY == region.OverflowHidden || n.OverflowY == region.OverflowScroll ||
				n.ComputedScrollExtentX > 0 || n.ComputedScrollExtentY > 0 {
				childClip = clip.intersect(inner)
				childScrollX, childScrollY = n.ScrollX, n.ScrollY
			}
		}
		for _, c := range t.ChildrenOf(index) {
			walk(c, childClip, childScrollX, childScrollY)
		}
	}
	full := clipRect{minX: -1 << 20, minY: -1 << 20, maxX: 1 << 20, maxY: 1 << 20}
	for _, root := range t.Roots() {
		walk(root, full, 0, 0)
	}
	return best
}

// ancestorChain returns index's path from its root ancestor down to
// and including index itself.
func ancestorChain(t *region.NodeTable, index int32) []int32 {
	var rev []int32
	for i := index; i != region.NoIndex; i = t.ParentOf(i) {
		rev = append(rev, i)
	}
	chain := make([]int32, len(rev))
	for i, v := range rev {
		chain[len(rev)-1-i] = v
	}
	return chain
}

// dispatchAlongChain runs the capture phase (root-to-target) then the
// bubble phase (target-to-root) over chain, stopping at the first
// node whose event_handler_bitmap subscribes to kind. Returns true if
// any node in the chain claimed the event.
func dispatchAlongChain(t *region.NodeTable, chain []int32, kind region.EventKind) bool {
	bit := eventBit(kind)
	for _, idx := range chain {
		if t.Get(idx).EventBitmap&bit != 0 {
			return true
		}
	}
	for i := len(chain) - 1; i >= 0; i-- {
		if t.Get(chain[i]).EventBitmap&bit != 0 {
			return true
		}
	}
	return false
}

// DispatchMouse hit-tests ev's (x, y) against t, runs capture/bubble
// dispatch, and posts the resulting record to ring. Unconsumed wheel
// events translate to a scroll mutation on the nearest scrollable
// ancestor of the hit node.
func (r *InputRouter) DispatchMouse(t *region.NodeTable, ring *region.EventRing, ev region.Event) {
	target := HitTest(t, float32(ev.MouseX), float32(ev.MouseY))
	ev.TargetIndex = target
	if target != region.NoIndex {
		chain := ancestorChain(t, target)
		ev.Consumed = dispatchAlongChain(t, chain, ev.Kind)
		if !ev.Consumed && ev.Kind == region.EventMouseWheel {
			r.applyWheelScroll(t, chain, ev)
		}
	}
	ring.Push(ev)
}

// DispatchKey dispatches a keyboard event to the header's focused
// node, translating unconsumed tab/arrow/page keys into focus moves
// or scroll mutations before posting to ring.
func (r *InputRouter) DispatchKey(t *region.NodeTable, h region.Header, ring *region.EventRing, ev region.Event) {
	focused := h.FocusedNodeIndex()
	ev.TargetIndex = focused
	if focused != region.NoIndex {
		chain := ancestorChain(t, focused)
		ev.Consumed = dispatchAlongChain(t, chain, ev.Kind)
		if !ev.Consumed {
			switch ev.Key {
			case KeyTab:
				r.FocusNext(t, h, false)
			case KeyShiftTab:
				r.FocusNext(t, h, true)
			default:
				r.applyKeyScroll(t, chain, ev)
			}
		}
	}
	ring.Push(ev)
}

// Key constants DispatchKey/applyKeyScroll recognize for navigation.
// Values are negative, outside the Unicode codepoint range an ordinary
// key press occupies.
const (
	KeyTab rune = -(iota + 1)
	KeyShiftTab
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
	KeyPageUp
	KeyPageDown
)

const pageScrollLines = 10

func (r *InputRouter) applyKeyScroll(t *region.NodeTable, chain []int32, ev region.Event) {
	target := nearestScrollable(t, chain)
	if target == region.NoIndex {
		return
	}
	n := t.Get(target)
	dx, dy := float32(0), float32(0)
	switch ev.Key {
	case KeyArrowUp:
		dy = -1
	case KeyArrowDown:
		dy = 1
	case KeyArrowLeft:
		dx = -1
	case KeyArrowRight:
		dx = 1
	case KeyPageUp:
		dy = -pageScrollLines
	case KeyPageDown:
		dy = pageScrollLines
	default:
		return
	}
	setClampedScroll(t, target, n.ScrollX+dx, n.ScrollY+dy)
}

func (r *InputRouter) applyWheelScroll(t *region.NodeTable, chain []int32, ev region.Event) {
	target := nearestScrollable(t, chain)
	if target == region.NoIndex {
		return
	}
	n := t.Get(target)
	setClampedScroll(t, target, n.ScrollX, n.ScrollY+float32(ev.Key))
}

// nearestScrollable returns the closest ancestor (searching from the
// target outward) with a nonzero scroll extent on either axis.
func nearestScrollable(t *region.NodeTable, chain []int32) int32 {
	for i := len(chain) - 1; i >= 0; i-- {
		n := t.Get(chain[i])
		if n.ComputedScrollExtentX > 0 || n.ComputedScrollExtentY > 0 {
			return chain[i]
		}
	}
	return region.NoIndex
}

func setClampedScroll(t *region.NodeTable, index int32, x, y float32) {
	n := t.Get(index)
	t.SetScroll(index, clampF(x, 0, n.ComputedScrollExtentX), clampF(y, 0, n.ComputedScrollExtentY))
}

func clampF(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FocusNext moves the header's focused_node_index to the next (or, if
// backward, previous) focusable node in tab_index-ascending order,
// with pre-order position as the tie-break among equal tab_index
// values. Wraps around; does nothing if no node is focusable.
func (r *InputRouter) FocusNext(t *region.NodeTable, h region.Header, backward bool) {
	order := focusOrder(t)
	if len(order) == 0 {
		return
	}
	cur := h.FocusedNodeIndex()
	pos := -1
	for i, idx := range order {
		if idx == cur {
			pos = i
			break
		}
	}
	var next int
	switch {
	case pos == -1 && backward:
		next = len(order) - 1
	case pos == -1:
		next = 0
	case backward:
		next = (pos - 1 + len(order)) % len(order)
	default:
		next = (pos + 1) % len(order)
	}
	h.SetFocusedNodeIndex(order[next])
}

// focusOrder lists every focusable node sorted by tab_index ascending,
// pre-order as the stable tie-break (a stable sort over a pre-order-
// collected slice gives exactly that).
func focusOrder(t *region.NodeTable) []int32 {
	var preorder []int32
	var walk func(index int32)
	walk = func(index int32) {
		n := t.Get(index)
		if n.Focusable && n.TabIndex >= 0 {
			preorder = append(preorder, index)
		}
		for _, c := range t.ChildrenOf(index) {
			walk(c)
		}
	}
	for _, root := range t.Roots() {
		walk(root)
	}
	stableSortByTabIndex(t, preorder)
	return preorder
}

func stableSortByTabIndex(t *region.NodeTable, order []int32) {
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && t.Get(order[j-1]).TabIndex > t.Get(order[j]).TabIndex; j-- {
			order[j-1], order[j] = order[j], order[j-1]
		}
	}
}
