package tui

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/words"

	"github.com/shmtui/tui/region"
)

// LayoutEngine runs the flexbox solver over a region's node table,
// writing computed_* fields and clearing the LAYOUT dirty bit it
// processes, per node — adapted from the teacher's
// measureNode/layoutNode/layoutFlexChildren trio, generalized from a
// gox.VNode tree to NodeTable slot indices, and extended with
// shrink, wrap, space-evenly and auto-scroll detection.
type LayoutEngine struct {
	textOf func(n region.Node) string
	region *region.Region
	comp   *Compositor
}

// NewLayoutEngine builds a LayoutEngine bound to r's text pool for
// resolving TEXT node content during measurement.
func NewLayoutEngine(r *region.Region) *LayoutEngine {
	return &LayoutEngine{
		textOf: func(n region.Node) string {
			if n.TextLength == 0 {
				return ""
			}
			return string(r.Text.Read(n.TextOffset, n.TextLength))
		},
		region: r,
		comp:   NewCompositor(r),
	}
}

// Run lays out every root in t, within a terminalWidth x
// terminalHeight viewport. Before laying anything out it validates the
// whole tree once (NodeTable.Validate), isolating and skipping any
// root whose subtree exceeds the cycle bound so neither this pass nor
// a later same-frame walk (paint, hit-testing, focus ordering) ever
// recurses into it. It also recovers from a panic mid-layout the same
// way. Both failure paths clamp the offending root to a zero rect and
// paint a diagnostic cell at column 0 of row k, where k is the number
// of roots that already failed this frame, instead of failing silently —
// a per-frame failure is never fatal, but it must be visible.
// Returns the slot indices of every root skipped this way, in case a
// caller wants to report more than the on-screen marker.
func (e *LayoutEngine) Run(t *region.NodeTable, terminalWidth, terminalHeight uint32) []int32 {
	if e.region != nil {
		if maxW, maxH := e.region.Header.MaxViewport(); terminalWidth*terminalHeight > maxW*maxH {
			e.comp.PaintDiagnostic(e.region.Current(), 0, 0)
			return nil
		}
	}

	var failed []int32
	fail := func(root int32) {
		t.SetComputed(root, 0, 0, 0, 0)
		failed = append(failed, root)
		if e.comp != nil && e.region != nil {
			e.comp.PaintDiagnostic(e.region.Current(), 0, uint32(len(failed)-1))
		}
	}

	for _, bad := range t.Validate() {
		t.IsolateRoot(bad)
		fail(bad)
	}

	for _, root := range t.Roots() {
		if contains(failed, root) {
			continue
		}
		func() {
			defer func() {
				if recover() != nil {
					fail(root)
				}
			}()
			// A root has no parent to resolve its own explicit
			// width/height against, unlike every other node (whose
			// final box is handed down by layoutLineChildren already
			// resolved); resolve it here, falling back to the full
			// viewport when auto.
			n := t.Get(root)
			w, h := float32(terminalWidth), float32(terminalHeight)
			if v, ok := resolvedDimension(n.Width, n.WidthUnit, w); ok {
				w = v
			}
			if v, ok := resolvedDimension(n.Height, n.HeightUnit, h); ok {
				h = v
			}
			e.layoutSubtree(t, root, 0, 0, w, h)
		}()
	}
	return failed
}

// contains reports whether needle appears in haystack — a handful of
// failed roots per frame at most, so a linear scan is simpler than
// building a set for it.
func contains(haystack []int32, needle int32) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

// measure returns a node's hypothetical content size in cells, used
// when no explicit width/height/basis is given. BOX nodes measure as
// the sum of their children's hypothetical extents along the main
// axis (and the max along the cross axis); TEXT nodes measure from
// their resolved text, honoring wrap.
func (e *LayoutEngine) measure(t *region.NodeTable, index int32, availWidth float32) (w, h float32) {
	n := t.Get(index)
	switch n.ComponentType {
	case region.ComponentText:
		text := e.textOf(n)
		var lines []string
		if n.TextWrap == region.TextWrapWrap && availWidth > 0 {
			lines = wrapText(text, int(availWidth))
		} else {
			lines = strings.Split(text, "\n")
		}
		maxW := 0
		for _, line := range lines {
			if lw := runeWidth(line); lw > maxW {
				maxW = lw
			}
		}
		return float32(maxW), float32(len(lines))
	case region.ComponentBox:
		children := t.ChildrenOf(index)
		isRow := n.FlexDirection == region.FlexRow
		var mainSum, crossMax float32
		for i, c := range children {
			cw, ch := e.measure(t, c, availWidth)
			cm := t.Get(c)
			if v, ok := resolvedDimension(cm.Width, cm.WidthUnit, 0); ok {
				cw = v
			}
			if v, ok := resolvedDimension(cm.Height, cm.HeightUnit, 0); ok {
				ch = v
			}
			cw += cm.MarginLeft + cm.MarginRight
			ch += cm.MarginTop + cm.MarginBottom
			if i > 0 {
				mainSum += n.Gap
			}
			if isRow {
				mainSum += cw
				if ch > crossMax {
					crossMax = ch
				}
			} else {
				mainSum += ch
				if cw > crossMax {
					crossMax = cw
				}
			}
		}
		pad := n.PaddingTop + n.PaddingBottom + n.BorderTop + n.BorderBottom
		padCross := n.PaddingLeft + n.PaddingRight + n.BorderLeft + n.BorderRight
		if isRow {
			return mainSum + padCross, crossMax + pad
		}
		return crossMax + padCross, mainSum + pad
	}
	return 0, 0
}

// resolvedDimension resolves one explicit width or height against the
// parent's inner size: (value, true) for cells, (percent of
// parentInner, true) for percent, and (0, false) for auto
// (content-sized). It does not look at basis.
func resolvedDimension(value float32, unit region.DimensionUnit, parentInner float32) (float32, bool) {
	switch unit {
	case region.UnitCells:
		return value, true
	case region.UnitPercent:
		if parentInner <= 0 {
			return 0, true // percent-of-auto-parent resolves to 0, see DESIGN.md
		}
		return parentInner * value / 100, true
	default:
		return 0, false
	}
}

// layoutSubtree lays out index and its descendants within the box
// (x, y, width, height), writing computed_* and recursing.
func (e *LayoutEngine) layoutSubtree(t *region.NodeTable, index int32, x, y, width, height float32) {
	n := t.Get(index)

	innerX := x + n.MarginLeft
	innerY := y + n.MarginTop
	outerW := width - n.MarginLeft - n.MarginRight
	outerH := height - n.MarginTop - n.MarginBottom

	t.SetComputed(index, innerX, innerY, outerW, outerH)
	t.ClearDirty(index, region.DirtyLayout)

	if n.ComponentType != region.ComponentBox {
		return
	}

	contentX := innerX + n.PaddingLeft + n.BorderLeft
	contentY := innerY + n.PaddingTop + n.BorderTop
	contentW := outerW - n.PaddingLeft - n.PaddingRight - n.BorderLeft - n.BorderRight
	contentH := outerH - n.PaddingTop - n.PaddingBottom - n.BorderTop - n.BorderBottom
	if contentW < 0 {
		contentW = 0
	}
	if contentH < 0 {
		contentH = 0
	}

	children := t.ChildrenOf(index)
	if len(children) == 0 {
		return
	}

	isRow := n.FlexDirection == region.FlexRow
	availMain, availCross := contentW, contentH
	if !isRow {
		availMain, availCross = contentH, contentW
	}

	lines := e.splitIntoLines(t, children, n, isRow, availMain)
	crossCursor := float32(0)
	for _, line := range lines {
		var originX, originY float32
		remainingCross := availCross - crossCursor
		if isRow {
			originX, originY = contentX, contentY+crossCursor
		} else {
			originX, originY = contentX+crossCursor, contentY
		}
		lineCross := e.layoutLine(t, line, n, isRow, availMain, remainingCross, originX, originY)
		crossCursor += lineCross + n.Gap
	}

	e.detectAutoScroll(t, index, n, contentW, contentH)
}

// flexLine groups children that fit on one wrap line.
type flexLine struct {
	children []int32
	mainSize float32
	cross    float32
}

// splitIntoLines buckets children into wrap lines. With FlexWrap ==
// NoWrap everything is one line regardless of overflow.
func (e *LayoutEngine) splitIntoLines(t *region.NodeTable, children []int32, n region.Node, isRow bool, availMain float32) []flexLine {
	if n.FlexWrap == region.NoWrap {
		return []flexLine{{children: children}}
	}
	var lines []flexLine
	var cur []int32
	var curMain float32
	for _, c := range children {
		size := e.hypotheticalMainSize(t, c, isRow, availMain)
		delta := size
		if len(cur) > 0 {
			delta += n.Gap
		}
		if len(cur) > 0 && curMain+delta > availMain {
			lines = append(lines, flexLine{children: cur, mainSize: curMain})
			cur = nil
			curMain = 0
			delta = size
		}
		cur = append(cur, c)
		curMain += delta
	}
	if len(cur) > 0 {
		lines = append(lines, flexLine{children: cur, mainSize: curMain})
	}
	return lines
}

// hypotheticalMain returns a child's hypothetical (width, height),
// resolving BOTH axes' explicit width/height/percent against their
// own available space when given — not just the main axis — so a
// row-direction child's explicit height (its cross axis) is honored
// the same way a column-direction child's explicit height (its main
// axis) already is. availCross may be 0 when the caller has no
// cross-axis space to offer yet (the wrap-line pre-pass); percent
// sizing on that axis then falls back to the percent-of-auto-parent
// rule below.
func (e *LayoutEngine) hypotheticalMain(t *region.NodeTable, index int32, isRow bool, availMain, availCross float32) (float32, float32) {
	cm := t.Get(index)
	mw, mh := e.measure(t, index, availMain)
	widthAvail, heightAvail := availMain, availCross
	if !isRow {
		widthAvail, heightAvail = availCross, availMain
	}
	if v, ok := resolvedDimension(cm.Width, cm.WidthUnit, widthAvail); ok {
		mw = v
	}
	if v, ok := resolvedDimension(cm.Height, cm.HeightUnit, heightAvail); ok {
		mh = v
	}
	return mw, mh
}

func (e *LayoutEngine) hypotheticalMainSize(t *region.NodeTable, index int32, isRow bool, availMain float32) float32 {
	cm := t.Get(index)
	if cm.Basis != 0 {
		return cm.Basis
	}
	mw, mh := e.hypotheticalMain(t, index, isRow, availMain, 0)
	margin := cm.MarginLeft + cm.MarginRight
	size := mw
	if !isRow {
		margin = cm.MarginTop + cm.MarginBottom
		size = mh
	}
	return size + margin
}

// layoutLine sizes and positions one wrap line's children along the
// main axis (grow/shrink distribution with remainder, justify), and
// reports the line's cross-axis extent (the max child cross size).
// Child placement writes are performed in layoutLineChildren once the
// whole line's sizes are known.
func (e *LayoutEngine) layoutLine(t *region.NodeTable, line flexLine, n region.Node, isRow bool, availMain, availCross, contentX, contentY float32) float32 {
	children := line.children
	sizes := make([]float32, len(children))
	grows := make([]float32, len(children))
	shrinks := make([]float32, len(children))
	var totalMain, totalGrow, totalShrink float32

	for i, c := range children {
		cm := t.Get(c)
		size := e.hypotheticalMainSize(t, c, isRow, availMain)
		mw, mh := e.hypotheticalMain(t, c, isRow, availMain, availCross)
		cross := mh
		if !isRow {
			cross = mw
		}
		sizes[i] = size
		grows[i] = cm.Grow
		shrinks[i] = cm.Shrink
		totalMain += size
		if i > 0 {
			totalMain += n.Gap
		}
		totalGrow += cm.Grow
		totalShrink += cm.Shrink
		if cross > line.cross {
			line.cross = cross
		}
	}

	extra := availMain - totalMain
	if extra > 0 && totalGrow > 0 {
		distributeRemainder(sizes, grows, totalGrow, extra)
	} else if extra < 0 && totalShrink > 0 {
		deficit := -extra
		distributeRemainder(sizes, shrinks, totalShrink, -deficit)
	}

	lineCross := line.cross
	if lineCross > availCross {
		lineCross = availCross
	}

	e.layoutLineChildren(t, children, sizes, n, isRow, availMain, availCross, totalMain, contentX, contentY)
	return lineCross
}

// distributeRemainder spreads extra (positive for grow, negative for
// shrink expressed as a negative extra) proportionally to weight
// across sizes, then adds whatever floating-point residue is left in
// one step to the first eligible entry, so the sizes sum exactly to
// the distributed amount. Sizes stay fractional; nothing is rounded to
// whole cells here.
func distributeRemainder(sizes, weight []float32, totalWeight, extra float32) {
	if totalWeight <= 0 {
		return
	}
	remaining := extra
	firstEligible := -1
	for i := range sizes {
		if weight[i] <= 0 {
			continue
		}
		if firstEligible == -1 {
			firstEligible = i
		}
		share := extra * weight[i] / totalWeight
		sizes[i] += share
		remaining -= share
	}
	// Whatever fraction is left over from floating-point division
	// (never more than an epsilon) folds into the first growing
	// child, so the sum of sizes is exact rather than short by a
	// rounding residue — the same remainder-distribution idiom the
	// teacher applies at integer-cell granularity.
	if firstEligible != -1 && remaining != 0 {
		sizes[firstEligible] += remaining
	}
}

// layoutLineChildren positions and recursively lays out one line's
// children given their final main-axis sizes.
func (e *LayoutEngine) layoutLineChildren(t *region.NodeTable, children []int32, sizes []float32, n region.Node, isRow bool, availMain, availCross, totalMain float32, contentX, contentY float32) {
	mainPos := float32(0)
	extraGap := float32(0)

	switch n.JustifyContent {
	case region.JustifyCenter:
		mainPos = maxF(0, (availMain-totalMain)/2)
	case region.JustifyEnd:
		mainPos = maxF(0, availMain-totalMain)
	case region.JustifySpaceBetween:
		if len(children) > 1 {
			extraGap = maxF(0, (availMain-totalMain+n.Gap*float32(len(children)-1))/float32(len(children)-1))
		}
	case region.JustifySpaceAround:
		if len(children) > 0 {
			total := availMain - totalMain + n.Gap*float32(len(children)-1)
			extraGap = total / float32(len(children))
			mainPos = extraGap / 2
		}
	case region.JustifySpaceEvenly:
		if len(children) > 0 {
			total := availMain - totalMain + n.Gap*float32(len(children)-1)
			extraGap = total / float32(len(children)+1)
			mainPos = extraGap
		}
	}

	for i, c := range children {
		cm := t.Get(c)
		align := cm.AlignSelf
		if align == region.AlignAuto {
			align = n.AlignItems
		}

		crossSize := availCross
		crossPos := float32(0)
		mw, mh := e.hypotheticalMain(t, c, isRow, availMain, availCross)
		intrinsicCross := mh
		if !isRow {
			intrinsicCross = mw
		}
		switch align {
		case region.AlignStart:
			crossSize = intrinsicCross
		case region.AlignCenter:
			crossSize = intrinsicCross
			crossPos = maxF(0, (availCross-intrinsicCross)/2)
		case region.AlignEnd:
			crossSize = intrinsicCross
			crossPos = maxF(0, availCross-intrinsicCross)
		}

		var cx, cy, cw, chh float32
		if isRow {
			cx, cy = contentX+mainPos, contentY+crossPos
			cw, chh = sizes[i], crossSize
		} else {
			cx, cy = contentX+crossPos, contentY+mainPos
			cw, chh = crossSize, sizes[i]
		}

		e.layoutSubtree(t, c, cx, cy, cw, chh)

		effectiveGap := n.Gap
		if n.JustifyContent == region.JustifySpaceBetween || n.JustifyContent == region.JustifySpaceAround || n.JustifyContent == region.JustifySpaceEvenly {
			effectiveGap = extraGap
		}
		mainPos += sizes[i] + effectiveGap
	}
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// wrapText splits text into lines no wider than maxWidth cells,
// breaking at Unicode word boundaries (github.com/clipperhouse/uax29)
// rather than the teacher's plain space-split, so CJK/no-space
// scripts and punctuation-adjacent words wrap correctly.
func wrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		return strings.Split(text, "\n")
	}
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var cur strings.Builder
		curW := 0
		seg := words.FromString(paragraph)
		for seg.Next() {
			tok := seg.Value()
			tw := runeWidth(tok)
			if curW+tw > maxWidth && curW > 0 {
				lines = append(lines, cur.String())
				cur.Reset()
				curW = 0
			}
			cur.WriteString(tok)
			curW += tw
		}
		lines = append(lines, cur.String())
	}
	return lines
}
