package region

import (
	"math"
	"sync/atomic"
	"unsafe"
)

// ComponentType tags what a node-table slot represents.
type ComponentType uint8

const (
	ComponentNone ComponentType = iota
	ComponentBox
	ComponentText
)

// DirtyFlags is a bitset of the three change categories a producer
// write can touch. set_field writes exactly the bit matching the
// field's category, with release ordering.
type DirtyFlags uint8

const (
	DirtyLayout DirtyFlags = 1 << iota
	DirtyVisual
	DirtyText
)

// FlexDirection selects the main axis.
type FlexDirection uint8

const (
	FlexColumn FlexDirection = iota
	FlexRow
)

// FlexWrap selects single- or multi-line flex layout.
type FlexWrap uint8

const (
	NoWrap FlexWrap = iota
	Wrap
)

// Justify distributes free main-axis space among children.
type Justify uint8

const (
	JustifyStart Justify = iota
	JustifyCenter
	JustifyEnd
	JustifySpaceBetween
	JustifySpaceAround
	JustifySpaceEvenly
)

// Align controls cross-axis placement, for align_items/align_self.
type Align uint8

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
	AlignStretch
	AlignAuto // align_self only: defer to the container's align_items
)

// Overflow controls whether a node clips/scrolls its children.
type Overflow uint8

const (
	OverflowVisible Overflow = iota
	OverflowHidden
	OverflowScroll
	OverflowAuto
)

// DimensionUnit tags how width/height are to be interpreted, since a
// plain f32 cannot distinguish "auto" from "50% of parent" from
// "absolute cells" without an out-of-band tag.
type DimensionUnit uint8

const (
	UnitAuto DimensionUnit = iota
	UnitCells
	UnitPercent
)

// BorderStyle selects the box-drawing glyph set used by the
// compositor when painting a node's border.
type BorderStyle uint8

const (
	BorderNone BorderStyle = iota
	BorderSingle
	BorderDouble
	BorderRounded
	BorderThick
)

// TextAlign controls horizontal placement of wrapped text lines
// within a TEXT node's box.
type TextAlign uint8

const (
	TextAlignStart TextAlign = iota
	TextAlignCenter
	TextAlignEnd
)

// TextWrap selects how overflowing text is handled.
type TextWrap uint8

const (
	TextWrapWrap TextWrap = iota
	TextWrapTruncate
	TextWrapClip
)

// Field byte offsets within one node-table stride. Every offset is
// 4-byte aligned so atomic loads/stores on the f32/u32/i32 fields are
// well-defined on every supported architecture.
const (
	foParentIndex    = 0
	foFirstChild     = 4
	foPrevSibling    = 8
	foNextSibling    = 12
	foComponentType  = 16 // u8
	foVisible        = 17 // u8
	foFocusable      = 18 // u8
	foDirtyFlags     = 19 // u8
	foWidth          = 20
	foHeight         = 24
	foMinWidth       = 28
	foMinHeight      = 32
	foMaxWidth       = 36
	foMaxHeight      = 40
	foGrow           = 44
	foShrink         = 48
	foBasis          = 52
	foPaddingTop     = 56
	foPaddingRight   = 60
	foPaddingBottom  = 64
	foPaddingLeft    = 68
	foMarginTop      = 72
	foMarginRight    = 76
	foMarginBottom   = 80
	foMarginLeft     = 84
	foBorderTop      = 88
	foBorderRight    = 92
	foBorderBottom   = 96
	foBorderLeft     = 100
	foGap            = 104
	foFlexDirection  = 108 // u8
	foFlexWrap       = 109 // u8
	foJustifyContent = 110 // u8
	foAlignItems     = 111 // u8
	foAlignSelf      = 112 // u8
	foOverflowX      = 113 // u8
	foOverflowY      = 114 // u8
	foWidthUnit      = 115 // u8
	foHeightUnit     = 116 // u8
	foScrollX        = 120
	foScrollY        = 124
	foFgColor        = 128
	foBgColor        = 132
	foBorderColor    = 136
	foBorderStyle    = 140 // u8
	foTextAlign      = 141 // u8
	foTextWrap       = 142 // u8
	foOpacity        = 143 // u8
	foZIndex         = 144 // u8
	foTextOffset     = 148
	foTextLength     = 152
	foComputedX      = 156
	foComputedY      = 160
	foComputedWidth  = 164
	foComputedHeight = 168
	foComputedScrollExtentX = 172
	foComputedScrollExtentY = 176
	foTabIndex       = 180
	foCursorPosition = 184
	foEventBitmap    = 188

	nodeStride = 192
)

// NoIndex is the sentinel for "no such node" in parent/sibling/child
// links and in tab_index.
const NoIndex int32 = -1

// NodeTable is a struct-of-slots view over a region's node-table
// segment: slot i's fields live at byte offset i*nodeStride within
// buf. The producer writes structural/visual/text columns; the
// renderer writes only computed_* and dirty_flags.
type NodeTable struct {
	buf      []byte
	maxNodes uint32
	header   Header
	cursor   uint32 // next alloc() probe start
}

func newNodeTable(buf []byte, maxNodes uint32, header Header) *NodeTable {
	return &NodeTable{buf: buf, maxNodes: maxNodes, header: header}
}

func (t *NodeTable) slot(i int32) []byte {
	off := int(i) * nodeStride
	return t.buf[off : off+nodeStride]
}

func u32p(b []byte, off int) *uint32 { return (*uint32)(unsafe.Pointer(&b[off])) }
func i32p(b []byte, off int) *int32  { return (*int32)(unsafe.Pointer(&b[off])) }
func f32p(b []byte, off int) *float32 {
	return (*float32)(unsafe.Pointer(&b[off]))
}

// Alloc returns the first free slot index (component_type == NONE)
// found by linear-probing from a rolling cursor that starts just past
// the previously allocated slot and wraps around, so a lower released
// slot is reused only after the probe wraps. The returned slot is
// typed ComponentBox so no later Alloc hands it out again; callers set
// its actual type with SetComponentType. Returns ErrTableFull when the
// table is at capacity.
func (t *NodeTable) Alloc() (int32, error) {
	for n := uint32(0); n < t.maxNodes; n++ {
		idx := (t.cursor + n) % t.maxNodes
		s := t.slot(int32(idx))
		if ComponentType(s[foComponentType]) == ComponentNone {
			t.cursor = (idx + 1) % t.maxNodes
			s[foComponentType] = byte(ComponentBox)
			if idx+1 > t.header.NodeCount() {
				t.header.setNodeCount(idx + 1)
			}
			*i32p(s, foParentIndex) = NoIndex
			*i32p(s, foFirstChild) = NoIndex
			*i32p(s, foPrevSibling) = NoIndex
			*i32p(s, foNextSibling) = NoIndex
			*i32p(s, foTabIndex) = NoIndex
			return int32(idx), nil
		}
	}
	return NoIndex, ErrTableFull
}

// Release frees a slot, unlinking it from its parent's sibling list
// and marking the parent LAYOUT-dirty. It does not recursively
// release descendants; the producer is responsible for releasing a
// subtree bottom-up.
func (t *NodeTable) Release(index int32) {
	s := t.slot(index)
	parent := *i32p(s, foParentIndex)
	prev := *i32p(s, foPrevSibling)
	next := *i32p(s, foNextSibling)

	if prev != NoIndex {
		*i32p(t.slot(prev), foNextSibling) = next
	} else if parent != NoIndex {
		*i32p(t.slot(parent), foFirstChild) = next
	}
	if next != NoIndex {
		*i32p(t.slot(next), foPrevSibling) = prev
	}
	if parent != NoIndex {
		t.MarkDirty(parent, DirtyLayout)
	}

	clear(s)
	s[foComponentType] = byte(ComponentNone)
}

// AppendChild links child as the last sibling under parent (NoIndex
// for a root), matching the producer's incremental-build discipline.
func (t *NodeTable) AppendChild(parent, child int32) {
	cs := t.slot(child)
	*i32p(cs, foParentIndex) = parent
	*i32p(cs, foPrevSibling) = NoIndex
	*i32p(cs, foNextSibling) = NoIndex

	if parent == NoIndex {
		return
	}
	ps := t.slot(parent)
	first := *i32p(ps, foFirstChild)
	if first == NoIndex {
		*i32p(ps, foFirstChild) = child
		return
	}
	last := first
	for {
		n := *i32p(t.slot(last), foNextSibling)
		if n == NoIndex {
			break
		}
		last = n
	}
	*i32p(t.slot(last), foNextSibling) = child
	*i32p(cs, foPrevSibling) = last
}

// ParentOf returns index's parent, or NoIndex for a root.
func (t *NodeTable) ParentOf(index int32) int32 { return *i32p(t.slot(index), foParentIndex) }

// ChildrenOf returns index's children in sibling-list order.
func (t *NodeTable) ChildrenOf(index int32) []int32 {
	var out []int32
	for c := *i32p(t.slot(index), foFirstChild); c != NoIndex; c = *i32p(t.slot(c), foNextSibling) {
		out = append(out, c)
	}
	return out
}

// ForEachDescendant walks index's subtree pre-order (index itself
// included first), calling fn for each node. It bounds the walk to
// maxNodes steps and returns ErrInvalidTree if that bound is
// exceeded, which indicates a cycle in the sibling/child links.
func (t *NodeTable) ForEachDescendant(index int32, fn func(int32)) error {
	steps := uint32(0)
	var walk func(i int32) error
	walk = func(i int32) error {
		fn(i)
		for c := *i32p(t.slot(i), foFirstChild); c != NoIndex; c = *i32p(t.slot(c), foNextSibling) {
			steps++
			if steps > t.maxNodes {
				return ErrInvalidTree
			}
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(index)
}

// Validate runs ForEachDescendant over every root and returns the
// slot indices of any whose subtree exceeded the cycle bound — meant
// to be called once per frame, before any unbounded ChildrenOf-based
// walk (layout, paint, hit-testing, focus ordering) runs, so a
// malformed tree is caught before those walks ever see it rather than
// stack-overflowing one of them.
func (t *NodeTable) Validate() []int32 {
	var bad []int32
	for _, root := range t.Roots() {
		if err := t.ForEachDescendant(root, func(int32) {}); err != nil {
			bad = append(bad, root)
		}
	}
	return bad
}

// IsolateRoot detaches index's children, turning a malformed subtree
// into a childless leaf so every ChildrenOf-based walk for the rest of
// this frame treats it as empty instead of re-discovering the same
// cycle. The node itself (and its descendants' slots) are left intact
// — a producer can still repair and re-wire them on a later frame.
func (t *NodeTable) IsolateRoot(index int32) {
	*i32p(t.slot(index), foFirstChild) = NoIndex
}

// Roots returns every slot with parent_index == -1 and a non-NONE
// component type, in slot order.
func (t *NodeTable) Roots() []int32 {
	var out []int32
	for i := uint32(0); i < t.maxNodes; i++ {
		s := t.slot(int32(i))
		if ComponentType(s[foComponentType]) != ComponentNone && *i32p(s, foParentIndex) == NoIndex {
			out = append(out, int32(i))
		}
	}
	return out
}

// MarkDirty ORs bits into a slot's dirty_flags with release ordering,
// matching set_field's per-category publication rule.
func (t *NodeTable) MarkDirty(index int32, bits DirtyFlags) {
	s := t.slot(index)
	for {
		old := atomic.LoadUint32((*uint32)(unsafe.Pointer(&s[16])))
		nv := old | uint32(bits)<<24 // dirty_flags is the high byte of the component_type..dirty_flags u32
		// component_type/visible/focusable occupy the low 3 bytes of
		// this word; OR only ever adds bits to the high byte, so a
		// racing read of the low bytes by another actor is unaffected.
		if atomic.CompareAndSwapUint32((*uint32)(unsafe.Pointer(&s[16])), old, nv) {
			return
		}
	}
}

// ClearDirty clears bits in a slot's dirty_flags (the LayoutEngine's
// end-of-pass housekeeping).
func (t *NodeTable) ClearDirty(index int32, bits DirtyFlags) {
	s := t.slot(index)
	for {
		old := atomic.LoadUint32((*uint32)(unsafe.Pointer(&s[16])))
		nv := old &^ (uint32(bits) << 24)
		if atomic.CompareAndSwapUint32((*uint32)(unsafe.Pointer(&s[16])), old, nv) {
			return
		}
	}
}

// DirtyFlagsOf reads index's dirty_flags bitset.
func (t *NodeTable) DirtyFlagsOf(index int32) DirtyFlags {
	return DirtyFlags(t.slot(index)[foDirtyFlags])
}

// ComponentTypeOf, Visible, Focusable read the type/state byte
// fields.
func (t *NodeTable) ComponentTypeOf(index int32) ComponentType {
	return ComponentType(t.slot(index)[foComponentType])
}
func (t *NodeTable) Visible(index int32) bool   { return t.slot(index)[foVisible] != 0 }
func (t *NodeTable) Focusable(index int32) bool { return t.slot(index)[foFocusable] != 0 }

// Node is a convenience, fully materialized snapshot of one slot,
// used by the LayoutEngine/compositor for read-heavy passes where
// repeated pointer arithmetic would obscure the algorithm. Mutating a
// Node value does not write back; use the SetXxx methods for that.
type Node struct {
	ParentIndex, FirstChild, PrevSibling, NextSibling int32
	ComponentType                                     ComponentType
	Visible, Focusable                                bool
	DirtyFlags                                        DirtyFlags

	Width, Height                   float32
	WidthUnit, HeightUnit           DimensionUnit
	MinWidth, MinHeight             float32
	MaxWidth, MaxHeight             float32
	Grow, Shrink, Basis             float32
	PaddingTop, PaddingRight        float32
	PaddingBottom, PaddingLeft      float32
	MarginTop, MarginRight          float32
	MarginBottom, MarginLeft        float32
	BorderTop, BorderRight          float32
	BorderBottom, BorderLeft        float32
	Gap                             float32
	FlexDirection                   FlexDirection
	FlexWrap                        FlexWrap
	JustifyContent                  Justify
	AlignItems, AlignSelf           Align
	OverflowX, OverflowY            Overflow
	ScrollX, ScrollY                float32

	FgColor, BgColor, BorderColor uint32
	BorderStyle                   BorderStyle
	TextAlign                     TextAlign
	TextWrap                      TextWrap
	Opacity, ZIndex               uint8

	TextOffset, TextLength uint32

	ComputedX, ComputedY                       float32
	ComputedWidth, ComputedHeight              float32
	ComputedScrollExtentX, ComputedScrollExtentY float32

	TabIndex       int32
	CursorPosition int32
	EventBitmap    uint32
}

// Get materializes slot index into a Node snapshot.
func (t *NodeTable) Get(index int32) Node {
	s := t.slot(index)
	return Node{
		ParentIndex:   *i32p(s, foParentIndex),
		FirstChild:    *i32p(s, foFirstChild),
		PrevSibling:   *i32p(s, foPrevSibling),
		NextSibling:   *i32p(s, foNextSibling),
		ComponentType: ComponentType(s[foComponentType]),
		Visible:       s[foVisible] != 0,
		Focusable:     s[foFocusable] != 0,
		DirtyFlags:    DirtyFlags(s[foDirtyFlags]),

		Width: *f32p(s, foWidth), Height: *f32p(s, foHeight),
		WidthUnit: DimensionUnit(s[foWidthUnit]), HeightUnit: DimensionUnit(s[foHeightUnit]),
		MinWidth: *f32p(s, foMinWidth), MinHeight: *f32p(s, foMinHeight),
		MaxWidth: *f32p(s, foMaxWidth), MaxHeight: *f32p(s, foMaxHeight),
		Grow: *f32p(s, foGrow), Shrink: *f32p(s, foShrink), Basis: *f32p(s, foBasis),
		PaddingTop: *f32p(s, foPaddingTop), PaddingRight: *f32p(s, foPaddingRight),
		PaddingBottom: *f32p(s, foPaddingBottom), PaddingLeft: *f32p(s, foPaddingLeft),
		MarginTop: *f32p(s, foMarginTop), MarginRight: *f32p(s, foMarginRight),
		MarginBottom: *f32p(s, foMarginBottom), MarginLeft: *f32p(s, foMarginLeft),
		BorderTop: *f32p(s, foBorderTop), BorderRight: *f32p(s, foBorderRight),
		BorderBottom: *f32p(s, foBorderBottom), BorderLeft: *f32p(s, foBorderLeft),
		Gap:            *f32p(s, foGap),
		FlexDirection:  FlexDirection(s[foFlexDirection]),
		FlexWrap:       FlexWrap(s[foFlexWrap]),
		JustifyContent: Justify(s[foJustifyContent]),
		AlignItems:     Align(s[foAlignItems]),
		AlignSelf:      Align(s[foAlignSelf]),
		OverflowX:      Overflow(s[foOverflowX]),
		OverflowY:      Overflow(s[foOverflowY]),
		ScrollX:        *f32p(s, foScrollX),
		ScrollY:        *f32p(s, foScrollY),

		FgColor: *u32p(s, foFgColor), BgColor: *u32p(s, foBgColor), BorderColor: *u32p(s, foBorderColor),
		BorderStyle: BorderStyle(s[foBorderStyle]), TextAlign: TextAlign(s[foTextAlign]),
		TextWrap: TextWrap(s[foTextWrap]), Opacity: s[foOpacity], ZIndex: s[foZIndex],

		TextOffset: *u32p(s, foTextOffset), TextLength: *u32p(s, foTextLength),

		ComputedX: *f32p(s, foComputedX), ComputedY: *f32p(s, foComputedY),
		ComputedWidth: *f32p(s, foComputedWidth), ComputedHeight: *f32p(s, foComputedHeight),
		ComputedScrollExtentX: *f32p(s, foComputedScrollExtentX),
		ComputedScrollExtentY: *f32p(s, foComputedScrollExtentY),

		TabIndex: *i32p(s, foTabIndex), CursorPosition: *i32p(s, foCursorPosition),
		EventBitmap: *u32p(s, foEventBitmap),
	}
}

// SetComputed writes the LayoutEngine's output columns back into the
// table, per the disjoint-column ownership rule: only this method and
// SetComputedScrollExtent touch computed_* fields. It leaves the dirty
// bits alone; the caller clears them with ClearDirty.
func (t *NodeTable) SetComputed(index int32, x, y, w, h float32) {
	s := t.slot(index)
	*f32p(s, foComputedX) = x
	*f32p(s, foComputedY) = y
	*f32p(s, foComputedWidth) = w
	*f32p(s, foComputedHeight) = h
}

// SetComputedScrollExtent writes the auto-scroll detection's result.
func (t *NodeTable) SetComputedScrollExtent(index int32, x, y float32) {
	s := t.slot(index)
	*f32p(s, foComputedScrollExtentX) = x
	*f32p(s, foComputedScrollExtentY) = y
}

// SetScroll writes the producer/InputRouter-owned scroll offset,
// clamped by the caller to [0, computed_scroll_extent].
func (t *NodeTable) SetScroll(index int32, x, y float32) {
	s := t.slot(index)
	*f32p(s, foScrollX) = x
	*f32p(s, foScrollY) = y
}

// SetText writes text_offset / text_length for bytes the caller has
// already stored with TextPool.Write, marking TEXT dirty.
func (t *NodeTable) SetText(index int32, offset, length uint32) {
	s := t.slot(index)
	*u32p(s, foTextOffset) = offset
	*u32p(s, foTextLength) = length
	t.MarkDirty(index, DirtyText)
}

// SetComponentType, SetVisible, SetFocusable are producer-side
// structural setters used at Alloc time.
func (t *NodeTable) SetComponentType(index int32, ct ComponentType) {
	t.slot(index)[foComponentType] = byte(ct)
}
func (t *NodeTable) SetVisible(index int32, v bool) {
	t.slot(index)[foVisible] = boolByte(v)
	t.MarkDirty(index, DirtyVisual)
}
func (t *NodeTable) SetFocusable(index int32, f bool, tabIndex int32) {
	t.slot(index)[foFocusable] = boolByte(f)
	*i32p(t.slot(index), foTabIndex) = tabIndex
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// SetBoxStyle is a bulk producer-side setter for the dimension/flex
// fields a BOX node needs, marking LAYOUT dirty in one pass rather
// than per-field (the common path for a freshly built subtree).
type BoxStyle struct {
	Width, Height         float32
	WidthUnit, HeightUnit DimensionUnit
	MinWidth, MinHeight   float32
	MaxWidth, MaxHeight   float32
	Grow, Shrink, Basis   float32
	Padding, Margin       Edges
	Border                Edges
	Gap                   float32
	FlexDirection         FlexDirection
	FlexWrap              FlexWrap
	JustifyContent        Justify
	AlignItems, AlignSelf Align
	OverflowX, OverflowY  Overflow
	FgColor, BgColor, BorderColor uint32
	BorderStyle           BorderStyle
	TextAlign             TextAlign
	TextWrap              TextWrap
	Opacity, ZIndex       uint8
}

// Edges groups the four-sided spacing fields the layout engine needs
// for padding/margin/border, mirroring the teacher's own spacing
// helper shape.
type Edges struct{ Top, Right, Bottom, Left float32 }

// SetBoxStyle writes every BOX-relevant field from st into index in
// one call and marks LAYOUT|VISUAL dirty.
func (t *NodeTable) SetBoxStyle(index int32, st BoxStyle) {
	s := t.slot(index)
	*f32p(s, foWidth), *f32p(s, foHeight) = st.Width, st.Height
	s[foWidthUnit], s[foHeightUnit] = byte(st.WidthUnit), byte(st.HeightUnit)
	*f32p(s, foMinWidth), *f32p(s, foMinHeight) = st.MinWidth, st.MinHeight
	*f32p(s, foMaxWidth), *f32p(s, foMaxHeight) = st.MaxWidth, st.MaxHeight
	*f32p(s, foGrow), *f32p(s, foShrink), *f32p(s, foBasis) = st.Grow, st.Shrink, st.Basis
	*f32p(s, foPaddingTop), *f32p(s, foPaddingRight) = st.Padding.Top, st.Padding.Right
	*f32p(s, foPaddingBottom), *f32p(s, foPaddingLeft) = st.Padding.Bottom, st.Padding.Left
	*f32p(s, foMarginTop), *f32p(s, foMarginRight) = st.Margin.Top, st.Margin.Right
	*f32p(s, foMarginBottom), *f32p(s, foMarginLeft) = st.Margin.Bottom, st.Margin.Left
	*f32p(s, foBorderTop), *f32p(s, foBorderRight) = st.Border.Top, st.Border.Right
	*f32p(s, foBorderBottom), *f32p(s, foBorderLeft) = st.Border.Bottom, st.Border.Left
	*f32p(s, foGap) = st.Gap
	s[foFlexDirection], s[foFlexWrap] = byte(st.FlexDirection), byte(st.FlexWrap)
	s[foJustifyContent], s[foAlignItems], s[foAlignSelf] = byte(st.JustifyContent), byte(st.AlignItems), byte(st.AlignSelf)
	s[foOverflowX], s[foOverflowY] = byte(st.OverflowX), byte(st.OverflowY)
	*u32p(s, foFgColor), *u32p(s, foBgColor), *u32p(s, foBorderColor) = st.FgColor, st.BgColor, st.BorderColor
	s[foBorderStyle], s[foTextAlign], s[foTextWrap] = byte(st.BorderStyle), byte(st.TextAlign), byte(st.TextWrap)
	s[foOpacity], s[foZIndex] = st.Opacity, st.ZIndex
	t.MarkDirty(index, DirtyLayout|DirtyVisual)
}

// IsAutoWidth / IsAutoHeight report whether a dimension is
// content-sized (no explicit width/height/percent given).
func IsAutoWidth(n Node) bool  { return n.WidthUnit == UnitAuto || floatIsNaN(n.Width) }
func IsAutoHeight(n Node) bool { return n.HeightUnit == UnitAuto || floatIsNaN(n.Height) }

func floatIsNaN(f float32) bool { return math.IsNaN(float64(f)) }
