// Package declarative is a thin producer-side builder that commits a
// gox.VNode tree into a region.Region's node table, giving the
// SharedRegion contract a realistic producer without pulling the
// engine itself into a VNode/diffing dependency. Grounded on the
// teacher's own gox.Element/gox.Props/gox.Text producer idiom (seen
// throughout app.go and the examples/ demos) and on intrinsics.go's
// prop-reading helpers (GetIntProp/GetDirection/GetJustify/GetAlign),
// re-read here against region.NodeTable columns instead of a
// LayoutContext.
package declarative

import (
	"github.com/germtb/gox"

	"github.com/shmtui/tui/region"
)

// Box is a producer-facing constructor for a BOX node, mirroring the
// teacher's gox.Element("box", props, children...) call shape.
func Box(props gox.Props, children ...gox.VNode) gox.VNode {
	return gox.Element("box", props, children...)
}

// Text is a producer-facing constructor for a TEXT node.
func Text(content string) gox.VNode {
	return gox.Element("text", gox.Props{"content": content}, gox.Text(content))
}

// Each maps items to VNodes, the declarative surface's list primitive
// — a plain generic function rather than a framework macro, since Go
// has no JSX-style control flow to mirror.
func Each[T any](items []T, fn func(item T, index int) gox.VNode) []gox.VNode {
	out := make([]gox.VNode, len(items))
	for i, item := range items {
		out[i] = fn(item, i)
	}
	return out
}

// Show returns a single-element slice containing node when cond is
// true, or an empty slice otherwise — spread into a children list with
// append(children, Show(cond, node)...) for conditional rendering.
func Show(cond bool, node gox.VNode) []gox.VNode {
	if !cond {
		return nil
	}
	return []gox.VNode{node}
}

// Builder commits VNode trees into one region.Region, allocating node
// table slots and text pool bytes as it walks.
type Builder struct {
	region *region.Region
}

// NewBuilder binds a Builder to r.
func NewBuilder(r *region.Region) *Builder {
	return &Builder{region: r}
}

// Commit allocates root and its descendants as new node-table slots
// under root's tree, returning root's slot index. Call EngineWake
// after Commit (and after any follow-up SetField-equivalent writes)
// to publish the new tree to the renderer.
func (b *Builder) Commit(v gox.VNode) (int32, error) {
	return b.commit(v, region.NoIndex)
}

func (b *Builder) commit(v gox.VNode, parent int32) (int32, error) {
	typeStr, _ := v.Type.(string)

	if typeStr == "text" || typeStr == gox.TextNodeType {
		return b.commitText(v, parent)
	}
	return b.commitBox(v, parent)
}

func (b *Builder) commitText(v gox.VNode, parent int32) (int32, error) {
	idx, err := b.region.Nodes.Alloc()
	if err != nil {
		return region.NoIndex, err
	}
	b.region.Nodes.SetComponentType(idx, region.ComponentText)
	b.region.Nodes.SetVisible(idx, true)
	b.region.Nodes.AppendChild(parent, idx)

	content := textContent(v)
	off, length, err := b.region.Text.Write([]byte(content))
	if err != nil {
		return idx, err
	}
	b.region.Nodes.SetText(idx, off, length)
	style := propsToBoxStyle(v.Props)
	b.region.Nodes.SetBoxStyle(idx, style)
	return idx, nil
}

func (b *Builder) commitBox(v gox.VNode, parent int32) (int32, error) {
	idx, err := b.region.Nodes.Alloc()
	if err != nil {
		return region.NoIndex, err
	}
	b.region.Nodes.SetComponentType(idx, region.ComponentBox)
	b.region.Nodes.SetVisible(idx, true)
	b.region.Nodes.AppendChild(parent, idx)
	b.region.Nodes.SetBoxStyle(idx, propsToBoxStyle(v.Props))

	if tabIndex, ok := intProp(v.Props, "tab_index"); ok {
		b.region.Nodes.SetFocusable(idx, true, int32(tabIndex))
	}

	for _, c := range v.Children {
		if _, err := b.commit(c, idx); err != nil {
			return idx, err
		}
	}
	return idx, nil
}

// textContent reads a TEXT node's displayed string, preferring an
// explicit "content" prop (set by declarative.Text) and falling back
// to concatenating gox.Text child leaves, since gox.Element("text",
// props, gox.Text(s)) stores the string on a synthesized text-type
// child rather than on the element itself.
func textContent(v gox.VNode) string {
	if s, ok := stringProp(v.Props, "content"); ok {
		return s
	}
	var out string
	for _, c := range v.Children {
		if s, ok := stringProp(c.Props, "text"); ok {
			out += s
		}
	}
	return out
}

func propsToBoxStyle(props gox.Props) region.BoxStyle {
	style := region.BoxStyle{WidthUnit: region.UnitAuto, HeightUnit: region.UnitAuto}
	if w, ok := floatProp(props, "width"); ok {
		style.Width, style.WidthUnit = w, region.UnitCells
	}
	if h, ok := floatProp(props, "height"); ok {
		style.Height, style.HeightUnit = h, region.UnitCells
	}
	style.MinWidth, _ = floatProp(props, "min_width")
	style.MinHeight, _ = floatProp(props, "min_height")
	style.MaxWidth, _ = floatProp(props, "max_width")
	style.MaxHeight, _ = floatProp(props, "max_height")
	style.Grow, _ = floatProp(props, "grow")
	style.Shrink, _ = floatProp(props, "shrink")
	style.Basis, _ = floatProp(props, "basis")
	style.Gap, _ = floatProp(props, "gap")

	pad, _ := floatProp(props, "padding")
	style.Padding = region.Edges{Top: pad, Right: pad, Bottom: pad, Left: pad}
	margin, _ := floatProp(props, "margin")
	style.Margin = region.Edges{Top: margin, Right: margin, Bottom: margin, Left: margin}
	border, _ := floatProp(props, "border")
	style.Border = region.Edges{Top: border, Right: border, Bottom: border, Left: border}

	if dir, ok := stringProp(props, "direction"); ok && dir == "row" {
		style.FlexDirection = region.FlexRow
	}
	if wrap, ok := stringProp(props, "wrap"); ok && wrap == "wrap" {
		style.FlexWrap = region.Wrap
	}
	style.JustifyContent = justifyFromString(stringPropOr(props, "justify", ""))
	style.AlignItems = alignFromString(stringPropOr(props, "align", ""))
	style.AlignSelf = region.AlignAuto
	if fg, ok := uint32Prop(props, "fg"); ok {
		style.FgColor = fg
	}
	if bg, ok := uint32Prop(props, "bg"); ok {
		style.BgColor = bg
	}
	style.Opacity = 255

	style.OverflowX, style.OverflowY = region.OverflowVisible, region.OverflowVisible
	if o, ok := stringProp(props, "overflow"); ok {
		style.OverflowX, style.OverflowY = overflowFromString(o), overflowFromString(o)
	}
	if o, ok := stringProp(props, "overflow_x"); ok {
		style.OverflowX = overflowFromString(o)
	}
	if o, ok := stringProp(props, "overflow_y"); ok {
		style.OverflowY = overflowFromString(o)
	}
	return style
}

// overflowFromString maps the declarative "overflow"/"overflow_x"/
// "overflow_y" prop strings onto region.Overflow. Leaving the prop
// unset is what producers do the vast majority of the time and is
// itself meaningful — it leaves OverflowVisible, the zero value
// autoScrollExtent treats as auto-eligible — so producers only reach
// for this prop at all when they want to opt into "hidden" (suppress
// auto-scroll entirely) or force "scroll" (always clip, even when
// content fits).
func overflowFromString(s string) region.Overflow {
	switch s {
	case "hidden":
		return region.OverflowHidden
	case "scroll":
		return region.OverflowScroll
	case "auto":
		return region.OverflowAuto
	default:
		return region.OverflowVisible
	}
}

func justifyFromString(s string) region.Justify {
	switch s {
	case "center":
		return region.JustifyCenter
	case "end":
		return region.JustifyEnd
	case "space-between":
		return region.JustifySpaceBetween
	case "space-around":
		return region.JustifySpaceAround
	case "space-evenly":
		return region.JustifySpaceEvenly
	default:
		return region.JustifyStart
	}
}

func alignFromString(s string) region.Align {
	switch s {
	case "center":
		return region.AlignCenter
	case "end":
		return region.AlignEnd
	case "stretch":
		return region.AlignStretch
	default:
		return region.AlignStart
	}
}

func floatProp(props gox.Props, key string) (float32, bool) {
	v, ok := props[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float32:
		return n, true
	case float64:
		return float32(n), true
	case int:
		return float32(n), true
	}
	return 0, false
}

func intProp(props gox.Props, key string) (int, bool) {
	f, ok := floatProp(props, key)
	return int(f), ok
}

func stringProp(props gox.Props, key string) (string, bool) {
	v, ok := props[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func stringPropOr(props gox.Props, key, def string) string {
	if s, ok := stringProp(props, key); ok {
		return s
	}
	return def
}

func uint32Prop(props gox.Props, key string) (uint32, bool) {
	v, ok := props[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case uint32:
		return n, true
	case int:
		return uint32(n), true
	}
	return 0, false
}
