// Package region implements the SharedRegion binary contract: a
// single contiguous byte buffer holding a fixed-layout header, node
// table, text pool, double-buffered framebuffer, and event ring. All
// offsets are compile-time constants derived from a region's
// capacity, per the layout table in the project's external-interface
// documentation.
package region

// cellStride is the byte size of one Framebuffer cell: glyph(4) +
// fg(4) + bg(4) + attrs(1), padded to 16 for 4-aligned atomics on
// every field an engine stage might touch concurrently with a resize.
const cellStride = 16

const (
	coGlyph = 0
	coFg    = 4
	coBg    = 8
	coAttrs = 12
)

// CellAttr is the Framebuffer attrs bitset.
type CellAttr uint8

const (
	AttrBold CellAttr = 1 << iota
	AttrItalic
	AttrUnderline
	AttrInverse
	AttrWideContinuation
)

// Cell is one terminal character cell. Glyph 0 means empty (or, on a
// wide-continuation cell, "no glyph here, consumed by the preceding
// double-width cell"). Fg/Bg 0 means "inherit" when read off a node,
// or "terminal default" sentinel when resolved onto a framebuffer
// cell — Framebuffer resolves inherit to a concrete value before
// writing, so a Cell read back from a framebuffer never carries the
// inherit sentinel.
type Cell struct {
	Glyph rune
	Fg    uint32
	Bg    uint32
	Attrs CellAttr
}

// Config sizes a region at creation time. The region's total byte
// size is a pure function of these five fields.
type Config struct {
	MaxNodes          uint32
	TextPoolCapacity  uint32
	MaxViewportW      uint32
	MaxViewportH      uint32
	EventRingCapacity uint32
}

func (c Config) frameCells() uint32 { return c.MaxViewportW * c.MaxViewportH }

// Size returns the total byte size a region with this config
// requires.
func (c Config) Size() int {
	return headerSize +
		int(c.MaxNodes)*nodeStride +
		int(c.TextPoolCapacity) +
		2*int(c.frameCells())*cellStride +
		int(c.EventRingCapacity)*eventStride
}

// Region is a live view over one contiguous SharedRegion buffer.
type Region struct {
	buf    []byte
	cfg    Config
	Header Header
	Nodes  *NodeTable
	Text   *TextPool
	Events *EventRing

	currentOff, previousOff int
}

// Create allocates and initializes a fresh region sized for cfg.
func Create(cfg Config) (*Region, error) {
	size := cfg.Size()
	buf := make([]byte, size)
	r, err := build(buf, cfg, true)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Attach wraps an existing byte buffer (e.g. received from another
// process or mapped from shared memory) as a Region, validating its
// header version and that it is large enough for the capacity it
// claims.
func Attach(buf []byte) (*Region, error) {
	if len(buf) < headerSize {
		return nil, ErrBufferTooSmall
	}
	h := newHeader(buf)
	if h.Version() != HeaderVersion {
		return nil, ErrVersionMismatch
	}
	cfg := Config{
		MaxNodes:         h.MaxNodes(),
		TextPoolCapacity: h.TextPoolCapacity(),
	}
	maxW, maxH := h.MaxViewport()
	cfg.MaxViewportW, cfg.MaxViewportH = maxW, maxH
	if w, ht := h.TerminalSize(); w*ht > maxW*maxH {
		return nil, ErrViewportOutOfRange
	}
	// Event ring capacity is not independently stored in the header;
	// callers attaching to a foreign region must know it out of band
	// (same as max_nodes/text_pool_capacity are fixed at the
	// compiled contract's choice). Attach therefore requires buf to
	// already be sized for some event ring capacity; we recover it
	// from the remaining length.
	used := headerSize + int(cfg.MaxNodes)*nodeStride + int(cfg.TextPoolCapacity) + 2*int(cfg.frameCells())*cellStride
	if len(buf) < used {
		return nil, ErrBufferTooSmall
	}
	remaining := len(buf) - used
	cfg.EventRingCapacity = uint32(remaining / eventStride)
	return build(buf, cfg, false)
}

func build(buf []byte, cfg Config, fresh bool) (*Region, error) {
	if len(buf) < cfg.Size() {
		return nil, ErrBufferTooSmall
	}
	h := newHeader(buf)

	nodesStart := headerSize
	nodesEnd := nodesStart + int(cfg.MaxNodes)*nodeStride
	textStart := nodesEnd
	textEnd := textStart + int(cfg.TextPoolCapacity)
	currentStart := textEnd
	currentEnd := currentStart + int(cfg.frameCells())*cellStride
	previousStart := currentEnd
	previousEnd := previousStart + int(cfg.frameCells())*cellStride
	eventsStart := previousEnd

	if fresh {
		h.setVersion(HeaderVersion)
		h.setMaxNodes(cfg.MaxNodes)
		h.setTextPoolCapacity(cfg.TextPoolCapacity)
		h.setMaxViewport(cfg.MaxViewportW, cfg.MaxViewportH)
		h.SetTerminalSize(cfg.MaxViewportW, cfg.MaxViewportH)
		h.setNodeCount(0)
		h.SetFocusedNodeIndex(NoIndex)
	}

	nodes := newNodeTable(buf[nodesStart:nodesEnd], cfg.MaxNodes, h)
	text := newTextPool(buf[textStart:textEnd], cfg.TextPoolCapacity, h, nodes)
	events := newEventRing(buf[eventsStart:], cfg.EventRingCapacity, h)

	return &Region{
		buf: buf, cfg: cfg, Header: h, Nodes: nodes, Text: text, Events: events,
		currentOff: currentStart, previousOff: previousStart,
	}, nil
}

// Bytes returns the region's raw backing storage, e.g. for handing to
// another process via shared memory.
func (r *Region) Bytes() []byte { return r.buf }

// Config returns the capacity configuration this region was built
// with.
func (r *Region) Config() Config { return r.cfg }

// Current returns the compositor's write-target framebuffer as a flat
// row-major Cell slice view; indices are y*width+x.
func (r *Region) Current() FramebufferView {
	w, h := r.Header.TerminalSize()
	return FramebufferView{buf: r.buf[r.currentOff:], width: w, height: h}
}

// Previous returns the last frame actually emitted to stdout.
func (r *Region) Previous() FramebufferView {
	w, h := r.Header.TerminalSize()
	return FramebufferView{buf: r.buf[r.previousOff:], width: w, height: h}
}

// Resize records a terminal-resize event, rejecting one that would
// exceed the framebuffer area reserved at Create time rather than
// silently writing past it. Per spec, this is a non-fatal per-frame
// condition: a caller seeing ErrViewportOutOfRange should skip the
// resize (keep the last-known-good terminal size) and let the
// renderer's diagnostic-cell path surface the failure, not abort.
func (r *Region) Resize(width, height uint32) error {
	maxW, maxH := r.Header.MaxViewport()
	if width*height > maxW*maxH {
		return ErrViewportOutOfRange
	}
	r.Header.SetTerminalSize(width, height)
	return nil
}

// SwapFramebuffers exchanges current and previous, as DiffRenderer
// does at the end of a frame.
func (r *Region) SwapFramebuffers() {
	r.currentOff, r.previousOff = r.previousOff, r.currentOff
}

// InvalidateFramebuffers clears previous to a sentinel value that
// matches no real cell, forcing DiffRenderer's next pass to treat
// every cell as changed (the full-resync-on-resize rule).
func (r *Region) InvalidateFramebuffers() {
	prev := r.Previous()
	sentinel := Cell{Glyph: -1, Fg: 0xFFFFFFFF, Bg: 0xFFFFFFFF, Attrs: 0xFF}
	w, h := prev.width, prev.height
	for y := uint32(0); y < h; y++ {
		for x := uint32(0); x < w; x++ {
			prev.Set(x, y, sentinel)
		}
	}
}

// FramebufferView is a row-major [width x height] Cell grid backed by
// a region's byte storage.
type FramebufferView struct {
	buf           []byte
	width, height uint32
}

// Width and Height report the view's dimensions in cells.
func (f FramebufferView) Width() uint32  { return f.width }
func (f FramebufferView) Height() uint32 { return f.height }

// Get reads the cell at (x, y).
func (f FramebufferView) Get(x, y uint32) Cell {
	idx := (y*f.width + x) * cellStride
	s := f.buf[idx : idx+cellStride]
	return Cell{
		Glyph: rune(*u32p(s, coGlyph)),
		Fg:    *u32p(s, coFg),
		Bg:    *u32p(s, coBg),
		Attrs: CellAttr(s[coAttrs]),
	}
}

// Set writes the cell at (x, y).
func (f FramebufferView) Set(x, y uint32, c Cell) {
	idx := (y*f.width + x) * cellStride
	s := f.buf[idx : idx+cellStride]
	*u32p(s, coGlyph) = uint32(c.Glyph)
	*u32p(s, coFg) = c.Fg
	*u32p(s, coBg) = c.Bg
	s[coAttrs] = byte(c.Attrs)
}

// Clear resets every cell to the zero Cell value (glyph 0 = empty,
// fg/bg 0 = inherit/default, no attrs).
func (f FramebufferView) Clear() {
	for i := range f.buf[:f.width*f.height*cellStride] {
		f.buf[i] = 0
	}
}
