package tui

import (
	"strconv"
	"strings"

	"github.com/shmtui/tui/region"
)

const (
	csiStr   = "\x1b["
	resetStr = "\x1b[0m"

	boldStr  = "\x1b[1m"
	dimStr   = "\x1b[2m"
	italStr  = "\x1b[3m"
	underStr = "\x1b[4m"
	invStr   = "\x1b[7m"
)

// MoveCursor returns the 1-indexed ANSI cursor-position escape for a
// 0-indexed (x, y) cell coordinate.
func MoveCursor(x, y int) string {
	return csiStr + strconv.Itoa(y+1) + ";" + strconv.Itoa(x+1) + "H"
}

// HideCursor and ShowCursor bracket a render pass so the cursor does
// not visibly jump between writes.
func HideCursor() string { return csiStr + "?25l" }
func ShowCursor() string { return csiStr + "?25h" }

// colorSGR emits a 24-bit truecolor SGR sequence for a packed-RGBA
// color, or the SGR reset-to-default sequence (39 for foreground, 49
// for background) for the default sentinel, letting the terminal's own
// default apply.
func colorSGR(c uint32, isFg bool) string {
	if c == ColorDefault {
		if isFg {
			return "\x1b[39m"
		}
		return "\x1b[49m"
	}
	r, g, b, _ := UnpackRGBA(c)
	kind := "38"
	if !isFg {
		kind = "48"
	}
	return csiStr + kind + ";2;" + strconv.Itoa(int(r)) + ";" + strconv.Itoa(int(g)) + ";" + strconv.Itoa(int(b)) + "m"
}

// activeAttrs tracks the renderer's currently-in-effect SGR state
// across the whole frame (not just the previous cell), so style
// escapes are only emitted on an actual change — the behavior §4.7
// requires for byte-budget correctness.
type activeAttrs struct {
	set   bool
	fg, bg uint32
	attrs  region.CellAttr
}

func (a *activeAttrs) apply(c region.Cell, sb *strings.Builder) {
	if a.set && a.fg == c.Fg && a.bg == c.Bg && a.attrs == c.Attrs {
		return
	}
	sb.WriteString(resetStr)
	if c.Attrs&region.AttrBold != 0 {
		sb.WriteString(boldStr)
	}
	if c.Attrs&region.AttrItalic != 0 {
		sb.WriteString(italStr)
	}
	if c.Attrs&region.AttrUnderline != 0 {
		sb.WriteString(underStr)
	}
	if c.Attrs&region.AttrInverse != 0 {
		sb.WriteString(invStr)
	}
	sb.WriteString(colorSGR(c.Fg, true))
	sb.WriteString(colorSGR(c.Bg, false))
	a.set = true
	a.fg, a.bg, a.attrs = c.Fg, c.Bg, c.Attrs
}

// runToAnsi appends one run's bytes: a cursor move, then each cell's
// glyph with attribute changes emitted lazily against active.
// Wide-continuation cells (glyph 0, AttrWideContinuation set) emit
// nothing — the preceding double-width glyph already consumed the
// column.
func runToAnsi(run CellRun, active *activeAttrs, sb *strings.Builder) {
	sb.WriteString(MoveCursor(run.X, run.Y))
	for _, c := range run.Cells {
		if c.Attrs&region.AttrWideContinuation != 0 {
			continue
		}
		active.apply(c, sb)
		if c.Glyph == 0 {
			sb.WriteRune(' ')
		} else {
			sb.WriteRune(c.Glyph)
		}
	}
}

// RunsToAnsi renders a full set of diff runs to one escape-sequence
// byte stream, tracking active attributes across every run so
// identical adjacent styles never re-emit their SGR codes.
func RunsToAnsi(runs []CellRun) string {
	var sb strings.Builder
	var active activeAttrs
	for _, run := range runs {
		runToAnsi(run, &active, &sb)
	}
	if active.set {
		sb.WriteString(resetStr)
	}
	return sb.String()
}

// DiffRenderer walks a region's current/previous framebuffers and
// produces the minimal ANSI byte stream to bring the terminal from
// previous to current, then swaps the buffers.
type DiffRenderer struct {
	lastWidth, lastHeight uint32
}

// Render computes and returns the escape-sequence bytes for one
// frame. Returns "" (and emits nothing) when no cell differs — the
// idempotent-empty-diff property. A terminal-size change since the
// last call forces a full resync: previous is invalidated so every
// cell is treated as changed.
func (d *DiffRenderer) Render(r *region.Region) string {
	w, h := r.Header.TerminalSize()
	if d.lastWidth != 0 && (w != d.lastWidth || h != d.lastHeight) {
		r.InvalidateFramebuffers()
	}
	d.lastWidth, d.lastHeight = w, h

	changes := DiffFramebuffers(r.Previous(), r.Current())
	out := ""
	if len(changes) > 0 {
		out = RunsToAnsi(FindRuns(changes))
	}
	r.SwapFramebuffers()
	return out
}
