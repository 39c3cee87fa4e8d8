package tui

import (
	"io"

	"github.com/shmtui/tui/region"
)

// Engine is the operational surface tying WakeWatcher, LayoutEngine,
// Compositor and DiffRenderer together into the renderer thread spec
// §5's data-flow describes: WakeWatcher returns from park, runs one
// pipeline pass, bumps render_count, parks again. Grounded on app.go's
// App lifecycle (NewApp/Render/Run/cleanup-on-exit), generalized from
// a direct VNode re-render call to the wake-driven pipeline.
type Engine struct {
	region  *region.Region
	watch   *WakeWatcher
	layout  *LayoutEngine
	paint   *Compositor
	diff    *DiffRenderer
	input   *InputRouter
	pending chan region.Event
	out     io.Writer
	done    chan struct{}
}

// pendingInputCapacity bounds how many raw events an external reader
// thread can queue between frames before PushInput starts dropping —
// unlike the event ring, which drops its oldest event, a full queue
// drops the incoming one — so a slow renderer never blocks terminal
// input from being read.
const pendingInputCapacity = 256

// EngineInit wraps buf as a region.Region, builds the pipeline, and
// starts the renderer thread. Writes produced each frame go to out
// (typically os.Stdout). Returns the typed region errors from
// region.Attach on a malformed buffer.
func EngineInit(buf []byte, out io.Writer, cfg WakeWatcherConfig) (*Engine, error) {
	r, err := region.Attach(buf)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		region:  r,
		watch:   NewWakeWatcher(r, cfg),
		layout:  NewLayoutEngine(r),
		paint:   NewCompositor(r),
		diff:    &DiffRenderer{},
		input:   NewInputRouter(),
		pending: make(chan region.Event, pendingInputCapacity),
		out:     out,
		done:    make(chan struct{}),
	}
	go func() {
		defer close(e.done)
		e.watch.Run(e.runFrame)
	}()
	return e, nil
}

// PushInput queues a decoded terminal event (from an external raw-mode
// reader, e.g. cmd/shmdemo's stdin loop) for dispatch on the next
// frame, and wakes the renderer so it does not wait for an unrelated
// producer write. A full queue drops the event — this channel is a
// staging area ahead of the lossy event ring, not a second copy of its
// durability guarantee.
func (e *Engine) PushInput(ev region.Event) {
	select {
	case e.pending <- ev:
		e.watch.Wake()
	default:
	}
}

// drainInput dispatches every event queued since the last frame,
// hit-testing mouse events and routing keyboard events to the
// header's focused node, per spec §4.8's capture/bubble contract.
func (e *Engine) drainInput() {
	for {
		select {
		case ev := <-e.pending:
			switch ev.Kind {
			case region.EventMouseMove, region.EventMousePress, region.EventMouseRelease, region.EventMouseWheel:
				e.input.DispatchMouse(e.region.Nodes, e.region.Events, ev)
			default:
				e.input.DispatchKey(e.region.Nodes, e.region.Header, e.region.Events, ev)
			}
		default:
			return
		}
	}
}

// runFrame executes one LayoutEngine -> Compositor -> DiffRenderer
// pass, times each stage into the header, and writes the resulting
// ANSI bytes to out. A write error is swallowed rather than killing
// the renderer thread — a broken stdout pipe should not wedge the
// wake loop producers depend on; callers that care should watch their
// own io.Writer for errors.
func (e *Engine) runFrame() {
	h := e.region.Header
	total := stageTimer(h, TimerTotalFrameUs)
	defer total()

	w, ht := h.TerminalSize()

	layoutDone := stageTimer(h, TimerLayoutUs)
	failed := e.layout.Run(e.region.Nodes, w, ht)
	layoutDone()

	fbDone := stageTimer(h, TimerFramebufferUs)
	e.paint.Paint(e.region.Nodes, e.region.Current())
	// Paint starts by clearing the framebuffer, which also erases the
	// diagnostic cells Run painted for failed roots; paint them again.
	for i := range failed {
		e.paint.PaintDiagnostic(e.region.Current(), 0, uint32(i))
	}
	fbDone()

	renderDone := stageTimer(h, TimerRenderUs)
	out := e.diff.Render(e.region)
	renderDone()

	if out != "" {
		_, _ = io.WriteString(e.out, out)
	}

	h.BumpRenderCount()
	e.drainInput()
}

// EngineWake performs the producer-side notify, equivalent to a
// producer directly setting wake_word and releasing the watcher from
// its park for producers that cannot perform the atomic store
// themselves.
func (e *Engine) EngineWake() { e.watch.Wake() }

// EngineCleanup requests the renderer thread stop, waits for it to
// finish its current frame and exit, then emits a final neutral-SGR
// reset so the terminal is not left in a styled state.
func (e *Engine) EngineCleanup() {
	e.region.Header.RequestExit()
	e.watch.Wake() // unparks a watcher currently blocked in park()
	<-e.done
	_, _ = io.WriteString(e.out, resetStr+ShowCursor())
}
