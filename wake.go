package tui

import (
	"runtime"
	"time"

	"github.com/shmtui/tui/region"
)

// WakeWatcherConfig tunes the adaptive spin-then-park loop. There is
// no teacher equivalent (app.go's Run loop is a blocking stdin read,
// not a wake-driven pipeline), so these are new surface exposed as
// plain struct fields — the same idiom the teacher uses for Options
// structs elsewhere.
type WakeWatcherConfig struct {
	// SpinIterations bounds how many times the loop polls wake_word
	// with runtime.Gosched() between checks before parking.
	SpinIterations int
	// ParkTimeout is the maximum time a parked WakeWatcher waits on
	// its notify channel before re-checking wake_word and
	// requested_exit on its own.
	ParkTimeout time.Duration
}

// DefaultWakeWatcherConfig is a reasonable starting point: a short
// spin favors latency for back-to-back producer writes, and a
// sub-second park timeout keeps RequestExit responsive even if a
// Wake() notification is ever missed.
func DefaultWakeWatcherConfig() WakeWatcherConfig {
	return WakeWatcherConfig{SpinIterations: 64, ParkTimeout: 50 * time.Millisecond}
}

// WakeWatcher is the renderer-thread loop: spin briefly on wake_word,
// then park on a notify channel until the producer calls Wake (or the
// park timeout elapses, in which case it just loops and checks again)
// — the Go stand-in for spec §4.4's futex-style "spin then
// wait_on(wake_word, timeout)" contract, since Go exposes no public
// futex wait.
type WakeWatcher struct {
	header region.Header
	notify chan struct{}
	cfg    WakeWatcherConfig
}

// NewWakeWatcher builds a watcher bound to r's header.
func NewWakeWatcher(r *region.Region, cfg WakeWatcherConfig) *WakeWatcher {
	return &WakeWatcher{header: r.Header, notify: make(chan struct{}, 1), cfg: cfg}
}

// Wake performs the producer-side release sequence: the caller is
// assumed to have already published its writes (SetField/TextPool.Write
// happen-before this call), so this only flips wake_word and nudges
// the notify channel. The non-blocking send means a burst of Wake
// calls between renderer iterations coalesces into one wakeup, which
// is correct — the renderer only needs to know "there is new work",
// not how many producer writes triggered it.
func (w *WakeWatcher) Wake() {
	w.header.Wake()
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// Run executes pipeline once per detected wakeup until the header's
// requested_exit flag is set, then returns. pipeline is expected to be
// the LayoutEngine → Framebuffer → DiffRenderer → InputRouter sequence
// (engine.go's EngineInit wires exactly that).
func (w *WakeWatcher) Run(pipeline func()) {
	for {
		if w.header.RequestedExit() {
			return
		}
		if w.spinWait() {
			pipeline()
			continue
		}
		w.park()
	}
}

// spinWait polls wake_word for up to SpinIterations iterations,
// yielding the processor each time, and consumes it with SwapWake the
// moment it sees work. Returns true if it found (and consumed) work.
func (w *WakeWatcher) spinWait() bool {
	for i := 0; i < w.cfg.SpinIterations; i++ {
		if w.header.SwapWake() != 0 {
			return true
		}
		runtime.Gosched()
	}
	return false
}

// park blocks on the notify channel (or its timeout) and returns; Run
// then re-checks requested_exit and wake_word in its next spin — a missed
// notify (the send raced a full buffer that was about to be drained)
// is never fatal, only adds up to ParkTimeout of latency.
func (w *WakeWatcher) park() {
	timer := time.NewTimer(w.cfg.ParkTimeout)
	defer timer.Stop()
	select {
	case <-w.notify:
	case <-timer.C:
	}
}
