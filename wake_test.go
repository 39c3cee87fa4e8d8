package tui

import (
	"testing"
	"time"
)

func TestWakeWatcherSpinWaitConsumesWakeWord(t *testing.T) {
	r := smallRegion(t, 10, 4)
	w := NewWakeWatcher(r, WakeWatcherConfig{SpinIterations: 1000, ParkTimeout: time.Millisecond})

	r.Header.Wake()
	if !w.spinWait() {
		t.Fatalf("spinWait = false, want true after Header.Wake()")
	}
	if r.Header.SwapWake() != 0 {
		t.Fatalf("wake_word still set after spinWait consumed it")
	}
}

func TestWakeWatcherSpinWaitTimesOutWithNoWork(t *testing.T) {
	r := smallRegion(t, 10, 4)
	w := NewWakeWatcher(r, WakeWatcherConfig{SpinIterations: 8, ParkTimeout: time.Millisecond})

	if w.spinWait() {
		t.Fatalf("spinWait = true, want false with no Wake() call")
	}
}

func TestWakeWatcherParkReturnsOnNotify(t *testing.T) {
	r := smallRegion(t, 10, 4)
	w := NewWakeWatcher(r, WakeWatcherConfig{SpinIterations: 1, ParkTimeout: time.Second})

	done := make(chan struct{})
	go func() {
		w.park()
		close(done)
	}()
	time.Sleep(time.Millisecond)
	w.Wake()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("park did not return after Wake()")
	}
}

func TestWakeWatcherParkReturnsOnTimeoutAlone(t *testing.T) {
	r := smallRegion(t, 10, 4)
	w := NewWakeWatcher(r, WakeWatcherConfig{SpinIterations: 1, ParkTimeout: time.Millisecond})

	done := make(chan struct{})
	go func() {
		w.park()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("park did not return after its own timeout elapsed")
	}
}

func TestWakeWatcherRunExitsOnRequestedExit(t *testing.T) {
	r := smallRegion(t, 10, 4)
	w := NewWakeWatcher(r, WakeWatcherConfig{SpinIterations: 4, ParkTimeout: time.Millisecond})

	var calls int
	r.Header.RequestExit()

	done := make(chan struct{})
	go func() {
		w.Run(func() { calls++ })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after RequestExit")
	}
	if calls != 0 {
		t.Fatalf("pipeline ran %d times, want 0 (requested_exit was already set)", calls)
	}
}

func TestWakeWatcherRunInvokesPipelineOnWake(t *testing.T) {
	r := smallRegion(t, 10, 4)
	w := NewWakeWatcher(r, WakeWatcherConfig{SpinIterations: 32, ParkTimeout: 5 * time.Millisecond})

	ran := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		w.Run(func() {
			select {
			case ran <- struct{}{}:
			default:
			}
			r.Header.RequestExit()
		})
		close(done)
	}()

	w.Wake()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatalf("pipeline never ran after Wake()")
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after pipeline requested exit")
	}
}

func TestWakeWatcherWakeCoalescesBurst(t *testing.T) {
	r := smallRegion(t, 10, 4)
	w := NewWakeWatcher(r, WakeWatcherConfig{SpinIterations: 1, ParkTimeout: time.Second})

	w.Wake()
	w.Wake()
	w.Wake()

	if got := r.Header.SwapWake(); got == 0 {
		t.Fatalf("wake_word = 0 after three Wake() calls, want nonzero")
	}
	select {
	case <-w.notify:
	default:
		t.Fatalf("notify channel empty, want one coalesced send buffered")
	}
	select {
	case <-w.notify:
		t.Fatalf("notify channel held a second buffered send, want the burst coalesced into one")
	default:
	}
}
