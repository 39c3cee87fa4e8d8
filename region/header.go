package region

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"
)

// HeaderVersion is the compile-time contract version. Attach fails
// with ErrVersionMismatch when a region's stored version differs.
const HeaderVersion uint32 = 1

// Header field byte offsets, fixed per the binary layout contract.
// Everything from 0x00 to headerSize is little-endian.
const (
	offVersion           = 0x00
	offNodeCount         = 0x04
	offMaxNodes          = 0x08
	offTerminalWidth     = 0x0C
	offTerminalHeight    = 0x10
	offWakeWord          = 0x14
	offRenderCount       = 0x18
	offTextPoolWritePtr  = 0x20
	offTextPoolCapacity  = 0x24
	offStageTimersStart  = 0x28 // 7 × u32
	offEventWriteIdx     = 0x44
	offEventReadIdx      = 0x48
	offRequestedExit     = 0x4C
	offFocusedNodeIndex  = 0x50
	offMaxViewportWidth  = 0x54
	offMaxViewportHeight = 0x58
	headerSize           = 0x100
	numStageTimers       = 7
)

// Stage timer slot indices, in header order.
const (
	TimerSignal = iota
	TimerBufferWrite
	TimerNotify
	TimerLayoutUs
	TimerFramebufferUs
	TimerRenderUs
	TimerTotalFrameUs
)

// Header is a view over the first headerSize bytes of a region's
// backing storage. All accessors address the underlying bytes
// directly; there is no cached copy, so two Header values over the
// same backing slice observe each other's writes.
type Header struct {
	buf []byte
}

func newHeader(buf []byte) Header {
	return Header{buf: buf[:headerSize:headerSize]}
}

func (h Header) u32At(off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&h.buf[off]))
}

func (h Header) u64At(off int) *uint64 {
	return (*uint64)(unsafe.Pointer(&h.buf[off]))
}

func (h Header) i32At(off int) *int32 {
	return (*int32)(unsafe.Pointer(&h.buf[off]))
}

// Version returns the header's stored contract version (plain read;
// written once at Create and never mutated afterward).
func (h Header) Version() uint32 { return binary.LittleEndian.Uint32(h.buf[offVersion:]) }

func (h Header) setVersion(v uint32) { binary.LittleEndian.PutUint32(h.buf[offVersion:], v) }

// NodeCount returns one past the highest slot index Alloc has handed
// out; Release does not lower it.
func (h Header) NodeCount() uint32 { return atomic.LoadUint32(h.u32At(offNodeCount)) }

func (h Header) setNodeCount(v uint32) { atomic.StoreUint32(h.u32At(offNodeCount), v) }

// MaxNodes returns the node-table capacity chosen at init.
func (h Header) MaxNodes() uint32 { return binary.LittleEndian.Uint32(h.buf[offMaxNodes:]) }

func (h Header) setMaxNodes(v uint32) { binary.LittleEndian.PutUint32(h.buf[offMaxNodes:], v) }

// TerminalSize returns the current viewport in cells.
func (h Header) TerminalSize() (width, height uint32) {
	return atomic.LoadUint32(h.u32At(offTerminalWidth)), atomic.LoadUint32(h.u32At(offTerminalHeight))
}

// SetTerminalSize records a new viewport. DiffRenderer notices the
// changed size on its next Render and performs the full resync itself.
func (h Header) SetTerminalSize(width, height uint32) {
	atomic.StoreUint32(h.u32At(offTerminalWidth), width)
	atomic.StoreUint32(h.u32At(offTerminalHeight), height)
}

// WakeWord is the atomic word WakeWatcher spins/parks on: 0 = idle,
// 1 = pending work.
func (h Header) WakeWord() *int32 { return h.i32At(offWakeWord) }

// Wake performs the producer-side release-store sequence: publish is
// assumed already done by the caller via SetField/TextPool.Write,
// this call only flips the wake word.
func (h Header) Wake() {
	atomic.StoreInt32(h.WakeWord(), 1)
}

// SwapWake atomically reads and clears the wake word (the WakeWatcher
// step-1 operation), returning the pre-swap value.
func (h Header) SwapWake() int32 {
	return atomic.SwapInt32(h.WakeWord(), 0)
}

// RenderCount is the monotonically increasing completed-frame
// sequence number, incremented with release ordering by the renderer.
func (h Header) RenderCount() uint64 { return atomic.LoadUint64(h.u64At(offRenderCount)) }

// BumpRenderCount increments the completed-frame counter. Called once
// per finished renderer pass (engine.go's runFrame), never per stage.
func (h Header) BumpRenderCount() { atomic.AddUint64(h.u64At(offRenderCount), 1) }

// MaxViewport returns the framebuffer capacity reserved at Create
// time — fixed for the region's lifetime, unlike TerminalSize which
// tracks the current (possibly smaller) logical viewport within that
// reservation.
func (h Header) MaxViewport() (width, height uint32) {
	return binary.LittleEndian.Uint32(h.buf[offMaxViewportWidth:]), binary.LittleEndian.Uint32(h.buf[offMaxViewportHeight:])
}

func (h Header) setMaxViewport(width, height uint32) {
	binary.LittleEndian.PutUint32(h.buf[offMaxViewportWidth:], width)
	binary.LittleEndian.PutUint32(h.buf[offMaxViewportHeight:], height)
}

// TextPoolWritePtr is the next free byte offset in the text arena.
func (h Header) TextPoolWritePtr() *uint32 { return h.u32At(offTextPoolWritePtr) }

// TextPoolCapacity returns the arena size in bytes.
func (h Header) TextPoolCapacity() uint32 {
	return binary.LittleEndian.Uint32(h.buf[offTextPoolCapacity:])
}

func (h Header) setTextPoolCapacity(v uint32) {
	binary.LittleEndian.PutUint32(h.buf[offTextPoolCapacity:], v)
}

// StageTimer reads one of the seven per-stage counters (microseconds,
// except TimerSignal/TimerBufferWrite/TimerNotify which are
// nanoseconds per the header contract).
func (h Header) StageTimer(slot int) uint32 {
	return atomic.LoadUint32(h.u32At(offStageTimersStart + 4*slot))
}

// SetStageTimer stores one of the seven per-stage counters.
func (h Header) SetStageTimer(slot int, v uint32) {
	atomic.StoreUint32(h.u32At(offStageTimersStart+4*slot), v)
}

// EventWriteIdx / EventReadIdx are the SPSC event-ring cursors.
func (h Header) EventWriteIdx() *uint32 { return h.u32At(offEventWriteIdx) }
func (h Header) EventReadIdx() *uint32  { return h.u32At(offEventReadIdx) }

// RequestedExit reports whether cooperative shutdown has been
// requested. Checked once per WakeWatcher loop iteration.
func (h Header) RequestedExit() bool {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&h.buf[offRequestedExit]))) != 0
}

// RequestExit sets the shutdown flag; the renderer observes it on its
// next loop iteration and does not abort an in-flight frame.
func (h Header) RequestExit() {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&h.buf[offRequestedExit])), 1)
}

// FocusedNodeIndex returns the node-table slot index currently holding
// keyboard focus, or NoIndex if nothing is focused.
func (h Header) FocusedNodeIndex() int32 {
	return atomic.LoadInt32((*int32)(unsafe.Pointer(&h.buf[offFocusedNodeIndex])))
}

// SetFocusedNodeIndex updates the header's focus pointer, the single
// piece of global-looking state the contract allows (§8's
// "no process-wide singletons required" carve-out): InputRouter's tab
// cycling (FocusNext) sets focus through this one call; mouse dispatch
// does not change focus.
func (h Header) SetFocusedNodeIndex(index int32) {
	atomic.StoreInt32((*int32)(unsafe.Pointer(&h.buf[offFocusedNodeIndex])), index)
}
