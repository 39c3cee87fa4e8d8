package region

import (
	"sync/atomic"
	"unsafe"
)

// EventKind tags what InputRouter observed on the input side.
type EventKind uint8

const (
	EventNone EventKind = iota
	EventKeyPress
	EventKeyRelease
	EventKeyRepeat
	EventMouseMove
	EventMousePress
	EventMouseRelease
	EventMouseWheel
)

// eventStride is the fixed byte size of one ring slot: kind(1) +
// consumed(1) + pad(2) + mouseX(4) + mouseY(4) + key(4) +
// targetIndex(4) + pad(4) + timestampNs(8) = 32 bytes.
const eventStride = 32

const (
	eoKind      = 0
	eoConsumed  = 1
	eoMouseX    = 4
	eoMouseY    = 8
	eoKey       = 12
	eoTarget    = 16
	eoTimestamp = 24
)

// Event is a materialized ring record.
type Event struct {
	Kind        EventKind
	Consumed    bool
	MouseX      int32
	MouseY      int32
	Key         rune
	TargetIndex int32
	TimestampNs int64
}

// EventRing is the single-producer (InputRouter) / single-consumer
// (producer-side event pump) lossy circular buffer described by the
// event-ring segment. A full ring drops the oldest unread event
// rather than blocking the writer.
type EventRing struct {
	buf      []byte
	capacity uint32
	header   Header
}

func newEventRing(buf []byte, capacity uint32, header Header) *EventRing {
	return &EventRing{buf: buf, capacity: capacity, header: header}
}

func (r *EventRing) slot(i uint32) []byte {
	off := int(i%r.capacity) * eventStride
	return r.buf[off : off+eventStride]
}

// Push writes ev at the current write cursor, advancing it. If the
// ring is full (write cursor would lap the read cursor), the oldest
// unread event is dropped by advancing the read cursor first.
func (r *EventRing) Push(ev Event) {
	w := atomic.LoadUint32(r.header.EventWriteIdx())
	rd := atomic.LoadUint32(r.header.EventReadIdx())
	if w-rd >= r.capacity {
		atomic.StoreUint32(r.header.EventReadIdx(), rd+1)
	}

	s := r.slot(w)
	s[eoKind] = byte(ev.Kind)
	s[eoConsumed] = boolByte(ev.Consumed)
	*i32p(s, eoMouseX) = ev.MouseX
	*i32p(s, eoMouseY) = ev.MouseY
	*i32p(s, eoKey) = int32(ev.Key)
	*i32p(s, eoTarget) = ev.TargetIndex
	*(*int64)(unsafe.Pointer(&s[eoTimestamp])) = ev.TimestampNs

	atomic.StoreUint32(r.header.EventWriteIdx(), w+1)
}

// Pop reads and consumes the oldest unread event. ok is false when
// the ring is empty.
func (r *EventRing) Pop() (ev Event, ok bool) {
	rd := atomic.LoadUint32(r.header.EventReadIdx())
	w := atomic.LoadUint32(r.header.EventWriteIdx())
	if rd >= w {
		return Event{}, false
	}
	s := r.slot(rd)
	ev = Event{
		Kind:        EventKind(s[eoKind]),
		Consumed:    s[eoConsumed] != 0,
		MouseX:      *i32p(s, eoMouseX),
		MouseY:      *i32p(s, eoMouseY),
		Key:         rune(*i32p(s, eoKey)),
		TargetIndex: *i32p(s, eoTarget),
		TimestampNs: *(*int64)(unsafe.Pointer(&s[eoTimestamp])),
	}
	atomic.StoreUint32(r.header.EventReadIdx(), rd+1)
	return ev, true
}

// Len reports the number of unread events currently queued.
func (r *EventRing) Len() uint32 {
	w := atomic.LoadUint32(r.header.EventWriteIdx())
	rd := atomic.LoadUint32(r.header.EventReadIdx())
	return w - rd
}
