package region

import "sync/atomic"

// TextPool is an append-only UTF-8 byte arena. Writes never mutate in
// place; replacing a node's text allocates anew and abandons the
// prior bytes, which Compact later reclaims.
type TextPool struct {
	buf      []byte
	capacity uint32
	header   Header
	table    *NodeTable
}

func newTextPool(buf []byte, capacity uint32, header Header, table *NodeTable) *TextPool {
	return &TextPool{buf: buf, capacity: capacity, header: header, table: table}
}

// Write reserves len(data) bytes via fetch_add on write_ptr and
// copies data in. If the advance would exceed capacity it first
// attempts Compact, then fails with ErrTextPoolExhausted (leaving
// write_ptr unchanged) if that still does not make room.
func (p *TextPool) Write(data []byte) (offset, length uint32, err error) {
	n := uint32(len(data))
	ptr := p.header.TextPoolWritePtr()
	for {
		cur := atomic.LoadUint32(ptr)
		if cur+n > p.capacity {
			p.Compact()
			cur = atomic.LoadUint32(ptr)
			if cur+n > p.capacity {
				return 0, 0, ErrTextPoolExhausted
			}
		}
		if atomic.CompareAndSwapUint32(ptr, cur, cur+n) {
			copy(p.buf[cur:cur+n], data)
			return cur, n, nil
		}
	}
}

// Read returns a borrow of the UTF-8 slice at (offset, length). The
// returned slice aliases the pool's backing storage and must not be
// retained across a Compact call.
func (p *TextPool) Read(offset, length uint32) []byte {
	return p.buf[offset : offset+length]
}

type liveRange struct {
	nodeIndex      int32
	offset, length uint32
}

// Compact enumerates all (offset, length) references from TEXT nodes,
// slides the referenced bytes leftward to eliminate abandoned
// garbage, and rewrites each node's text_offset. Must run only while
// the renderer holds the pool for the frame it triggered — never
// concurrently with a producer Write.
func (p *TextPool) Compact() {
	var live []liveRange
	for i := uint32(0); i < p.table.maxNodes; i++ {
		idx := int32(i)
		if p.table.ComponentTypeOf(idx) != ComponentText {
			continue
		}
		n := p.table.Get(idx)
		if n.TextLength == 0 {
			continue
		}
		live = append(live, liveRange{nodeIndex: idx, offset: n.TextOffset, length: n.TextLength})
	}
	sortLiveRanges(live)

	var cursor uint32
	for _, r := range live {
		if r.offset != cursor {
			copy(p.buf[cursor:cursor+r.length], p.buf[r.offset:r.offset+r.length])
		}
		p.table.slot(r.nodeIndex)
		setTextOffset(p.table, r.nodeIndex, cursor)
		cursor += r.length
	}
	atomic.StoreUint32(p.header.TextPoolWritePtr(), cursor)
}

func setTextOffset(t *NodeTable, index int32, offset uint32) {
	s := t.slot(index)
	*u32p(s, foTextOffset) = offset
}

func sortLiveRanges(r []liveRange) {
	// Small N per frame in practice; insertion sort keeps this
	// allocation-free and avoids importing sort for a handful of
	// elements, matching the teacher's preference for plain loops
	// over small n (layout.go's sortByZIndex).
	for i := 1; i < len(r); i++ {
		for j := i; j > 0 && r[j-1].offset > r[j].offset; j-- {
			r[j-1], r[j] = r[j], r[j-1]
		}
	}
}
