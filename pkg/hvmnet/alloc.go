package hvmnet

import "github.com/vic/hvmnet/pkg/port"

// allocUnit is the number of consecutive words handed out by a single
// Alloc call: one two-word cell, enough for a Ctr/Op/Mat node's pair of
// auxiliary ports or for a freshly-created wire's two anchors.
const allocUnit = 2

// allocator is a per-thread bump arena over a contiguous, disjoint slice
// of a shared Heap. Workers never synchronize with each other here: each
// owns its own [init, init+area) range, so the bump pointer and the
// wraparound scan need no atomics of their own.
type allocator struct {
	heap    *Heap
	init    port.Addr
	area    uint64
	next    uint64
	wrapped bool
}

func newAllocator(heap *Heap, init port.Addr, area uint64) allocator {
	return allocator{heap: heap, init: init, area: area}
}

// alloc returns the address of a fresh two-word cell, or ok=false if the
// arena is exhausted (heap pressure; see the Net-level fault reporting).
func (a *allocator) alloc() (addr port.Addr, ok bool) {
	units := a.area / allocUnit
	if units == 0 {
		return 0, false
	}
	if !a.wrapped {
		off := a.next
		a.next += allocUnit
		if a.next >= a.area {
			a.wrapped = true
			a.next = 0
		}
		return a.init + port.Addr(off), true
	}
	for i := uint64(0); i < units; i++ {
		off := a.next
		a.next += allocUnit
		if a.next >= a.area {
			a.next = 0
		}
		addr := a.init + port.Addr(off)
		if a.heap.Get(addr) == port.FREE {
			return addr, true
		}
	}
	return 0, false
}

// free reclaims a two-word cell, marking both words FREE so a later scan
// can find it again.
func (a *allocator) free(addr port.Addr) {
	a.heap.Set(addr, port.FREE)
	a.heap.Set(addr+1, port.FREE)
}
