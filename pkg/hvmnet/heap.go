package hvmnet

import (
	"fmt"
	"sync/atomic"

	"github.com/vic/hvmnet/pkg/port"
)

// Heap is the shared, word-addressed store backing every net sharing it.
// Each Addr names exactly one Port-sized word; a two-word node (Ctr, Op,
// Mat) occupies the pair [addr, addr+1]. All accesses go through relaxed
// atomics — correctness is recovered by the linker's protocol (see
// linker.go), not by the memory model.
type Heap struct {
	words []atomic.Uint64
}

// reservedWords is the size of the permanently-reserved root cell at
// address 0; no allocator ever hands it out.
const reservedWords = 2

// NewHeap allocates a heap of the given word capacity. Every word starts
// FREE, the reserved root cell included; Boot installs the root's contents.
func NewHeap(size int) (*Heap, error) {
	if size <= reservedWords {
		return nil, fmt.Errorf("hvmnet: heap size %d too small (need > %d words)", size, reservedWords)
	}
	h := &Heap{words: make([]atomic.Uint64, size)}
	for i := range h.words {
		h.words[i].Store(uint64(port.FREE))
	}
	return h, nil
}

// Len reports the heap's word capacity.
func (h *Heap) Len() int { return len(h.words) }

// Get loads the port stored at addr.
func (h *Heap) Get(addr port.Addr) port.Port {
	return port.Port(h.words[addr].Load())
}

// Set stores p at addr.
func (h *Heap) Set(addr port.Addr, p port.Port) {
	h.words[addr].Store(uint64(p))
}

// Swap atomically stores p at addr and returns the previous value.
func (h *Heap) Swap(addr port.Addr, p port.Port) port.Port {
	return port.Port(h.words[addr].Swap(uint64(p)))
}

// CompareAndSwap atomically stores new at addr iff the current value is
// old, reporting whether it did so.
func (h *Heap) CompareAndSwap(addr port.Addr, old, new port.Port) bool {
	return h.words[addr].CompareAndSwap(uint64(old), uint64(new))
}
