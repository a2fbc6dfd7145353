package hvmnet

import "github.com/vic/hvmnet/pkg/port"

// Expand walks the net from its root, splitting across this net's tlen
// sibling workers by the bits of tid: at each Ctr node encountered within
// the first log2(tlen) levels, bit k of tid picks aux1 (0) or aux2 (1) as
// the next node to descend into. By the time every worker has run Expand,
// each owns a distinct leaf wire to seed its own redex bag from (via
// Reduce, once something forces that wire into activity) -- this is what
// lets a freshly-forked, otherwise-idle worker find work without first
// waiting on a steal from a busy sibling.
//
// A Ref encountered along the spine is forced in place: the first worker
// to reach it claims the slot with a compare-and-swap and instantiates the
// definition directly into it (no "other" port to link against yet, so
// this bypasses the ordinary link/halfLink path that dereference uses),
// then continues descending from the same address. A Ref claimed by a
// sibling is left alone; that sibling's own Expand call will continue past
// it.
func (n *Net) Expand() {
	n.expandAt(rootAddr, 0)
}

func (n *Net) expandAt(addr port.Addr, depth int) {
	totalBits := log2Ceil(n.tlen)
	cur := n.heap.Get(addr)

	if cur.Tag() == port.Ref && !cur.IsEra() {
		if n.threaded && !n.heap.CompareAndSwap(addr, cur, port.LOCK) {
			return
		}
		def, ok := n.book.Get(cur.Addr())
		if !ok {
			n.heap.Set(addr, port.ERA)
			n.counters.Dref++
			return
		}
		root, ok := n.instantiate(def)
		if !ok {
			return
		}
		n.counters.Dref++
		n.heap.Set(addr, root)
		n.expandAt(addr, depth)
		return
	}

	if depth >= totalBits || cur.Tag() != port.Ctr {
		return
	}

	if (n.tid>>(totalBits-depth-1))&1 == 0 {
		n.expandAt(cur.Addr(), depth+1)
	} else {
		n.expandAt(cur.Addr()+1, depth+1)
	}
}

// log2Ceil returns the number of bits needed to distinguish tlen workers
// (0 for tlen <= 1).
func log2Ceil(tlen int) int {
	bits := 0
	for (1 << bits) < tlen {
		bits++
	}
	return bits
}
