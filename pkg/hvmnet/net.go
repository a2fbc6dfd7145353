// Package hvmnet implements the parallel interaction-combinator reduction
// engine: the heap and allocator, the atomic linker, the interaction rule
// dispatch table, the definition book, and the fork/reduce/expand/steal
// driver that drives a net to normal form.
package hvmnet

import "github.com/vic/hvmnet/pkg/port"

// rootAddr is the permanently-reserved slot holding the net's root wire.
const rootAddr = port.Addr(0)

// Redex is an unordered pair of principal ports awaiting interaction.
type Redex struct {
	A, B port.Port
}

// Net is one thread's view of a reduction: a shared Heap and Book, a
// private bump allocator over a disjoint arena, a private redex bag, and
// private rewrite counters. A worker net is forked from a parent at the
// start of parallel reduction (see driver.go) and its counters are merged
// back at the end.
type Net struct {
	heap *Heap
	book *Book

	alloc    allocator
	bag      []Redex
	counters Counters

	root port.Port

	threaded bool
	tid      int
	tlen     int

	onFault FaultHandler
}

// New creates a fresh single-threaded net over the given heap, owning the
// whole heap (minus the reserved root cell) as its allocation arena.
func New(heap *Heap, book *Book) *Net {
	return &Net{
		heap:  heap,
		book:  book,
		alloc: newAllocator(heap, reservedWords, uint64(heap.Len()-reservedWords)),
		root:  port.NewVar(rootAddr),
	}
}

// Boot installs a reference to defID as the net's root, ready to be forced
// by Reduce/Expand/Normal.
func (n *Net) Boot(defID port.Addr) {
	def, ok := n.book.Get(defID)
	if !ok {
		n.heap.Set(rootAddr, port.ERA)
		return
	}
	n.heap.Set(rootAddr, port.NewRef(defID, def.Labs.MinSafe))
}

// Root returns the net's root port (always a Var at the reserved address).
func (n *Net) Root() port.Port { return n.root }

// RootValue returns whatever is currently installed at the root address
// (the Ref/ERA Boot set, or whatever a prior interaction left behind) --
// as opposed to Root, which always returns a constant Var naming that
// address. A caller that wants to link something against the net's
// current root contents (rather than name the root slot as one more
// dangling wire end) needs this instead of Root.
func (n *Net) RootValue() port.Port { return n.heap.Get(rootAddr) }

// Heap exposes the underlying shared heap, e.g. for readback.
func (n *Net) Heap() *Heap { return n.heap }

// Book exposes the net's definition book.
func (n *Net) Book() *Book { return n.book }

// Counters reports this net's rewrite tallies.
func (n *Net) Counters() Counters { return n.counters }

// Link connects two ports known by value; exposed for external
// collaborators building a net by hand (e.g. a host/AST encoder), matching
// the spec's "AST encoder... writes a root wire into the runtime net using
// link/safe_link" interface.
func (n *Net) Link(a, b port.Port) { n.link(a, b) }

// SafeLink connects a slot address to a port value. Used when only one
// side of a connection has been materialized as a concrete port (the
// "Trg::Dir(slot) / Trg::Ptr(value)" distinction the host layer makes).
func (n *Net) SafeLink(dir port.Addr, val port.Port) { n.safeLink(dir, val) }

// CreateWire allocates a fresh two-word cell and returns the pair of Var
// ports naming its two words, cross-linked so that each names the other as
// its (initial) neighbor.
func (n *Net) CreateWire() (a, b port.Port) {
	addr, ok := n.alloc.alloc()
	if !ok {
		return port.ERA, port.ERA
	}
	a = port.NewVar(addr)
	b = port.NewVar(addr + 1)
	n.heap.Set(addr, b)
	n.heap.Set(addr+1, a)
	return a, b
}

// NewNode allocates a fresh two-word cell and returns its principal port,
// with aux1/aux2 set to the given contents. A minimal complement to
// Link/SafeLink/CreateWire for a collaborator (e.g. the application nodes
// cmd/hvmnet's run builds, or a test) that needs to build a tagged structural
// node rather than just a dangling wire.
func (n *Net) NewNode(tag port.Tag, label port.Label, aux1, aux2 port.Port) port.Port {
	addr, ok := n.alloc.alloc()
	if !ok {
		n.fault(ErrHeapExhausted)
		return port.ERA
	}
	n.heap.Set(addr, aux1)
	n.heap.Set(addr+1, aux2)
	return port.New(tag, label, addr)
}

// Fork derives a worker net sharing this net's heap and book, with its own
// disjoint allocator arena and empty redex bag. tid identifies the worker
// among tlen total workers (both used to partition the heap and to key the
// expander's traversal, see driver.go/expander.go).
func (n *Net) Fork(tid, tlen int) *Net {
	total := uint64(n.heap.Len() - reservedWords)
	area := total / uint64(tlen)
	init := reservedWords + port.Addr(area)*port.Addr(tid)
	if tid == tlen-1 {
		// last worker absorbs any remainder from integer division
		area = total - area*uint64(tlen-1)
	}
	worker := &Net{
		heap:     n.heap,
		book:     n.book,
		alloc:    newAllocator(n.heap, init, area),
		root:     n.root,
		threaded: tlen > 1,
		tid:      tid,
		tlen:     tlen,
		onFault:  n.onFault,
	}
	// Start in the allocator's FREE-scan phase: the parent may already have
	// allocated cells inside this arena (e.g. an application built before
	// Normal), and the scan skips every cell whose first word is not FREE.
	worker.alloc.wrapped = true
	return worker
}

// pushRedex appends a redex to this net's local bag.
func (n *Net) pushRedex(a, b port.Port) {
	n.bag = append(n.bag, Redex{A: a, B: b})
}

// BagLen reports the number of pending redexes in this net's local bag.
func (n *Net) BagLen() int { return len(n.bag) }
