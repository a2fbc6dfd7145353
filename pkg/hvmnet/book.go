package hvmnet

import "github.com/vic/hvmnet/pkg/port"

// LabelSet caches, for a Definition, the minimum label a Ctr node can carry
// and still be guaranteed safe to commute against any use of this
// definition without first dereferencing it -- the value cached in a Ref
// port's label field (Port.Label, per Port.NewRef).
type LabelSet struct {
	MinSafe port.Label
}

// Definition is a compact closed sub-net, relocatable in constant work per
// cell: Root is the port exposed to whatever links against the Ref, Cells
// holds the template ports of every non-root node as a flat, word-indexed
// list (pairs [2k, 2k+1] are one node's two auxiliary words), and Redexes
// lists active pairs to enqueue on instantiation. Any Var, Red, Ctr, Op or
// Mat port appearing in Root/Cells/Redexes carries a *local* word index in
// its address field rather than a real heap address -- see adjust.
type Definition struct {
	Root    port.Port
	Cells   []port.Port
	Redexes []Redex
	Labs    LabelSet
}

// Book is the sealed mapping from definition id (an Addr, as carried in a
// Ref port) to Definition. It is built up before any reduction starts and
// never mutated during reduction; concurrent Get calls need no locking.
type Book struct {
	defs map[port.Addr]*Definition
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{defs: make(map[port.Addr]*Definition)}
}

// Def registers a definition under id, returning the Ref port that refers
// to it. Must not be called once the book is in use by a live reduction.
func (b *Book) Def(id port.Addr, def *Definition) port.Port {
	b.defs[id] = def
	return port.NewRef(id, def.Labs.MinSafe)
}

// Get looks up a definition by id.
func (b *Book) Get(id port.Addr) (*Definition, bool) {
	d, ok := b.defs[id]
	return d, ok
}

// adjust relocates a single template port: numeric and Ref ports are
// absolute already and pass through unchanged; every other tag carries a
// local word index (node = idx/2, sub = idx%2) that gets rewritten to the
// real heap address the matching node was allocated at.
func adjust(p port.Port, locs []port.Addr) port.Port {
	if p.IsNum() || p.Tag() == port.Ref {
		return p
	}
	idx := uint64(p.Addr())
	node, sub := idx/2, idx%2
	return port.New(p.Tag(), p.Label(), locs[node]+port.Addr(sub))
}

// instantiate allocates fresh cells for every non-root node in def,
// relocates its templates onto them, enqueues its redexes, and returns the
// relocated root port -- the shared core of dereference (run-time
// discovery of a Ref) and expandAt (the initial spine-forcing pass, which
// has no "other" port to link against and installs the result directly).
func (n *Net) instantiate(def *Definition) (port.Port, bool) {
	numNodes := len(def.Cells) / 2
	locs := make([]port.Addr, numNodes)
	for k := 0; k < numNodes; k++ {
		addr, ok := n.alloc.alloc()
		if !ok {
			n.fault(ErrHeapExhausted)
			return port.ERA, false
		}
		locs[k] = addr
	}

	for i, tmpl := range def.Cells {
		node, sub := i/2, i%2
		n.heap.Set(locs[node]+port.Addr(sub), adjust(tmpl, locs))
	}

	for _, r := range def.Redexes {
		n.pushRedex(adjust(r.A, locs), adjust(r.B, locs))
	}

	return adjust(def.Root, locs), true
}

// dereference expands a Ref against some other principal port other,
// instantiating its definition with freshly relocated addresses and
// linking the relocated root against other. Missing definitions link other
// as inert against ERA, counting one dref rewrite, per the spec's error
// handling for dangling references.
func (n *Net) dereference(ref, other port.Port) {
	def, ok := n.book.Get(ref.Addr())
	if !ok {
		n.counters.Dref++
		n.link(other, port.ERA)
		return
	}

	root, ok := n.instantiate(def)
	if !ok {
		return
	}
	n.counters.Dref++
	n.link(root, other)
}
