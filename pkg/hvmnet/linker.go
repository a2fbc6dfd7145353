package hvmnet

import (
	"runtime"

	"github.com/vic/hvmnet/pkg/port"
)

// link installs the wire between two ports, following the three principles
// of the atomic linking algorithm:
//
//  1. Two principal ports form a redex (or, if both are skippable, erase
//     on the spot without ever touching the bag).
//  2. Exactly one Var: write the other port directly into that Var's slot.
//  3. Two Vars: cross-install each into the other's slot — the common case
//     when wiring together a freshly-allocated structure.
//
// Single-threaded nets (Net.threaded == false) take the fast path: a plain
// store, no CAS, matching the spec's description of the single-core mode.
func (n *Net) link(a, b port.Port) {
	switch {
	case a.IsPrincipal() && b.IsPrincipal():
		if a.IsSkippable() && b.IsSkippable() {
			n.counters.Eras++
			return
		}
		n.pushRedex(a, b)
	case a.Is(port.Var) && b.Is(port.Var):
		n.halfLink(a.Addr(), b)
		n.halfLink(b.Addr(), a)
	case b.Is(port.Var):
		n.halfLink(b.Addr(), a)
	default:
		n.halfLink(a.Addr(), b)
	}
}

// halfLink resolves one side of a wire: dir is the slot a Var port names,
// val is what should end up connected there.
//
// Under contention, two threads can race to resolve opposite ends of the
// same wire concurrently. halfLink detects this by swapping LOCK into dir
// and inspecting what was there: FREE means we arrived first and simply
// install val; anything else means the far side already resolved and wrote
// its own value concurrently — the "principal rendezvous" — so instead of
// losing that value we hand both it and val to link, which reconciles them
// (forming a redex if both are now principal, chasing further Var/Red
// indirection otherwise). The slot itself is marked GONE rather than FREE
// to distinguish "raced and reconciled" from "never allocated" for anyone
// inspecting it (e.g. the expander) before the allocator recycles it.
func (n *Net) halfLink(dir port.Addr, val port.Port) {
	if !n.threaded {
		n.heap.Set(dir, val)
		return
	}
	old := n.heap.Swap(dir, port.LOCK)
	for old == port.LOCK {
		runtime.Gosched()
		old = n.heap.Swap(dir, port.LOCK)
	}
	if old == port.FREE {
		n.heap.Set(dir, val)
		return
	}
	n.heap.Set(dir, port.GONE)
	n.collapseRedChain(val)
	n.link(val, old)
}

// collapseRedChain looks at the slot p names and, if it holds a Red port,
// replaces it via CAS with the Var of the same address. Only that first hop
// is rewritten: every CAS compares against the slot's original contents, so
// later links of the chain are neither followed nor cleared. Nothing in
// this package writes Red ports (halfLink marks a contended slot GONE), so
// the slot never holds one and this is a no-op in practice.
func (n *Net) collapseRedChain(p port.Port) {
	if !n.threaded || !p.Is(port.Var) {
		return
	}
	addr := p.Addr()
	cur := n.heap.Get(addr)
	for cur.Is(port.Red) {
		next := n.heap.Get(cur.Addr())
		if !n.heap.CompareAndSwap(addr, cur, cur.Unredirect()) {
			return
		}
		cur = next
	}
}

// wireSlots cross-links two freshly-allocated, not-yet-visible slots: each
// is set to a Var naming the other. Safe to do with a plain Set (rather
// than the halfLink protocol) because nothing else can be racing to touch
// either address yet -- both were just handed to us by the allocator.
func (n *Net) wireSlots(x, y port.Addr) {
	n.heap.Set(x, port.NewVar(y))
	n.heap.Set(y, port.NewVar(x))
}

// linkSlotTo connects a freshly-allocated slot to an already-resolved port
// val, by treating the slot as a dangling Var and routing it through the
// normal link/halfLink machinery (so contention on val's side, if any, is
// still handled correctly).
func (n *Net) linkSlotTo(addr port.Addr, val port.Port) {
	n.link(port.NewVar(addr), val)
}

// safeLink is the single-value convenience wrapper used by rules that only
// know one concrete port and one addressed slot (as opposed to two
// already-resolved ports) -- e.g. directing a fresh node's aux port at
// whatever a consumed wire used to target.
func (n *Net) safeLink(dir port.Addr, val port.Port) {
	n.halfLink(dir, val)
}
