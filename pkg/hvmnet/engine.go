package hvmnet

import "github.com/vic/hvmnet/pkg/port"

// interact rewrites one active pair, dispatching on the tag of each port.
// The switch is meant to be exhaustive over every (tag, tag) combination
// that the linker can ever enqueue as a redex; anything left over after
// the named cases is an invariant violation reported through fault.
func (n *Net) interact(a, b port.Port) {
	switch {
	case a.IsEra() && b.IsEra():
		n.counters.Eras++
	case a.IsEra() && b.Tag() == port.Ref:
		n.counters.Eras++
	case b.IsEra() && a.Tag() == port.Ref:
		n.counters.Eras++
	case a.IsEra():
		n.eraseNode(b)
	case b.IsEra():
		n.eraseNode(a)
	case a.Tag() == port.Ref:
		n.dereference(a, b)
	case b.Tag() == port.Ref:
		n.dereference(b, a)

	case a.Tag() == port.Ctr && b.Tag() == port.Ctr:
		if a.Label() == b.Label() {
			n.annihilate(a, b)
		} else {
			n.commute(a, b)
		}

	case a.Tag() == port.Ctr && b.IsNum():
		n.copyNum(a, b)
	case b.Tag() == port.Ctr && a.IsNum():
		n.copyNum(b, a)

	case a.Tag() == port.Ctr && b.Tag() == port.Op:
		if b.OpStaged() {
			n.passOp(b, a)
		} else {
			n.commute(a, b)
		}
	case b.Tag() == port.Ctr && a.Tag() == port.Op:
		if a.OpStaged() {
			n.passOp(a, b)
		} else {
			n.commute(b, a)
		}

	case a.Tag() == port.Ctr && b.Tag() == port.Mat:
		n.commute(a, b)
	case b.Tag() == port.Ctr && a.Tag() == port.Mat:
		n.commute(b, a)

	case a.Tag() == port.Op && b.IsNum():
		n.applyOp(a, b)
	case b.Tag() == port.Op && a.IsNum():
		n.applyOp(b, a)

	case a.Tag() == port.Mat && b.IsNum():
		n.applyMat(a, b)
	case b.Tag() == port.Mat && a.IsNum():
		n.applyMat(b, a)

	default:
		n.fault(unknownRedex(a, b))
	}
}

// annihilate handles Ctr(l) <-> Ctr(l): same label, so each side's two
// auxiliaries are wired straight across to the other's, and both cells
// are freed.
//
// A node whose own two aux cells wire to each other (the "(a a)" identity
// combinator) needs special handling: a1 and a2 are then the same wire
// read from its two ends, and linking them to b1/b2 independently would
// write each one into the other's about-to-be-stale slot, which nothing
// downstream ever looks at again. Splicing b1 directly to b2 (or a1 to a2,
// for the symmetric case on the other side) is what the two independent
// links would have achieved if the wire being torn down weren't also its
// own two endpoints.
func (n *Net) annihilate(a, b port.Port) {
	a1 := n.heap.Get(a.Addr())
	a2 := n.heap.Get(a.Addr() + 1)
	b1 := n.heap.Get(b.Addr())
	b2 := n.heap.Get(b.Addr() + 1)
	n.alloc.free(a.Addr())
	n.alloc.free(b.Addr())

	aLooped := a1.Is(port.Var) && a1.Addr() == a.Addr()+1 && a2.Is(port.Var) && a2.Addr() == a.Addr()
	bLooped := b1.Is(port.Var) && b1.Addr() == b.Addr()+1 && b2.Is(port.Var) && b2.Addr() == b.Addr()
	switch {
	case aLooped:
		n.link(b1, b2)
	case bLooped:
		n.link(a1, a2)
	default:
		n.link(a1, b1)
		n.link(a2, b2)
	}
	n.counters.Anni++
}

// commute handles two full nodes of differing kind/label meeting
// principal-to-principal: Ctr(l1)<->Ctr(l2) with l1 != l2, Ctr<->Op
// (unstaged) and Ctr<->Mat. Four fresh cells are allocated in a 2x2
// pattern -- two copies of a's kind, two copies of b's -- and cross-wired
// so each of a's former neighbors now faces a duplicate of b, and vice
// versa.
func (n *Net) commute(a, b port.Port) {
	a1 := n.heap.Get(a.Addr())
	a2 := n.heap.Get(a.Addr() + 1)
	b1 := n.heap.Get(b.Addr())
	b2 := n.heap.Get(b.Addr() + 1)
	n.alloc.free(a.Addr())
	n.alloc.free(b.Addr())

	n1Addr, ok1 := n.alloc.alloc()
	n2Addr, ok2 := n.alloc.alloc()
	n3Addr, ok3 := n.alloc.alloc()
	n4Addr, ok4 := n.alloc.alloc()
	if !ok1 || !ok2 || !ok3 || !ok4 {
		n.fault(ErrHeapExhausted)
		return
	}

	n.wireSlots(n1Addr, n3Addr)
	n.wireSlots(n1Addr+1, n4Addr)
	n.wireSlots(n2Addr, n3Addr+1)
	n.wireSlots(n2Addr+1, n4Addr+1)

	n1 := port.New(a.Tag(), a.Label(), n1Addr)
	n2 := port.New(a.Tag(), a.Label(), n2Addr)
	n3 := port.New(b.Tag(), b.Label(), n3Addr)
	n4 := port.New(b.Tag(), b.Label(), n4Addr)

	n.link(a1, n3)
	n.link(a2, n4)
	n.link(b1, n1)
	n.link(b2, n2)

	n.counters.Comm++
}

// eraseNode handles ERA meeting any full node. Op is special-cased: once
// staged, its aux1 slot holds a stored operand value rather than a live
// wire, so only aux2 is erased.
func (n *Net) eraseNode(node port.Port) {
	switch node.Tag() {
	case port.Op:
		if node.OpStaged() {
			aux2 := n.heap.Get(node.Addr() + 1)
			n.alloc.free(node.Addr())
			n.link(aux2, port.ERA)
		} else {
			aux1 := n.heap.Get(node.Addr())
			aux2 := n.heap.Get(node.Addr() + 1)
			n.alloc.free(node.Addr())
			n.link(aux1, port.ERA)
			n.link(aux2, port.ERA)
		}
	case port.Ctr, port.Mat:
		aux1 := n.heap.Get(node.Addr())
		aux2 := n.heap.Get(node.Addr() + 1)
		n.alloc.free(node.Addr())
		n.link(aux1, port.ERA)
		n.link(aux2, port.ERA)
	default:
		n.fault(unknownRedex(node, port.ERA))
		return
	}
	n.counters.Eras++
}

// copyNum handles Ctr<->numeric: numbers are freely duplicable, so both of
// the Ctr's auxiliaries are linked straight to the number and the Ctr cell
// is freed.
func (n *Net) copyNum(ctr, num port.Port) {
	a1 := n.heap.Get(ctr.Addr())
	a2 := n.heap.Get(ctr.Addr() + 1)
	n.alloc.free(ctr.Addr())
	n.link(a1, num)
	n.link(a2, num)
	n.counters.Comm++
}

// applyOp handles Op<->numeric, covering both op2n (the op's first
// operand arrives) and op1n (its second). USE is a meta-operation: its
// "first operand" is not data but the OpKind of the operation to actually
// perform, letting a surface-language combinator build a generic
// "apply-next-op" node that specializes itself on first use.
func (n *Net) applyOp(op, num port.Port) {
	if !op.OpStaged() {
		oldAux1 := n.heap.Get(op.Addr())
		if op.OpKind() == port.Use {
			kind := port.OpKind(num.Int()) & 0xF
			n.link(oldAux1, port.NewOp(kind, false, op.Addr()))
			n.counters.Oper++
			return
		}
		n.heap.Set(op.Addr(), num)
		n.link(oldAux1, op.Staged())
		n.counters.Oper++
		return
	}

	stored := n.heap.Get(op.Addr())
	aux2 := n.heap.Get(op.Addr() + 1)
	n.alloc.free(op.Addr())
	n.link(aux2, computeOp(op.OpKind(), stored, num))
	n.counters.Oper++
}

// passOp handles Op1<->Ctr: the op's second operand turned out to be a
// duplicator rather than a number. Three fresh cells distribute the
// partially-applied op through the combinator: two copies of the op, each
// still awaiting its second operand from one of the Ctr's former
// neighbors, and a fresh Ctr of the same label pairing their two results
// back together onto the op's original result wire.
func (n *Net) passOp(op, ctr port.Port) {
	stored := n.heap.Get(op.Addr())
	result := n.heap.Get(op.Addr() + 1)
	x := n.heap.Get(ctr.Addr())
	y := n.heap.Get(ctr.Addr() + 1)
	n.alloc.free(op.Addr())
	n.alloc.free(ctr.Addr())

	o1Addr, ok1 := n.alloc.alloc()
	o2Addr, ok2 := n.alloc.alloc()
	cAddr, ok3 := n.alloc.alloc()
	if !ok1 || !ok2 || !ok3 {
		n.fault(ErrHeapExhausted)
		return
	}

	n.heap.Set(o1Addr, stored)
	n.heap.Set(o2Addr, stored)
	n.wireSlots(o1Addr+1, cAddr)
	n.wireSlots(o2Addr+1, cAddr+1)

	n.link(x, port.New(port.Op, op.Label(), o1Addr))
	n.link(y, port.New(port.Op, op.Label(), o2Addr))
	n.link(result, port.New(port.Ctr, ctr.Label(), cAddr))

	n.counters.Comm++
}

// applyMat handles Mat<->Int: a zero value builds a pair-selector Ctr(0)
// wired to pick its first (zero-case) branch and erase its second; a
// nonzero value builds the analogous selector for the succ-case branch,
// carrying the predecessor value-1 to it. Whatever arrives down the
// "cases" wire is expected to be a matching Ctr(0) pair built by the
// surface encoding of a match expression; the two annihilate, routing the
// chosen branch to the match's result wire.
func (n *Net) applyMat(mat, num port.Port) {
	cases := n.heap.Get(mat.Addr())
	result := n.heap.Get(mat.Addr() + 1)
	n.alloc.free(mat.Addr())

	value := num.Int()
	if num.Tag() == port.F32 {
		value = int64(num.Float())
	}

	if value == 0 {
		addr, ok := n.alloc.alloc()
		if !ok {
			n.fault(ErrHeapExhausted)
			return
		}
		n.linkSlotTo(addr, result)
		n.heap.Set(addr+1, port.ERA)
		n.link(cases, port.New(port.Ctr, 0, addr))
	} else {
		innerAddr, ok := n.alloc.alloc()
		if !ok {
			n.fault(ErrHeapExhausted)
			return
		}
		n.heap.Set(innerAddr, port.NewInt(value-1))
		n.linkSlotTo(innerAddr+1, result)
		inner := port.New(port.Ctr, 0, innerAddr)

		outerAddr, ok := n.alloc.alloc()
		if !ok {
			n.fault(ErrHeapExhausted)
			return
		}
		n.heap.Set(outerAddr, port.ERA)
		n.heap.Set(outerAddr+1, inner)
		n.link(cases, port.New(port.Ctr, 0, outerAddr))
	}
	n.counters.Oper++
}

// computeOp performs the actual arithmetic/comparison/bitwise operation
// once both operands are known, dispatching on the first operand's tag
// (the two are expected to agree; a surface language is responsible for
// not mixing Int and F32 across one op chain).
func computeOp(kind port.OpKind, x, y port.Port) port.Port {
	if x.Tag() == port.F32 {
		return computeFloatOp(kind, x.Float(), y.Float())
	}
	return computeIntOp(kind, x.Int(), y.Int())
}

func boolPort(b bool) port.Port {
	if b {
		return port.NewInt(1)
	}
	return port.NewInt(0)
}

// computeIntOp wraps naturally within the 60-bit payload: NewInt truncates
// its argument to 60 bits and sign-extends it back out symmetrically, so
// ordinary int64 arithmetic followed by NewInt reproduces 60-bit two's
// complement wraparound without any extra masking.
func computeIntOp(kind port.OpKind, x, y int64) port.Port {
	switch kind {
	case port.Add:
		return port.NewInt(x + y)
	case port.Sub:
		return port.NewInt(x - y)
	case port.Mul:
		return port.NewInt(x * y)
	case port.Div:
		if y == 0 {
			return port.NewInt(-1)
		}
		return port.NewInt(x / y)
	case port.Mod:
		if y == 0 {
			return port.NewInt(-1)
		}
		return port.NewInt(x % y)
	case port.Eq:
		return boolPort(x == y)
	case port.Ne:
		return boolPort(x != y)
	case port.Lt:
		return boolPort(x < y)
	case port.Gt:
		return boolPort(x > y)
	case port.And:
		return port.NewInt(x & y)
	case port.Or:
		return port.NewInt(x | y)
	case port.Xor:
		return port.NewInt(x ^ y)
	case port.Not:
		return port.NewInt(^x)
	case port.Lsh:
		return port.NewInt(x << uint64(y&63))
	case port.Rsh:
		return port.NewInt(x >> uint64(y&63))
	default:
		return port.NewInt(0)
	}
}

func computeFloatOp(kind port.OpKind, x, y float32) port.Port {
	switch kind {
	case port.Add:
		return port.NewFloat(x + y)
	case port.Sub:
		return port.NewFloat(x - y)
	case port.Mul:
		return port.NewFloat(x * y)
	case port.Div:
		return port.NewFloat(x / y)
	case port.Mod:
		return port.NewFloat(float32(int64(x) % int64(y)))
	case port.Eq:
		return boolPort(x == y)
	case port.Ne:
		return boolPort(x != y)
	case port.Lt:
		return boolPort(x < y)
	case port.Gt:
		return boolPort(x > y)
	default:
		return computeIntOp(kind, int64(x), int64(y))
	}
}
