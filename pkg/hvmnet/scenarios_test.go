package hvmnet

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vic/hvmnet/pkg/port"
)

// These exercise small, complete programs end to end -- booting a
// definition (or building a bare redex), driving it to normal form, and
// reading the result back -- rather than one interaction rule in
// isolation. They run on the single-threaded fast path, where the trace is
// easiest to follow by hand; driver_test.go's confluence test runs only the
// identity application under a worker pool.

// TestIdentityAppliedToStructuralArgument applies the self-looped identity
// combinator to another structural value (a cross-wired pair, not a bare
// number) and checks that value comes back completely unchanged -- the
// aLooped branch of annihilate doing its job regardless of what shape the
// argument takes.
func TestIdentityAppliedToStructuralArgument(t *testing.T) {
	n := newTestNet(t)
	book := n.Book()
	const id = port.Addr(1)
	book.Def(id, identityDefForTest())
	n.Boot(id)

	vx, vy := n.CreateWire()
	value := n.NewNode(port.Ctr, 0, vx, vy)

	resultX, resultH := n.CreateWire()
	app := n.NewNode(port.Ctr, 0, value, resultX)

	n.Link(n.RootValue(), app)
	n.Reduce()

	got := resolve(n, resultH)
	assert.Equal(t, port.Ctr, got.Tag())
	assert.Equal(t, value.Addr(), got.Addr())
	assert.Equal(t, vx, n.Heap().Get(got.Addr()))
	assert.Equal(t, vy, n.Heap().Get(got.Addr()+1))
}

// identityByStoredRedexDef builds a definition whose Root is a bare
// dangling wire rather than a node: the identity behavior comes entirely
// from a Redexes entry instantiate relocates and enqueues, pairing a
// self-looped Ctr(0) against a second node holding 42 and a wire out to
// Root. Nothing observes a value at Root until that stored redex actually
// fires.
//
// Layout (node*2+sub):
//
//	0: identity  Ctr(0) -- self-looped (same shape as identityDefForTest)
//	1: holder    Ctr(0) -- aux1=#42, aux2 -> node2.aux1 (Root's target)
//	2: exposed   Ctr(0) -- aux1<->aux2 (self-looped placeholder; Root names aux1)
//
// Redexes: [identity <-> holder]
func identityByStoredRedexDef() *Definition {
	const (
		nId = iota
		nHolder
		nExposed
	)
	cells := make([]port.Port, 3*2)
	cells[nId*2+0] = port.New(port.Var, 0, port.Addr(nId*2+1))
	cells[nId*2+1] = port.New(port.Var, 0, port.Addr(nId*2+0))

	cells[nHolder*2+0] = port.NewInt(42)
	cells[nHolder*2+1] = port.New(port.Var, 0, port.Addr(nExposed*2+0))

	cells[nExposed*2+0] = port.New(port.Var, 0, port.Addr(nExposed*2+1))
	cells[nExposed*2+1] = port.New(port.Var, 0, port.Addr(nExposed*2+0))

	return &Definition{
		Root: port.New(port.Var, 0, port.Addr(nExposed*2+0)),
		Cells: cells,
		Redexes: []Redex{{
			A: port.New(port.Ctr, 0, port.Addr(nId*2+0)),
			B: port.New(port.Ctr, 0, port.Addr(nHolder*2+0)),
		}},
		Labs: LabelSet{MinSafe: 0},
	}
}

// TestDefinitionStoredRedexDeliversValueThroughRoot boots a definition
// whose root is a plain wire and whose value only appears once the
// definition's own stored redex is forced -- exercising instantiate's
// Redexes relocation end to end (TestInstantiateRelocatesCellsAndRoot
// covers cell and root relocation on its own).
func TestDefinitionStoredRedexDeliversValueThroughRoot(t *testing.T) {
	n := newTestNet(t)
	book := n.Book()
	const id = port.Addr(1)
	book.Def(id, identityByStoredRedexDef())

	n.Boot(id)
	n.Expand()
	n.Reduce()

	assert.Equal(t, port.NewInt(42), resolve(n, n.RootValue()))
	assert.Equal(t, uint64(1), n.Counters().Dref)
	assert.Equal(t, uint64(1), n.Counters().Anni)
}

// curriedBinOpDef builds a two-argument curried numeric function: applying
// it to x then y (as one nested term, `(x (y result))`, not two sequential
// applications -- see below) computes x `kind` y.
//
// Layout (node*2+sub):
//
//	0: outer  Ctr(0) -- aux1=op principal (unstaged), aux2=inner principal
//	1: op     Op(kind) -- aux1 -> inner.aux1, aux2 -> op-continuation (see inner.aux2)
//	2: inner  Ctr(0) -- aux1 (op writes its staged self here), aux2 -> op.aux2
//
// Applying this to a *nested* term `outer(x, inner(y, result))` -- built
// entirely before the first reduction, so both operands already exist as
// concrete ports rather than being discovered one post-hoc Link at a time
// -- lets outer's annihilate push two genuine redexes in the same round:
// op meets x directly (first operand), and inner meets the caller's own
// inner application node-to-node (both principal), which is what lets the
// op's staged self (written into inner.aux1 by the first op interaction)
// meet y in the following round.
func curriedBinOpDef(kind port.OpKind) *Definition {
	const (
		nOuter = iota
		nOp
		nInner
	)
	cells := make([]port.Port, 3*2)
	cells[nOuter*2+0] = port.NewOp(kind, false, port.Addr(nOp*2+0))
	cells[nOuter*2+1] = port.New(port.Ctr, 0, port.Addr(nInner*2+0))

	cells[nOp*2+0] = port.New(port.Var, 0, port.Addr(nInner*2+0))
	cells[nOp*2+1] = port.ERA // overwritten before ever being read; see above

	cells[nInner*2+0] = port.ERA // overwritten before ever being read; see above
	cells[nInner*2+1] = port.New(port.Var, 0, port.Addr(nOp*2+1))

	return &Definition{
		Root:  port.New(port.Ctr, 0, port.Addr(nOuter*2+0)),
		Cells: cells,
		Labs:  LabelSet{MinSafe: 0},
	}
}

func applyCurriedBinOp(t *testing.T, kind port.OpKind, x, y int64) port.Port {
	t.Helper()
	n := newTestNet(t)
	book := n.Book()
	const id = port.Addr(1)
	book.Def(id, curriedBinOpDef(kind))
	n.Boot(id)

	resultX, resultH := n.CreateWire()
	inner := n.NewNode(port.Ctr, 0, port.NewInt(y), resultX)
	outer := n.NewNode(port.Ctr, 0, port.NewInt(x), inner)

	n.Link(n.RootValue(), outer)
	n.Reduce()

	return resolve(n, resultH)
}

// TestCurriedMultiplyAppliedAsNestedTerm mirrors `@mul = (<* a b> (a b))`
// applied to `(#3 (#4 a))`.
func TestCurriedMultiplyAppliedAsNestedTerm(t *testing.T) {
	got := applyCurriedBinOp(t, port.Mul, 3, 4)
	assert.Equal(t, port.NewInt(12), got)
}

// TestCurriedDivideAppliedAsNestedTerm mirrors `@div = (</ a b> (a b))`
// applied to `(#64 (#2 a))`.
func TestCurriedDivideAppliedAsNestedTerm(t *testing.T) {
	got := applyCurriedBinOp(t, port.Div, 64, 2)
	assert.Equal(t, port.NewInt(32), got)
}

// TestStagedOpMeetsSecondOperandDirectly covers `a & #3 ~ <* #4 a>`: an
// already-staged op (its first operand, 4, already stored) meets its
// second operand directly, with no surrounding application or duplication
// at all.
func TestStagedOpMeetsSecondOperandDirectly(t *testing.T) {
	n := newTestNet(t)
	resultX, resultH := n.CreateWire()
	op := n.NewNode(port.Op, port.Label(port.Mul)|0x10, port.NewInt(4), resultX)

	n.Link(op, port.NewInt(3))
	n.Reduce()

	assert.Equal(t, port.NewInt(12), resolve(n, resultH))
	assert.Equal(t, uint64(1), n.Counters().Oper)
}

// divModDef mirrors cmd/hvmnet's divModDef (run(x, y) = [x/y, x%y]), with
// both arguments supplied as a single nested term rather than via two
// sequential post-hoc Link calls: x is duplicated across a Div and a Mod
// op by copyNum when it meets the outer duplicator directly, and again
// for y against the inner duplicator, with the two ops' results paired
// into the exposed Ctr(1).
//
// Layout (node*2+sub):
//
//	0: outer  Ctr(0)  -- aux1=dupX principal, aux2=inner principal
//	1: dupX   Ctr(9)  -- aux1=divOp principal, aux2=modOp principal
//	2: inner  Ctr(0)  -- aux1=dupY principal, aux2=pair principal
//	3: dupY   Ctr(9)  -- aux1<->divOp.aux1, aux2<->modOp.aux1
//	4: divOp  Op(Div) -- aux1<->dupY.aux1, aux2<->pair.aux1
//	5: modOp  Op(Mod) -- aux1<->dupY.aux2, aux2<->pair.aux2
//	6: pair   Ctr(1)  -- aux1<->divOp.aux2, aux2<->modOp.aux2
func divModDef() *Definition {
	const (
		nOuter = iota
		nDupX
		nInner
		nDupY
		nDiv
		nMod
		nPair
	)
	cells := make([]port.Port, 7*2)

	cells[nOuter*2+0] = port.New(port.Ctr, 9, port.Addr(nDupX*2+0))
	cells[nOuter*2+1] = port.New(port.Ctr, 0, port.Addr(nInner*2+0))

	cells[nDupX*2+0] = port.NewOp(port.Div, false, port.Addr(nDiv*2+0))
	cells[nDupX*2+1] = port.NewOp(port.Mod, false, port.Addr(nMod*2+0))

	cells[nInner*2+0] = port.New(port.Ctr, 9, port.Addr(nDupY*2+0))
	cells[nInner*2+1] = port.New(port.Ctr, 1, port.Addr(nPair*2+0))

	cells[nDupY*2+0] = port.New(port.Var, 0, port.Addr(nDiv*2+0))
	cells[nDupY*2+1] = port.New(port.Var, 0, port.Addr(nMod*2+0))

	cells[nDiv*2+0] = port.New(port.Var, 0, port.Addr(nDupY*2+0))
	cells[nDiv*2+1] = port.New(port.Var, 0, port.Addr(nPair*2+0))

	cells[nMod*2+0] = port.New(port.Var, 0, port.Addr(nDupY*2+1))
	cells[nMod*2+1] = port.New(port.Var, 0, port.Addr(nPair*2+1))

	cells[nPair*2+0] = port.New(port.Var, 0, port.Addr(nDiv*2+1))
	cells[nPair*2+1] = port.New(port.Var, 0, port.Addr(nMod*2+1))

	return &Definition{
		Root:  port.New(port.Ctr, 0, port.Addr(nOuter*2+0)),
		Cells: cells,
		Labs:  LabelSet{MinSafe: 0},
	}
}

// TestDivModBookAppliedAsNestedTerm mirrors the arithmetic book's `run`
// applied to `#64 #3`, expecting the pair `[#21 #1]` back.
func TestDivModBookAppliedAsNestedTerm(t *testing.T) {
	n := newTestNet(t)
	book := n.Book()
	const id = port.Addr(1)
	book.Def(id, divModDef())
	n.Boot(id)

	resultX, resultH := n.CreateWire()
	inner := n.NewNode(port.Ctr, 0, port.NewInt(3), resultX)
	outer := n.NewNode(port.Ctr, 0, port.NewInt(64), inner)

	n.Link(n.RootValue(), outer)
	n.Reduce()

	pair := resolve(n, resultH)
	assert.Equal(t, port.Ctr, pair.Tag())
	assert.Equal(t, port.NewInt(21), n.Heap().Get(pair.Addr()))
	assert.Equal(t, port.NewInt(1), n.Heap().Get(pair.Addr()+1))
}
