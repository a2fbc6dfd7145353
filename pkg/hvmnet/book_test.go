package hvmnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vic/hvmnet/pkg/port"
)

// identityDefForTest mirrors cmd/hvmnet's identityDef: a single Ctr whose
// own two auxiliaries wire to each other, so applying it to any argument
// annihilates and returns that argument unchanged.
func identityDefForTest() *Definition {
	return &Definition{
		Root: port.New(port.Ctr, 0, 0),
		Cells: []port.Port{
			port.New(port.Var, 0, 1),
			port.New(port.Var, 0, 0),
		},
		Labs: LabelSet{MinSafe: 0},
	}
}

func TestBootAndDereferenceIdentity(t *testing.T) {
	n := newTestNet(t)
	book := n.Book()
	const id = port.Addr(1)
	book.Def(id, identityDefForTest())

	n.Boot(id)

	x1, h1 := n.CreateWire()
	app := n.NewNode(port.Ctr, 0, port.NewInt(42), x1)

	n.Link(n.RootValue(), app)
	n.Reduce()

	assert.Equal(t, port.NewInt(42), resolve(n, h1))
	assert.Equal(t, uint64(1), n.Counters().Dref)
	assert.Equal(t, uint64(1), n.Counters().Anni)
}

func TestBootMissingDefinitionInstallsEra(t *testing.T) {
	n := newTestNet(t)
	n.Boot(port.Addr(77))
	assert.Equal(t, port.ERA, n.RootValue())
}

func TestInstantiateRelocatesCellsAndRoot(t *testing.T) {
	n := newTestNet(t)
	def := &Definition{
		Root: port.New(port.Ctr, 0, 0),
		Cells: []port.Port{
			port.NewInt(1),
			port.NewInt(2),
		},
		Redexes: nil,
		Labs:    LabelSet{MinSafe: 0},
	}
	root, ok := n.instantiate(def)
	require.True(t, ok)
	assert.Equal(t, port.Ctr, root.Tag())
	assert.Equal(t, port.NewInt(1), n.Heap().Get(root.Addr()))
	assert.Equal(t, port.NewInt(2), n.Heap().Get(root.Addr()+1))
}

func TestBookGetMissingReturnsFalse(t *testing.T) {
	book := NewBook()
	_, ok := book.Get(port.Addr(5))
	assert.False(t, ok)
}
