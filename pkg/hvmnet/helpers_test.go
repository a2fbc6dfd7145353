package hvmnet

import "github.com/vic/hvmnet/pkg/port"

// resolve follows a chain of Var indirections (the pass-through cells a
// CreateWire-built test handle leaves behind once its far end has been
// spliced into real structure) until it reaches a concrete, non-Var port.
// Bounded to guard against a genuine structural cycle (two aux wires
// linked straight to each other with no data ever arriving).
func resolve(n *Net, p port.Port) port.Port {
	for i := 0; i < 32 && p.Is(port.Var); i++ {
		next := n.Heap().Get(p.Addr())
		if next == p {
			break
		}
		p = next
	}
	return p
}

func newTestNet(t testingTB) *Net {
	t.Helper()
	h, err := NewHeap(1 << 12)
	if err != nil {
		t.Fatal(err)
	}
	return New(h, NewBook())
}

// testingTB is the minimal subset of *testing.T newTestNet needs, so this
// file doesn't have to import "testing" just for the helper's signature.
type testingTB interface {
	Helper()
	Fatal(args ...any)
}
