package hvmnet

import (
	"errors"
	"fmt"

	"github.com/vic/hvmnet/pkg/port"
)

// ErrHeapExhausted is the fault raised (and logged, see Net.SetFaultHandler) when a
// thread's arena has no free cell left to allocate. The runtime makes no
// attempt at garbage collection beyond what annihilation already frees.
var ErrHeapExhausted = errors.New("hvmnet: heap exhausted")

// FaultHandler is notified of a run-time fault before the reducer
// terminates it. Used by internal/telemetry to log structured events;
// nil (the default) means faults are silent until they panic.
type FaultHandler func(err error)

// SetFaultHandler installs f as this net's fault handler.
func (n *Net) SetFaultHandler(f FaultHandler) { n.onFault = f }

// fault reports err to the installed handler, if any, then panics: per the
// spec, an unknown redex combination or heap exhaustion is an invariant
// violation the surface language's type system is expected to preclude,
// and there is no recovery path across the worker barrier.
func (n *Net) fault(err error) {
	if n.onFault != nil {
		n.onFault(err)
	}
	panic(err)
}

// unknownRedex reports the specific pair that violated the exhaustive
// dispatch table in interact.
func unknownRedex(a, b port.Port) error {
	return fmt.Errorf("hvmnet: unknown redex combination %s/%s", a.Tag(), b.Tag())
}
