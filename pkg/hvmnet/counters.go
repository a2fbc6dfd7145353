package hvmnet

import "sync/atomic"

// Counters tallies rewrites by category. A Net accumulates these locally
// (no atomics — each net owns its own counters) and they are merged into a
// shared atomic snapshot only when workers join (see GlobalCounters.Merge).
type Counters struct {
	Anni uint64
	Comm uint64
	Eras uint64
	Dref uint64
	Oper uint64
}

// Total reports the conservation-law sum: rewrites = anni+comm+eras+dref+oper.
func (c Counters) Total() uint64 {
	return c.Anni + c.Comm + c.Eras + c.Dref + c.Oper
}

// Add returns the element-wise sum of two counter sets.
func (c Counters) Add(o Counters) Counters {
	return Counters{
		Anni: c.Anni + o.Anni,
		Comm: c.Comm + o.Comm,
		Eras: c.Eras + o.Eras,
		Dref: c.Dref + o.Dref,
		Oper: c.Oper + o.Oper,
	}
}

// GlobalCounters is the parallel driver's atomic accumulator, merged into
// from each worker's local Counters at join time.
type GlobalCounters struct {
	anni, comm, eras, dref, oper atomic.Uint64
}

// Merge atomically folds a worker's local counters into the global totals.
func (g *GlobalCounters) Merge(c Counters) {
	g.anni.Add(c.Anni)
	g.comm.Add(c.Comm)
	g.eras.Add(c.Eras)
	g.dref.Add(c.Dref)
	g.oper.Add(c.Oper)
}

// Snapshot reads the current global totals.
func (g *GlobalCounters) Snapshot() Counters {
	return Counters{
		Anni: g.anni.Load(),
		Comm: g.comm.Load(),
		Eras: g.eras.Load(),
		Dref: g.dref.Load(),
		Oper: g.oper.Load(),
	}
}
