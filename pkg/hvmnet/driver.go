package hvmnet

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Normal drives the net to normal form, splitting work across the given
// number of workers (rounded up to a power of two; 1 forks a single worker
// that links on the single-threaded fast path, without the LOCK/GONE
// protocol). It
// returns the aggregated rewrite counters from every worker.
func (n *Net) Normal(workers int) Counters {
	if workers < 1 {
		workers = 1
	}
	tlen := nextPow2(workers)

	nets := make([]*Net, tlen)
	for i := range nets {
		nets[i] = n.Fork(i, tlen)
	}

	// A caller may have already queued redexes on n itself (e.g. linking a
	// freshly-built application against the booted root before asking for
	// normal form); Fork gives every worker an empty bag, so without this
	// those redexes would simply vanish instead of ever being reduced.
	nets[0].bag = append(nets[0].bag, n.bag...)
	n.bag = nil

	if tlen == 1 {
		nets[0].Expand()
		nets[0].Reduce()
		var global GlobalCounters
		global.Merge(nets[0].Counters())
		return global.Snapshot()
	}

	// Each round: every worker expands (first round only) and reduces its
	// own bag to local exhaustion, then pairs up with the partner its XOR
	// mask names this round and, if one side ran dry while the other still
	// has work, splits the fuller bag across the pair. A full hypercube
	// cycle (k rounds) of no transfers means nobody has anything left to
	// give anyone, so the net is as reduced as it's going to get.
	k := log2Ceil(tlen)
	idleRounds := 0
	for round := 0; idleRounds < k; round++ {
		var g errgroup.Group
		for _, w := range nets {
			w := w
			g.Go(func() error {
				if round == 0 {
					w.Expand()
				}
				w.Reduce()
				return nil
			})
		}
		_ = g.Wait()

		shift := k - 1 - (round % k)
		var moved atomic.Bool
		var g2 errgroup.Group
		for i := range nets {
			partner := i ^ (1 << shift)
			if partner <= i {
				continue // the lower-indexed half of each pair drives the swap
			}
			lo, hi := nets[i], nets[partner]
			g2.Go(func() error {
				if lo.shareWith(hi) || hi.shareWith(lo) {
					moved.Store(true)
				}
				return nil
			})
		}
		_ = g2.Wait()

		if moved.Load() {
			for _, w := range nets {
				if len(w.bag) > 0 {
					w.Reduce()
				}
			}
			idleRounds = 0
		} else {
			idleRounds++
		}
	}

	var global GlobalCounters
	for _, w := range nets {
		global.Merge(w.Counters())
	}
	return global.Snapshot()
}

// shareWith moves the back half of this net's bag onto partner's, if this
// net has more than one pending redex and partner has none. Reports
// whether a transfer happened.
func (w *Net) shareWith(partner *Net) bool {
	if len(w.bag) <= 1 || len(partner.bag) > 0 {
		return false
	}
	mid := len(w.bag) / 2
	partner.bag = append(partner.bag, w.bag[mid:]...)
	w.bag = w.bag[:mid]
	return true
}

// nextPow2 rounds n up to the nearest power of two, minimum 1.
func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
