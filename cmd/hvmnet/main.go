// Command hvmnet is a minimal driver for the interaction-combinator
// engine in pkg/hvmnet: it builds a small, hand-written Book of example
// definitions in process (textual parsing is out of scope, see
// SPEC_FULL.md), boots and reduces each one, and reports rewrite counters.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vic/hvmnet/internal/config"
	"github.com/vic/hvmnet/internal/telemetry"
	"github.com/vic/hvmnet/pkg/hvmnet"
	"github.com/vic/hvmnet/pkg/port"
)

func main() {
	workers := flag.Int("workers", 0, "reduction workers (0 = GOMAXPROCS, 1 = single-threaded)")
	trace := flag.Int("trace", 256, "recent-event ring buffer capacity")
	cfgPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *trace >= 0 {
		cfg.TraceCapacity = *trace
	}

	log := telemetry.New(os.Stderr, cfg.TraceCapacity)

	book := buildBook()

	run(log, cfg, book, "identity", defIdentity, []int64{42}, 1)
	run(log, cfg, book, "double", defDouble, []int64{21}, 1)
	run(log, cfg, book, "divmod", defDivMod, []int64{64, 3}, 2)
}

// Definition ids in the demo book.
const (
	defIdentity port.Addr = iota
	defDouble
	defDivMod
)

func buildBook() *hvmnet.Book {
	book := hvmnet.NewBook()
	book.Def(defIdentity, identityDef())
	book.Def(defDouble, doubleDef())
	book.Def(defDivMod, divModDef())
	return book
}

// identityDef builds `@identity = (a a)`: a single Ctr whose own two
// auxiliaries are wired to each other, so applying it to any argument
// annihilates and returns that argument unchanged.
func identityDef() *hvmnet.Definition {
	cells := []port.Port{
		port.New(port.Var, 0, 1), // node0.aux1 -> node0.aux2
		port.New(port.Var, 0, 0), // node0.aux2 -> node0.aux1
	}
	return &hvmnet.Definition{
		Root: port.New(port.Ctr, 0, 0),
		Cells: cells,
		Labs:  hvmnet.LabelSet{MinSafe: 0},
	}
}

// doubleDef builds a one-argument function computing 2*x: the root Ctr's
// aux1 is a staged Mul op with its first operand (2) already stored, aux2
// is that op's result wire. Applying the definition to x annihilates the
// caller's application node against the root, feeding x straight into the
// staged op.
func doubleDef() *hvmnet.Definition {
	const opNode = 1 // local node index of the Mul op cell
	cells := []port.Port{
		port.NewOp(port.Mul, true, localAddr(opNode, 0)), // node0.aux1 = op principal
		port.New(port.Var, 0, localAddr(opNode, 1)),      // node0.aux2 -> op.aux2 (result)
		port.NewInt(2),                                   // op.aux1 = stored first operand
		port.New(port.Var, 0, localAddr(0, 1)),           // op.aux2 -> node0.aux2
	}
	return &hvmnet.Definition{
		Root:  port.New(port.Ctr, 0, 0),
		Cells: cells,
		Labs:  hvmnet.LabelSet{MinSafe: 0},
	}
}

// divModDef builds the two-argument, curried `run(x, y) = [x/y, x%y]`:
// applying it once (to x) fans x out into a Div op and a Mod op and
// returns a partially-applied function awaiting y; applying that (to y)
// fans y out the same way and pairs the two ops' results into a Ctr(1),
// read back as `[quotient remainder]`.
//
// Node layout (each two Cells entries, node*2+sub):
//
//	0: outer application Ctr(0) -- aux1=dupX, aux2=innerFn
//	1: dupX        Ctr(9)       -- aux1=divOp principal, aux2=modOp principal
//	2: innerFn     Ctr(0)       -- aux1=dupY, aux2=resultPair
//	3: dupY        Ctr(9)       -- aux1<->divOp.aux1, aux2<->modOp.aux1
//	4: divOp       Op(Div)      -- aux1<->dupY.aux1, aux2<->resultPair.aux1
//	5: modOp       Op(Mod)      -- aux1<->dupY.aux2, aux2<->resultPair.aux2
//	6: resultPair  Ctr(1)       -- aux1<->divOp.aux2, aux2<->modOp.aux2
const (
	dupLabel = 9 // distinct from the application/result labels so it never annihilates with them
)

func divModDef() *hvmnet.Definition {
	const (
		nApp = iota
		nDupX
		nInner
		nDupY
		nDiv
		nMod
		nPair
	)
	cells := make([]port.Port, 7*2)

	cells[localIdx(nApp, 0)] = port.New(port.Ctr, dupLabel, localAddr(nDupX, 0))
	cells[localIdx(nApp, 1)] = port.New(port.Ctr, 0, localAddr(nInner, 0))

	cells[localIdx(nDupX, 0)] = port.NewOp(port.Div, false, localAddr(nDiv, 0))
	cells[localIdx(nDupX, 1)] = port.NewOp(port.Mod, false, localAddr(nMod, 0))

	cells[localIdx(nInner, 0)] = port.New(port.Ctr, dupLabel, localAddr(nDupY, 0))
	cells[localIdx(nInner, 1)] = port.New(port.Ctr, 1, localAddr(nPair, 0))

	cells[localIdx(nDupY, 0)] = port.New(port.Var, 0, localAddr(nDiv, 0))
	cells[localIdx(nDupY, 1)] = port.New(port.Var, 0, localAddr(nMod, 0))

	cells[localIdx(nDiv, 0)] = port.New(port.Var, 0, localAddr(nDupY, 0))
	cells[localIdx(nDiv, 1)] = port.New(port.Var, 0, localAddr(nPair, 0))

	cells[localIdx(nMod, 0)] = port.New(port.Var, 0, localAddr(nDupY, 1))
	cells[localIdx(nMod, 1)] = port.New(port.Var, 0, localAddr(nPair, 1))

	cells[localIdx(nPair, 0)] = port.New(port.Var, 0, localAddr(nDiv, 1))
	cells[localIdx(nPair, 1)] = port.New(port.Var, 0, localAddr(nMod, 1))

	return &hvmnet.Definition{
		Root:  port.New(port.Ctr, 0, localAddr(nApp, 0)),
		Cells: cells,
		Labs:  hvmnet.LabelSet{MinSafe: 0},
	}
}

func localIdx(node, sub int) int        { return node*2 + sub }
func localAddr(node, sub int) port.Addr { return port.Addr(localIdx(node, sub)) }

// run boots id, applies args in sequence via fresh application Ctr(0)
// nodes, reduces to normal form with cfg.Workers, and prints the rewrite
// counters plus a shallow dump of the result port.
func run(log *telemetry.Logger, cfg config.Config, book *hvmnet.Book, name string, id port.Addr, args []int64, resultArity int) {
	heap, err := hvmnet.NewHeap(int(cfg.HeapWords))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	net := hvmnet.New(heap, book)
	net.SetFaultHandler(log.Fault)
	net.Boot(id)

	result := net.RootValue()
	for _, arg := range args {
		a, b := net.CreateWire()
		app := net.NewNode(port.Ctr, 0, port.NewInt(arg), a)
		net.Link(result, app)
		result = b
	}

	start := time.Now()
	counters := net.Normal(cfg.Workers)
	elapsed := time.Since(start)
	log.RewriteRate(counters.Total(), elapsed)

	fmt.Printf("%s: rewrites=%d (anni=%d comm=%d eras=%d dref=%d oper=%d) in %v\n",
		name, counters.Total(), counters.Anni, counters.Comm, counters.Eras, counters.Dref, counters.Oper, elapsed)
	dumpResult(net, result, resultArity)
}

// dumpResult prints the tag/value of the final result port and, for a
// pair result (resultArity == 2), its two auxiliaries -- a deliberately
// shallow stand-in for the out-of-scope AST readback.
func dumpResult(net *hvmnet.Net, p port.Port, resultArity int) {
	p = resolve(net, p)
	if resultArity == 2 && p.Tag() == port.Ctr {
		a := resolve(net, net.Heap().Get(p.Addr()))
		b := resolve(net, net.Heap().Get(p.Addr()+1))
		fmt.Printf("  -> [%s %s]\n", describe(a), describe(b))
		return
	}
	fmt.Printf("  -> %s\n", describe(p))
}

func resolve(net *hvmnet.Net, p port.Port) port.Port {
	for p.Is(port.Var) {
		next := net.Heap().Get(p.Addr())
		if next == p {
			break
		}
		p = next
	}
	return p
}

func describe(p port.Port) string {
	if p.IsNum() {
		if p.Tag() == port.F32 {
			return fmt.Sprintf("#%g", p.Float())
		}
		return fmt.Sprintf("#%d", p.Int())
	}
	return fmt.Sprintf("%s(%d)", p.Tag(), p.Addr())
}
