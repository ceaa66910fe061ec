// Package machine models a single-tape deterministic Turing machine.
//
// A Machine owns a growable tape that is conceptually infinite: cells
// outside the live buffer read as the blank symbol, and the buffer grows by
// one blank cell whenever the head moves past either end. The transition
// function is partial; stepping into an uncovered (state, symbol) pair is a
// legal, typed runtime condition rather than a construction error.
//
// Machines are built either directly from a Config via New, which checks the
// construction invariants in one pass, or incrementally through a Builder,
// which accumulates states, transitions and directives in any order and
// derives the tape alphabet on Create.
//
// Usage:
//
//	b := machine.NewBuilder()
//	b.SetInitialState("start")
//	b.SetHaltState("done")
//	_ = b.SetBlankSymbol("#")
//	_ = b.AddTransition("start", "#", "done", "#", machine.NoMove)
//	m, err := b.Create()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = m.SetTape(nil, 0)
//	outcome, _ := m.Run(100)
//	fmt.Println(outcome)
//
// Execution is observable: an Observer attached to a machine is notified of
// step boundaries, head movement and tape installation, synchronously and in
// registration order. Observers must not drive the machine they observe.
package machine
