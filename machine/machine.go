package machine

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Machine is a single-tape deterministic Turing machine. The state set,
// alphabets and transition function are fixed at construction; the tape,
// head position, current state and step counter mutate as the machine runs.
//
// A Machine is not safe for concurrent use. All operations run to completion
// on the calling goroutine, including observer dispatch.
type Machine struct {
	states        map[State]struct{}
	inputAlphabet map[Symbol]struct{}
	tapeAlphabet  map[Symbol]struct{}
	transitions   map[TransitionKey]TransitionAction
	initialState  State
	finalStates   map[State]struct{}
	haltState     State
	blank         Symbol

	tape    []Symbol
	tapeSet bool
	head    int
	current State
	steps   int

	observers observerList
}

// New validates cfg and constructs a machine positioned at the initial state
// with no tape installed. Every set and map in cfg is copied, so cfg may be
// reused or mutated afterwards. A violated construction rule is reported as
// a *ValidationError naming the rule and the offending value.
func New(cfg Config) (*Machine, error) {
	m := &Machine{
		states:        make(map[State]struct{}, len(cfg.States)),
		inputAlphabet: make(map[Symbol]struct{}, len(cfg.InputAlphabet)),
		tapeAlphabet:  make(map[Symbol]struct{}, len(cfg.TapeAlphabet)),
		transitions:   make(map[TransitionKey]TransitionAction, len(cfg.Transitions)),
		finalStates:   make(map[State]struct{}, len(cfg.FinalStates)),
		initialState:  cfg.InitialState,
		haltState:     cfg.HaltState,
		blank:         cfg.Blank,
	}
	for _, s := range cfg.States {
		m.states[s] = struct{}{}
	}
	for _, s := range cfg.InputAlphabet {
		m.inputAlphabet[s] = struct{}{}
	}
	for _, s := range cfg.TapeAlphabet {
		m.tapeAlphabet[s] = struct{}{}
	}
	for k, v := range cfg.Transitions {
		m.transitions[k] = v
	}
	for _, s := range cfg.FinalStates {
		m.finalStates[s] = struct{}{}
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	m.current = cfg.InitialState
	return m, nil
}

func (m *Machine) validate() error {
	for s := range m.inputAlphabet {
		if _, ok := m.tapeAlphabet[s]; !ok {
			return &ValidationError{
				Invariant: InvariantInputAlphabet,
				Detail:    fmt.Sprintf("input symbol %q not in tape alphabet", s),
			}
		}
	}
	if _, ok := m.tapeAlphabet[m.blank]; !ok {
		return &ValidationError{
			Invariant: InvariantBlankSymbol,
			Detail:    fmt.Sprintf("blank symbol %q not in tape alphabet", m.blank),
		}
	}
	if _, ok := m.states[m.initialState]; !ok {
		return &ValidationError{
			Invariant: InvariantInitialState,
			Detail:    fmt.Sprintf("initial state %q not in states", m.initialState),
		}
	}
	for s := range m.finalStates {
		if _, ok := m.states[s]; !ok {
			return &ValidationError{
				Invariant: InvariantFinalStates,
				Detail:    fmt.Sprintf("final state %q not in states", s),
			}
		}
	}
	if _, ok := m.states[m.haltState]; !ok {
		return &ValidationError{
			Invariant: InvariantHaltState,
			Detail:    fmt.Sprintf("halt state %q not in states", m.haltState),
		}
	}
	for key, action := range m.transitions {
		if _, ok := m.states[key.State]; !ok {
			return &ValidationError{
				Invariant: InvariantTransitionStates,
				Detail:    fmt.Sprintf("transition state %q not in states", key.State),
			}
		}
		if _, ok := m.states[action.State]; !ok {
			return &ValidationError{
				Invariant: InvariantTransitionStates,
				Detail:    fmt.Sprintf("transition target state %q not in states", action.State),
			}
		}
		if _, ok := m.tapeAlphabet[key.Symbol]; !ok {
			return &ValidationError{
				Invariant: InvariantTransitionSymbols,
				Detail:    fmt.Sprintf("transition symbol %q not in tape alphabet", key.Symbol),
			}
		}
		if _, ok := m.tapeAlphabet[action.Symbol]; !ok {
			return &ValidationError{
				Invariant: InvariantTransitionSymbols,
				Detail:    fmt.Sprintf("transition write symbol %q not in tape alphabet", action.Symbol),
			}
		}
		if !action.Move.IsValid() {
			return &ValidationError{
				Invariant: InvariantMovements,
				Detail:    fmt.Sprintf("transition for state %q reading %q has an illegal movement", key.State, key.Symbol),
			}
		}
	}
	return nil
}

// SetTape installs tape as the machine's storage and positions the head.
// Every symbol must belong to the tape alphabet; the first violation is
// reported as a *InvalidSymbolError and leaves the machine untouched.
//
// A negative headPos left-pads the buffer with that many blanks and pins the
// head to 0. A headPos at or beyond the end right-pads with blanks until the
// position exists (an empty tape becomes a single blank cell). Installing a
// tape never resets the current state or the step counter.
func (m *Machine) SetTape(tape []Symbol, headPos int) error {
	for _, s := range tape {
		if _, ok := m.tapeAlphabet[s]; !ok {
			return &InvalidSymbolError{Symbol: s}
		}
	}

	switch {
	case headPos < 0:
		buf := make([]Symbol, 0, len(tape)-headPos)
		for i := 0; i < -headPos; i++ {
			buf = append(buf, m.blank)
		}
		buf = append(buf, tape...)
		m.tape = buf
		m.head = 0
	case headPos >= len(tape):
		buf := make([]Symbol, len(tape), headPos+1)
		copy(buf, tape)
		if len(buf) == 0 {
			buf = append(buf, m.blank)
		}
		for len(buf) <= headPos {
			buf = append(buf, m.blank)
		}
		m.tape = buf
		m.head = headPos
	default:
		buf := make([]Symbol, len(tape))
		copy(buf, tape)
		m.tape = buf
		m.head = headPos
	}
	m.tapeSet = true
	m.notifyTapeChanged(headPos)
	return nil
}

// SetAtInitialState forces the current state back to the initial state. The
// tape and the step counter are left alone.
func (m *Machine) SetAtInitialState() {
	m.current = m.initialState
}

// ResetExecutedSteps zeroes the executed-step counter.
func (m *Machine) ResetExecutedSteps() {
	m.steps = 0
}

// Step executes one transition. It fails with *HaltStateError when the
// machine is already halted, *UnsetTapeError when no tape is installed, and
// *UnknownTransitionError when the transition function has no entry for the
// current state and the symbol under the head. A failed step mutates nothing
// and notifies no observers.
//
// A successful step notifies OnStepStart, writes the new symbol, enters the
// new state, applies the movement (growing the tape at either end as
// needed), then notifies OnStepEnd and, if the head index changed,
// OnHeadMoved. The step counter increments last.
func (m *Machine) Step() error {
	if m.current == m.haltState {
		return &HaltStateError{State: m.current}
	}
	if !m.tapeSet {
		return &UnsetTapeError{}
	}
	key := TransitionKey{State: m.current, Symbol: m.tape[m.head]}
	action, ok := m.transitions[key]
	if !ok {
		return &UnknownTransitionError{State: key.State, Symbol: key.Symbol}
	}

	m.notifyStepStart(action.State, action.Symbol)

	m.tape[m.head] = action.Symbol
	m.current = action.State

	oldHead := m.head
	switch action.Move {
	case MoveLeft:
		if m.head == 0 {
			m.tape = append([]Symbol{m.blank}, m.tape...)
		} else {
			m.head--
		}
	case MoveRight:
		m.head++
		if m.head == len(m.tape) {
			m.tape = append(m.tape, m.blank)
		}
	}

	m.notifyStepEnd(action.State, action.Symbol, action.Move)
	if m.head != oldHead {
		m.notifyHeadMoved(m.head, oldHead)
	}
	m.steps++
	return nil
}

// Run drives the machine by repeated steps. With maxSteps > 0 it performs at
// most that many steps; reaching the halt state at or before the bound
// reports HaltReached, exhausting the bound without halting reports
// StepLimitReached. With maxSteps <= 0 it runs unbounded until the machine
// halts or hits an undefined transition, which reports UnknownTransition.
// Any other step failure is returned as the error and the outcome is
// meaningless.
func (m *Machine) Run(maxSteps int) (RunOutcome, error) {
	if maxSteps > 0 {
		for i := 0; i < maxSteps; i++ {
			if err := m.Step(); err != nil {
				return runOutcomeOf(err)
			}
		}
		if m.Halted() {
			return HaltReached, nil
		}
		return StepLimitReached, nil
	}
	for !m.Halted() {
		if err := m.Step(); err != nil {
			return runOutcomeOf(err)
		}
	}
	return HaltReached, nil
}

func runOutcomeOf(err error) (RunOutcome, error) {
	var haltErr *HaltStateError
	if errors.As(err, &haltErr) {
		return HaltReached, nil
	}
	var unknownErr *UnknownTransitionError
	if errors.As(err, &unknownErr) {
		return UnknownTransition, nil
	}
	return 0, err
}

// AcceptsWord reports whether the machine accepts word. It snapshots the
// tape, head, current state and step counter, installs word as a fresh tape
// with the head at 0, runs with the given bound, and restores the snapshot
// before returning, so the call leaves no observable trace. The restore is
// silent: observers see the trial run but not the rollback.
//
// A run that terminates (halt or undefined transition) yields Accepted when
// the machine ended in a final state and Rejected otherwise. A bounded run
// that hits its limit yields Indeterminate. The current state is not reset
// first; call SetAtInitialState beforehand to test acceptance from the
// start.
func (m *Machine) AcceptsWord(word []Symbol, maxSteps int) (Acceptance, error) {
	savedTape := make([]Symbol, len(m.tape))
	copy(savedTape, m.tape)
	savedTapeSet := m.tapeSet
	savedHead := m.head
	savedState := m.current
	savedSteps := m.steps

	if err := m.SetTape(word, 0); err != nil {
		return Indeterminate, err
	}
	defer func() {
		m.tape = savedTape
		m.tapeSet = savedTapeSet
		m.head = savedHead
		m.current = savedState
		m.steps = savedSteps
	}()

	outcome, err := m.Run(maxSteps)
	if err != nil {
		return Indeterminate, err
	}
	if outcome == StepLimitReached {
		return Indeterminate, nil
	}
	if m.InFinalState() {
		return Accepted, nil
	}
	return Rejected, nil
}

// CurrentState returns the machine's current state.
func (m *Machine) CurrentState() State { return m.current }

// InitialState returns the state execution starts from.
func (m *Machine) InitialState() State { return m.initialState }

// HaltState returns the state that stops execution.
func (m *Machine) HaltState() State { return m.haltState }

// BlankSymbol returns the symbol filling unwritten tape cells.
func (m *Machine) BlankSymbol() Symbol { return m.blank }

// ExecutedSteps returns the number of successful steps since construction or
// the last ResetExecutedSteps.
func (m *Machine) ExecutedSteps() int { return m.steps }

// HeadPosition returns the head's index into the live tape buffer.
func (m *Machine) HeadPosition() int { return m.head }

// TapeSize returns the length of the live tape buffer.
func (m *Machine) TapeSize() int { return len(m.tape) }

// HasTape reports whether a tape has been installed.
func (m *Machine) HasTape() bool { return m.tapeSet }

// Halted reports whether the current state is the halt state.
func (m *Machine) Halted() bool { return m.current == m.haltState }

// InFinalState reports whether the current state is a final state.
func (m *Machine) InFinalState() bool {
	_, ok := m.finalStates[m.current]
	return ok
}

// SymbolAt returns the symbol at tape position pos. Positions outside the
// live buffer read as blank: the tape is conceptually infinite. A machine
// with no tape installed reads blank everywhere.
func (m *Machine) SymbolAt(pos int) Symbol {
	if !m.tapeSet || pos < 0 || pos >= len(m.tape) {
		return m.blank
	}
	return m.tape[pos]
}

// Tape returns a copy of the live tape buffer, leftmost cell first.
func (m *Machine) Tape() []Symbol {
	out := make([]Symbol, len(m.tape))
	copy(out, m.tape)
	return out
}

// States returns the state set, sorted.
func (m *Machine) States() []State {
	out := make([]State, 0, len(m.states))
	for s := range m.states {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FinalStates returns the final state set, sorted.
func (m *Machine) FinalStates() []State {
	out := make([]State, 0, len(m.finalStates))
	for s := range m.finalStates {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// InputAlphabet returns the input alphabet, sorted.
func (m *Machine) InputAlphabet() []Symbol {
	return sortedSymbols(m.inputAlphabet)
}

// TapeAlphabet returns the tape alphabet, sorted.
func (m *Machine) TapeAlphabet() []Symbol {
	return sortedSymbols(m.tapeAlphabet)
}

// Transitions returns a copy of the transition function.
func (m *Machine) Transitions() map[TransitionKey]TransitionAction {
	out := make(map[TransitionKey]TransitionAction, len(m.transitions))
	for k, v := range m.transitions {
		out[k] = v
	}
	return out
}

// String renders the machine description, one component per line, with
// states, symbols and transitions in sorted order.
func (m *Machine) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "states: %s\n", joinStates(m.States()))
	fmt.Fprintf(&b, "input alphabet: %s\n", joinSymbols(m.InputAlphabet()))
	fmt.Fprintf(&b, "tape alphabet: %s\n", joinSymbols(m.TapeAlphabet()))
	fmt.Fprintf(&b, "blank symbol: %s\n", m.blank)
	fmt.Fprintf(&b, "initial state: %s\n", m.initialState)
	fmt.Fprintf(&b, "final states: %s\n", joinStates(m.FinalStates()))
	fmt.Fprintf(&b, "halt state: %s\n", m.haltState)
	b.WriteString("transitions:\n")
	keys := make([]TransitionKey, 0, len(m.transitions))
	for k := range m.transitions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].State != keys[j].State {
			return keys[i].State < keys[j].State
		}
		return keys[i].Symbol < keys[j].Symbol
	})
	for _, k := range keys {
		a := m.transitions[k]
		fmt.Fprintf(&b, "  (%s, %s) -> (%s, %s, %s)\n", k.State, k.Symbol, a.State, a.Symbol, a.Move)
	}
	return b.String()
}

func sortedSymbols(set map[Symbol]struct{}) []Symbol {
	out := make([]Symbol, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func joinStates(states []State) string {
	parts := make([]string, len(states))
	for i, s := range states {
		parts[i] = string(s)
	}
	return strings.Join(parts, " ")
}

func joinSymbols(symbols []Symbol) string {
	parts := make([]string, len(symbols))
	for i, s := range symbols {
		parts[i] = string(s)
	}
	return strings.Join(parts, " ")
}
