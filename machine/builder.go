package machine

import (
	"fmt"
	"unicode/utf8"
)

// Builder accumulates machine components in any order and constructs a
// validated Machine on demand. States referenced by transitions, final
// states, the initial state and the halt state are tracked automatically;
// the tape alphabet is derived at Create as the input alphabet plus the
// blank symbol.
type Builder struct {
	states        map[State]struct{}
	inputAlphabet map[Symbol]struct{}
	transitions   map[TransitionKey]TransitionAction
	finalStates   map[State]struct{}
	initialState  State
	hasInitial    bool
	haltState     State
	hasHalt       bool
	blank         Symbol
	hasBlank      bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	b := &Builder{}
	b.Clean()
	return b
}

// Clean resets the builder to its empty state for reuse.
func (b *Builder) Clean() {
	b.states = make(map[State]struct{})
	b.inputAlphabet = make(map[Symbol]struct{})
	b.transitions = make(map[TransitionKey]TransitionAction)
	b.finalStates = make(map[State]struct{})
	b.initialState = ""
	b.hasInitial = false
	b.haltState = ""
	b.hasHalt = false
	b.blank = ""
	b.hasBlank = false
}

// AddTransition registers the mapping (state, symbol) -> (newState,
// newSymbol, move), overwriting any previous entry for the pair. Both states
// are added to the state set; both symbols are added to the input alphabet
// unless they equal the blank symbol set so far. It fails with a
// *MalformedInputError when move is not a legal movement or a symbol is
// wider than one character.
func (b *Builder) AddTransition(state State, symbol Symbol, newState State, newSymbol Symbol, move Movement) error {
	if !move.IsValid() {
		return &MalformedInputError{Detail: fmt.Sprintf("movement %d is not a legal movement", int(move))}
	}
	if utf8.RuneCountInString(string(symbol)) > 1 {
		return &MalformedInputError{Detail: fmt.Sprintf("symbol %q is wider than one character", symbol)}
	}
	if utf8.RuneCountInString(string(newSymbol)) > 1 {
		return &MalformedInputError{Detail: fmt.Sprintf("symbol %q is wider than one character", newSymbol)}
	}

	b.states[state] = struct{}{}
	b.states[newState] = struct{}{}
	if !b.hasBlank || symbol != b.blank {
		b.inputAlphabet[symbol] = struct{}{}
	}
	if !b.hasBlank || newSymbol != b.blank {
		b.inputAlphabet[newSymbol] = struct{}{}
	}
	b.transitions[TransitionKey{State: state, Symbol: symbol}] = TransitionAction{
		State:  newState,
		Symbol: newSymbol,
		Move:   move,
	}
	return nil
}

// AddFinalState adds state to the state and final-state sets. Adding a state
// twice has no effect.
func (b *Builder) AddFinalState(state State) {
	b.states[state] = struct{}{}
	b.finalStates[state] = struct{}{}
}

// SetInitialState adds state to the state set and makes it the initial
// state. The last call wins.
func (b *Builder) SetInitialState(state State) {
	b.states[state] = struct{}{}
	b.initialState = state
	b.hasInitial = true
}

// SetBlankSymbol sets the blank symbol, replacing any previous one. The
// symbol must be exactly one character.
func (b *Builder) SetBlankSymbol(symbol Symbol) error {
	if utf8.RuneCountInString(string(symbol)) != 1 {
		return &MalformedInputError{Detail: fmt.Sprintf("blank symbol %q must be exactly one character", symbol)}
	}
	b.blank = symbol
	b.hasBlank = true
	return nil
}

// SetHaltState makes state the halt state, replacing any previous one. A
// replaced halt state that appears in no transition was only ever a
// placeholder and is dropped from the state set; one that transitions still
// reference remains a legitimate state.
func (b *Builder) SetHaltState(state State) {
	if b.hasHalt && !b.stateInTransitions(b.haltState) {
		delete(b.states, b.haltState)
	}
	b.states[state] = struct{}{}
	b.haltState = state
	b.hasHalt = true
}

func (b *Builder) stateInTransitions(state State) bool {
	for key, action := range b.transitions {
		if key.State == state || action.State == state {
			return true
		}
	}
	return false
}

// HasInitialState reports whether an initial state has been set.
func (b *Builder) HasInitialState() bool { return b.hasInitial }

// HasHaltState reports whether a halt state has been set.
func (b *Builder) HasHaltState() bool { return b.hasHalt }

// HasBlankSymbol reports whether a blank symbol has been set.
func (b *Builder) HasBlankSymbol() bool { return b.hasBlank }

// InitialState returns the initial state set so far.
func (b *Builder) InitialState() State { return b.initialState }

// HaltState returns the halt state set so far.
func (b *Builder) HaltState() State { return b.haltState }

// BlankSymbol returns the blank symbol set so far.
func (b *Builder) BlankSymbol() Symbol { return b.blank }

// Create constructs a Machine from the accumulated components. It fails
// with a *CompletionError when the initial state, blank symbol or halt
// state is unset, and propagates any construction validation failure from
// New unchanged. The builder stays usable afterwards.
func (b *Builder) Create() (*Machine, error) {
	switch {
	case !b.hasInitial:
		return nil, &CompletionError{Missing: "initial state"}
	case !b.hasBlank:
		return nil, &CompletionError{Missing: "blank symbol"}
	case !b.hasHalt:
		return nil, &CompletionError{Missing: "halt state"}
	}

	states := make([]State, 0, len(b.states))
	for s := range b.states {
		states = append(states, s)
	}
	input := make([]Symbol, 0, len(b.inputAlphabet))
	for s := range b.inputAlphabet {
		input = append(input, s)
	}
	tape := make([]Symbol, 0, len(input)+1)
	tape = append(tape, input...)
	tape = append(tape, b.blank)
	finals := make([]State, 0, len(b.finalStates))
	for s := range b.finalStates {
		finals = append(finals, s)
	}
	transitions := make(map[TransitionKey]TransitionAction, len(b.transitions))
	for k, v := range b.transitions {
		transitions[k] = v
	}

	return New(Config{
		States:        states,
		InputAlphabet: input,
		TapeAlphabet:  tape,
		Transitions:   transitions,
		InitialState:  b.initialState,
		FinalStates:   finals,
		HaltState:     b.haltState,
		Blank:         b.blank,
	})
}
