package machine

import "fmt"

// Invariant names one of the construction rules checked by New.
type Invariant string

const (
	InvariantInputAlphabet     Invariant = "input_alphabet"
	InvariantBlankSymbol       Invariant = "blank_symbol"
	InvariantInitialState      Invariant = "initial_state"
	InvariantFinalStates       Invariant = "final_states"
	InvariantHaltState         Invariant = "halt_state"
	InvariantTransitionStates  Invariant = "transition_states"
	InvariantTransitionSymbols Invariant = "transition_symbols"
	InvariantMovements         Invariant = "movements"
)

// ValidationError reports a construction invariant violation. Invariant
// identifies the violated rule and Detail names the offending value.
type ValidationError struct {
	Invariant Invariant
	Detail    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid machine (%s): %s", e.Invariant, e.Detail)
}

// HaltStateError reports a step attempted on a machine already in its halt
// state.
type HaltStateError struct {
	State State
}

func (e *HaltStateError) Error() string {
	return fmt.Sprintf("machine halted in state %q", e.State)
}

// UnsetTapeError reports a step attempted before any tape was set.
type UnsetTapeError struct{}

func (e *UnsetTapeError) Error() string {
	return "no tape set"
}

// InvalidSymbolError reports a symbol outside the machine's tape alphabet.
type InvalidSymbolError struct {
	Symbol Symbol
}

func (e *InvalidSymbolError) Error() string {
	return fmt.Sprintf("symbol %q not in tape alphabet", e.Symbol)
}

// UnknownTransitionError reports a configuration the transition function
// does not cover. The machine is left exactly as it was, so the offending
// pair can be inspected.
type UnknownTransitionError struct {
	State  State
	Symbol Symbol
}

func (e *UnknownTransitionError) Error() string {
	return fmt.Sprintf("no transition for state %q reading %q", e.State, e.Symbol)
}

// CompletionError reports a Create call on a builder that is still missing a
// required component.
type CompletionError struct {
	Missing string
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("machine incomplete: no %s set", e.Missing)
}

// MalformedInputError reports a builder argument of the wrong shape, such as
// an illegal movement or a symbol wider than one character.
type MalformedInputError struct {
	Detail string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: %s", e.Detail)
}
