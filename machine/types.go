package machine

// State is an opaque machine state identifier. States carry no structure
// beyond equality; short tokens such as "q0" or "HALT" are typical.
type State string

// Symbol is a single tape cell value. Symbols sourced from text are exactly
// one character wide; the builder enforces the width.
type Symbol string

// Movement is the head's post-write action. The zero value is not a legal
// movement, so an unset Movement never passes validation.
type Movement int

const (
	// MoveLeft shifts the head one cell to the left, growing the tape when
	// the head is already on the leftmost cell.
	MoveLeft Movement = iota + 1

	// MoveRight shifts the head one cell to the right, growing the tape when
	// the head leaves the rightmost cell.
	MoveRight

	// NoMove leaves the head where it is.
	NoMove
)

var movementNames = map[Movement]string{
	MoveLeft:  "left",
	MoveRight: "right",
	NoMove:    "none",
}

// String returns a human-readable movement name.
func (m Movement) String() string {
	if name, ok := movementNames[m]; ok {
		return name
	}
	return "invalid"
}

// IsValid reports whether m is one of the three legal movements.
func (m Movement) IsValid() bool {
	_, ok := movementNames[m]
	return ok
}

// TransitionKey identifies a machine configuration: the current state paired
// with the symbol under the head.
type TransitionKey struct {
	State  State
	Symbol Symbol
}

// TransitionAction is the effect of a transition: the state to enter, the
// symbol written at the head, and the movement applied afterwards.
type TransitionAction struct {
	State  State
	Symbol Symbol
	Move   Movement
}

// RunOutcome is the three-way integer-coded result of Run.
type RunOutcome int

const (
	// HaltReached means the machine entered the halt state.
	HaltReached RunOutcome = iota

	// StepLimitReached means a bounded run hit its step limit before halting.
	StepLimitReached

	// UnknownTransition means no transition was defined for the machine's
	// configuration. The machine keeps that configuration for inspection.
	UnknownTransition
)

var runOutcomeNames = map[RunOutcome]string{
	HaltReached:       "halt_reached",
	StepLimitReached:  "step_limit_reached",
	UnknownTransition: "unknown_transition",
}

// String returns the outcome name.
func (o RunOutcome) String() string {
	if name, ok := runOutcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Acceptance is the three-way result of AcceptsWord.
type Acceptance int

const (
	// Indeterminate means the run hit its step limit before terminating.
	Indeterminate Acceptance = iota

	// Accepted means the run terminated with the machine in a final state.
	Accepted

	// Rejected means the run terminated with the machine outside the final
	// state set.
	Rejected
)

var acceptanceNames = map[Acceptance]string{
	Indeterminate: "indeterminate",
	Accepted:      "accepted",
	Rejected:      "rejected",
}

// String returns the acceptance name.
func (a Acceptance) String() string {
	if name, ok := acceptanceNames[a]; ok {
		return name
	}
	return "unknown"
}

// Config holds the eight components of a machine description. New validates
// a Config against the construction invariants and copies every set and map,
// so a Config can be reused or mutated after construction.
type Config struct {
	// States is the full state set, including the halt state.
	States []State

	// InputAlphabet is the set of symbols words may be written in.
	// It must be a subset of TapeAlphabet.
	InputAlphabet []Symbol

	// TapeAlphabet is the set of symbols tape cells may hold.
	TapeAlphabet []Symbol

	// Transitions is the partial transition function. Missing keys are a
	// legal runtime condition, not a construction error.
	Transitions map[TransitionKey]TransitionAction

	// InitialState is where execution starts. Must be in States.
	InitialState State

	// FinalStates encode word acceptance. Must be a subset of States.
	FinalStates []State

	// HaltState stops execution immediately. Must be in States.
	HaltState State

	// Blank is the implicit content of every unwritten tape cell. Must be
	// in TapeAlphabet.
	Blank Symbol
}
