package machine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint is a serializable snapshot of a machine's runtime state: the
// live tape buffer, head position, current state and step counter. It does
// not carry the machine description; a checkpoint is only meaningful when
// restored into a machine built from the same description.
type Checkpoint struct {
	// SavedAt is when this checkpoint was created.
	SavedAt time.Time `json:"saved_at"`

	// Tape is the live tape buffer, leftmost cell first.
	Tape []Symbol `json:"tape"`

	// Head is the head's index into Tape.
	Head int `json:"head"`

	// State is the current state.
	State State `json:"state"`

	// ExecutedSteps is the step counter value.
	ExecutedSteps int `json:"executed_steps"`
}

// ErrCheckpointNotFound is returned when no checkpoint file exists.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// Checkpoint captures the machine's runtime state. It fails with a
// *UnsetTapeError when no tape is installed, since there is no meaningful
// position to snapshot.
func (m *Machine) Checkpoint() (*Checkpoint, error) {
	if !m.tapeSet {
		return nil, &UnsetTapeError{}
	}
	return &Checkpoint{
		SavedAt:       time.Now(),
		Tape:          m.Tape(),
		Head:          m.head,
		State:         m.current,
		ExecutedSteps: m.steps,
	}, nil
}

// Restore replaces the machine's runtime state with the checkpoint's. Every
// tape symbol must belong to the tape alphabet (*InvalidSymbolError
// otherwise), the state must belong to the state set, and the head must
// index the checkpoint tape (*MalformedInputError otherwise). A failed
// restore leaves the machine untouched. A successful one notifies observers
// via OnTapeChanged with the restored head position.
func (m *Machine) Restore(cp *Checkpoint) error {
	for _, s := range cp.Tape {
		if _, ok := m.tapeAlphabet[s]; !ok {
			return &InvalidSymbolError{Symbol: s}
		}
	}
	if _, ok := m.states[cp.State]; !ok {
		return &MalformedInputError{Detail: fmt.Sprintf("checkpoint state %q not in states", cp.State)}
	}
	if cp.Head < 0 || cp.Head >= len(cp.Tape) {
		return &MalformedInputError{Detail: fmt.Sprintf("checkpoint head %d outside tape of length %d", cp.Head, len(cp.Tape))}
	}

	tape := make([]Symbol, len(cp.Tape))
	copy(tape, cp.Tape)
	m.tape = tape
	m.tapeSet = true
	m.head = cp.Head
	m.current = cp.State
	m.steps = cp.ExecutedSteps
	m.notifyTapeChanged(cp.Head)
	return nil
}

// SaveCheckpoint serializes a checkpoint to JSON and writes it to path,
// creating parent directories as needed.
func SaveCheckpoint(cp *Checkpoint, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	return nil
}

// LoadCheckpoint reads and deserializes a checkpoint from path.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}

	return &cp, nil
}
