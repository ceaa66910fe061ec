package machine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpoint_NoTape_ReturnsError(t *testing.T) {
	m := newIncrementer(t)

	_, err := m.Checkpoint()

	require.Error(t, err)
	assert.IsType(t, &UnsetTapeError{}, err)
}

func TestCheckpoint_CapturesRuntimeState(t *testing.T) {
	m := newIncrementer(t)
	require.NoError(t, m.SetTape(word("100001"), 0))
	_, err := m.Run(5)
	require.NoError(t, err)

	cp, err := m.Checkpoint()
	require.NoError(t, err)

	assert.Equal(t, m.Tape(), cp.Tape)
	assert.Equal(t, m.HeadPosition(), cp.Head)
	assert.Equal(t, m.CurrentState(), cp.State)
	assert.Equal(t, 5, cp.ExecutedSteps)
	assert.WithinDuration(t, time.Now(), cp.SavedAt, time.Second)

	// The checkpoint owns its tape copy.
	cp.Tape[0] = "1"
	assert.Equal(t, Symbol("0"), m.SymbolAt(0))
}

func TestSaveCheckpoint_And_LoadCheckpoint_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	original := &Checkpoint{
		SavedAt:       time.Now().Truncate(time.Millisecond),
		Tape:          word("011#"),
		Head:          2,
		State:         "3",
		ExecutedSteps: 7,
	}

	require.NoError(t, SaveCheckpoint(original, path))

	loaded, err := LoadCheckpoint(path)
	require.NoError(t, err)

	assert.WithinDuration(t, original.SavedAt, loaded.SavedAt, time.Second)
	assert.Equal(t, original.Tape, loaded.Tape)
	assert.Equal(t, original.Head, loaded.Head)
	assert.Equal(t, original.State, loaded.State)
	assert.Equal(t, original.ExecutedSteps, loaded.ExecutedSteps)
}

func TestSaveCheckpoint_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "state.json")

	cp := &Checkpoint{Tape: word("#"), State: "1"}
	require.NoError(t, SaveCheckpoint(cp, path))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadCheckpoint_MissingFile_ReturnsError(t *testing.T) {
	_, err := LoadCheckpoint(filepath.Join(t.TempDir(), "missing.json"))

	assert.ErrorIs(t, err, ErrCheckpointNotFound)
}

func TestLoadCheckpoint_MalformedFile_ReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := LoadCheckpoint(path)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCheckpointNotFound)
}

func TestRestore_ResumesInterruptedRun(t *testing.T) {
	first := newIncrementer(t)
	require.NoError(t, first.SetTape(word("100001"), 0))
	_, err := first.Run(5)
	require.NoError(t, err)

	cp, err := first.Checkpoint()
	require.NoError(t, err)

	second := newIncrementer(t)
	require.NoError(t, second.Restore(cp))

	outcome, err := second.Run(0)
	require.NoError(t, err)
	assert.Equal(t, HaltReached, outcome)
	assert.Equal(t, 11, second.ExecutedSteps())
	assert.Equal(t, word("011111#"), second.Tape())
}

func TestRestore_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		cp   *Checkpoint
		want any
	}{
		{
			name: "symbol outside tape alphabet",
			cp:   &Checkpoint{Tape: word("1z"), Head: 0, State: "1"},
			want: &InvalidSymbolError{},
		},
		{
			name: "state outside state set",
			cp:   &Checkpoint{Tape: word("10"), Head: 0, State: "9"},
			want: &MalformedInputError{},
		},
		{
			name: "negative head",
			cp:   &Checkpoint{Tape: word("10"), Head: -1, State: "1"},
			want: &MalformedInputError{},
		},
		{
			name: "head past tape end",
			cp:   &Checkpoint{Tape: word("10"), Head: 2, State: "1"},
			want: &MalformedInputError{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newIncrementer(t)

			err := m.Restore(tt.cp)

			require.Error(t, err)
			assert.IsType(t, tt.want, err)
			assert.False(t, m.HasTape(), "failed restore must leave the machine untouched")
		})
	}
}

func TestRestore_CopiesTape(t *testing.T) {
	m := newIncrementer(t)
	cp := &Checkpoint{Tape: word("10"), Head: 0, State: "2", ExecutedSteps: 3}

	require.NoError(t, m.Restore(cp))
	cp.Tape[0] = "0"

	assert.Equal(t, Symbol("1"), m.SymbolAt(0))
	assert.Equal(t, State("2"), m.CurrentState())
	assert.Equal(t, 3, m.ExecutedSteps())
}

func TestRestore_NotifiesTapeChanged(t *testing.T) {
	m := newIncrementer(t)
	var log []string
	m.AttachObserver(&recordingObserver{name: "o", log: &log})

	cp := &Checkpoint{Tape: word("011"), Head: 2, State: "3"}
	require.NoError(t, m.Restore(cp))

	assert.Equal(t, []string{"o tape_changed 2"}, log)
}
