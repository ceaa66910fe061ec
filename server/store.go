package server

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/martinemde/turing/machine"
)

// StoredMachine pairs a registered machine with its metadata. The run mutex
// serializes executions: a machine is single-threaded by contract, so only
// one run or acceptance check may drive it at a time.
type StoredMachine struct {
	ID      string
	Source  string
	Machine *machine.Machine
	AddedAt time.Time

	run sync.Mutex
}

// MachineStore is an in-memory registry of machines keyed by generated IDs.
// It is safe for concurrent use.
type MachineStore struct {
	mu       sync.RWMutex
	machines map[string]*StoredMachine
}

// NewMachineStore creates an empty store.
func NewMachineStore() *MachineStore {
	return &MachineStore{machines: make(map[string]*StoredMachine)}
}

// Add registers a machine together with the source text it was built from
// and returns the stored entry with its generated ID.
func (s *MachineStore) Add(source string, m *machine.Machine) *StoredMachine {
	s.mu.Lock()
	defer s.mu.Unlock()

	sm := &StoredMachine{
		ID:      uuid.NewString(),
		Source:  source,
		Machine: m,
		AddedAt: time.Now(),
	}
	s.machines[sm.ID] = sm
	return sm
}

// Get returns the entry for the given ID.
func (s *MachineStore) Get(id string) (*StoredMachine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sm, ok := s.machines[id]
	return sm, ok
}

// Remove deletes the entry for the given ID, reporting whether it existed.
func (s *MachineStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.machines[id]
	delete(s.machines, id)
	return ok
}

// List returns all entries, oldest first.
func (s *MachineStore) List() []*StoredMachine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*StoredMachine, 0, len(s.machines))
	for _, sm := range s.machines {
		result = append(result, sm)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].AddedAt.Equal(result[j].AddedAt) {
			return result[i].AddedAt.Before(result[j].AddedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// Len returns the number of stored machines.
func (s *MachineStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.machines)
}
