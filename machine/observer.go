package machine

import "sync"

// Observer receives engine notifications. All callbacks run synchronously on
// the goroutine driving the machine, in observer registration order. An
// observer must not call Step or Run on the machine notifying it.
type Observer interface {
	// OnStepStart fires after a transition is resolved but before the step
	// mutates the machine. It carries the transition's resulting state and
	// symbol, not the pair that was read.
	OnStepStart(state State, symbol Symbol)

	// OnStepEnd fires once the step completed, with the entered state, the
	// symbol written at the head, and the movement applied.
	OnStepEnd(state State, written Symbol, move Movement)

	// OnTapeChanged fires after a tape is installed. headPos is the
	// requested head position, which may be negative.
	OnTapeChanged(headPos int)

	// OnHeadMoved fires after a step whenever the head index changed.
	OnHeadMoved(newPos, oldPos int)
}

// observerList keeps observers in attach order. Attaching an observer twice
// is a no-op, as is detaching one that was never attached.
type observerList struct {
	mu        sync.RWMutex
	observers []Observer
}

func (l *observerList) attach(o Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.observers {
		if existing == o {
			return
		}
	}
	l.observers = append(l.observers, o)
}

func (l *observerList) detach(o Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, existing := range l.observers {
		if existing == o {
			l.observers = append(l.observers[:i], l.observers[i+1:]...)
			return
		}
	}
}

// snapshot copies the current list so dispatch never holds the lock.
func (l *observerList) snapshot() []Observer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Observer, len(l.observers))
	copy(out, l.observers)
	return out
}

func (l *observerList) count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.observers)
}

// AttachObserver registers o for engine notifications. Attaching the same
// observer again is a no-op.
func (m *Machine) AttachObserver(o Observer) {
	m.observers.attach(o)
}

// DetachObserver removes o. Detaching an observer that is not attached is a
// no-op.
func (m *Machine) DetachObserver(o Observer) {
	m.observers.detach(o)
}

// ObserverCount returns the number of attached observers.
func (m *Machine) ObserverCount() int {
	return m.observers.count()
}

func (m *Machine) notifyStepStart(state State, symbol Symbol) {
	for _, o := range m.observers.snapshot() {
		o.OnStepStart(state, symbol)
	}
}

func (m *Machine) notifyStepEnd(state State, written Symbol, move Movement) {
	for _, o := range m.observers.snapshot() {
		o.OnStepEnd(state, written, move)
	}
}

func (m *Machine) notifyTapeChanged(headPos int) {
	for _, o := range m.observers.snapshot() {
		o.OnTapeChanged(headPos)
	}
}

func (m *Machine) notifyHeadMoved(newPos, oldPos int) {
	for _, o := range m.observers.snapshot() {
		o.OnHeadMoved(newPos, oldPos)
	}
}
