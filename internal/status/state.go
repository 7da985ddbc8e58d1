package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/matheus3301/chatadmin/internal/bus"
)

// State is the console's authentication state.
type State string

const (
	Booting     State = "BOOTING"
	SignedOut   State = "SIGNED_OUT"
	SigningIn   State = "SIGNING_IN"
	SignedIn    State = "SIGNED_IN"
	Unavailable State = "UNAVAILABLE"
)

var labels = map[State]string{
	Booting:     "Connecting",
	SignedOut:   "Signed out",
	SigningIn:   "Signing in",
	SignedIn:    "Signed in",
	Unavailable: "Daemon unavailable",
}

// Label is the state as shown in the console header.
func (s State) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

// TransitionError reports a move the machine refused.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Booting:     {SignedOut, SignedIn, Unavailable},
	SignedOut:   {SigningIn, Unavailable},
	SigningIn:   {SignedIn, SignedOut, Unavailable},
	SignedIn:    {SignedOut, Unavailable},
	Unavailable: {Booting},
}

// Machine tracks and enforces console state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Booting state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Booting,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition moves to a new state and publishes the change. An invalid move
// returns a *TransitionError and leaves the state unchanged; moving to the
// current state is a no-op.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == to {
		return nil
	}
	if !slices.Contains(validTransitions[m.current], to) {
		return &TransitionError{From: m.current, To: to}
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:      bus.KindStatusChanged,
			Timestamp: time.Now(),
			Payload:   StatusChange{From: from, To: to},
		})
	}
	return nil
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
