package status

import (
	"errors"
	"testing"

	"github.com/matheus3301/chatadmin/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Booting {
		t.Errorf("initial state = %s, want BOOTING", m.Current())
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		path []State
	}{
		{[]State{SignedOut}},
		{[]State{SignedIn}},
		{[]State{Unavailable, Booting}},
		{[]State{SignedOut, SigningIn, SignedIn}},
		{[]State{SignedOut, SigningIn, SignedOut}},
		{[]State{SignedIn, SignedOut, SigningIn, SignedIn}},
		{[]State{SignedIn, Unavailable, Booting, SignedIn}},
	}
	for _, tt := range tests {
		name := ""
		for _, s := range tt.path {
			name += "->" + string(s)
		}
		t.Run(name, func(t *testing.T) {
			m := NewMachine(nil)
			for _, s := range tt.path {
				if err := m.Transition(s); err != nil {
					t.Fatalf("Transition(%s) error = %v", s, err)
				}
			}
			if want := tt.path[len(tt.path)-1]; m.Current() != want {
				t.Errorf("state = %s, want %s", m.Current(), want)
			}
		})
	}
}

func TestInvalidTransition(t *testing.T) {
	m := NewMachine(nil)
	err := m.Transition(SigningIn)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("Transition(BOOTING -> SIGNING_IN) error = %v, want *TransitionError", err)
	}
	if te.From != Booting || te.To != SigningIn {
		t.Errorf("error = %+v", te)
	}
	_ = m.Transition(SignedIn)
	if err := m.Transition(SigningIn); err == nil {
		t.Error("Transition(SIGNED_IN -> SIGNING_IN) should fail; sign out first")
	}
	if m.Current() != SignedIn {
		t.Errorf("state = %s, want SIGNED_IN (should not have changed)", m.Current())
	}
}

func TestSameStateIsNoop(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("console.", 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(Booting); err != nil {
		t.Fatalf("Transition(BOOTING -> BOOTING) error = %v", err)
	}
	select {
	case evt := <-ch:
		t.Errorf("unexpected event %v", evt)
	default:
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("console.", 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(SignedOut); err != nil {
		t.Fatal(err)
	}

	evt := <-ch
	if evt.Kind != bus.KindStatusChanged {
		t.Errorf("event kind = %q, want %q", evt.Kind, bus.KindStatusChanged)
	}
	change, ok := evt.Payload.(StatusChange)
	if !ok {
		t.Fatalf("payload type = %T, want StatusChange", evt.Payload)
	}
	if change.From != Booting || change.To != SignedOut {
		t.Errorf("change = %v -> %v, want BOOTING -> SIGNED_OUT", change.From, change.To)
	}
}

func TestLabel(t *testing.T) {
	if got := Unavailable.Label(); got != "Daemon unavailable" {
		t.Errorf("Unavailable.Label() = %q", got)
	}
	if got := State("OTHER").Label(); got != "OTHER" {
		t.Errorf("unknown label = %q", got)
	}
}
