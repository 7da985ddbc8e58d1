// Package edit tracks per-row inline edits and their staged values.
package edit

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
)

// ErrNotEditing is returned by Commit for a row in the Viewing state.
var ErrNotEditing = errors.New("edit: row is not being edited")

// State is a row's edit state.
type State int

const (
	Viewing State = iota
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "viewing"
}

// Abandoned is a staged edit dropped because another row started editing.
type Abandoned[V any] struct {
	ID     string
	Staged V
}

type row[V any] struct {
	staged V
	// rev changes on every Begin so a Commit can tell its edit was replaced.
	rev uint64
}

// Tracker holds the edit state of every row. Rows not in the map are
// Viewing. In exclusive mode at most one row is Editing.
type Tracker[V any] struct {
	exclusive bool

	mu   sync.Mutex
	rows map[string]*row[V]
	rev  uint64
}

// NewTracker creates a tracker.
func NewTracker[V any](exclusive bool) *Tracker[V] {
	return &Tracker[V]{exclusive: exclusive, rows: make(map[string]*row[V])}
}

// Begin moves id to Editing with initial staged. A row already being edited
// keeps its staged value. In exclusive mode the other edits are dropped and
// returned.
func (t *Tracker[V]) Begin(id string, initial V) []Abandoned[V] {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; ok {
		return nil
	}
	var dropped []Abandoned[V]
	if t.exclusive {
		for _, other := range slices.Sorted(maps.Keys(t.rows)) {
			dropped = append(dropped, Abandoned[V]{ID: other, Staged: t.rows[other].staged})
			delete(t.rows, other)
		}
	}
	t.rev++
	t.rows[id] = &row[V]{staged: initial, rev: t.rev}
	return dropped
}

// State returns the state of id.
func (t *Tracker[V]) State(id string) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; ok {
		return Editing
	}
	return Viewing
}

// Staged returns the staged value of id.
func (t *Tracker[V]) Staged(id string) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.rows[id]
	if !ok {
		var zero V
		return zero, false
	}
	return r.staged, true
}

// Stage replaces the staged value. It returns false when id is not Editing.
func (t *Tracker[V]) Stage(id string, v V) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.rows[id]
	if ok {
		r.staged = v
	}
	return ok
}

// Editing returns the ids currently being edited, sorted.
func (t *Tracker[V]) Editing() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Sorted(maps.Keys(t.rows))
}

// Cancel returns id to Viewing without writing.
func (t *Tracker[V]) Cancel(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rows, id)
}

// Reset drops every edit.
func (t *Tracker[V]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.rows)
}

// Commit validates the staged value of id and writes it. The row returns to
// Viewing only when both succeed; on error it stays Editing so the operator
// can fix the value or retry.
func (t *Tracker[V]) Commit(ctx context.Context, id string, validate func(V) error, write func(context.Context, V) error) error {
	t.mu.Lock()
	r, ok := t.rows[id]
	if !ok {
		t.mu.Unlock()
		return ErrNotEditing
	}
	staged, rev := r.staged, r.rev
	t.mu.Unlock()

	if validate != nil {
		if err := validate(staged); err != nil {
			return err
		}
	}
	if err := write(ctx, staged); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.rows[id]; ok && cur.rev == rev {
		delete(t.rows, id)
	}
	return nil
}
