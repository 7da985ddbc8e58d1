// Package listsync keeps an in-memory copy of a remote collection that
// changes only after the matching remote call has succeeded.
package listsync

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrStale is returned by Load when a newer Load or an Invalidate
// superseded it. The list was not touched.
var ErrStale = errors.New("listsync: stale response dropped")

// List is a keyed, ordered list of T.
type List[T any] struct {
	key func(T) string

	mu     sync.RWMutex
	items  []T
	loaded bool
	// epoch changes on Invalidate and voids every call in flight.
	epoch uint64
	// loads orders Load calls so only the newest one lands.
	loads uint64
}

// New creates an empty list keyed by key.
func New[T any](key func(T) string) *List[T] {
	return &List[T]{key: key}
}

// Items returns a copy of the current items.
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.items)
}

// Len returns the number of items.
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Loaded reports whether a Load has completed since the last Invalidate.
func (l *List[T]) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Get returns the item with the given key.
func (l *List[T]) Get(id string) (T, bool) {
	return l.Find(func(item T) bool { return l.key(item) == id })
}

// Find returns the first item matching pred.
func (l *List[T]) Find(pred func(T) bool) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, item := range l.items {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Invalidate drops the contents and makes every call still in flight leave
// the list alone when it returns.
func (l *List[T]) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.epoch++
	l.items = nil
	l.loaded = false
}

// Load replaces the contents with the result of fetch.
func (l *List[T]) Load(ctx context.Context, fetch func(ctx context.Context) ([]T, error)) error {
	l.mu.Lock()
	l.loads++
	epoch, load := l.epoch, l.loads
	l.mu.Unlock()

	items, err := fetch(ctx)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.epoch != epoch || l.loads != load {
		return ErrStale
	}
	l.items = items
	l.loaded = true
	return nil
}

// Insert runs remote and appends the item it returns.
func (l *List[T]) Insert(ctx context.Context, remote func(ctx context.Context) (T, error)) (T, error) {
	epoch := l.currentEpoch()
	item, err := remote(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.epoch == epoch {
		l.items = append(l.items, item)
	}
	return item, nil
}

// Replace runs remote and swaps in the item it returns for id.
func (l *List[T]) Replace(ctx context.Context, id string, remote func(ctx context.Context) (T, error)) (T, error) {
	epoch := l.currentEpoch()
	item, err := remote(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.epoch == epoch {
		for i := range l.items {
			if l.key(l.items[i]) == id {
				l.items[i] = item
				break
			}
		}
	}
	return item, nil
}

// Remove runs remote and drops id.
func (l *List[T]) Remove(ctx context.Context, id string, remote func(ctx context.Context) error) error {
	epoch := l.currentEpoch()
	if err := remote(ctx); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.epoch == epoch {
		l.items = slices.DeleteFunc(l.items, func(item T) bool { return l.key(item) == id })
	}
	return nil
}

func (l *List[T]) currentEpoch() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.epoch
}
