// Package registry implements the process-wide ordered list of Instances
// built at init (spec §4.8): lookup by name, lookup by numeric id, and a
// short-circuiting foreach iterator.
//
// Grounded on internal/input/keymap/registry.go's Register/Get shape,
// narrowed to spec §4.8's simpler surface: names are short and the
// count small, so lookup is linear rather than indexed, exactly as the
// spec calls for.
package registry

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/inputproc/internal/errs"
)

// Entry pairs an id-bearing wrapper around a registered instance. The
// registry itself is generic over the instance type via T so it can be
// unit tested without constructing a full internal/instance.Instance.
type Entry[T any] struct {
	ID   uuid.UUID
	Name string
	Val  T
}

// Registry is a process-wide ordered list of Instances, mutated only at
// init (spec §5 "The registry is mutated only at init").
type Registry[T any] struct {
	mu      sync.RWMutex
	entries []Entry[T]
	byName  map[string]int
}

// New creates an empty Registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{byName: make(map[string]int)}
}

// Register appends a new entry, assigning it a stable uuid handle for
// logging/tracing (spec §4.8; id grounded on
// viamrobotics-rdk/robot/jobmanager/jobmanager.go's uuid-keyed jobs).
// Registering a duplicate name is rejected.
func (r *Registry[T]) Register(name string, val T) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return uuid.Nil, errs.Invalid("registry: duplicate instance name %q", name)
	}
	id := uuid.New()
	r.byName[name] = len(r.entries)
	r.entries = append(r.entries, Entry[T]{ID: id, Name: name, Val: val})
	return id, nil
}

// Get looks up an instance by name (spec §4.8 "Lookups by name; linear;
// names are short and count small").
func (r *Registry[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.Name == name {
			return e.Val, true
		}
	}
	var zero T
	return zero, false
}

// GetByIndex looks up an instance by its numeric registration index
// (spec §4.8 "by numeric id (index)").
func (r *Registry[T]) GetByIndex(i int) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.entries) {
		var zero T
		return zero, false
	}
	return r.entries[i].Val, true
}

// Len returns the number of registered instances.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// ForEach visits every entry in registration order, stopping as soon as
// fn returns a non-zero (true) result (spec §4.8 "a foreach iterator
// that short-circuits on the first non-zero callback return").
func (r *Registry[T]) ForEach(fn func(name string, val T) bool) {
	r.mu.RLock()
	entries := make([]Entry[T], len(r.entries))
	copy(entries, r.entries)
	r.mu.RUnlock()

	for _, e := range entries {
		if fn(e.Name, e.Val) {
			return
		}
	}
}
