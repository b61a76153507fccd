package store

import (
	"errors"
	"sync"

	"medilearn/internal/core"
)

// ErrNotFound is returned when no session exists for an ID.
var ErrNotFound = errors.New("session not found")

// Registry holds the live session machines for this process, keyed by
// session ID.  Sessions are memory-only and vanish with the process;
// each entry is owned by exactly one user.  The registry lock only
// guards the map; transition ordering is the machine's own concern.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*core.Machine
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*core.Machine)}
}

// Put registers a machine under its session ID.
func (r *Registry) Put(id string, m *core.Machine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = m
}

// Get returns the machine for a session ID.
func (r *Registry) Get(id string) (*core.Machine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}

// Delete drops a session.  Deleting an unknown ID is a no-op.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len reports how many sessions are live.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
