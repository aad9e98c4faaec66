// Package session tracks short-lived per-session conversation state: the
// rolling window of recent utterances fed to the oracle and the mutex that
// serializes turns within one session.
//
// The registry is bounded; least-recently-used sessions are evicted once the
// capacity is reached. Durable state (the turn log, the interest score) lives
// in the database, so an evicted session merely loses its prompt window and
// continues from the logged score on its next turn.
package session

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// WindowSize is the number of recent user utterances kept per session
	// and replayed to the oracle as conversation context.
	WindowSize = 3

	// DefaultCapacity bounds the number of concurrently tracked sessions.
	DefaultCapacity = 10000
)

// State is the in-memory footprint of one session. Callers must hold the
// lock across a full turn so concurrent requests for the same session are
// applied one at a time.
type State struct {
	mu     sync.Mutex
	window []string
}

// Lock serializes turn processing for the session.
func (s *State) Lock() { s.mu.Lock() }

// Unlock releases the turn lock.
func (s *State) Unlock() { s.mu.Unlock() }

// Window returns a copy of the recent utterances, oldest first.
// Callers must hold the lock.
func (s *State) Window() []string {
	out := make([]string, len(s.window))
	copy(out, s.window)
	return out
}

// Remember appends an utterance to the window, discarding the oldest entry
// once WindowSize is exceeded. Callers must hold the lock.
func (s *State) Remember(utterance string) {
	s.window = append(s.window, utterance)
	if len(s.window) > WindowSize {
		s.window = s.window[len(s.window)-WindowSize:]
	}
}

// Registry is a bounded, concurrency-safe map of session ID to State.
type Registry struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *State]
}

// NewRegistry builds a registry holding at most capacity sessions.
// A non-positive capacity falls back to DefaultCapacity.
func NewRegistry(capacity int) (*Registry, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	cache, err := lru.New[string, *State](capacity)
	if err != nil {
		return nil, err
	}
	return &Registry{cache: cache}, nil
}

// Acquire returns the state for id, creating it on first sight. The same
// pointer is returned for every caller of the same live session, which is
// what makes the per-session lock effective.
func (r *Registry) Acquire(id string) *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.cache.Get(id); ok {
		return st
	}
	st := &State{}
	r.cache.Add(id, st)
	return st
}

// Len reports the number of currently tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Len()
}
