package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var ErrNotFound = errors.New("session not found")

// NewStateFunc builds the state for a new session id.
type NewStateFunc func(id string) *State

type entry struct {
	state    *State
	lastSeen time.Time
}

// Store keeps sessions in memory and forgets those idle longer than ttl.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	newState NewStateFunc
	clock    clockwork.Clock
	ttl      time.Duration
	observe  func(active int)
}

func NewStore(ttl time.Duration, clock clockwork.Clock, newState NewStateFunc) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		sessions: make(map[string]*entry),
		newState: newState,
		clock:    clock,
		ttl:      ttl,
	}
}

// WithObserver registers fn to receive the session count whenever
// sessions are added or removed. fn is called without the lock held.
func (s *Store) WithObserver(fn func(active int)) *Store {
	s.observe = fn
	return s
}

func (s *Store) Create() (string, *State) {
	id := uuid.NewString()
	state := s.newState(id)

	s.mu.Lock()
	s.sessions[id] = &entry{state: state, lastSeen: s.clock.Now()}
	n := len(s.sessions)
	s.mu.Unlock()

	s.notify(n)
	return id, state
}

// Get returns the session and marks it as used.
func (s *Store) Get(id string) (*State, error) {
	s.mu.Lock()

	e, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	if s.clock.Since(e.lastSeen) > s.ttl {
		delete(s.sessions, id)
		n := len(s.sessions)
		s.mu.Unlock()
		s.notify(n)
		return nil, ErrNotFound
	}
	e.lastSeen = s.clock.Now()
	s.mu.Unlock()
	return e.state, nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	removed := 0
	for id, e := range s.sessions {
		if s.clock.Since(e.lastSeen) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if removed > 0 {
		s.notify(n)
	}
	return removed
}

func (s *Store) notify(active int) {
	if s.observe != nil {
		s.observe(active)
	}
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := s.Sweep(); n > 0 {
				slog.Debug("expired sessions removed", "count", n)
			}
		}
	}
}
