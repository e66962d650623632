package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/mailmesh/core"
)

// InMemoryStore is a volatile SessionStore keeping sessions in a process
// local map. Sessions are cloned on the way in and out so callers never share
// internal state. Contents are lost when the process exits.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[core.SessionKey]*core.Session
}

var _ core.SessionStore = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[core.SessionKey]*core.Session)}
}

// Create registers a new empty session under key.
func (s *InMemoryStore) Create(ctx context.Context, key core.SessionKey) (*core.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[key]; exists {
		return nil, fmt.Errorf("%w: %s", core.ErrSessionExists, key)
	}

	sess := core.NewSession(key)
	s.sessions[key] = sess

	return sess.Clone(), nil
}

// Get returns a snapshot of the session.
func (s *InMemoryStore) Get(ctx context.Context, key core.SessionKey) (*core.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, key)
	}

	return sess.Clone(), nil
}

// AppendEvent adds ev to the session history.
func (s *InMemoryStore) AppendEvent(ctx context.Context, key core.SessionKey, ev core.Event) error {
	return s.update(ctx, key, func(sess *core.Session) { sess.AddEvent(ev) })
}

// ApplyDelta overwrites the named slots.
func (s *InMemoryStore) ApplyDelta(ctx context.Context, key core.SessionKey, delta map[string]any) error {
	if len(delta) == 0 {
		return nil
	}
	return s.update(ctx, key, func(sess *core.Session) { sess.ApplyStateDelta(delta) })
}

// Delete drops the session. Deleting an unknown key is not an error.
func (s *InMemoryStore) Delete(ctx context.Context, key core.SessionKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, key)

	return nil
}

func (s *InMemoryStore) update(ctx context.Context, key core.SessionKey, fn func(*core.Session)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrSessionNotFound, key)
	}

	fn(sess)

	return nil
}
