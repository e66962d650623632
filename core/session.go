package core

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"
)

var (
	// ErrSessionNotFound is returned by stores when no session matches a key.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists is returned by Create when the key is already taken.
	ErrSessionExists = errors.New("session already exists")
)

// SessionKey identifies a conversation. Two keys that differ in any field
// address independent sessions.
type SessionKey struct {
	AppName string `json:"app_name"`
	UserID  string `json:"user_id"`
	ID      string `json:"id"`
}

// Validate reports whether all three components are set.
func (k SessionKey) Validate() error {
	if k.AppName == "" || k.UserID == "" || k.ID == "" {
		return fmt.Errorf("incomplete session key %q", k.String())
	}
	return nil
}

func (k SessionKey) String() string { return k.AppName + "/" + k.UserID + "/" + k.ID }

// Session is a conversation container: named state slots plus an ordered
// event history. It is safe for concurrent access.
//
// Slot writes overwrite; there is no merge of nested values.
type Session struct {
	Key     SessionKey     `json:"key"`
	State   map[string]any `json:"state"`
	Events  []Event        `json:"events"`
	Created time.Time      `json:"created"`
	Updated time.Time      `json:"updated"`
	mu      sync.RWMutex
}

// NewSession creates an empty session for key.
func NewSession(key SessionKey) *Session {
	now := time.Now().UTC()
	return &Session{Key: key, State: map[string]any{}, Events: []Event{}, Created: now, Updated: now}
}

// GetState returns the value and existence flag for a state key.
func (s *Session) GetState(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.State[key]
	return v, ok
}

// SetState sets a key/value pair in session state updating the Updated timestamp.
func (s *Session) SetState(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State[key] = value
	s.Updated = time.Now().UTC()
}

// ApplyStateDelta writes every pair of delta, replacing previous values.
func (s *Session) ApplyStateDelta(delta map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.State, delta)
	s.Updated = time.Now().UTC()
}

// AddEvent appends an event to the history updating Updated timestamp.
func (s *Session) AddEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, ev)
	s.Updated = time.Now().UTC()
}

// GetEvents returns a copy of the full event slice.
func (s *Session) GetEvents() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]Event, len(s.Events))
	copy(events, s.Events)
	return events
}

// GetConversationHistory returns the human-visible exchange: user turns and
// orchestrator replies, without partial fragments or agent-internal events.
func (s *Session) GetConversationHistory() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Event, 0, len(s.Events))
	for _, ev := range s.Events {
		if ev.Content == nil || ev.IsPartial() {
			continue
		}
		if ev.Author != AuthorUser && ev.Author != AuthorOrchestrator {
			continue
		}
		res = append(res, ev)
	}
	return res
}

// UserUtterances returns the text of every user turn in order.
func (s *Session) UserUtterances() []string {
	var out []string
	for _, ev := range s.GetConversationHistory() {
		if ev.Author == AuthorUser {
			out = append(out, ev.Content.Text())
		}
	}
	return out
}

// Clone returns a deep copy of the session safe for independent mutation.
// State values are copied shallowly.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{Key: s.Key, State: make(map[string]any, len(s.State)), Events: make([]Event, len(s.Events)), Created: s.Created, Updated: s.Updated}
	maps.Copy(clone.State, s.State)
	copy(clone.Events, s.Events)
	return clone
}

// SessionStore persists sessions and their evolving state / event history.
// Implementations must be safe for concurrent use across distinct keys.
type SessionStore interface {
	Create(ctx context.Context, key SessionKey) (*Session, error)
	Get(ctx context.Context, key SessionKey) (*Session, error)
	AppendEvent(ctx context.Context, key SessionKey, event Event) error
	ApplyDelta(ctx context.Context, key SessionKey, delta map[string]any) error
	Delete(ctx context.Context, key SessionKey) error
}
