package testutil

import (
	"github.com/hupe1980/mailmesh/core"
)

// Key returns the session key tests use for id.
func Key(id string) core.SessionKey {
	return core.SessionKey{AppName: "app", UserID: "user", ID: id}
}

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder("sess-1").State("k","v").Events(ev1, ev2).Build()
type SessionBuilder struct {
	key    core.SessionKey
	state  map[string]any
	events []core.Event
}

// NewSessionBuilder creates a builder for the session Key(id).
func NewSessionBuilder(id string) *SessionBuilder {
	return &SessionBuilder{key: Key(id), state: map[string]any{}}
}

// State sets or overwrites a state slot (chainable).
func (b *SessionBuilder) State(key string, val any) *SessionBuilder {
	b.state[key] = val
	return b
}

// Events appends events to the session history (chainable).
func (b *SessionBuilder) Events(evs ...core.Event) *SessionBuilder {
	b.events = append(b.events, evs...)
	return b
}

// Exchange appends a user turn followed by an orchestrator reply (chainable).
func (b *SessionBuilder) Exchange(user, reply string) *SessionBuilder {
	b.events = append(b.events, core.NewUserMessageEvent("", user))
	if reply != "" {
		b.events = append(b.events, NewEventBuilder().Author(core.AuthorOrchestrator).AssistantText(reply).Build())
	}
	return b
}

// Build returns a *core.Session with pre-populated state and events.
func (b *SessionBuilder) Build() *core.Session {
	s := core.NewSession(b.key)
	s.ApplyStateDelta(b.state)

	for _, ev := range b.events {
		s.AddEvent(ev)
	}

	return s
}
