package testutil

import (
	"github.com/hupe1980/mailmesh/core"
)

// EventBuilder provides a fluent helper for constructing events in tests.
//
//	ev := NewEventBuilder().Author("editor").AssistantText("APPROVED").Build()
type EventBuilder struct {
	author       string
	invocationID string
	role         string
	parts        []core.Part
	actions      core.EventActions
}

// NewEventBuilder creates a builder with default author "agent".
func NewEventBuilder() *EventBuilder { return &EventBuilder{author: "agent"} }

// Author sets the author (chainable).
func (b *EventBuilder) Author(a string) *EventBuilder { b.author = a; return b }

// Invocation sets the invocation ID (chainable).
func (b *EventBuilder) Invocation(id string) *EventBuilder { b.invocationID = id; return b }

// UserText appends a text part and sets the role to user (chainable).
func (b *EventBuilder) UserText(t string) *EventBuilder {
	b.role = core.RoleUser
	b.parts = append(b.parts, core.TextPart{Text: t})
	return b
}

// AssistantText appends a text part and sets the role to assistant (chainable).
func (b *EventBuilder) AssistantText(t string) *EventBuilder {
	b.role = core.RoleAssistant
	b.parts = append(b.parts, core.TextPart{Text: t})
	return b
}

// Call appends a function call part (chainable).
func (b *EventBuilder) Call(id, name, args string) *EventBuilder {
	b.role = core.RoleAssistant
	b.parts = append(b.parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: id, Name: name, Arguments: args}})
	return b
}

// StateDelta records a slot write (chainable).
func (b *EventBuilder) StateDelta(k string, v any) *EventBuilder {
	if b.actions.StateDelta == nil {
		b.actions.StateDelta = map[string]any{}
	}
	b.actions.StateDelta[k] = v
	return b
}

// Escalate marks the event as an escalation (chainable).
func (b *EventBuilder) Escalate() *EventBuilder {
	t := true
	b.actions.Escalate = &t
	return b
}

// Build creates the event.
func (b *EventBuilder) Build() core.Event {
	ev := core.NewEvent(b.invocationID, b.author)
	ev.Actions = b.actions

	if len(b.parts) > 0 {
		ev.Content = &core.Content{Role: b.role, Parts: b.parts}
	}

	return ev
}
