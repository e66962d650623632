// Package flow runs the request -> model -> tool cycle of a model agent.
//
// A flow assembles each model request through an ordered chain of request
// processors (instructions, contents, tools), executes at most one tool call
// per model response and finishes with validated text written to the agent's
// output slot. Every event is committed through the run context before the
// next request is built, so the following call sees the tool's effects.
package flow

import (
	"errors"
	"time"

	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/model"
	"github.com/hupe1980/mailmesh/tool"
)

var (
	// ErrMalformedOutput is returned when the final text still fails the output
	// validator after all retries.
	ErrMalformedOutput = errors.New("malformed agent output")
	// ErrMultipleToolCalls is returned when a model response requests more
	// than one tool call.
	ErrMultipleToolCalls = errors.New("model requested more than one tool call")
	// ErrModelTimeout is returned when a single model call exceeds its timeout.
	ErrModelTimeout = errors.New("model call timed out")
	// ErrNoModel is returned by agents configured without a model.
	ErrNoModel = errors.New("agent has no model")
)

// Flow executes one agent turn.
type Flow interface {
	Run(rc *core.RunContext) error
}

// FlowAgent is the view of a model agent the flow works with.
type FlowAgent interface {
	GetName() string

	GetModel() model.Model

	// ResolveInstructions returns the raw instruction template.
	ResolveInstructions(rc *core.RunContext) (string, error)

	// Reads lists the state slots the instruction template may reference.
	Reads() []string

	// GetTools returns the callable tools, nil when the agent has none.
	GetTools() *tool.Registry

	// GetOutputKey returns the state slot receiving the final output, or "".
	GetOutputKey() string

	// IncludeHistory reports whether the user/orchestrator exchange is sent.
	IncludeHistory() bool

	// MaxHistoryMessages caps the history sent, 0 means all.
	MaxHistoryMessages() int

	// ValidateOutput checks final text and returns its normalized form.
	ValidateOutput(text string) (string, error)

	MaxOutputRetries() int

	// ModelTimeout bounds each model call, 0 disables it.
	ModelTimeout() time.Duration
}

// Turn carries what one agent turn has produced so far and is not yet part
// of the conversation: tool calls with their results and rejected outputs.
type Turn struct {
	Scratch []core.Content
	Retries int
}

// RequestProcessor contributes one aspect of the model request.
type RequestProcessor interface {
	Name() string
	ProcessRequest(rc *core.RunContext, req *model.Request, agent FlowAgent, turn *Turn) error
}
