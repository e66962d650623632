package core

// Agent is a named unit of work executed by the runner against one session.
//
// Implementations read slots through the RunContext, stage writes with
// SetState and publish results with EmitEvent. Run must return promptly when
// the RunContext is cancelled.
type Agent interface {
	Name() string
	Description() string
	Run(rc *RunContext) error
}

// AgentInfo carries identifying details about an agent used in contexts & events.
// Type categorizes the implementation (e.g. "model", "loop", "tool").
type AgentInfo struct{ Name, Type string }
