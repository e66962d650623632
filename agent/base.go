package agent

import (
	"fmt"

	"github.com/hupe1980/mailmesh/core"
)

// Agent types recorded in core.AgentInfo.
const (
	TypeModel      = "model"
	TypeSequential = "sequential"
	TypeLoop       = "loop"
	TypeCustom     = "custom"
)

// BaseAgent bundles identity and child bookkeeping. Embed it in concrete
// agent implementations and supply a Run method to satisfy core.Agent.
type BaseAgent struct {
	name        string
	description string
	subAgents   []core.Agent
}

// NewBaseAgent constructs a BaseAgent with a generated description.
func NewBaseAgent(name string, subAgents ...core.Agent) BaseAgent {
	return BaseAgent{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
		subAgents:   subAgents,
	}
}

// Name returns the agent's name.
func (b *BaseAgent) Name() string { return b.name }

// Description returns a description of the agent's purpose.
func (b *BaseAgent) Description() string { return b.description }

// SetDescription updates the agent's description.
func (b *BaseAgent) SetDescription(desc string) { b.description = desc }

// SubAgents returns a copy of the child agents.
func (b *BaseAgent) SubAgents() []core.Agent {
	result := make([]core.Agent, len(b.subAgents))
	copy(result, b.subAgents)
	return result
}

// FindAgent searches the subtree below this agent depth-first and returns
// the first agent named name, or nil.
func (b *BaseAgent) FindAgent(name string) core.Agent {
	for _, child := range b.subAgents {
		if child.Name() == name {
			return child
		}
		if finder, ok := child.(interface{ FindAgent(string) core.Agent }); ok {
			if found := finder.FindAgent(name); found != nil {
				return found
			}
		}
	}
	return nil
}

// Info describes a for run contexts and events by its concrete type.
func Info(a core.Agent) core.AgentInfo {
	switch a.(type) {
	case *ModelAgent:
		return core.AgentInfo{Name: a.Name(), Type: TypeModel}
	case *SequentialAgent:
		return core.AgentInfo{Name: a.Name(), Type: TypeSequential}
	case *LoopAgent:
		return core.AgentInfo{Name: a.Name(), Type: TypeLoop}
	default:
		return core.AgentInfo{Name: a.Name(), Type: TypeCustom}
	}
}

// RunChild runs child against a context derived from rc.
func RunChild(rc *core.RunContext, child core.Agent) error {
	info := Info(child)

	rc.LogDebug("agent.run.start", "agent", info.Name, "type", info.Type, "parent", rc.Agent.Name, "run", rc.RunID)

	if err := child.Run(rc.ForAgent(info)); err != nil {
		rc.LogError("agent.run.error", "agent", info.Name, "error", err.Error())
		return err
	}

	rc.LogDebug("agent.run.complete", "agent", info.Name)

	return nil
}
