package agent

import (
	"fmt"

	"github.com/hupe1980/mailmesh/core"
)

// SequentialAgent runs its children in order. Each child's committed writes
// are visible to the next; the first error stops the sequence.
type SequentialAgent struct {
	BaseAgent
}

// NewSequentialAgent creates a sequential coordinator.
func NewSequentialAgent(name string, children ...core.Agent) *SequentialAgent {
	return &SequentialAgent{BaseAgent: NewBaseAgent(name, children...)}
}

// Run implements core.Agent.
func (s *SequentialAgent) Run(rc *core.RunContext) error {
	for _, child := range s.subAgents {
		if err := rc.Err(); err != nil {
			return err
		}

		if err := RunChild(rc, child); err != nil {
			return fmt.Errorf("sequential execution failed at agent %s: %w", child.Name(), err)
		}
	}

	return nil
}
