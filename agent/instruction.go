package agent

import "github.com/hupe1980/mailmesh/core"

// Instruction yields an agent's instruction template for a run. The flow
// renders the result against the agent's declared reads.
type Instruction interface {
	Resolve(rc *core.RunContext) (string, error)
}

// Text is a static instruction.
type Text string

// Resolve implements Instruction.
func (t Text) Resolve(*core.RunContext) (string, error) { return string(t), nil }

// InstructionFunc adapts a function to Instruction.
type InstructionFunc func(rc *core.RunContext) (string, error)

// Resolve implements Instruction.
func (f InstructionFunc) Resolve(rc *core.RunContext) (string, error) { return f(rc) }
