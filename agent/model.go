package agent

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/flow"
	"github.com/hupe1980/mailmesh/model"
	"github.com/hupe1980/mailmesh/tool"
)

// ErrEmptyOutput is returned by NonEmpty for blank output.
var ErrEmptyOutput = errors.New("empty output")

// Validator checks final model text and returns the normalized value to store.
type Validator func(text string) (string, error)

// NonEmpty accepts any text that is not blank and returns it unchanged.
func NonEmpty(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyOutput
	}
	return text, nil
}

// ModelAgentOptions configures a ModelAgent instance.
type ModelAgentOptions struct {
	Description string
	Instruction Instruction
	// Reads lists the state slots the instruction template may reference.
	Reads []string
	Tools *tool.Registry
	// OutputKey names the slot receiving the validated output; empty means
	// the output is only emitted.
	OutputKey string
	// IncludeHistory sends the user/orchestrator exchange with each request.
	IncludeHistory     bool
	MaxHistoryMessages int
	Validator          Validator
	MaxOutputRetries   int
	ModelTimeout       time.Duration
}

// ModelAgent is an agent whose turn is a flow over a language model: render
// the instruction, call the model, execute tool calls one at a time and
// validate the final text into its output slot.
type ModelAgent struct {
	BaseAgent
	llm  model.Model
	opts ModelAgentOptions
}

// NewModelAgent creates a model agent. Defaults: NonEmpty validation, two
// output retries, a 60s model timeout.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instruction:      Text(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		Validator:        NonEmpty,
		MaxOutputRetries: 2,
		ModelTimeout:     60 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Validator == nil {
		opts.Validator = NonEmpty
	}

	a := &ModelAgent{BaseAgent: NewBaseAgent(name), llm: llm, opts: opts}
	if opts.Description != "" {
		a.SetDescription(opts.Description)
	}

	return a
}

// GetName implements flow.FlowAgent.
func (a *ModelAgent) GetName() string { return a.Name() }

// GetModel implements flow.FlowAgent.
func (a *ModelAgent) GetModel() model.Model { return a.llm }

// ResolveInstructions implements flow.FlowAgent.
func (a *ModelAgent) ResolveInstructions(rc *core.RunContext) (string, error) {
	return a.opts.Instruction.Resolve(rc)
}

// Reads implements flow.FlowAgent.
func (a *ModelAgent) Reads() []string { return a.opts.Reads }

// GetTools implements flow.FlowAgent.
func (a *ModelAgent) GetTools() *tool.Registry { return a.opts.Tools }

// GetOutputKey implements flow.FlowAgent.
func (a *ModelAgent) GetOutputKey() string { return a.opts.OutputKey }

// IncludeHistory implements flow.FlowAgent.
func (a *ModelAgent) IncludeHistory() bool { return a.opts.IncludeHistory }

// MaxHistoryMessages implements flow.FlowAgent.
func (a *ModelAgent) MaxHistoryMessages() int { return a.opts.MaxHistoryMessages }

// ValidateOutput implements flow.FlowAgent.
func (a *ModelAgent) ValidateOutput(text string) (string, error) { return a.opts.Validator(text) }

// MaxOutputRetries implements flow.FlowAgent.
func (a *ModelAgent) MaxOutputRetries() int { return a.opts.MaxOutputRetries }

// ModelTimeout implements flow.FlowAgent.
func (a *ModelAgent) ModelTimeout() time.Duration { return a.opts.ModelTimeout }

// Run implements core.Agent.
func (a *ModelAgent) Run(rc *core.RunContext) error {
	rc.LogDebug("agent.flow.execute.start", "agent", a.Name(), "output_key", a.opts.OutputKey)

	if err := flow.NewSingleAgentFlow(a).Run(rc); err != nil {
		return err
	}

	rc.LogDebug("agent.flow.execute.complete", "agent", a.Name(), "model_calls", rc.Limiter.Count())

	return nil
}
