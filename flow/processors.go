package flow

import (
	"fmt"

	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/internal/util"
	"github.com/hupe1980/mailmesh/model"
)

// TriggerMessage is sent as the user turn when the request would otherwise
// not end with one.
const TriggerMessage = "Proceed with your task."

// InstructionsProcessor renders the instruction template against the agent's
// declared reads only.
type InstructionsProcessor struct{}

// NewInstructionsProcessor creates a new instructions processor.
func NewInstructionsProcessor() *InstructionsProcessor { return &InstructionsProcessor{} }

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest sets req.Instructions.
func (p *InstructionsProcessor) ProcessRequest(rc *core.RunContext, req *model.Request, agent FlowAgent, _ *Turn) error {
	instructions, err := agent.ResolveInstructions(rc)
	if err != nil {
		return fmt.Errorf("resolve instruction: %w", err)
	}

	data := util.ScopeState(rc.GetState, agent.Reads())

	req.Instructions, err = util.RenderTemplate(instructions, data)
	if err != nil {
		return fmt.Errorf("agent %s: %w", agent.GetName(), err)
	}

	rc.LogDebug("agent.instruction.resolved", "agent", agent.GetName(), "length", len(req.Instructions), "reads", agent.Reads())

	return nil
}

// ContentsProcessor builds the message list: optional history, a trigger
// user turn when needed, then the turn scratch.
type ContentsProcessor struct{}

// NewContentsProcessor creates a new contents processor.
func NewContentsProcessor() *ContentsProcessor { return &ContentsProcessor{} }

// Name returns the processor's identifier.
func (p *ContentsProcessor) Name() string { return "contents" }

// ProcessRequest sets req.Contents.
func (p *ContentsProcessor) ProcessRequest(rc *core.RunContext, req *model.Request, agent FlowAgent, turn *Turn) error {
	var contents []core.Content

	if agent.IncludeHistory() {
		events := rc.History()
		if limit := agent.MaxHistoryMessages(); limit > 0 && len(events) > limit {
			events = events[len(events)-limit:]
		}

		for _, ev := range events {
			if ev.Content == nil || len(ev.Content.Parts) == 0 {
				continue
			}
			c := *ev.Content
			if ev.Author == core.AuthorUser {
				c.Role = core.RoleUser
			} else {
				c.Role = core.RoleAssistant
			}
			contents = append(contents, c)
		}
	}

	if len(contents) == 0 || contents[len(contents)-1].Role != core.RoleUser {
		contents = append(contents, core.NewTextContent(core.RoleUser, TriggerMessage))
	}

	req.Contents = append(contents, turn.Scratch...)

	return nil
}

// ToolsProcessor declares the agent's tools.
type ToolsProcessor struct{}

// NewToolsProcessor creates a new tools processor.
func NewToolsProcessor() *ToolsProcessor { return &ToolsProcessor{} }

// Name returns the processor's identifier.
func (p *ToolsProcessor) Name() string { return "tools" }

// ProcessRequest sets req.Tools.
func (p *ToolsProcessor) ProcessRequest(_ *core.RunContext, req *model.Request, agent FlowAgent, _ *Turn) error {
	if reg := agent.GetTools(); reg != nil {
		req.Tools = reg.Definitions()
	}
	return nil
}
