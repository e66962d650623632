package flow

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/tool"
)

// FunctionExecutor runs one tool call and returns its function response
// event. Implementations must not panic and must apply the ToolContext's
// accumulated actions to the returned event.
type FunctionExecutor interface {
	Execute(rc *core.RunContext, agent FlowAgent, call core.FunctionCall) core.Event
}

type functionExecutor struct{}

// NewFunctionExecutor returns the default executor. Lookup failures, bad
// arguments and panics come back as ToolErrors in the response so the model
// can react to them.
func NewFunctionExecutor() FunctionExecutor { return functionExecutor{} }

func (functionExecutor) Execute(rc *core.RunContext, agent FlowAgent, call core.FunctionCall) core.Event {
	toolCtx := core.NewToolContext(rc, call.ID)

	start := time.Now()

	var (
		result any
		err    error
	)

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = tool.NewToolError(call.Name, fmt.Sprintf("panic: %v", r), tool.CodeExecution)
				rc.LogError("agent.tool.panic", "agent", agent.GetName(), "tool", call.Name, "recover", r)
			}
		}()
		result, err = executeTool(agent.GetTools(), toolCtx, call)
	}()

	rc.LogInfo(
		"agent.tool.executed",
		"agent", agent.GetName(),
		"tool", call.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	respEv := core.NewFunctionResponseEvent(agent.GetName(), call.ID, call.Name, result, err)
	toolCtx.ApplyActions(&respEv)

	return respEv
}

func executeTool(registry *tool.Registry, toolCtx *core.ToolContext, call core.FunctionCall) (any, error) {
	if registry == nil {
		return nil, tool.NewToolError(call.Name, "agent has no tools", tool.CodeNotFound)
	}

	impl, err := registry.Get(call.Name)
	if err != nil {
		if errors.Is(err, tool.ErrToolNotFound) {
			return nil, tool.NewToolError(call.Name, fmt.Sprintf("unknown tool %q, available: %v", call.Name, registry.Names()), tool.CodeNotFound)
		}
		return nil, err
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return nil, tool.NewToolError(call.Name, fmt.Sprintf("arguments are not a JSON object: %v", err), tool.CodeValidation)
		}
	}

	return impl.Call(toolCtx, args)
}
