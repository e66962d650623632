package crew

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/tool"
)

// invokeTool calls a registered tool on behalf of the running agent without a
// model in the loop. The call and its response are committed like any model
// initiated call, including the tool's actions.
func invokeTool(rc *core.RunContext, reg *tool.Registry, name string, args map[string]any) (core.Event, error) {
	t, err := reg.Get(name)
	if err != nil {
		return core.Event{}, err
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return core.Event{}, fmt.Errorf("encode %s arguments: %w", name, err)
	}

	call := core.FunctionCall{ID: core.NewID(), Name: name, Arguments: string(raw)}
	if err := rc.EmitEvent(core.NewFunctionCallEvent(rc.Agent.Name, call)); err != nil {
		return core.Event{}, err
	}

	tc := core.NewToolContext(rc, call.ID)
	result, callErr := t.Call(tc, args)

	respEv := core.NewFunctionResponseEvent(rc.Agent.Name, call.ID, name, result, callErr)
	tc.ApplyActions(&respEv)

	rc.LogInfo("agent.tool.executed", "agent", rc.Agent.Name, "tool", name, "error", callErr != nil)

	if err := rc.EmitEvent(respEv); err != nil {
		return core.Event{}, err
	}

	return respEv, nil
}
