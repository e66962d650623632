package crew

import (
	"fmt"

	"github.com/hupe1980/mailmesh/agent"
	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/mail"
	"github.com/hupe1980/mailmesh/tool"
)

// Dispatcher sends the current draft with send_email and records the status
// string in send_result. A failed send is a status, not an error.
type Dispatcher struct {
	agent.BaseAgent
	tools *tool.Registry
}

// NewDispatcher creates a dispatcher calling the send_email tool in reg.
func NewDispatcher(reg *tool.Registry) *Dispatcher {
	d := &Dispatcher{BaseAgent: agent.NewBaseAgent(NameDispatcher), tools: reg}
	d.SetDescription("Sends the approved email.")
	return d
}

// Run implements core.Agent.
func (d *Dispatcher) Run(rc *core.RunContext) error {
	draft, err := mail.ParseDraft(rc.GetString(SlotEmailDraft))
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}

	respEv, err := invokeTool(rc, d.tools, tool.SendEmailToolName, map[string]any{
		"title":     draft.Title,
		"body":      draft.Body,
		"sender":    draft.Sender,
		"recipient": draft.Recipient,
	})
	if err != nil {
		return err
	}

	status := sendStatus(respEv)

	rc.SetState(SlotSendResult, status)

	return rc.EmitEvent(core.NewMessageEvent(d.Name(), status))
}

func sendStatus(ev core.Event) string {
	for _, fr := range ev.GetFunctionResponses() {
		if fr.Error != "" {
			return tool.SendFailure(fr.Error)
		}
		if s, ok := fr.Response.(string); ok {
			return s
		}
	}
	return tool.SendFailure("no send status")
}
