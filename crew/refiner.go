package crew

import (
	"errors"
	"fmt"

	"github.com/hupe1980/mailmesh/agent"
	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/mail"
	"github.com/hupe1980/mailmesh/tool"
)

// Refiner acts on the editor's feedback. The approval sentinel finalizes the
// draft through finalize_email, which escalates out of the refine loop; any
// other feedback is handed to the rewriter model agent.
type Refiner struct {
	agent.BaseAgent
	rewriter *agent.ModelAgent
	tools    *tool.Registry
}

// NewRefiner creates the refiner around a rewriter agent.
func NewRefiner(rewriter *agent.ModelAgent) (*Refiner, error) {
	if rewriter == nil {
		return nil, errors.New("crew: refiner needs a rewriter")
	}

	reg, err := tool.NewRegistry(tool.NewFinalizeTool())
	if err != nil {
		return nil, fmt.Errorf("crew: refiner tools: %w", err)
	}

	r := &Refiner{
		BaseAgent: agent.NewBaseAgent(NameRefiner, rewriter),
		rewriter:  rewriter,
		tools:     reg,
	}
	r.SetDescription("Finalizes an approved draft or rewrites it based on feedback.")

	return r, nil
}

// Run implements core.Agent.
func (r *Refiner) Run(rc *core.RunContext) error {
	feedback := mail.Feedback(rc.GetString(SlotFeedback))

	if feedback.IsApproval() {
		rc.LogInfo("crew.refiner.finalize", "agent", r.Name())

		_, err := invokeTool(rc, r.tools, tool.FinalizeToolName, map[string]any{})

		return err
	}

	return agent.RunChild(rc, r.rewriter)
}
