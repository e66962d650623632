package tool

import "github.com/hupe1980/mailmesh/core"

// FinalizeToolName is the tool the refiner calls when the editor approves.
const FinalizeToolName = "finalize_email"

// FinalizeResult is the finalize_email response.
type FinalizeResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewFinalizeTool returns finalize_email. Calling it ends the refinement loop:
// the response escalates and skips the follow-up model call.
func NewFinalizeTool() *FunctionTool {
	return NewFunctionTool(
		FinalizeToolName,
		"Call this function ONLY when the email draft is 'APPROVED', which indicates that the email is good to go and no more changes are needed.",
		nil,
		func(tc *core.ToolContext, _ map[string]any) (any, error) {
			tc.Escalate()
			tc.SkipSummarization()

			return FinalizeResult{
				Status:  "approved",
				Message: "Email is approved. Exiting refinement loop.",
			}, nil
		},
	)
}
