// Package tool implements the function calling surface offered to agents:
// schema validated FunctionTools, a name keyed Registry and the built-in
// tools the crew relies on (finalize_email, send_email, web_search).
package tool

import (
	"fmt"

	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/internal/util"
)

// Error codes carried by ToolError.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodeNotFound   = "TOOL_NOT_FOUND"
)

// Tool is a capability a model can invoke by name.
type Tool interface {
	// Name is the identifier the model uses in function calls (snake_case).
	Name() string

	// Description tells the model when to use the tool.
	Description() string

	// Parameters is the JSON schema of the arguments object.
	Parameters() map[string]any

	// Call runs the tool. Writes and control signals go through toolCtx.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution. Flows pass it
// back to the model as the function response error instead of failing the run.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
