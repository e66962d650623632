package anthropic

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/model"
)

func TestBuildMessages_ToolResultFollowsCall(t *testing.T) {
	contents := []core.Content{
		core.NewTextContent(core.RoleUser, "Draft the brief."),
		{Role: core.RoleAssistant, Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "c1", Name: "web_search", Arguments: `{"query":"farewell etiquette"}`}}}},
		{Role: core.RoleTool, Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "c1", Name: "web_search", Response: "results"}}}},
	}

	msgs := buildMessages(contents)
	require.Len(t, msgs, 3)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[2].Role)
}

func TestResultText(t *testing.T) {
	text, isErr := resultText(core.FunctionResponse{Error: "boom"})
	assert.Equal(t, "boom", text)
	assert.True(t, isErr)

	text, isErr = resultText(core.FunctionResponse{Response: map[string]any{"status": "approved"}})
	assert.JSONEq(t, `{"status":"approved"}`, text)
	assert.False(t, isErr)
}

func TestBuildTools(t *testing.T) {
	tools := buildTools([]model.ToolDefinition{{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        "send_email",
			Description: "Send the approved email.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"title": map[string]any{"type": "string"}},
				"required":   []any{"title"},
			},
		},
	}})

	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "send_email", tools[0].OfTool.Name)
	assert.Equal(t, []string{"title"}, tools[0].OfTool.InputSchema.Required)
}

func TestBedrockModel(t *testing.T) {
	assert.Equal(t, anthropic.Model("us.anthropic.claude-sonnet-4-20250514-v1:0"), BedrockModel(anthropic.ModelClaudeSonnet4_20250514))
	assert.Equal(t, anthropic.Model("custom"), BedrockModel("custom"))
}
