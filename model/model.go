package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/mailmesh/core"
)

// ErrNoResponse is returned by Collect when the provider closed its stream
// without a final response.
var ErrNoResponse = errors.New("model returned no response")

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by flows.
type Request struct {
	Agent        string           `json:"agent,omitempty"` // Name of the requesting agent, for routing and logs
	Instructions string           `json:"instructions"`    // System prompt
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
	// Temperature and MaxTokens override the provider defaults when set.
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// FunctionCalls returns the function call parts of the response in order.
func (r Response) FunctionCalls() []core.FunctionCall {
	var calls []core.FunctionCall
	for _, p := range r.Content.Parts {
		if fc, ok := p.(core.FunctionCallPart); ok {
			calls = append(calls, fc.FunctionCall)
		}
	}
	return calls
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock"
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the interface required by flows & agents to drive generation.
// Implementations close both channels when done and send at most one error.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Collect drains a Generate call and returns the final (non-partial)
// response. It honours ctx so a stuck provider cannot block the caller past
// its deadline.
func Collect(ctx context.Context, respCh <-chan Response, errCh <-chan error) (Response, error) {
	var (
		final Response
		found bool
	)

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !r.Partial {
				final, found = r, true
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return Response{}, err
			}
		}
	}

	if !found {
		return Response{}, ErrNoResponse
	}

	return final, nil
}

// HandlerFunc produces the response for one request.
type HandlerFunc func(ctx context.Context, req Request) (Response, error)

// MockModel is an in-process Model that delegates to a HandlerFunc.
type MockModel struct {
	info    Info
	handler HandlerFunc
}

// NewMockModel constructs a MockModel. A nil handler echoes the last user text.
func NewMockModel(name string, handler HandlerFunc) *MockModel {
	if handler == nil {
		handler = echo
	}

	return &MockModel{
		info:    Info{Name: name, Provider: "mock", SupportsTools: true},
		handler: handler,
	}
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		resp, err := m.handler(ctx, req)
		if err != nil {
			errCh <- err
			return
		}

		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- resp:
		}
	}()

	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }

func echo(_ context.Context, req Request) (Response, error) {
	if len(req.Contents) == 0 {
		return Response{}, fmt.Errorf("no contents provided")
	}

	last := req.Contents[len(req.Contents)-1]

	return TextResponse(fmt.Sprintf("Mock response to: %s", last.Text())), nil
}

// TextResponse builds a final assistant text response.
func TextResponse(text string) Response {
	return Response{
		ID:           core.NewID(),
		Content:      core.NewTextContent(core.RoleAssistant, text),
		FinishReason: "stop",
	}
}

// CallResponse builds a final response requesting one tool call.
func CallResponse(name, arguments string) Response {
	return Response{
		ID: core.NewID(),
		Content: core.Content{
			Role: core.RoleAssistant,
			Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:        core.NewID(),
				Name:      name,
				Arguments: arguments,
			}}},
		},
		FinishReason: "tool_calls",
	}
}
