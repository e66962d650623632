package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hupe1980/mailmesh/model"
)

// Step produces one model response for a request.
type Step func(ctx context.Context, req model.Request) (model.Response, error)

// Text answers with final text.
func Text(text string) Step {
	return func(context.Context, model.Request) (model.Response, error) { return model.TextResponse(text), nil }
}

// Call answers with a single tool call. args is marshalled to JSON unless it
// is already a string.
func Call(name string, args any) Step {
	return func(context.Context, model.Request) (model.Response, error) {
		s, ok := args.(string)
		if !ok {
			b, err := json.Marshal(args)
			if err != nil {
				return model.Response{}, err
			}
			s = string(b)
		}
		return model.CallResponse(name, s), nil
	}
}

// Fail answers with err.
func Fail(err error) Step {
	return func(context.Context, model.Request) (model.Response, error) { return model.Response{}, err }
}

// Block waits until the request context ends.
func Block() Step {
	return func(ctx context.Context, _ model.Request) (model.Response, error) {
		<-ctx.Done()
		return model.Response{}, ctx.Err()
	}
}

// ScriptedModel answers each requesting agent from its own script. Requests
// are routed by model.Request.Agent. Once a script is exhausted its last step
// repeats.
type ScriptedModel struct {
	mu       sync.Mutex
	scripts  map[string][]Step
	calls    map[string]int
	requests map[string][]model.Request
	order    []string
}

// NewScriptedModel creates an empty scripted model.
func NewScriptedModel() *ScriptedModel {
	return &ScriptedModel{
		scripts:  map[string][]Step{},
		calls:    map[string]int{},
		requests: map[string][]model.Request{},
	}
}

// On appends steps to agent's script (chainable).
func (m *ScriptedModel) On(agent string, steps ...Step) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scripts[agent] = append(m.scripts[agent], steps...)

	return m
}

// Generate implements model.Model.
func (m *ScriptedModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	m.mu.Lock()
	script := m.scripts[req.Agent]
	n := m.calls[req.Agent]
	m.calls[req.Agent] = n + 1
	m.requests[req.Agent] = append(m.requests[req.Agent], req)
	m.order = append(m.order, req.Agent)
	m.mu.Unlock()

	return model.NewMockModel("scripted", func(ctx context.Context, req model.Request) (model.Response, error) {
		if len(script) == 0 {
			return model.Response{}, fmt.Errorf("no script for agent %q", req.Agent)
		}

		return script[min(n, len(script)-1)](ctx, req)
	}).Generate(ctx, req)
}

// Info implements model.Model.
func (m *ScriptedModel) Info() model.Info {
	return model.Info{Name: "scripted", Provider: "mock", SupportsTools: true}
}

// Calls returns how often agent called the model.
func (m *ScriptedModel) Calls(agent string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[agent]
}

// Requests returns the requests agent sent, in order.
func (m *ScriptedModel) Requests(agent string) []model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Request(nil), m.requests[agent]...)
}

// Order returns the requesting agent of every call, in order.
func (m *ScriptedModel) Order() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}
