package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/model"
)

// correctionPrompt is sent back to the model after a rejected output.
const correctionPrompt = "Your previous answer was rejected: %v\nReply again with output in exactly the required format and nothing else."

// BaseFlow drives one agent turn: build request, call model, execute at most
// one tool call, repeat until the agent produces accepted text or a tool ends
// the turn.
type BaseFlow struct {
	agent             FlowAgent
	requestProcessors []RequestProcessor
	executor          FunctionExecutor
}

// NewBaseFlow creates a flow without request processors.
func NewBaseFlow(agent FlowAgent) *BaseFlow {
	return &BaseFlow{
		agent:             agent,
		requestProcessors: []RequestProcessor{},
		executor:          NewFunctionExecutor(),
	}
}

// AddRequestProcessor appends a request processor; registration order is
// execution order.
func (f *BaseFlow) AddRequestProcessor(processor RequestProcessor) {
	f.requestProcessors = append(f.requestProcessors, processor)
}

// SetFunctionExecutor replaces the tool call executor.
func (f *BaseFlow) SetFunctionExecutor(executor FunctionExecutor) {
	f.executor = executor
}

// Run executes the turn. Every event is committed through rc before the next
// model request is built.
func (f *BaseFlow) Run(rc *core.RunContext) error {
	name := f.agent.GetName()
	turn := &Turn{}

	for {
		if err := rc.Err(); err != nil {
			return err
		}

		req := &model.Request{Agent: name}
		for _, processor := range f.requestProcessors {
			if err := processor.ProcessRequest(rc, req, f.agent, turn); err != nil {
				return fmt.Errorf("request processor %s: %w", processor.Name(), err)
			}
		}

		resp, err := f.callModel(rc, *req)
		if err != nil {
			return err
		}

		calls := resp.FunctionCalls()
		if len(calls) > 1 {
			return fmt.Errorf("agent %s: %w (%d)", name, ErrMultipleToolCalls, len(calls))
		}

		if len(calls) == 1 {
			done, err := f.handleCall(rc, turn, calls[0])
			if err != nil {
				return err
			}
			if done {
				return nil
			}
			continue
		}

		text := resp.Content.Text()

		output, err := f.agent.ValidateOutput(text)
		if err != nil {
			if turn.Retries >= f.agent.MaxOutputRetries() {
				rc.LogError("agent.output.malformed", "agent", name, "retries", turn.Retries, "error", err.Error())
				return fmt.Errorf("agent %s: %w: %w", name, ErrMalformedOutput, err)
			}

			turn.Retries++

			rc.LogWarn("agent.output.rejected", "agent", name, "attempt", turn.Retries, "error", err.Error())

			turn.Scratch = append(turn.Scratch,
				core.NewTextContent(core.RoleAssistant, text),
				core.NewTextContent(core.RoleUser, fmt.Sprintf(correctionPrompt, err)),
			)

			continue
		}

		if key := f.agent.GetOutputKey(); key != "" {
			rc.SetState(key, output)
		}

		return rc.EmitEvent(core.NewMessageEvent(name, output))
	}
}

func (f *BaseFlow) callModel(rc *core.RunContext, req model.Request) (model.Response, error) {
	name := f.agent.GetName()

	llm := f.agent.GetModel()
	if llm == nil {
		return model.Response{}, fmt.Errorf("agent %s: %w", name, ErrNoModel)
	}

	if err := rc.Limiter.Increment(); err != nil {
		return model.Response{}, fmt.Errorf("agent %s: %w", name, err)
	}

	ctx := rc.Context
	timeout := f.agent.ModelTimeout()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	rc.LogDebug("model.call.start", "agent", name, "model", llm.Info().Name, "contents", len(req.Contents), "tools", len(req.Tools))

	start := time.Now()
	respCh, errCh := llm.Generate(ctx, req)

	resp, err := model.Collect(ctx, respCh, errCh)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && rc.Err() == nil {
			err = fmt.Errorf("%w after %s", ErrModelTimeout, timeout)
		}

		rc.LogError("model.call.error", "agent", name, "duration_ms", time.Since(start).Milliseconds(), "error", err.Error())

		return model.Response{}, fmt.Errorf("agent %s: %w", name, err)
	}

	rc.LogDebug("model.call.complete", "agent", name, "duration_ms", time.Since(start).Milliseconds(), "calls", len(resp.FunctionCalls()))

	return resp, nil
}

// handleCall commits the call and its response and reports whether the
// response ends the turn.
func (f *BaseFlow) handleCall(rc *core.RunContext, turn *Turn, call core.FunctionCall) (bool, error) {
	callEv := core.NewFunctionCallEvent(f.agent.GetName(), call)
	if err := rc.EmitEvent(callEv); err != nil {
		return false, err
	}

	respEv := f.executor.Execute(rc, f.agent, call)
	if err := rc.EmitEvent(respEv); err != nil {
		return false, err
	}

	turn.Scratch = append(turn.Scratch, *callEv.Content, *respEv.Content)

	return respEv.IsFinalResponse(), nil
}
