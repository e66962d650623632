package flow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/internal/testutil"
	"github.com/hupe1980/mailmesh/model"
	"github.com/hupe1980/mailmesh/tool"
)

func mustRegistry(t *testing.T, tools ...tool.Tool) *tool.Registry {
	t.Helper()

	reg, err := tool.NewRegistry(tools...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	return reg
}

func TestRun_TextOutputWritesSlot(t *testing.T) {
	llm := testutil.NewScriptedModel().On("drafter", testutil.Text("hello"))
	run := testutil.NewRun(nil, "drafter")

	if err := NewSingleAgentFlow(newTestAgent("drafter", llm)).Run(run.RC); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := run.State("drafter_out"); got != "hello" {
		t.Fatalf("slot = %v, want hello", got)
	}

	events := run.Events()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Author != "drafter" || events[0].Text() != "hello" {
		t.Fatalf("event = %+v", events[0])
	}
	if events[0].InvocationID != run.RC.RunID {
		t.Fatalf("invocation id = %q", events[0].InvocationID)
	}
}

func TestRun_ToolCallThenText(t *testing.T) {
	echo := tool.NewFunctionTool("note", "records a note", nil, func(tc *core.ToolContext, _ map[string]any) (any, error) {
		tc.SetState("noted", true)
		return "ok", nil
	})

	llm := testutil.NewScriptedModel().On("writer",
		testutil.Call("note", map[string]any{}),
		testutil.Text("done"),
	)

	agent := newTestAgent("writer", llm)
	agent.tools = mustRegistry(t, echo)
	run := testutil.NewRun(nil, "writer")

	if err := NewSingleAgentFlow(agent).Run(run.RC); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := run.Events()
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if len(events[0].GetFunctionCalls()) != 1 || len(events[1].GetFunctionResponses()) != 1 {
		t.Fatal("expected call then response")
	}
	if run.State("noted") != true {
		t.Fatal("tool state write not committed")
	}

	reqs := llm.Requests("writer")
	if len(reqs) != 2 {
		t.Fatalf("requests = %d, want 2", len(reqs))
	}

	second := reqs[1].Contents
	if len(second) != 3 || second[1].Role != core.RoleAssistant || second[2].Role != core.RoleTool {
		t.Fatalf("second request contents = %+v", second)
	}
	if len(reqs[0].Tools) != 1 {
		t.Fatalf("tools = %d, want 1", len(reqs[0].Tools))
	}
}

func TestRun_FinalizeEndsTurn(t *testing.T) {
	llm := testutil.NewScriptedModel().On("refiner", testutil.Call(tool.FinalizeToolName, map[string]any{}))

	agent := newTestAgent("refiner", llm)
	agent.tools = mustRegistry(t, tool.NewFinalizeTool())
	run := testutil.NewRun(nil, "refiner")

	if err := NewSingleAgentFlow(agent).Run(run.RC); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := llm.Calls("refiner"); n != 1 {
		t.Fatalf("model calls = %d, want 1", n)
	}

	events := run.Events()
	last := events[len(events)-1]
	if !last.IsEscalation() {
		t.Fatal("expected escalation on finalize response")
	}
	if run.State("refiner_out") != nil {
		t.Fatal("output slot must not be written on finalize")
	}
}

func TestRun_MultipleToolCalls(t *testing.T) {
	two := func(context.Context, model.Request) (model.Response, error) {
		return model.Response{Content: core.Content{Role: core.RoleAssistant, Parts: []core.Part{
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "1", Name: "a"}},
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "2", Name: "b"}},
		}}}, nil
	}

	llm := testutil.NewScriptedModel().On("writer", two)
	run := testutil.NewRun(nil, "writer")

	err := NewSingleAgentFlow(newTestAgent("writer", llm)).Run(run.RC)
	if !errors.Is(err, ErrMultipleToolCalls) {
		t.Fatalf("err = %v, want ErrMultipleToolCalls", err)
	}
	if len(run.Events()) != 0 {
		t.Fatal("no events expected")
	}
}

func TestRun_UnknownToolAndBadArguments(t *testing.T) {
	panicky := tool.NewFunctionTool("boom", "panics", nil, func(*core.ToolContext, map[string]any) (any, error) {
		panic("kaboom")
	})

	llm := testutil.NewScriptedModel().On("writer",
		testutil.Call("missing", map[string]any{}),
		testutil.Call("boom", "{not json"),
		testutil.Call("boom", map[string]any{}),
		testutil.Text("recovered"),
	)

	agent := newTestAgent("writer", llm)
	agent.tools = mustRegistry(t, panicky)
	run := testutil.NewRun(nil, "writer")

	if err := NewSingleAgentFlow(agent).Run(run.RC); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var codes []string
	for _, ev := range run.Events() {
		for _, fr := range ev.GetFunctionResponses() {
			codes = append(codes, fr.Error)
		}
	}

	if len(codes) != 3 {
		t.Fatalf("responses = %d, want 3", len(codes))
	}
	for i, want := range []string{tool.CodeNotFound, tool.CodeValidation, tool.CodeExecution} {
		if !strings.Contains(codes[i], want) {
			t.Fatalf("response %d error = %q, want code %s", i, codes[i], want)
		}
	}
	if run.State("writer_out") != "recovered" {
		t.Fatal("expected final text after tool errors")
	}
}

func TestRun_OutputRetry(t *testing.T) {
	upper := func(text string) (string, error) {
		if text != strings.ToUpper(text) {
			return "", errors.New("must be upper case")
		}
		return text, nil
	}

	t.Run("recovers", func(t *testing.T) {
		llm := testutil.NewScriptedModel().On("editor", testutil.Text("no"), testutil.Text("YES"))

		agent := newTestAgent("editor", llm)
		agent.validate = upper
		agent.retries = 2
		run := testutil.NewRun(nil, "editor")

		if err := NewSingleAgentFlow(agent).Run(run.RC); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.State("editor_out") != "YES" {
			t.Fatalf("slot = %v", run.State("editor_out"))
		}

		reqs := llm.Requests("editor")
		correction := reqs[1].Contents[len(reqs[1].Contents)-1].Text()
		if !strings.Contains(correction, "must be upper case") {
			t.Fatalf("correction = %q", correction)
		}
	})

	t.Run("exhausted", func(t *testing.T) {
		llm := testutil.NewScriptedModel().On("editor", testutil.Text("no"))

		agent := newTestAgent("editor", llm)
		agent.validate = upper
		agent.retries = 2
		run := testutil.NewRun(nil, "editor")

		err := NewSingleAgentFlow(agent).Run(run.RC)
		if !errors.Is(err, ErrMalformedOutput) {
			t.Fatalf("err = %v, want ErrMalformedOutput", err)
		}
		if n := llm.Calls("editor"); n != 3 {
			t.Fatalf("model calls = %d, want 3", n)
		}
		if run.State("editor_out") != nil {
			t.Fatal("slot must stay unwritten")
		}
	})
}

func TestRun_ModelTimeout(t *testing.T) {
	llm := testutil.NewScriptedModel().On("writer", testutil.Block())

	agent := newTestAgent("writer", llm)
	agent.timeout = 20 * time.Millisecond
	run := testutil.NewRun(nil, "writer")

	err := NewSingleAgentFlow(agent).Run(run.RC)
	if !errors.Is(err, ErrModelTimeout) {
		t.Fatalf("err = %v, want ErrModelTimeout", err)
	}
}

func TestRun_CancelledContextIsNotTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	llm := testutil.NewScriptedModel().On("writer", testutil.Text("x"))
	run := testutil.NewRun(nil, "writer", func(o *testutil.RunOptions) { o.Context = ctx })

	err := NewSingleAgentFlow(newTestAgent("writer", llm)).Run(run.RC)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrModelTimeout) {
		t.Fatal("cancellation reported as timeout")
	}
}

func TestRun_ModelCallLimit(t *testing.T) {
	llm := testutil.NewScriptedModel().On("writer", testutil.Call("loop", map[string]any{}))

	loop := tool.NewFunctionTool("loop", "again", nil, func(*core.ToolContext, map[string]any) (any, error) {
		return "again", nil
	})

	agent := newTestAgent("writer", llm)
	agent.tools = mustRegistry(t, loop)
	run := testutil.NewRun(nil, "writer", func(o *testutil.RunOptions) { o.MaxModelCalls = 3 })

	err := NewSingleAgentFlow(agent).Run(run.RC)
	if !errors.Is(err, core.ErrModelCallLimit) {
		t.Fatalf("err = %v, want ErrModelCallLimit", err)
	}
	if n := llm.Calls("writer"); n != 3 {
		t.Fatalf("model calls = %d, want 3", n)
	}
}

func TestRun_NoModel(t *testing.T) {
	run := testutil.NewRun(nil, "writer")

	err := NewSingleAgentFlow(newTestAgent("writer", nil)).Run(run.RC)
	if !errors.Is(err, ErrNoModel) {
		t.Fatalf("err = %v, want ErrNoModel", err)
	}
}

func TestRun_ModelError(t *testing.T) {
	boom := errors.New("provider down")
	llm := testutil.NewScriptedModel().On("writer", testutil.Fail(boom))
	run := testutil.NewRun(nil, "writer")

	err := NewSingleAgentFlow(newTestAgent("writer", llm)).Run(run.RC)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
