package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/flow"
	"github.com/hupe1980/mailmesh/internal/testutil"
	"github.com/hupe1980/mailmesh/model"
)

type mockModel struct{ mock.Mock }

func (m *mockModel) Generate(_ context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	args := m.Called(req)

	respCh := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	if err := args.Error(1); err != nil {
		errCh <- err
	} else {
		respCh <- args.Get(0).(model.Response)
	}

	close(respCh)
	close(errCh)

	return respCh, errCh
}

func (m *mockModel) Info() model.Info { return model.Info{Name: "mock", Provider: "mock"} }

func TestModelAgent_WritesOutputSlot(t *testing.T) {
	llm := new(mockModel)
	llm.On("Generate", mock.MatchedBy(func(req model.Request) bool {
		return req.Agent == "editor" && strings.Contains(req.Instructions, `{"title":"hi"}`)
	})).Return(model.TextResponse("APPROVED"), nil).Once()

	sess := testutil.NewSessionBuilder("s").State("email_draft", `{"title":"hi"}`).Build()
	run := testutil.NewRun(sess, "editor")

	editor := NewModelAgent("editor", llm, func(o *ModelAgentOptions) {
		o.Instruction = Text("Review this draft: {{.email_draft}}")
		o.Reads = []string{"email_draft"}
		o.OutputKey = "feedback"
	})

	require.NoError(t, editor.Run(run.RC))

	assert.Equal(t, "APPROVED", run.State("feedback"))
	llm.AssertExpectations(t)
}

func TestModelAgent_DefaultValidatorRejectsBlank(t *testing.T) {
	llm := new(mockModel)
	llm.On("Generate", mock.Anything).Return(model.TextResponse("   "), nil)

	run := testutil.NewRun(nil, "editor")

	editor := NewModelAgent("editor", llm, func(o *ModelAgentOptions) {
		o.OutputKey = "feedback"
	})

	err := editor.Run(run.RC)
	require.ErrorIs(t, err, flow.ErrMalformedOutput)
	require.ErrorIs(t, err, ErrEmptyOutput)
	llm.AssertNumberOfCalls(t, "Generate", 3)
	assert.Nil(t, run.State("feedback"))
}

func TestModelAgent_ProviderError(t *testing.T) {
	boom := errors.New("unavailable")

	llm := new(mockModel)
	llm.On("Generate", mock.Anything).Return(model.Response{}, boom)

	run := testutil.NewRun(nil, "clarifier")

	err := NewModelAgent("clarifier", llm).Run(run.RC)
	require.ErrorIs(t, err, boom)
}

func TestModelAgent_Defaults(t *testing.T) {
	a := NewModelAgent("clarifier", nil, func(o *ModelAgentOptions) {
		o.Description = "asks one question at a time"
		o.Validator = nil
	})

	assert.Equal(t, "asks one question at a time", a.Description())
	assert.Equal(t, 2, a.MaxOutputRetries())
	assert.Equal(t, "", a.GetOutputKey())
	assert.False(t, a.IncludeHistory())

	out, err := a.ValidateOutput("ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	instr, err := a.ResolveInstructions(nil)
	require.NoError(t, err)
	assert.Equal(t, "You are clarifier, a helpful AI assistant.", instr)
}

func TestInstructionFunc(t *testing.T) {
	i := InstructionFunc(func(rc *core.RunContext) (string, error) { return "for " + rc.Agent.Name, nil })

	run := testutil.NewRun(nil, "editor")

	out, err := i.Resolve(run.RC)
	require.NoError(t, err)
	assert.Equal(t, "for editor", out)
}
