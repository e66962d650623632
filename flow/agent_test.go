package flow

import (
	"errors"
	"strings"
	"time"

	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/model"
	"github.com/hupe1980/mailmesh/tool"
)

type testAgent struct {
	name         string
	llm          model.Model
	instructions string
	reads        []string
	tools        *tool.Registry
	outputKey    string
	history      bool
	maxHistory   int
	validate     func(string) (string, error)
	retries      int
	timeout      time.Duration
}

func newTestAgent(name string, llm model.Model) *testAgent {
	return &testAgent{name: name, llm: llm, instructions: "You are a test assistant.", outputKey: name + "_out"}
}

func (a *testAgent) GetName() string                                      { return a.name }
func (a *testAgent) GetModel() model.Model                                { return a.llm }
func (a *testAgent) ResolveInstructions(*core.RunContext) (string, error) { return a.instructions, nil }
func (a *testAgent) Reads() []string                                      { return a.reads }
func (a *testAgent) GetTools() *tool.Registry                             { return a.tools }
func (a *testAgent) GetOutputKey() string                                 { return a.outputKey }
func (a *testAgent) IncludeHistory() bool                                 { return a.history }
func (a *testAgent) MaxHistoryMessages() int                              { return a.maxHistory }
func (a *testAgent) MaxOutputRetries() int                                { return a.retries }
func (a *testAgent) ModelTimeout() time.Duration                          { return a.timeout }

func (a *testAgent) ValidateOutput(text string) (string, error) {
	if a.validate != nil {
		return a.validate(text)
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty output")
	}
	return text, nil
}
