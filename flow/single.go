package flow

// SingleAgentFlow is the flow every model agent uses: instructions rendered
// from declared reads, history plus turn scratch as contents, and the agent's
// tools.
type SingleAgentFlow struct{ *BaseFlow }

// NewSingleAgentFlow creates a flow with the default request processors.
func NewSingleAgentFlow(agent FlowAgent) *SingleAgentFlow {
	baseFlow := NewBaseFlow(agent)

	baseFlow.AddRequestProcessor(NewInstructionsProcessor())
	baseFlow.AddRequestProcessor(NewContentsProcessor())
	baseFlow.AddRequestProcessor(NewToolsProcessor())

	return &SingleAgentFlow{BaseFlow: baseFlow}
}
