// Package agent contains the agent implementations the crew is built from:
//
//  1. ModelAgent, a model-backed agent executed by a flow.SingleAgentFlow
//  2. SequentialAgent, which runs children in order
//  3. LoopAgent, which repeats a child until it escalates or the iteration
//     cap is reached
//
// Children always run against a RunContext derived with RunChild so each
// stages its own writes while sharing the session snapshot, stores and
// emitter of the parent. Events are committed synchronously, so a child
// observes everything its predecessors emitted.
package agent
