// Package runner executes agents against a session.
//
// A Runner builds the RunContext for one agent run and commits every event
// the agent emits before the emit call returns: the state delta is applied
// to the store and to the caller's session snapshot, then the event is
// appended. The next read in the same turn therefore observes the write,
// which is what lets a turn chain several agents over shared slots.
//
// Callers that author events themselves (the orchestrator's user and reply
// events, control slot updates) commit them through Runner.Commit so there is
// one write path per session.
package runner
