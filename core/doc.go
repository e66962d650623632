// Package core provides the domain types, interfaces and execution contexts
// shared by every mailmesh package:
//
//   - Agents (named units of work run by the runner)
//   - Sessions keyed by (app, user, id) with named state slots and event history
//   - Events and their typed content parts
//   - RunContext / ToolContext (scoped execution for agents and tools)
//   - Store interfaces for sessions, artifacts and memory
//
// Concrete stores, agents and the runner live in their own packages.
package core
