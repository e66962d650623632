// Package orchestrator drives one email conversation as an explicit state
// machine. Each human turn advances the session through the phases until a
// handler yields a reply: clarifying questions, the brief for review, the
// address request, the draft for review or the send status.
//
// Forward progress past the brief and email reviews requires an explicit
// affirmative in a new human turn. The classifier decides what counts as one.
package orchestrator
