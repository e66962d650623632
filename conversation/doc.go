// Package conversation is the line based driver between a human and the
// orchestrator: it prompts, reads one line per turn and prints each reply
// until the user types END, the session is done or the turn limit is hit.
package conversation
