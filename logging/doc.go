// Package logging provides the minimal logging interface used across mailmesh
// together with a slog-backed implementation.
//
// Components accept a Logger and fall back to NoOpLogger when none is given.
// Log messages are dotted event names ("orchestrator.transition",
// "tool.call.success") followed by key/value pairs:
//
//	logger := logging.New(&logging.Config{Level: logging.LevelInfo, Format: "text", Output: os.Stderr})
//	logger.Info("conversation.start", "session_id", key.ID)
package logging
