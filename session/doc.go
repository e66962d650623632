// Package session provides the in-memory core.SessionStore used by default.
// Durable backends live in sub-packages (see session/sqlite); callers depend
// on core.SessionStore so the wiring layer alone picks the backend.
package session
