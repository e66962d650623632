package core

import (
	"context"
	"testing"
)

var testKey = SessionKey{AppName: "app", UserID: "u1", ID: "s1"}

// recordingEmitter mimics the runner: it applies each event to the shared
// session snapshot and keeps a copy.
type recordingEmitter struct {
	sess   *Session
	events []Event
}

func (r *recordingEmitter) emit(ev Event) error {
	if len(ev.Actions.StateDelta) > 0 {
		r.sess.ApplyStateDelta(ev.Actions.StateDelta)
	}
	r.sess.AddEvent(ev)
	r.events = append(r.events, ev)
	return nil
}

type memStore map[string]map[string]any

func (m memStore) Get(_ context.Context, scope string) (map[string]any, error) {
	out := map[string]any{}
	for k, v := range m[scope] {
		out[k] = v
	}
	return out, nil
}

func (m memStore) Put(_ context.Context, scope string, delta map[string]any) error {
	if m[scope] == nil {
		m[scope] = map[string]any{}
	}
	for k, v := range delta {
		m[scope][k] = v
	}
	return nil
}

func newRunContextForTest(t *testing.T) (*RunContext, *recordingEmitter) {
	t.Helper()
	sess := NewSession(testKey)
	rec := &recordingEmitter{sess: sess}
	rc := NewRunContext(context.Background(), testKey, "run-1", AgentInfo{Name: "agent1", Type: "test"},
		NewTextContent(RoleUser, "hi"), sess, Stores{Memory: memStore{}}, NewModelLimiter(2), rec.emit, nil)
	return rc, rec
}
