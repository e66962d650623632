package core

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/hupe1980/mailmesh/logging"
)

// ErrNoEmitter is returned by EmitEvent on a context built without an emitter.
var ErrNoEmitter = errors.New("run context has no emitter")

// EmitFunc commits one event. The runner's implementation persists the
// event, applies its actions and refreshes the shared session snapshot before
// returning, so the next read observes the write.
type EmitFunc func(ev Event) error

// Stores groups the backing services available to a run.
type Stores struct {
	Session  SessionStore
	Artifact ArtifactStore
	Memory   MemoryStore
}

// RunContext carries the per-run execution scope handed to Agent.Run:
// cancellation, identifiers, the shared session snapshot, backing stores and
// the staged state delta. SetState stages writes; EmitEvent attaches staged
// writes to the event and commits it.
type RunContext struct {
	Context     context.Context
	Key         SessionKey
	RunID       string
	Agent       AgentInfo
	UserContent Content
	Session     *Session
	Stores      Stores
	Limiter     *ModelLimiter
	StateDelta  map[string]any
	Artifacts   map[string]int

	emit EmitFunc

	*loggerAdapter
}

// NewRunContext constructs a RunContext with empty state and artifact deltas.
func NewRunContext(
	ctx context.Context,
	key SessionKey,
	runID string,
	agent AgentInfo,
	userContent Content,
	sess *Session,
	stores Stores,
	limiter *ModelLimiter,
	emit EmitFunc,
	logger logging.Logger,
) *RunContext {
	if limiter == nil {
		limiter = NewModelLimiter(0)
	}

	return &RunContext{
		Context:       ctx,
		Key:           key,
		RunID:         runID,
		Agent:         agent,
		UserContent:   userContent,
		Session:       sess,
		Stores:        stores,
		Limiter:       limiter,
		StateDelta:    map[string]any{},
		Artifacts:     map[string]int{},
		emit:          emit,
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// GetState returns a staged value if present, else the committed session value.
func (rc *RunContext) GetState(k string) (any, bool) {
	if v, ok := rc.StateDelta[k]; ok {
		return v, true
	}

	if rc.Session != nil {
		return rc.Session.GetState(k)
	}

	return nil, false
}

// GetString returns the slot value as a string, or "" when unset or not a string.
func (rc *RunContext) GetString(k string) string {
	v, ok := rc.GetState(k)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// SetState stages a state write.
func (rc *RunContext) SetState(k string, v any) { rc.StateDelta[k] = v }

// ApplyStateDelta stages all pairs from d.
func (rc *RunContext) ApplyStateDelta(d map[string]any) {
	maps.Copy(rc.StateDelta, d)
}

// SaveArtifact stores data under name and stages the new version for the next
// emitted event.
func (rc *RunContext) SaveArtifact(name string, data []byte) (int, error) {
	if rc.Stores.Artifact == nil {
		return 0, fmt.Errorf("artifact store not configured")
	}

	v, err := rc.Stores.Artifact.Save(rc.Context, rc.Key, name, data)
	if err != nil {
		return 0, err
	}

	rc.Artifacts[name] = v

	return v, nil
}

// LoadArtifact retrieves the latest version of a saved artifact.
func (rc *RunContext) LoadArtifact(name string) ([]byte, error) {
	if rc.Stores.Artifact == nil {
		return nil, fmt.Errorf("artifact store not configured")
	}

	return rc.Stores.Artifact.Load(rc.Context, rc.Key, name, 0)
}

// Recall reads a value from the user's memory scope.
func (rc *RunContext) Recall(k string) (any, bool, error) {
	if rc.Stores.Memory == nil {
		return nil, false, nil
	}

	m, err := rc.Stores.Memory.Get(rc.Context, rc.Key.UserID)
	if err != nil {
		return nil, false, err
	}

	v, ok := m[k]

	return v, ok, nil
}

// Remember writes a value into the user's memory scope.
func (rc *RunContext) Remember(k string, v any) error {
	if rc.Stores.Memory == nil {
		return nil
	}

	return rc.Stores.Memory.Put(rc.Context, rc.Key.UserID, map[string]any{k: v})
}

// History returns the user/orchestrator exchange so far.
func (rc *RunContext) History() []Event {
	if rc.Session == nil {
		return []Event{}
	}

	return rc.Session.GetConversationHistory()
}

// GetAgentName returns the logical agent name for this run.
func (rc *RunContext) GetAgentName() string { return rc.Agent.Name }

// ForAgent derives a context for a child agent. The child shares the session
// snapshot, stores, limiter and emitter but stages its own delta.
func (rc *RunContext) ForAgent(info AgentInfo) *RunContext {
	return &RunContext{
		Context:       rc.Context,
		Key:           rc.Key,
		RunID:         rc.RunID,
		Agent:         info,
		UserContent:   rc.UserContent,
		Session:       rc.Session,
		Stores:        rc.Stores,
		Limiter:       rc.Limiter,
		StateDelta:    map[string]any{},
		Artifacts:     map[string]int{},
		emit:          rc.emit,
		loggerAdapter: rc.loggerAdapter,
	}
}

// WithEmitter returns a copy whose events pass through fn instead of the
// original emitter. fn usually inspects the event and forwards it.
func (rc *RunContext) WithEmitter(fn EmitFunc) *RunContext {
	c := rc.ForAgent(rc.Agent)
	c.emit = fn
	return c
}

// Emit commits ev through the context's emitter without attaching staged
// writes. Composite agents use it to forward child events unchanged.
func (rc *RunContext) Emit(ev Event) error {
	if rc.emit == nil {
		return ErrNoEmitter
	}

	if err := rc.Context.Err(); err != nil {
		return err
	}

	return rc.emit(ev)
}

// EmitEvent attaches staged state and artifact writes to ev and commits it.
func (rc *RunContext) EmitEvent(ev Event) error {
	if len(rc.StateDelta) > 0 {
		if ev.Actions.StateDelta == nil {
			ev.Actions.StateDelta = map[string]any{}
		}
		maps.Copy(ev.Actions.StateDelta, rc.StateDelta)
	}

	if len(rc.Artifacts) > 0 {
		if ev.Actions.ArtifactDelta == nil {
			ev.Actions.ArtifactDelta = map[string]int{}
		}
		maps.Copy(ev.Actions.ArtifactDelta, rc.Artifacts)
	}

	if ev.InvocationID == "" {
		ev.InvocationID = rc.RunID
	}

	if ev.Author == "" {
		ev.Author = rc.Agent.Name
	}

	if err := rc.Emit(ev); err != nil {
		return err
	}

	rc.StateDelta = map[string]any{}
	rc.Artifacts = map[string]int{}

	return nil
}

// CommitStateDelta emits a control event carrying any staged writes.
func (rc *RunContext) CommitStateDelta() error {
	if len(rc.StateDelta) == 0 && len(rc.Artifacts) == 0 {
		return nil
	}

	return rc.EmitEvent(NewEvent(rc.RunID, rc.Agent.Name))
}
