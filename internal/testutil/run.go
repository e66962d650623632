package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/mailmesh/artifact"
	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/logging"
	"github.com/hupe1980/mailmesh/memory"
)

// Run is a RunContext whose emitter commits into an in-process session the
// way the runner does: apply the state delta, append the event, record it.
type Run struct {
	RC        *core.RunContext
	Session   *core.Session
	Memory    *memory.InMemoryStore
	Artifacts *artifact.InMemoryStore

	mu     sync.Mutex
	events []core.Event
}

// RunOptions configures NewRun.
type RunOptions struct {
	Context       context.Context
	MaxModelCalls int
	// EmitErr, when set, is returned for every emitted event.
	EmitErr error
}

// NewRun creates a run for agent over sess. A nil sess starts empty.
func NewRun(sess *core.Session, agent string, optFns ...func(o *RunOptions)) *Run {
	opts := RunOptions{Context: context.Background()}
	for _, fn := range optFns {
		fn(&opts)
	}

	if sess == nil {
		sess = core.NewSession(Key("test"))
	}

	r := &Run{
		Session:   sess,
		Memory:    memory.NewInMemoryStore(),
		Artifacts: artifact.NewInMemoryStore(),
	}

	emit := func(ev core.Event) error {
		if opts.EmitErr != nil {
			return opts.EmitErr
		}

		if len(ev.Actions.StateDelta) > 0 {
			sess.ApplyStateDelta(ev.Actions.StateDelta)
		}
		sess.AddEvent(ev)

		r.mu.Lock()
		r.events = append(r.events, ev)
		r.mu.Unlock()

		return nil
	}

	r.RC = core.NewRunContext(
		opts.Context,
		sess.Key,
		core.NewID(),
		core.AgentInfo{Name: agent, Type: "test"},
		core.NewTextContent(core.RoleUser, ""),
		sess,
		core.Stores{Artifact: r.Artifacts, Memory: r.Memory},
		core.NewModelLimiter(opts.MaxModelCalls),
		emit,
		logging.NoOpLogger{},
	)

	return r
}

// Events returns the committed events in order.
func (r *Run) Events() []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Event(nil), r.events...)
}

// State returns the committed value of slot k.
func (r *Run) State(k string) any {
	v, _ := r.Session.GetState(k)
	return v
}
