package runner

import (
	"context"
	"fmt"

	"github.com/hupe1980/mailmesh/agent"
	"github.com/hupe1980/mailmesh/artifact"
	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/logging"
	"github.com/hupe1980/mailmesh/memory"
	"github.com/hupe1980/mailmesh/session"
)

// Options holds dependency and configuration overrides passed to New.
type Options struct {
	// MaxModelCalls limits the number of model calls per run; 0 is unlimited.
	MaxModelCalls int
	SessionStore  core.SessionStore
	ArtifactStore core.ArtifactStore
	MemoryStore   core.MemoryStore
	Logger        logging.Logger
}

// Runner executes agents and commits their events. Safe for concurrent use
// across sessions; runs against the same session must not overlap.
type Runner struct {
	maxModelCalls int

	sessionStore  core.SessionStore
	artifactStore core.ArtifactStore
	memoryStore   core.MemoryStore
	logger        logging.Logger
}

// New constructs a Runner. Stores default to the in-memory implementations.
func New(optFns ...func(o *Options)) *Runner {
	opts := Options{
		MaxModelCalls: 25,
		SessionStore:  session.NewInMemoryStore(),
		ArtifactStore: artifact.NewInMemoryStore(),
		MemoryStore:   memory.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		maxModelCalls: opts.MaxModelCalls,
		sessionStore:  opts.SessionStore,
		artifactStore: opts.ArtifactStore,
		memoryStore:   opts.MemoryStore,
		logger:        opts.Logger,
	}
}

// SessionStore returns the store sessions are committed to.
func (r *Runner) SessionStore() core.SessionStore { return r.sessionStore }

// ArtifactStore returns the artifact store handed to runs.
func (r *Runner) ArtifactStore() core.ArtifactStore { return r.artifactStore }

// Result is what one run committed.
type Result struct {
	RunID  string
	Events []core.Event
}

// Text returns the text of the last committed event authored by author that
// carries text, or "".
func (r Result) Text(author string) string {
	for i := len(r.Events) - 1; i >= 0; i-- {
		ev := r.Events[i]
		if ev.Author != author {
			continue
		}
		if text := ev.Text(); text != "" && len(ev.GetFunctionCalls()) == 0 && len(ev.GetFunctionResponses()) == 0 {
			return text
		}
	}
	return ""
}

// Run executes a against sess, which must be the caller's current snapshot
// of the stored session. sess is updated in place as events are committed.
func (r *Runner) Run(ctx context.Context, sess *core.Session, a core.Agent, userContent core.Content) (Result, error) {
	res := Result{RunID: core.NewID()}

	emit := func(ev core.Event) error {
		if ev.IsPartial() {
			return nil
		}

		if err := r.Commit(ctx, sess, ev); err != nil {
			return err
		}

		res.Events = append(res.Events, ev)

		return nil
	}

	rc := core.NewRunContext(
		ctx,
		sess.Key,
		res.RunID,
		agent.Info(a),
		userContent,
		sess,
		core.Stores{Session: r.sessionStore, Artifact: r.artifactStore, Memory: r.memoryStore},
		core.NewModelLimiter(r.maxModelCalls),
		emit,
		logging.With(r.logger, "session", sess.Key.String(), "run", res.RunID),
	)

	rc.LogDebug("runner.run.start", "agent", a.Name())

	if err := a.Run(rc); err != nil {
		rc.LogError("runner.run.error", "agent", a.Name(), "events", len(res.Events), "error", err.Error())
		return res, err
	}

	rc.LogDebug("runner.run.complete", "agent", a.Name(), "events", len(res.Events), "model_calls", rc.Limiter.Count())

	return res, nil
}

// Commit persists ev for sess: the state delta first, then the event. The
// snapshot is updated only after the store accepted each write.
func (r *Runner) Commit(ctx context.Context, sess *core.Session, ev core.Event) error {
	if delta := ev.Actions.StateDelta; len(delta) > 0 {
		if err := r.sessionStore.ApplyDelta(ctx, sess.Key, delta); err != nil {
			return fmt.Errorf("failed to apply state delta: %w", err)
		}
		sess.ApplyStateDelta(delta)
	}

	if err := r.sessionStore.AppendEvent(ctx, sess.Key, ev); err != nil {
		return fmt.Errorf("failed to append event to session: %w", err)
	}
	sess.AddEvent(ev)

	if len(ev.Actions.ArtifactDelta) > 0 {
		r.logger.Debug("runner.event.artifacts", "session", sess.Key.String(), "artifacts", ev.Actions.ArtifactDelta)
	}

	if ev.IsEscalation() {
		r.logger.Debug("runner.event.escalate", "session", sess.Key.String(), "author", ev.Author)
	}

	return nil
}
