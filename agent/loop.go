package agent

import (
	"fmt"
	"time"

	"github.com/hupe1980/mailmesh/core"
)

// LoopAgent runs a child repeatedly. The loop ends when an event emitted
// during an iteration escalates, or after maxIters iterations. Reaching the
// cap is not an error.
type LoopAgent struct {
	BaseAgent
	maxIters      int
	interval      time.Duration
	iterationsKey string
	escalatedKey  string
}

// LoopOption configures a LoopAgent.
type LoopOption func(*LoopAgent)

// WithMaxIters sets the iteration cap (default 3).
func WithMaxIters(n int) LoopOption {
	return func(l *LoopAgent) { l.maxIters = n }
}

// WithInterval waits d between iterations.
func WithInterval(d time.Duration) LoopOption {
	return func(l *LoopAgent) { l.interval = d }
}

// WithOutcomeKeys records the number of iterations run and whether the loop
// ended by escalation in the given slots. Empty names are skipped.
func WithOutcomeKeys(iterationsKey, escalatedKey string) LoopOption {
	return func(l *LoopAgent) {
		l.iterationsKey = iterationsKey
		l.escalatedKey = escalatedKey
	}
}

// NewLoopAgent constructs a loop around child.
func NewLoopAgent(name string, child core.Agent, opts ...LoopOption) *LoopAgent {
	la := &LoopAgent{
		BaseAgent: NewBaseAgent(name, child),
		maxIters:  3,
	}

	for _, o := range opts {
		o(la)
	}

	return la
}

// MaxIters returns the iteration cap.
func (l *LoopAgent) MaxIters() int { return l.maxIters }

// Run implements core.Agent.
func (l *LoopAgent) Run(rc *core.RunContext) error {
	child := l.subAgents[0]

	escalated := false
	watch := rc.WithEmitter(func(ev core.Event) error {
		if ev.IsEscalation() {
			escalated = true
		}
		return rc.Emit(ev)
	})

	iterations := 0
	for iterations < l.maxIters && !escalated {
		if err := rc.Err(); err != nil {
			return err
		}

		if iterations > 0 && l.interval > 0 {
			select {
			case <-rc.Done():
				return rc.Err()
			case <-time.After(l.interval):
			}
		}

		iterations++

		rc.LogDebug("agent.loop.iteration", "agent", l.Name(), "iteration", iterations)

		if err := RunChild(watch, child); err != nil {
			return fmt.Errorf("loop iteration %d failed for agent %s: %w", iterations, child.Name(), err)
		}
	}

	rc.LogInfo("agent.loop.complete", "agent", l.Name(), "iterations", iterations, "escalated", escalated)

	if l.iterationsKey != "" {
		rc.SetState(l.iterationsKey, iterations)
	}
	if l.escalatedKey != "" {
		rc.SetState(l.escalatedKey, escalated)
	}

	return rc.CommitStateDelta()
}
