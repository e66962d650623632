package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/crew"
	"github.com/hupe1980/mailmesh/logging"
	"github.com/hupe1980/mailmesh/runner"
	"github.com/hupe1980/mailmesh/tool"
)

// Artifact names archived at the review gates.
const (
	ArtifactBrief = "brief.md"
	ArtifactSent  = "sent.json"
)

// Options configures an Orchestrator.
type Options struct {
	// Classifier interprets the user's replies. Defaults to RuleClassifier.
	Classifier Classifier
	// TurnTimeout bounds one HandleTurn pass; 0 disables it.
	TurnTimeout time.Duration
	Logger      logging.Logger
}

// Orchestrator runs the conversation state machine over a crew.
type Orchestrator struct {
	crew        *crew.Crew
	runner      *runner.Runner
	classifier  Classifier
	turnTimeout time.Duration
	logger      logging.Logger
}

// New creates an orchestrator committing through r.
func New(c *crew.Crew, r *runner.Runner, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Classifier:  RuleClassifier{},
		TurnTimeout: 5 * time.Minute,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Orchestrator{
		crew:        c,
		runner:      r,
		classifier:  opts.Classifier,
		turnTimeout: opts.TurnTimeout,
		logger:      opts.Logger,
	}
}

// Reply is the visible result of one turn.
type Reply struct {
	Text  string
	Phase Phase
	Done  bool
}

// Start creates the session for key in GATHERING_INFO.
func (o *Orchestrator) Start(ctx context.Context, key core.SessionKey) error {
	sess, err := o.runner.SessionStore().Create(ctx, key)
	if err != nil {
		return err
	}

	ev := core.NewEvent(core.NewID(), core.AuthorOrchestrator)
	ev.Actions.StateDelta = map[string]any{SlotPhase: string(PhaseGatheringInfo)}

	if err := o.runner.Commit(ctx, sess, ev); err != nil {
		return err
	}

	o.logger.Info("orchestrator.session.start", "session", key.String())

	return nil
}

// End deletes the session for key. Artifacts stay in the artifact store.
func (o *Orchestrator) End(ctx context.Context, key core.SessionKey) error {
	if err := o.runner.SessionStore().Delete(ctx, key); err != nil {
		return err
	}

	o.logger.Info("orchestrator.session.end", "session", key.String())

	return nil
}

// Phase returns the current phase of the session.
func (o *Orchestrator) Phase(ctx context.Context, key core.SessionKey) (Phase, error) {
	sess, err := o.runner.SessionStore().Get(ctx, key)
	if err != nil {
		return "", err
	}
	return LoadSlots(sess).Phase, nil
}

// turn is the state of one HandleTurn pass.
type turn struct {
	id       string
	text     string
	sess     *core.Session
	artifact map[string]int
}

// step is what a phase handler decided.
type step struct {
	signal Signal
	reply  string
	yield  bool
}

// HandleTurn processes one human turn and returns the reply to show. On an
// error the phase reached so far is kept, so the next turn retries the stage
// that failed.
func (o *Orchestrator) HandleTurn(ctx context.Context, key core.SessionKey, text string) (Reply, error) {
	if o.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.turnTimeout)
		defer cancel()
	}

	sess, err := o.runner.SessionStore().Get(ctx, key)
	if err != nil {
		return Reply{}, err
	}

	slots := LoadSlots(sess)
	if slots.Phase == PhaseDone {
		return Reply{Phase: PhaseDone, Done: true}, ErrSessionDone
	}
	if !slots.Phase.Valid() {
		return Reply{}, fmt.Errorf("session %s: unknown phase %q", key, slots.Phase)
	}

	t := &turn{id: core.NewID(), text: text, sess: sess, artifact: map[string]int{}}

	userEv := core.NewUserMessageEvent(t.id, text)
	userEv.Actions.StateDelta = map[string]any{SlotTurns: slots.Turns + 1}

	if err := o.runner.Commit(ctx, sess, userEv); err != nil {
		return Reply{Phase: slots.Phase}, err
	}

	o.logger.Debug("orchestrator.turn.start", "session", key.String(), "phase", string(slots.Phase), "turn", slots.Turns+1)

	phase := slots.Phase

	for {
		st, err := o.handle(ctx, phase, t)
		if err != nil {
			o.logger.Error("orchestrator.turn.error", "session", key.String(), "phase", string(phase), "error", err.Error())
			return Reply{Phase: phase}, fmt.Errorf("%s: %w", phase, err)
		}

		next, err := Next(phase, st.signal)
		if err != nil {
			return Reply{Phase: phase}, err
		}

		if next != phase {
			if err := o.setState(ctx, t, map[string]any{SlotPhase: string(next)}); err != nil {
				return Reply{Phase: phase}, err
			}
			o.logger.Info("orchestrator.transition", "session", key.String(), "from", string(phase), "to", string(next), "signal", string(st.signal))
		}

		phase = next

		if st.yield || phase == PhaseDone {
			reply := Reply{Text: st.reply, Phase: phase, Done: phase == PhaseDone}
			if err := o.commitReply(ctx, t, reply.Text); err != nil {
				return reply, err
			}
			return reply, nil
		}
	}
}

func (o *Orchestrator) handle(ctx context.Context, phase Phase, t *turn) (step, error) {
	switch phase {
	case PhaseGatheringInfo:
		return o.gatherInfo(ctx, t)
	case PhaseBriefDrafting:
		return o.draftBrief(ctx, t)
	case PhaseBriefReview:
		return o.reviewBrief(ctx, t)
	case PhaseAddressCollection:
		return o.collectAddresses(ctx, t)
	case PhaseEmailDrafting:
		return o.draftEmail(ctx, t)
	case PhaseRefineLoop:
		return o.refine(ctx, t)
	case PhaseEmailReview:
		return o.reviewEmail(ctx, t)
	case PhaseSending:
		return o.send(ctx, t)
	default:
		return step{}, fmt.Errorf("%w: no handler for %s", ErrInvalidTransition, phase)
	}
}

func (o *Orchestrator) gatherInfo(ctx context.Context, t *turn) (step, error) {
	a, err := o.classifier.Assess(ctx, t.sess.UserUtterances())
	if err != nil {
		return step{}, err
	}

	o.logger.Debug("orchestrator.assess", "session", t.sess.Key.String(), "purpose", a.Purpose, "audience", a.Audience, "tone", a.Tone)

	if a.Complete() {
		return step{signal: SignalInfoComplete}, nil
	}

	res, err := o.run(ctx, t, o.crew.Clarifier)
	if err != nil {
		return step{}, err
	}

	return step{signal: SignalNeedInfo, reply: res.Text(crew.NameClarifier), yield: true}, nil
}

func (o *Orchestrator) draftBrief(ctx context.Context, t *turn) (step, error) {
	if _, err := o.run(ctx, t, o.crew.BriefDrafter); err != nil {
		return step{}, err
	}

	brief := LoadSlots(t.sess).ContentBrief

	return step{signal: SignalBriefReady, reply: presentBrief(brief), yield: true}, nil
}

func (o *Orchestrator) reviewBrief(ctx context.Context, t *turn) (step, error) {
	d, err := o.classifier.Decide(ctx, GateBrief, t.text)
	if err != nil {
		return step{}, err
	}

	slots := LoadSlots(t.sess)

	if d == DecisionApprove {
		if err := o.archive(ctx, t, ArtifactBrief, []byte(slots.ContentBrief)); err != nil {
			return step{}, err
		}
		return step{signal: SignalApprove}, nil
	}

	err = o.setState(ctx, t, map[string]any{
		crew.SlotBriefFeedback: t.text,
		SlotBriefRevisions:     slots.BriefRevisions + 1,
	})
	if err != nil {
		return step{}, err
	}

	return step{signal: SignalRevise}, nil
}

func (o *Orchestrator) collectAddresses(ctx context.Context, t *turn) (step, error) {
	slots := LoadSlots(t.sess)

	current := Addresses{Sender: slots.Sender, Recipient: slots.Recipient}
	merged := current.Merge(ExtractAddresses(t.text))

	if merged != current {
		err := o.setState(ctx, t, map[string]any{
			crew.SlotSender:    merged.Sender,
			crew.SlotRecipient: merged.Recipient,
		})
		if err != nil {
			return step{}, err
		}
	}

	if !merged.Complete() {
		return step{signal: SignalNeedAddresses, reply: askAddresses(merged), yield: true}, nil
	}

	return step{signal: SignalAddressesComplete}, nil
}

func (o *Orchestrator) draftEmail(ctx context.Context, t *turn) (step, error) {
	if _, err := o.run(ctx, t, o.crew.EmailDrafter); err != nil {
		return step{}, err
	}

	if err := o.pinAddresses(ctx, t); err != nil {
		return step{}, err
	}

	return step{signal: SignalDraftReady}, nil
}

func (o *Orchestrator) refine(ctx context.Context, t *turn) (step, error) {
	if _, err := o.run(ctx, t, o.crew.RefineLoop); err != nil {
		return step{}, err
	}

	if err := o.pinAddresses(ctx, t); err != nil {
		return step{}, err
	}

	slots := LoadSlots(t.sess)

	reply, err := presentDraft(slots)
	if err != nil {
		return step{}, err
	}

	return step{signal: SignalLoopDone, reply: reply, yield: true}, nil
}

func (o *Orchestrator) reviewEmail(ctx context.Context, t *turn) (step, error) {
	d, err := o.classifier.Decide(ctx, GateEmail, t.text)
	if err != nil {
		return step{}, err
	}

	if d == DecisionApprove {
		return step{signal: SignalApprove}, nil
	}

	if err := o.setState(ctx, t, map[string]any{crew.SlotUserFeedback: t.text}); err != nil {
		return step{}, err
	}

	return step{signal: SignalRevise}, nil
}

func (o *Orchestrator) send(ctx context.Context, t *turn) (step, error) {
	slots := LoadSlots(t.sess)

	if slots.SendAttempted {
		o.logger.Warn("orchestrator.send.skipped", "session", t.sess.Key.String(), "reason", "already attempted")
	} else {
		if err := o.setState(ctx, t, map[string]any{SlotSendAttempted: true}); err != nil {
			return step{}, err
		}

		if _, err := o.run(ctx, t, o.crew.Dispatcher); err != nil {
			return step{}, err
		}

		slots = LoadSlots(t.sess)
	}

	if slots.SendResult == "" {
		slots.SendResult = tool.SendFailure("send was interrupted, check your sent folder")
	}

	// The email is out; archiving is best effort from here on.
	record, err := sentRecord(slots)
	if err == nil {
		err = o.archive(ctx, t, ArtifactSent, record)
	}
	if err != nil {
		o.logger.Warn("orchestrator.archive.failed", "session", t.sess.Key.String(), "name", ArtifactSent, "error", err.Error())
	}

	return step{signal: SignalSent, reply: slots.SendResult, yield: true}, nil
}

// run executes a against the turn's session snapshot.
func (o *Orchestrator) run(ctx context.Context, t *turn, a core.Agent) (runner.Result, error) {
	return o.runner.Run(ctx, t.sess, a, core.NewTextContent(core.RoleUser, t.text))
}

// pinAddresses rewrites the stored draft with the collected addresses.
func (o *Orchestrator) pinAddresses(ctx context.Context, t *turn) error {
	slots := LoadSlots(t.sess)

	d, err := parseDraft(slots.EmailDraft)
	if err != nil {
		return err
	}

	pinned := d.WithAddresses(slots.Sender, slots.Recipient).JSON()
	if pinned == slots.EmailDraft {
		return nil
	}

	return o.setState(ctx, t, map[string]any{crew.SlotEmailDraft: pinned})
}

// setState commits a control event carrying delta.
func (o *Orchestrator) setState(ctx context.Context, t *turn, delta map[string]any) error {
	ev := core.NewEvent(t.id, core.AuthorOrchestrator)
	ev.Actions.StateDelta = delta
	return o.runner.Commit(ctx, t.sess, ev)
}

// archive saves data as a session artifact; the version is reported on the
// turn's reply event.
func (o *Orchestrator) archive(ctx context.Context, t *turn, name string, data []byte) error {
	v, err := o.runner.ArtifactStore().Save(ctx, t.sess.Key, name, data)
	if err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}

	t.artifact[name] = v

	o.logger.Debug("orchestrator.artifact.saved", "session", t.sess.Key.String(), "name", name, "version", v)

	return nil
}

func (o *Orchestrator) commitReply(ctx context.Context, t *turn, text string) error {
	ev := core.NewEvent(t.id, core.AuthorOrchestrator)
	if text != "" {
		c := core.NewTextContent(core.RoleAssistant, text)
		ev.Content = &c
	}
	if len(t.artifact) > 0 {
		ev.Actions.ArtifactDelta = t.artifact
	}
	if ev.Content == nil && len(t.artifact) == 0 {
		return nil
	}
	return o.runner.Commit(ctx, t.sess, ev)
}

// IsDone reports whether err means the session already finished.
func IsDone(err error) bool { return errors.Is(err, ErrSessionDone) }
