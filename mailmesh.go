// Package mailmesh writes an email together with a human: a crew of model
// agents clarifies what the user wants, drafts a content brief and an email,
// refines the draft in a bounded editor/refiner loop and sends it once the
// user approves. Most applications:
//  1. Create a MailMesh via New with a model and a mail.Sender
//  2. Start a session per conversation with StartSession
//  3. Feed each user turn to Send and show the reply
//
// Stores default to in-memory implementations; durable SQLite stores live in
// session/sqlite and artifact/sqlite.
package mailmesh

import (
	"context"
	"time"

	"github.com/hupe1980/mailmesh/artifact"
	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/crew"
	"github.com/hupe1980/mailmesh/logging"
	"github.com/hupe1980/mailmesh/mail"
	"github.com/hupe1980/mailmesh/memory"
	"github.com/hupe1980/mailmesh/model"
	"github.com/hupe1980/mailmesh/orchestrator"
	"github.com/hupe1980/mailmesh/prompt"
	"github.com/hupe1980/mailmesh/runner"
	"github.com/hupe1980/mailmesh/search"
	"github.com/hupe1980/mailmesh/session"
)

// DefaultAppName is the application name sessions are keyed by.
const DefaultAppName = "to_all_the_exes_ive_maybe_loved_before"

// Options configures the MailMesh instance.
type Options struct {
	AppName string

	// Stores (defaults to in-memory implementations if not provided)
	SessionStore  core.SessionStore
	ArtifactStore core.ArtifactStore
	MemoryStore   core.MemoryStore

	// Classifier interprets review replies. Defaults to a model classifier
	// on the crew's model with rule based fallback.
	Classifier orchestrator.Classifier
	Prompts    *prompt.Catalogue
	// Searcher enables web_search for the drafters.
	Searcher search.Searcher

	MaxModelCalls    int
	MaxOutputRetries int
	RefineIterations int
	ModelTimeout     time.Duration
	SendTimeout      time.Duration
	TurnTimeout      time.Duration

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// MailMesh is the high-level façade over crew, runner and orchestrator.
type MailMesh struct {
	opts   Options
	orch   *orchestrator.Orchestrator
	runner *runner.Runner
}

// New creates a MailMesh around llm, sending mail through sender.
func New(llm model.Model, sender mail.Sender, optFns ...func(o *Options)) (*MailMesh, error) {
	opts := Options{
		AppName:          DefaultAppName,
		SessionStore:     session.NewInMemoryStore(),
		ArtifactStore:    artifact.NewInMemoryStore(),
		MemoryStore:      memory.NewInMemoryStore(),
		Prompts:          prompt.Default(),
		MaxModelCalls:    25,
		MaxOutputRetries: 2,
		RefineIterations: 3,
		ModelTimeout:     60 * time.Second,
		SendTimeout:      30 * time.Second,
		TurnTimeout:      5 * time.Minute,
		Logger:           logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	c, err := crew.New(llm, sender, func(o *crew.Options) {
		o.Prompts = opts.Prompts
		o.Searcher = opts.Searcher
		o.ModelTimeout = opts.ModelTimeout
		o.SendTimeout = opts.SendTimeout
		o.MaxOutputRetries = opts.MaxOutputRetries
		o.RefineIterations = opts.RefineIterations
	})
	if err != nil {
		return nil, err
	}

	if opts.Classifier == nil {
		opts.Classifier = orchestrator.NewModelClassifier(llm, func(o *orchestrator.ModelClassifierOptions) {
			o.Prompts = opts.Prompts
			o.Timeout = opts.ModelTimeout
			o.Logger = opts.Logger
		})
	}

	r := runner.New(func(o *runner.Options) {
		o.MaxModelCalls = opts.MaxModelCalls
		o.SessionStore = opts.SessionStore
		o.ArtifactStore = opts.ArtifactStore
		o.MemoryStore = opts.MemoryStore
		o.Logger = opts.Logger
	})

	orch := orchestrator.New(c, r, func(o *orchestrator.Options) {
		o.Classifier = opts.Classifier
		o.TurnTimeout = opts.TurnTimeout
		o.Logger = opts.Logger
	})

	return &MailMesh{opts: opts, orch: orch, runner: r}, nil
}

// StartSession creates a new conversation for userID.
func (m *MailMesh) StartSession(ctx context.Context, userID string) (core.SessionKey, error) {
	key := core.SessionKey{AppName: m.opts.AppName, UserID: userID, ID: core.NewID()}
	if err := key.Validate(); err != nil {
		return core.SessionKey{}, err
	}

	if err := m.orch.Start(ctx, key); err != nil {
		return core.SessionKey{}, err
	}

	return key, nil
}

// Send processes one user turn and returns the reply.
func (m *MailMesh) Send(ctx context.Context, key core.SessionKey, text string) (orchestrator.Reply, error) {
	return m.orch.HandleTurn(ctx, key, text)
}

// HandleTurn implements conversation.Handler.
func (m *MailMesh) HandleTurn(ctx context.Context, key core.SessionKey, text string) (orchestrator.Reply, error) {
	return m.Send(ctx, key, text)
}

// EndSession discards the conversation state. Archived artifacts remain.
func (m *MailMesh) EndSession(ctx context.Context, key core.SessionKey) error {
	return m.orch.End(ctx, key)
}

// Phase returns the session's current phase.
func (m *MailMesh) Phase(ctx context.Context, key core.SessionKey) (orchestrator.Phase, error) {
	return m.orch.Phase(ctx, key)
}

// Artifact loads the latest version of an archived artifact such as
// orchestrator.ArtifactBrief.
func (m *MailMesh) Artifact(ctx context.Context, key core.SessionKey, name string) ([]byte, error) {
	return m.runner.ArtifactStore().Load(ctx, key, name, 0)
}
