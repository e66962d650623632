package crew

import (
	"errors"
	"time"

	"github.com/hupe1980/mailmesh/agent"
	"github.com/hupe1980/mailmesh/mail"
	"github.com/hupe1980/mailmesh/model"
	"github.com/hupe1980/mailmesh/prompt"
	"github.com/hupe1980/mailmesh/search"
	"github.com/hupe1980/mailmesh/tool"
)

// Options configures the crew.
type Options struct {
	// Prompts holds the instruction templates. Defaults to prompt.Default().
	Prompts *prompt.Catalogue

	// Searcher backs web_search. Without one the drafters get no tools.
	Searcher search.Searcher

	ModelTimeout     time.Duration
	SendTimeout      time.Duration
	MaxOutputRetries int

	// RefineIterations caps editor/refiner rounds per loop run.
	RefineIterations int
}

// Crew holds the agents of one mailmesh deployment. Agents are stateless
// between runs; all per-session data lives in the session's state.
type Crew struct {
	Clarifier    *agent.ModelAgent
	BriefDrafter *agent.ModelAgent
	EmailDrafter *agent.ModelAgent
	Editor       *agent.ModelAgent
	Rewriter     *agent.ModelAgent
	Refiner      *Refiner
	RefineLoop   *agent.LoopAgent
	Dispatcher   *Dispatcher
}

// New builds the crew on llm, sending through sender.
func New(llm model.Model, sender mail.Sender, optFns ...func(o *Options)) (*Crew, error) {
	if llm == nil {
		return nil, errors.New("crew: model is required")
	}
	if sender == nil {
		return nil, errors.New("crew: sender is required")
	}

	opts := Options{
		Prompts:          prompt.Default(),
		ModelTimeout:     60 * time.Second,
		SendTimeout:      30 * time.Second,
		MaxOutputRetries: 2,
		RefineIterations: 3,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := opts.Prompts.Validate(); err != nil {
		return nil, err
	}

	var research *tool.Registry
	if opts.Searcher != nil {
		reg, err := tool.NewRegistry(tool.NewWebSearchTool(opts.Searcher))
		if err != nil {
			return nil, err
		}
		research = reg
	}

	sendTools, err := tool.NewRegistry(tool.NewSendEmailTool(sender, opts.SendTimeout))
	if err != nil {
		return nil, err
	}

	common := func(o *agent.ModelAgentOptions) {
		o.ModelTimeout = opts.ModelTimeout
		o.MaxOutputRetries = opts.MaxOutputRetries
	}

	c := &Crew{}

	c.Clarifier = agent.NewModelAgent(NameClarifier, llm, common, func(o *agent.ModelAgentOptions) {
		o.Description = "Asks the user one question at a time about the email they want to write."
		o.Instruction = agent.Text(opts.Prompts.Clarifier)
		o.IncludeHistory = true
	})

	c.BriefDrafter = agent.NewModelAgent(NameBriefDrafter, llm, common, func(o *agent.ModelAgentOptions) {
		o.Description = "Writes the content brief from the conversation."
		o.Instruction = agent.Text(opts.Prompts.BriefDrafter)
		o.Reads = []string{SlotBriefFeedback}
		o.Tools = research
		o.OutputKey = SlotContentBrief
		o.IncludeHistory = true
		o.Validator = ValidateBrief
	})

	c.EmailDrafter = agent.NewModelAgent(NameEmailDrafter, llm, common, func(o *agent.ModelAgentOptions) {
		o.Description = "Writes the email draft from the content brief."
		o.Instruction = agent.Text(opts.Prompts.EmailDrafter)
		o.Reads = []string{SlotContentBrief, SlotSender, SlotRecipient}
		o.Tools = research
		o.OutputKey = SlotEmailDraft
		o.Validator = ValidateDraft
	})

	c.Editor = agent.NewModelAgent(NameEditor, llm, common, func(o *agent.ModelAgentOptions) {
		o.Description = "Reviews the email draft and approves it or suggests changes."
		o.Instruction = agent.Text(opts.Prompts.Editor)
		o.Reads = []string{SlotEmailDraft, SlotUserFeedback}
		o.OutputKey = SlotFeedback
		o.Validator = ValidateFeedback
	})

	c.Rewriter = agent.NewModelAgent(NameRewriter, llm, common, func(o *agent.ModelAgentOptions) {
		o.Description = "Rewrites the email draft to incorporate feedback."
		o.Instruction = agent.Text(opts.Prompts.Rewriter)
		o.Reads = []string{SlotEmailDraft, SlotFeedback}
		o.OutputKey = SlotEmailDraft
		o.Validator = ValidateDraft
	})

	c.Refiner, err = NewRefiner(c.Rewriter)
	if err != nil {
		return nil, err
	}

	c.RefineLoop = agent.NewLoopAgent(
		NameRefineLoop,
		agent.NewSequentialAgent(NameReview, c.Editor, c.Refiner),
		agent.WithMaxIters(opts.RefineIterations),
		agent.WithOutcomeKeys(SlotRefineIterations, SlotRefineApproved),
	)

	c.Dispatcher = NewDispatcher(sendTools)

	return c, nil
}
