package main

import (
	"context"
	"errors"
	"io"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/mailmesh"
	artifactsqlite "github.com/hupe1980/mailmesh/artifact/sqlite"
	"github.com/hupe1980/mailmesh/config"
	"github.com/hupe1980/mailmesh/logging"
	"github.com/hupe1980/mailmesh/mail"
	"github.com/hupe1980/mailmesh/mail/gmail"
	"github.com/hupe1980/mailmesh/model"
	anthropicmodel "github.com/hupe1980/mailmesh/model/anthropic"
	openaimodel "github.com/hupe1980/mailmesh/model/openai"
	"github.com/hupe1980/mailmesh/orchestrator"
	"github.com/hupe1980/mailmesh/prompt"
	"github.com/hupe1980/mailmesh/search"
	anthropicsearch "github.com/hupe1980/mailmesh/search/anthropic"
	sessionsqlite "github.com/hupe1980/mailmesh/session/sqlite"
)

// app holds the wired components and what must be closed on exit.
type app struct {
	mesh    *mailmesh.MailMesh
	logger  logging.Logger
	closers []io.Closer
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}

// build wires provider, search, transport and stores from cfg.
func build(_ context.Context, cfg *config.Config) (*app, error) {
	logger, logCloser, err := cfg.Log.NewLogger(map[string]any{"app": cfg.App.Name})
	if err != nil {
		return nil, err
	}

	a := &app{logger: logger, closers: []io.Closer{logCloser}}

	fail := func(err error) (*app, error) {
		_ = a.Close()
		return nil, err
	}

	prompts, err := prompt.Load(cfg.Prompts)
	if err != nil {
		return fail(err)
	}

	llm, searcher := buildModel(cfg)
	sender := buildSender(cfg, logger)

	opts := []func(o *mailmesh.Options){func(o *mailmesh.Options) {
		o.AppName = cfg.App.Name
		o.Prompts = prompts
		o.Searcher = searcher
		o.MaxModelCalls = cfg.Limits.MaxModelCalls
		o.MaxOutputRetries = cfg.Limits.MaxOutputRetries
		o.RefineIterations = cfg.Limits.RefineIterations
		o.ModelTimeout = cfg.Limits.ModelTimeout
		o.SendTimeout = cfg.Limits.SendTimeout
		o.TurnTimeout = cfg.Limits.TurnTimeout
		o.Logger = logger
		if cfg.Classifier == config.ClassifierRule {
			o.Classifier = orchestrator.RuleClassifier{}
		}
	}}

	if cfg.Storage.Backend == config.BackendSQLite {
		sessions, err := sessionsqlite.New(cfg.Storage.Path)
		if err != nil {
			return fail(err)
		}
		a.closers = append(a.closers, sessions)

		artifacts, err := artifactsqlite.New(cfg.Storage.Path)
		if err != nil {
			return fail(err)
		}
		a.closers = append(a.closers, artifacts)

		opts = append(opts, func(o *mailmesh.Options) {
			o.SessionStore = sessions
			o.ArtifactStore = artifacts
		})
	}

	mesh, err := mailmesh.New(llm, sender, opts...)
	if err != nil {
		return fail(err)
	}

	a.mesh = mesh

	logger.Info("mailmesh.start", "provider", cfg.Provider, "storage", cfg.Storage.Backend, "transport", cfg.Mail.Transport, "search", searcher != nil)

	return a, nil
}

func buildModel(cfg *config.Config) (model.Model, search.Searcher) {
	if cfg.Provider == config.ProviderOpenAI {
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			o.Model = cfg.OpenAI.Model
			o.APIKey = cfg.OpenAI.APIKey
			o.BaseURL = cfg.OpenAI.BaseURL
			o.Temperature = cfg.OpenAI.Temperature
			o.MaxCompletionTokens = cfg.OpenAI.MaxTokens
		}), nil
	}

	modelOpts := func(o *anthropicmodel.Options) {
		o.Model = anthropicsdk.Model(cfg.Anthropic.Model)
		o.APIKey = cfg.Anthropic.APIKey
		o.Temperature = cfg.Anthropic.Temperature
		o.MaxTokens = cfg.Anthropic.MaxTokens
		o.UseBedrock = cfg.Anthropic.UseBedrock
		o.AWSRegion = cfg.Anthropic.AWSRegion
		o.AWSProfile = cfg.Anthropic.AWSProfile
	}

	llm := anthropicmodel.NewModel(modelOpts)

	if !cfg.Search.Enabled {
		return llm, nil
	}

	var shared anthropicmodel.Options
	modelOpts(&shared)

	return llm, anthropicsearch.NewSearcher(shared, func(o *anthropicsearch.Options) {
		if cfg.Search.Model != "" {
			o.Model = anthropicsdk.Model(cfg.Search.Model)
		}
		if cfg.Search.MaxUses > 0 {
			o.MaxUses = cfg.Search.MaxUses
		}
	})
}

func buildSender(cfg *config.Config, logger logging.Logger) mail.Sender {
	if cfg.Mail.Transport == config.TransportGmail {
		return gmail.NewSender(func(o *gmail.Options) {
			o.CredentialsFile = cfg.Mail.CredentialsFile
			o.TokenFile = cfg.Mail.TokenFile
			o.Logger = logger
		})
	}
	return mail.NewDryRunSender(logger)
}
