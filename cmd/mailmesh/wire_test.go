package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mailmesh/config"
	"github.com/hupe1980/mailmesh/logging"
	"github.com/hupe1980/mailmesh/mail"
	"github.com/hupe1980/mailmesh/mail/gmail"
	anthropicmodel "github.com/hupe1980/mailmesh/model/anthropic"
	openaimodel "github.com/hupe1980/mailmesh/model/openai"
)

func testConfig() *config.Config {
	cfg := &config.Config{Provider: config.ProviderAnthropic, Classifier: config.ClassifierRule}
	cfg.App.Name = "mailmesh"
	cfg.App.UserID = "tester"
	cfg.Anthropic.APIKey = "test-key"
	cfg.Anthropic.Model = "claude-sonnet-4-20250514"
	cfg.Anthropic.MaxTokens = 1024
	cfg.Storage.Backend = config.BackendMemory
	cfg.Mail.Transport = config.TransportDryRun
	cfg.Limits = config.LimitsConfig{
		MaxTurns:         4,
		MaxModelCalls:    10,
		MaxOutputRetries: 1,
		RefineIterations: 2,
		ModelTimeout:     time.Second,
		SendTimeout:      time.Second,
		TurnTimeout:      time.Second,
	}
	cfg.Log.Level = "error"
	cfg.Log.Format = "text"
	return cfg
}

func TestBuildMemory(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.Validate())

	a, err := build(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, a.mesh)

	key, err := a.mesh.StartSession(context.Background(), "tester")
	require.NoError(t, err)
	assert.NoError(t, a.mesh.EndSession(context.Background(), key))

	assert.NoError(t, a.Close())
}

func TestBuildSQLite(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Backend = config.BackendSQLite
	cfg.Storage.Path = filepath.Join(t.TempDir(), "mailmesh.db")

	a, err := build(context.Background(), cfg)
	require.NoError(t, err)

	_, err = a.mesh.StartSession(context.Background(), "tester")
	require.NoError(t, err)

	assert.NoError(t, a.Close())
	_, err = os.Stat(cfg.Storage.Path)
	assert.NoError(t, err)
}

func TestBuildBadPrompts(t *testing.T) {
	cfg := testConfig()
	cfg.Prompts = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := build(context.Background(), cfg)
	assert.Error(t, err)
}

func TestBuildModel(t *testing.T) {
	t.Run("anthropic with search", func(t *testing.T) {
		cfg := testConfig()
		cfg.Search.Enabled = true

		llm, searcher := buildModel(cfg)
		assert.IsType(t, &anthropicmodel.Model{}, llm)
		assert.NotNil(t, searcher)
	})

	t.Run("anthropic without search", func(t *testing.T) {
		llm, searcher := buildModel(testConfig())
		assert.IsType(t, &anthropicmodel.Model{}, llm)
		assert.Nil(t, searcher)
	})

	t.Run("openai", func(t *testing.T) {
		cfg := testConfig()
		cfg.Provider = config.ProviderOpenAI
		cfg.OpenAI.APIKey = "test-key"
		cfg.OpenAI.Model = "gpt-4o-mini"

		llm, searcher := buildModel(cfg)
		assert.IsType(t, &openaimodel.Model{}, llm)
		assert.Nil(t, searcher)
	})
}

func TestBuildSender(t *testing.T) {
	cfg := testConfig()
	assert.IsType(t, &mail.DryRunSender{}, buildSender(cfg, logging.NoOpLogger{}))

	cfg.Mail.Transport = config.TransportGmail
	cfg.Mail.CredentialsFile = "credentials.json"
	assert.IsType(t, &gmail.Sender{}, buildSender(cfg, logging.NoOpLogger{}))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "mailmesh version dev\n", out.String())
}

func TestLoadConfigOverridesLogLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mailmesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: anthropic\nlog:\n  level: info\n"), 0o600))

	cfgFile, logLevel = path, "debug"
	t.Cleanup(func() { cfgFile, logLevel = "", "" })

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mailmesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: cohere\n"), 0o600))

	cfgFile = path
	t.Cleanup(func() { cfgFile = "" })

	_, err := loadConfig()
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
