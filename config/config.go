// Package config loads mailmesh settings from defaults, an optional YAML
// file, a .env file and the environment. Environment variables use the
// MAILMESH_ prefix with dots replaced by underscores; provider API keys are
// also read from ANTHROPIC_API_KEY and OPENAI_API_KEY.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultAppName is the application name sessions are stored under.
const DefaultAppName = "to_all_the_exes_ive_maybe_loved_before"

// Config holds all configuration for mailmesh.
type Config struct {
	App        AppConfig       `mapstructure:"app"`
	Provider   string          `mapstructure:"provider"`
	Anthropic  AnthropicConfig `mapstructure:"anthropic"`
	OpenAI     OpenAIConfig    `mapstructure:"openai"`
	Search     SearchConfig    `mapstructure:"search"`
	Classifier string          `mapstructure:"classifier"`
	Prompts    string          `mapstructure:"prompts"`
	Storage    StorageConfig   `mapstructure:"storage"`
	Mail       MailConfig      `mapstructure:"mail"`
	Limits     LimitsConfig    `mapstructure:"limits"`
	Log        LogConfig       `mapstructure:"log"`
	UI         UIConfig        `mapstructure:"ui"`
}

// AppConfig identifies sessions.
type AppConfig struct {
	Name   string `mapstructure:"name"`
	UserID string `mapstructure:"user_id"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
	UseBedrock  bool    `mapstructure:"use_bedrock"`
	AWSRegion   string  `mapstructure:"aws_region"`
	AWSProfile  string  `mapstructure:"aws_profile"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
	BaseURL     string  `mapstructure:"base_url"`
}

// SearchConfig controls the web_search tool. Search needs the anthropic
// provider.
type SearchConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
	MaxUses int64  `mapstructure:"max_uses"`
}

// StorageConfig selects where sessions and artifacts are kept.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// MailConfig selects the email transport.
type MailConfig struct {
	Transport       string `mapstructure:"transport"`
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`
}

// LimitsConfig bounds a conversation.
type LimitsConfig struct {
	MaxTurns         int           `mapstructure:"max_turns"`
	MaxModelCalls    int           `mapstructure:"max_model_calls"`
	MaxOutputRetries int           `mapstructure:"max_output_retries"`
	RefineIterations int           `mapstructure:"refine_iterations"`
	ModelTimeout     time.Duration `mapstructure:"model_timeout"`
	SendTimeout      time.Duration `mapstructure:"send_timeout"`
	TurnTimeout      time.Duration `mapstructure:"turn_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// UIConfig configures the terminal driver.
type UIConfig struct {
	Color bool `mapstructure:"color"`
}

// Enum values.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	BackendMemory = "memory"
	BackendSQLite = "sqlite"

	TransportGmail  = "gmail"
	TransportDryRun = "dry-run"

	ClassifierModel = "model"
	ClassifierRule  = "rule"
)

// ErrInvalidConfig wraps every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Load reads the configuration. path names a config file; when empty,
// mailmesh.yaml is looked up in the working directory and the user config
// directory. A .env file in the working directory is loaded first.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("MAILMESH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("anthropic.api_key", "MAILMESH_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("openai.api_key", "MAILMESH_OPENAI_API_KEY", "OPENAI_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mailmesh")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(UserConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Mail.TokenFile == "" {
		cfg.Mail.TokenFile = filepath.Join(UserConfigDir(), "token.json")
	}

	return cfg, nil
}

// Validate checks enums and limits.
func (c *Config) Validate() error {
	var problems []string

	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.App.Name != "", "app.name is empty")
	check(c.App.UserID != "", "app.user_id is empty")
	check(oneOf(c.Provider, ProviderAnthropic, ProviderOpenAI), "provider %q is not anthropic or openai", c.Provider)
	check(oneOf(c.Classifier, ClassifierModel, ClassifierRule), "classifier %q is not model or rule", c.Classifier)
	check(oneOf(c.Storage.Backend, BackendMemory, BackendSQLite), "storage.backend %q is not memory or sqlite", c.Storage.Backend)
	check(c.Storage.Backend != BackendSQLite || c.Storage.Path != "", "storage.path is required for sqlite")
	check(oneOf(c.Mail.Transport, TransportGmail, TransportDryRun), "mail.transport %q is not gmail or dry-run", c.Mail.Transport)
	check(c.Mail.Transport != TransportGmail || c.Mail.CredentialsFile != "", "mail.credentials_file is required for gmail")
	check(!c.Search.Enabled || c.Provider == ProviderAnthropic, "search needs the anthropic provider")
	check(oneOf(c.Log.Format, "text", "json"), "log.format %q is not text or json", c.Log.Format)

	check(c.Limits.MaxTurns > 0, "limits.max_turns must be positive")
	check(c.Limits.MaxModelCalls > 0, "limits.max_model_calls must be positive")
	check(c.Limits.MaxOutputRetries >= 0, "limits.max_output_retries must not be negative")
	check(c.Limits.RefineIterations > 0, "limits.refine_iterations must be positive")
	check(c.Limits.ModelTimeout > 0, "limits.model_timeout must be positive")
	check(c.Limits.SendTimeout > 0, "limits.send_timeout must be positive")
	check(c.Limits.TurnTimeout > 0, "limits.turn_timeout must be positive")

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}

	return nil
}

// UserConfigDir returns the mailmesh directory under the user's config home.
func UserConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mailmesh")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "mailmesh")
	}

	return filepath.Join(home, ".config", "mailmesh")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", DefaultAppName)
	v.SetDefault("app.user_id", "user")

	v.SetDefault("provider", ProviderAnthropic)

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.temperature", 0.7)
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.max_tokens", 4096)
	v.SetDefault("openai.base_url", "")

	v.SetDefault("search.enabled", true)
	v.SetDefault("search.model", "claude-sonnet-4-20250514")
	v.SetDefault("search.max_uses", 3)

	v.SetDefault("classifier", ClassifierModel)
	v.SetDefault("prompts", "")

	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("storage.path", "mailmesh.db")

	v.SetDefault("mail.transport", TransportDryRun)
	v.SetDefault("mail.credentials_file", "")
	v.SetDefault("mail.token_file", "")

	v.SetDefault("limits.max_turns", 16)
	v.SetDefault("limits.max_model_calls", 25)
	v.SetDefault("limits.max_output_retries", 2)
	v.SetDefault("limits.refine_iterations", 3)
	v.SetDefault("limits.model_timeout", "60s")
	v.SetDefault("limits.send_timeout", "30s")
	v.SetDefault("limits.turn_timeout", "5m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")

	v.SetDefault("ui.color", true)
}

// loadDotEnv loads path into the environment when it exists. Variables
// already set win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
