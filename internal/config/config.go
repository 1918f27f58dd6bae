// Package config loads chat settings from defaults, an optional YAML file,
// CHAT_* environment variables and command-line flags, in rising precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/petasbytes/go-chat/internal/chat"
	"github.com/petasbytes/go-chat/internal/logging"
	"github.com/petasbytes/go-chat/internal/provider"
	"github.com/petasbytes/go-chat/internal/telemetry"
	"github.com/petasbytes/go-chat/internal/web"
	"github.com/petasbytes/go-chat/memory"
)

// EnvPrefix namespaces environment overrides, e.g. CHAT_PROVIDER_NAME.
const EnvPrefix = "CHAT"

const DefaultAddress = "localhost:7860"

type Config struct {
	Address          string          `mapstructure:"address"`
	Title            string          `mapstructure:"title"`
	DataDir          string          `mapstructure:"data_dir"`
	SettingsFile     string          `mapstructure:"settings_file"`
	ContextFile      string          `mapstructure:"context_file"`
	MaxContextLength int             `mapstructure:"max_context_length"`
	TokenBudget      int             `mapstructure:"token_budget"`
	SystemPrompt     string          `mapstructure:"system_prompt"`
	Provider         ProviderConfig  `mapstructure:"provider"`
	Log              LogConfig       `mapstructure:"log"`
	Telemetry        TelemetryConfig `mapstructure:"telemetry"`
}

type ProviderConfig struct {
	Name                string `mapstructure:"name"` // "openai", "anthropic"
	Model               string `mapstructure:"model"`
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	MaxCompletionTokens int64  `mapstructure:"max_completion_tokens"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console", "json"
}

type TelemetryConfig struct {
	Observe bool   `mapstructure:"observe"`
	Dir     string `mapstructure:"dir"`
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"address":        "address",
	"data-dir":       "data_dir",
	"context-length": "max_context_length",
	"token-budget":   "token_budget",
	"provider":       "provider.name",
	"model":          "provider.model",
	"base-url":       "provider.base_url",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"observe":        "telemetry.observe",
}

// AddFlags registers the command-line overrides on fs.
func AddFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("address", DefaultAddress, "listen address for the web UI")
	fs.String("data-dir", ".", "directory holding chat_settings.json and chat_context.json")
	fs.Int("context-length", memory.DefaultMaxExchanges, "exchanges kept in the persisted context")
	fs.Int("token-budget", 0, "estimated input token budget per request (0 = unlimited)")
	fs.String("provider", provider.NameOpenAI, "completion provider: openai or anthropic")
	fs.String("model", "", "model name (provider default when empty)")
	fs.String("base-url", "", "override the provider API base URL")
	fs.String("log-level", "info", "log level: trace, debug, info, warn, error")
	fs.String("log-format", logging.FormatConsole, "log format: console or json")
	fs.Bool("observe", false, "append turn events to <telemetry dir>/events.jsonl")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("address", DefaultAddress)
	v.SetDefault("title", web.DefaultTitle)
	v.SetDefault("data_dir", ".")
	v.SetDefault("settings_file", memory.DefaultSettingsFile)
	v.SetDefault("context_file", memory.DefaultContextFile)
	v.SetDefault("max_context_length", memory.DefaultMaxExchanges)
	v.SetDefault("token_budget", 0)
	v.SetDefault("system_prompt", chat.DefaultSystemPrompt)

	v.SetDefault("provider.name", provider.NameOpenAI)
	v.SetDefault("provider.model", "")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.max_completion_tokens", chat.DefaultMaxCompletionTokens)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatConsole)

	v.SetDefault("telemetry.observe", false)
	v.SetDefault("telemetry.dir", telemetry.DefaultDir)
}

// Load resolves the configuration. fs may be nil; when it carries a
// non-empty --config flag that file must exist and parse.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("config: bind flag %s: %w", name, err)
				}
			}
		}
		if path, err := fs.GetString("config"); err == nil && path != "" {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	cfg.Provider.Name = strings.ToLower(strings.TrimSpace(cfg.Provider.Name))
	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = providerKeyFromEnv(v, cfg.Provider.Name)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// providerKeyFromEnv reads the vendor's conventional API key variable.
func providerKeyFromEnv(v *viper.Viper, name string) string {
	env := "OPENAI_API_KEY"
	if name == provider.NameAnthropic {
		env = "ANTHROPIC_API_KEY"
	}
	_ = v.BindEnv("vendor_api_key", env)
	return v.GetString("vendor_api_key")
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Address == "" {
		errs = append(errs, errors.New("address must not be empty"))
	}
	if c.MaxContextLength <= 0 {
		errs = append(errs, fmt.Errorf("max_context_length must be positive, got %d", c.MaxContextLength))
	}
	if c.TokenBudget < 0 {
		errs = append(errs, fmt.Errorf("token_budget must not be negative, got %d", c.TokenBudget))
	}
	if c.Provider.MaxCompletionTokens <= 0 {
		errs = append(errs, fmt.Errorf("provider.max_completion_tokens must be positive, got %d", c.Provider.MaxCompletionTokens))
	}
	switch c.Provider.Name {
	case "", provider.NameOpenAI, provider.NameAnthropic:
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider.Name))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ProviderSettings converts the provider section for provider.New.
func (c *Config) ProviderSettings() provider.Config {
	return provider.Config{
		Name:    c.Provider.Name,
		Model:   c.Provider.Model,
		APIKey:  c.Provider.APIKey,
		BaseURL: c.Provider.BaseURL,
	}
}

// MaskedAPIKey returns the first 8 characters of the API key followed by
// "...", or "" when no key is configured.
func (c *Config) MaskedAPIKey() string {
	k := c.Provider.APIKey
	if k == "" {
		return ""
	}
	if len(k) > 8 {
		k = k[:8]
	}
	return k + "..."
}
