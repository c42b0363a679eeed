package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider names.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// Config selects and configures one provider.
type Config struct {
	Provider string
	Model    string // friendly alias or provider model id; empty means the provider default
	APIKey   string
	BaseURL  string // OpenAI-compatible endpoints only

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
	Retry   RetryConfig
}

// RetryConfig configures backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns retry and timeout defaults with no provider chosen.
func DefaultConfig() Config {
	return Config{
		Timeout: 45 * time.Second,
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     8 * time.Second,
			Multiplier:  2,
		},
	}
}

// keyEnv names the conventional API key variable per provider, in the
// order Resolve probes them.
var keyEnv = []struct{ provider, env string }{
	{ProviderAnthropic, "ANTHROPIC_API_KEY"},
	{ProviderOpenAI, "OPENAI_API_KEY"},
	{ProviderGemini, "GEMINI_API_KEY"},
	{ProviderOpenRouter, "OPENROUTER_API_KEY"},
}

func envKey(provider string) string {
	for _, k := range keyEnv {
		if k.provider == provider {
			return strings.TrimSpace(os.Getenv(k.env))
		}
	}
	return ""
}

// Resolve builds a Config from explicit settings, filling gaps from the
// provider's API key variable. With no provider named, the first provider
// whose key variable is set wins. ok is false when nothing is configured.
func Resolve(provider, model, apiKey string) (cfg Config, ok bool) {
	cfg = DefaultConfig()
	cfg.Provider = strings.ToLower(strings.TrimSpace(provider))
	cfg.Model = model
	cfg.APIKey = apiKey

	if cfg.Provider == "" {
		for _, k := range keyEnv {
			if v := envKey(k.provider); v != "" {
				cfg.Provider = k.provider
				if cfg.APIKey == "" {
					cfg.APIKey = v
				}
				break
			}
		}
	}
	if cfg.Provider == "" {
		return Config{}, false
	}
	if cfg.APIKey == "" {
		cfg.APIKey = envKey(cfg.Provider)
	}
	if cfg.Provider == ProviderOpenRouter && cfg.BaseURL == "" {
		cfg.BaseURL = openRouterBaseURL
	}
	return cfg, true
}

// Validate checks that the provider is known and has a key.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderMock:
		return nil
	case ProviderAnthropic, ProviderOpenAI, ProviderGemini, ProviderOpenRouter:
		if c.APIKey == "" {
			return fmt.Errorf("no API key for the %s provider (set llm.api_key or the provider's key variable)", c.Provider)
		}
		return nil
	case "":
		return fmt.Errorf("no LLM provider configured")
	default:
		return fmt.Errorf("unknown LLM provider %q", c.Provider)
	}
}

// model aliases per provider; anything else passes through as a model id.
var modelAliases = map[string]map[string]string{
	ProviderAnthropic: {
		"":       "claude-haiku-4-5",
		"haiku":  "claude-haiku-4-5",
		"sonnet": "claude-sonnet-4-5",
	},
	ProviderOpenAI: {
		"":     "gpt-4.1-mini",
		"mini": "gpt-4.1-mini",
		"nano": "gpt-4.1-nano",
	},
	ProviderGemini: {
		"":      "gemini-2.5-flash",
		"flash": "gemini-2.5-flash",
		"pro":   "gemini-2.5-pro",
	},
	ProviderOpenRouter: {
		"": "google/gemini-2.5-flash",
	},
}

// resolveModel maps an alias (or empty) to a model id.
func resolveModel(provider, name string) string {
	if id, ok := modelAliases[provider][strings.ToLower(name)]; ok {
		return id
	}
	return name
}
