// Package config loads lessonkit settings from defaults, a .env file, a YAML
// file and LESSONKIT_* environment variables, in that order of precedence
// (later wins). Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/lessonkit/internal/lms"
)

// Config holds all lessonkit settings.
type Config struct {
	API   APIConfig   `yaml:"api"`
	Store StoreConfig `yaml:"store"`
	Log   LogConfig   `yaml:"log"`
	Trace TraceConfig `yaml:"trace"`
	Quiz  QuizConfig  `yaml:"quiz"`
	LLM   LLMConfig   `yaml:"llm"`
}

// APIConfig configures the platform REST API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// StoreConfig configures the local activity journal.
type StoreConfig struct {
	// Path is the SQLite file. Empty means the XDG default.
	Path string `yaml:"path"`
	// Disabled turns journaling off entirely.
	Disabled bool `yaml:"disabled"`
}

// LogConfig configures logging.
type LogConfig struct {
	Mode  string `yaml:"mode"`  // "dev" or "prod"
	Level string `yaml:"level"` // zap level name
}

// TraceConfig configures OpenTelemetry tracing.
type TraceConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"` // OTLP/HTTP host:port; empty means stdout
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// QuizConfig configures quiz labeling.
type QuizConfig struct {
	PassingPercentage float64 `yaml:"passing_percentage"`
}

// LLMConfig selects the provider used for tutor feedback. Keys not set here
// are discovered from the provider's usual environment variables.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		API: APIConfig{
			Timeout: 15 * time.Second,
		},
		Log: LogConfig{
			Mode:  "dev",
			Level: "warn",
		},
		Trace: TraceConfig{
			SampleRatio: 1,
		},
		Quiz: QuizConfig{
			PassingPercentage: lms.PassingPercentage,
		},
	}
}

// Load builds a Config. path is an explicit config file; when empty,
// LESSONKIT_CONFIG and then the XDG default location are tried, and a missing
// default file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	required := true
	if path == "" {
		path = os.Getenv("LESSONKIT_CONFIG")
	}
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path, required = p, false
	}

	if err := loadFile(&cfg, path, required); err != nil {
		return cfg, err
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/lessonkit/config.yaml, falling back to
// ~/.config/lessonkit/config.yaml.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "lessonkit", "config.yaml"), nil
}

func loadFile(cfg *Config, path string, required bool) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}
	str("LESSONKIT_BASE_URL", &cfg.API.BaseURL)
	str("LESSONKIT_TOKEN", &cfg.API.Token)
	str("LESSONKIT_DB", &cfg.Store.Path)
	str("LESSONKIT_LOG_MODE", &cfg.Log.Mode)
	str("LESSONKIT_LOG_LEVEL", &cfg.Log.Level)
	str("LESSONKIT_TRACE_ENDPOINT", &cfg.Trace.Endpoint)
	str("LESSONKIT_LLM_PROVIDER", &cfg.LLM.Provider)
	str("LESSONKIT_LLM_MODEL", &cfg.LLM.Model)
	str("LESSONKIT_LLM_API_KEY", &cfg.LLM.APIKey)

	if v := strings.TrimSpace(os.Getenv("LESSONKIT_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LESSONKIT_TIMEOUT: %w", err)
		}
		cfg.API.Timeout = d
	}
	if v := strings.TrimSpace(os.Getenv("LESSONKIT_TRACE")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LESSONKIT_TRACE: %w", err)
		}
		cfg.Trace.Enabled = b
	}
	if v := strings.TrimSpace(os.Getenv("LESSONKIT_NO_JOURNAL")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LESSONKIT_NO_JOURNAL: %w", err)
		}
		cfg.Store.Disabled = b
	}
	if v := strings.TrimSpace(os.Getenv("LESSONKIT_PASSING_PERCENTAGE")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("LESSONKIT_PASSING_PERCENTAGE: %w", err)
		}
		cfg.Quiz.PassingPercentage = f
	}
	return nil
}

// Validate checks the settings every API-backed command needs.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api base URL is required (set api.base_url, LESSONKIT_BASE_URL or --base-url)")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api base URL %q must be an absolute http(s) URL", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api timeout must be positive, got %s", c.API.Timeout)
	}
	if c.Quiz.PassingPercentage < 0 || c.Quiz.PassingPercentage > 100 {
		return fmt.Errorf("quiz passing percentage must be within 0-100, got %v", c.Quiz.PassingPercentage)
	}
	if c.Trace.SampleRatio < 0 || c.Trace.SampleRatio > 1 {
		return fmt.Errorf("trace sample ratio must be within 0-1, got %v", c.Trace.SampleRatio)
	}
	return nil
}
