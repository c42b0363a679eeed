package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every lookup location at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, k := range []string{
		"LESSONKIT_CONFIG", "LESSONKIT_BASE_URL", "LESSONKIT_TOKEN", "LESSONKIT_TIMEOUT",
		"LESSONKIT_DB", "LESSONKIT_TRACE", "LESSONKIT_PASSING_PERCENTAGE", "LESSONKIT_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoad_DefaultsWhenNothingConfigured(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Error(t, cfg.Validate(), "missing base URL must fail validation")
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "lk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://lms.example.com/api
  timeout: 5s
quiz:
  passing_percentage: 80
trace:
  enabled: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://lms.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 80.0, cfg.Quiz.PassingPercentage)
	assert.True(t, cfg.Trace.Enabled)
	assert.Equal(t, "warn", cfg.Log.Level, "unset keys keep defaults")
	assert.NoError(t, cfg.Validate())
}

func TestLoad_XDGDefaultFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lessonkit"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lessonkit", "config.yaml"),
		[]byte("api:\n  base_url: http://localhost:5000\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", cfg.API.BaseURL)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "lk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: https://file.example\n"), 0o600))
	t.Setenv("LESSONKIT_BASE_URL", "https://env.example")
	t.Setenv("LESSONKIT_TIMEOUT", "2m")
	t.Setenv("LESSONKIT_PASSING_PERCENTAGE", "65")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example", cfg.API.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.API.Timeout)
	assert.Equal(t, 65.0, cfg.Quiz.PassingPercentage)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LESSONKIT_TOKEN=from-dotenv\n"), 0o600))
	// godotenv never overrides variables that are already set, even to "".
	require.NoError(t, os.Unsetenv("LESSONKIT_TOKEN"))
	t.Cleanup(func() { os.Unsetenv("LESSONKIT_TOKEN") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.API.Token)
}

func TestLoad_BadEnvValue(t *testing.T) {
	isolate(t)
	t.Setenv("LESSONKIT_TIMEOUT", "soon")

	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	good := Default()
	good.API.BaseURL = "https://lms.example.com"
	require.NoError(t, good.Validate())

	tests := map[string]func(c *Config){
		"relative url":  func(c *Config) { c.API.BaseURL = "/api" },
		"bad scheme":    func(c *Config) { c.API.BaseURL = "ftp://lms.example.com" },
		"zero timeout":  func(c *Config) { c.API.Timeout = 0 },
		"passing > 100": func(c *Config) { c.Quiz.PassingPercentage = 101 },
		"ratio above 1": func(c *Config) { c.Trace.SampleRatio = 1.5 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := good
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
