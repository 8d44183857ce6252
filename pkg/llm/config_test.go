package llm

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func neutralizeEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{envAPIKey, envBaseURL, envDefaultModel, envTimeout, envMaxRetries} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigFromReader(t *testing.T) {
	neutralizeEnv(t)

	cfg, err := LoadConfigFromReader(strings.NewReader(`
base_url: https://llm.example.com/v1
api_key: sk-test
default_model: gpt-4o-mini
timeout: 45s
max_retries: 4
log_level: debug
`))
	require.NoError(t, err)
	require.Equal(t, "https://llm.example.com/v1", cfg.BaseURL)
	require.Equal(t, "sk-test", cfg.APIKey)
	require.Equal(t, "gpt-4o-mini", cfg.DefaultModel)
	require.Equal(t, 45*time.Second, cfg.Timeout)
	require.Equal(t, 4, cfg.MaxRetries)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigDefaults(t *testing.T) {
	neutralizeEnv(t)

	cfg, err := LoadConfigFromReader(strings.NewReader(`
api_key: sk-test
default_model: gpt-4o-mini
`))
	require.NoError(t, err)
	require.Equal(t, defaultBaseURL, cfg.BaseURL)
	require.Equal(t, defaultTimeout, cfg.Timeout)
	require.Equal(t, defaultMaxRetries, cfg.MaxRetries)
	require.Equal(t, defaultLogLevel, cfg.LogLevel)
}

func TestLoadConfigEnvExpansionAndOverride(t *testing.T) {
	neutralizeEnv(t)
	t.Setenv("LLM_TEST_KEY", "sk-from-placeholder")
	t.Setenv(envTimeout, "7s")

	cfg, err := LoadConfigFromReader(strings.NewReader(`
api_key: ${LLM_TEST_KEY}
default_model: gpt-4o-mini
timeout: 30s
`))
	require.NoError(t, err)
	require.Equal(t, "sk-from-placeholder", cfg.APIKey)
	require.Equal(t, 7*time.Second, cfg.Timeout, "env timeout overrides the file value")
}

func TestLoadConfigValidation(t *testing.T) {
	neutralizeEnv(t)

	_, err := LoadConfigFromReader(strings.NewReader(`
default_model: gpt-4o-mini
`))
	require.ErrorContains(t, err, "api_key is required")

	_, err = LoadConfigFromReader(strings.NewReader(`
api_key: sk-test
`))
	require.ErrorContains(t, err, "default_model is required")

	_, err = LoadConfigFromReader(strings.NewReader(`
api_key: sk-test
default_model: gpt-4o-mini
timeout: soon
`))
	require.ErrorContains(t, err, "parse timeout")
}

func TestConfigClone(t *testing.T) {
	var nilCfg *Config
	require.Nil(t, nilCfg.Clone())

	cfg := &Config{APIKey: "sk", DefaultModel: "m"}
	clone := cfg.Clone()
	clone.DefaultModel = "other"
	require.Equal(t, "m", cfg.DefaultModel)
}
