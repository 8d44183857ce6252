package market

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	envAPIKey    = "ALPACA_API_KEY"
	envAPISecret = "ALPACA_API_SECRET"
)

// Config holds the Alpaca credentials and enrichment defaults. There is no
// process-wide registry: the config is constructed explicitly and handed to
// whoever needs a provider.
type Config struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	// Paper selects the paper trading environment for account endpoints.
	// The data API is shared, so the flag is informational here.
	Paper bool `yaml:"paper"`

	// Optional enrichment defaults. When Ticker is empty the ticker is
	// extracted from the user's message instead.
	Ticker    string `yaml:"ticker"`
	Timeframe string `yaml:"timeframe"`

	Timeout    time.Duration `yaml:"-"`
	timeoutRaw string
}

// LoadConfig reads configuration from disk.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open market config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read market config: %w", err)
	}

	var raw struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		BaseURL   string `yaml:"base_url"`
		Paper     bool   `yaml:"paper"`
		Ticker    string `yaml:"ticker"`
		Timeframe string `yaml:"timeframe"`
		Timeout   string `yaml:"timeout"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal market config: %w", err)
	}

	cfg := &Config{
		APIKey:     strings.TrimSpace(os.ExpandEnv(raw.APIKey)),
		APISecret:  strings.TrimSpace(os.ExpandEnv(raw.APISecret)),
		BaseURL:    strings.TrimSpace(os.ExpandEnv(raw.BaseURL)),
		Paper:      raw.Paper,
		Ticker:     strings.ToUpper(strings.TrimSpace(raw.Ticker)),
		Timeframe:  strings.TrimSpace(raw.Timeframe),
		timeoutRaw: strings.TrimSpace(raw.Timeout),
	}
	cfg.applyEnvOverrides()
	if err := cfg.parseTimeout(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv(envAPIKey)); v != "" {
		c.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(envAPISecret)); v != "" {
		c.APISecret = v
	}
}

func (c *Config) parseTimeout() error {
	if c.timeoutRaw == "" {
		c.Timeout = defaultRequestTimeout
		return nil
	}
	d, err := time.ParseDuration(c.timeoutRaw)
	if err != nil {
		return fmt.Errorf("market config: parse timeout %q: %w", c.timeoutRaw, err)
	}
	c.Timeout = d
	return nil
}

// Validate checks the loaded configuration. Missing credentials are allowed:
// enrichment is skipped entirely when the key pair is absent.
func (c *Config) Validate() error {
	if c.Timeframe != "" && !Timeframe(c.Timeframe).Valid() {
		return fmt.Errorf("market config: unsupported timeframe %q", c.Timeframe)
	}
	if (c.APIKey == "") != (c.APISecret == "") {
		return fmt.Errorf("market config: api_key and api_secret must be set together")
	}
	return nil
}

// Enabled reports whether the config carries a usable credential pair.
func (c *Config) Enabled() bool {
	return c != nil && c.APIKey != "" && c.APISecret != ""
}

// NewProvider constructs an Alpaca provider from this config.
func (c *Config) NewProvider() (*AlpacaProvider, error) {
	if !c.Enabled() {
		return nil, ErrNoCredentials
	}
	clientOpts := []Option{}
	if c.BaseURL != "" {
		clientOpts = append(clientOpts, WithBaseURL(c.BaseURL))
	}
	client, err := NewClient(Credentials{APIKey: c.APIKey, APISecret: c.APISecret}, clientOpts...)
	if err != nil {
		return nil, err
	}
	return NewAlpacaProvider(Credentials{}, WithClient(client), WithTimeout(c.Timeout))
}
