package config_test

import (
	"os"
	"path/filepath"
	"testing"

	appconfig "finsight-api/internal/config"
	"finsight-api/internal/svc"
)

func TestMustLoadAndServiceWiring(t *testing.T) {
	dir := t.TempDir()

	llmYAML := []byte("" +
		"base_url: https://llm.example/v1\n" +
		"api_key: test-key\n" +
		"default_model: gpt-x\n" +
		"timeout: 2s\n")
	if err := os.WriteFile(filepath.Join(dir, "llm.yaml"), llmYAML, 0o600); err != nil {
		t.Fatalf("write llm.yaml: %v", err)
	}

	marketYAML := []byte("" +
		"api_key: ak-test\n" +
		"api_secret: as-test\n" +
		"timeframe: 1M\n")
	if err := os.WriteFile(filepath.Join(dir, "market.yaml"), marketYAML, 0o600); err != nil {
		t.Fatalf("write market.yaml: %v", err)
	}

	mainYAML := []byte("" +
		"Name: finsight-test\n" +
		"Host: 127.0.0.1\n" +
		"Port: 0\n" +
		"TTL:\n  Short: 30\n  Medium: 300\n  Long: 3600\n\n" +
		"Search:\n  BaseURL: http://searxng.local:8080\n  MaxResults: 5\n\n" +
		"LLM:\n  File: llm.yaml\n\n" +
		"Market:\n  File: market.yaml\n")

	mainPath := filepath.Join(dir, "finsight.yaml")
	if err := os.WriteFile(mainPath, mainYAML, 0o600); err != nil {
		t.Fatalf("write temp main config: %v", err)
	}

	// Keep ambient credentials from overriding the fixture values.
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ALPACA_API_KEY", "")
	t.Setenv("ALPACA_API_SECRET", "")

	cfg, err := appconfig.Load(mainPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if cfg.LLM.Value == nil || cfg.Market.Value == nil {
		t.Fatalf("config sections not hydrated")
	}
	if cfg.Search.MaxResults != 5 {
		t.Fatalf("search maxResults got %d", cfg.Search.MaxResults)
	}

	// ServiceContext wires clients from the hydrated sections. No Postgres or
	// Redis configured, so storage stays nil.
	sc := svc.NewServiceContext(*cfg)

	if sc.LLM == nil {
		t.Fatalf("llm client not built")
	}
	if sc.Generator == nil {
		t.Fatalf("answer generator not built")
	}
	if sc.Enricher == nil || !sc.Enricher.Enabled() {
		t.Fatalf("market enricher not built or disabled")
	}
	if sc.DBConn != nil || sc.Repos != nil || sc.History != nil {
		t.Fatalf("storage should be nil without a DSN")
	}
	if sc.Cache != nil {
		t.Fatalf("cache should be nil without redis config")
	}
}
