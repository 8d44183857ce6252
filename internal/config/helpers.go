package config

import (
	"fmt"
	"path/filepath"

	"finsight-api/pkg/llm"
	"finsight-api/pkg/market"
)

// MustLoadLLM loads etc/llm.yaml from the project root and panics on error.
// It isolates the LLM section so tests and CLIs do not need the full server
// configuration.
func MustLoadLLM() *llm.Config {
	root := MustProjectRoot()
	path := filepath.Join(root, "etc", "llm.yaml")
	cfg, err := llm.LoadConfig(path)
	if err != nil {
		panic(fmt.Errorf("load llm config %s: %w", path, err))
	}
	return cfg
}

// MustLoadMarket loads etc/market.yaml from the project root and panics on error.
func MustLoadMarket() *market.Config {
	root := MustProjectRoot()
	path := filepath.Join(root, "etc", "market.yaml")
	cfg, err := market.LoadConfig(path)
	if err != nil {
		panic(fmt.Errorf("load market config %s: %w", path, err))
	}
	return cfg
}
