package ollama

import "conduit/internal/llmprovider"

// Factory builds Provider instances from a GroupConfig, following Genesis's
// per-package factory + init-time registration pattern
// (pkg/llm/ollama/factory.go).
type Factory struct{}

func init() {
	llmprovider.RegisterFactory("ollama", Factory{})
}

func (Factory) Create(cfg llmprovider.GroupConfig) (llmprovider.Provider, error) {
	return New(cfg.Name, cfg.Model, cfg.BaseURL, cfg.Options)
}
