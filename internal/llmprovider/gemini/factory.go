package gemini

import "conduit/internal/llmprovider"

// Factory builds Provider instances from a GroupConfig, following Genesis's
// per-package factory + init-time registration pattern
// (pkg/llm/gemini/factory.go).
type Factory struct{}

func init() {
	llmprovider.RegisterFactory("gemini", Factory{})
}

func (Factory) Create(cfg llmprovider.GroupConfig) (llmprovider.Provider, error) {
	return New(cfg.Name, cfg.APIKey, cfg.Model, cfg.Options)
}
