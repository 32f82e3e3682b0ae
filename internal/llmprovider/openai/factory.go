package openai

import "conduit/internal/llmprovider"

// Factory builds Provider instances from a GroupConfig, following Genesis's
// per-package factory + init-time registration pattern
// (pkg/llm/openailm/factory.go -- note Genesis has no separate factory file
// for openailm; this project adds the one the older revision was missing).
type Factory struct{}

func init() {
	llmprovider.RegisterFactory("openai", Factory{})
}

func (Factory) Create(cfg llmprovider.GroupConfig) (llmprovider.Provider, error) {
	return New(cfg.Name, cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.JSONMode, cfg.Vision)
}
