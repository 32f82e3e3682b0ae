package llmprovider

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"conduit/internal/budget"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BuildAll unmarshals raw (a JSON array of GroupConfig) and constructs one
// Provider per entry via the registered Factory for its Type, mirroring
// Genesis's llm.NewFromConfig (pkg/llm/loader.go) but returning the full
// map keyed by name instead of collapsing into a single FallbackClient,
// since this domain's Router owns fallback ordering itself via the routing
// table.
func BuildAll(raw jsoniter.RawMessage, budgetTracker *budget.Tracker) (map[string]Provider, error) {
	var configs []GroupConfig
	if err := json.Unmarshal(raw, &configs); err != nil {
		return nil, fmt.Errorf("llmprovider: parse provider configs: %w", err)
	}
	out := make(map[string]Provider, len(configs))
	for _, cfg := range configs {
		factory, ok := GetFactory(cfg.Type)
		if !ok {
			return nil, &ErrUnknownProviderType{Type: cfg.Type}
		}
		p, err := factory.Create(cfg)
		if err != nil {
			return nil, fmt.Errorf("llmprovider: build %q: %w", cfg.Name, err)
		}
		out[cfg.Name] = p
		budgetTracker.Configure(cfg.Name, cfg.DailyRequestLimit, cfg.DailyTokenLimit)
	}
	return out, nil
}
