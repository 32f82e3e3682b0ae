// Package plc implements the PLC telemetry connector: a thin HTTP client
// over a node's `get_latest_tags` endpoint, grounded on Genesis's
// transport-timeout-aware http.Client construction pattern
// (pkg/llm/ollama/client.go's custom Transport).
package plc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"conduit/internal/connector"
)

// Connector talks to one PLC telemetry HTTP endpoint.
type Connector struct {
	baseURL string
	client  *http.Client
}

// New constructs a Connector with a bounded transport timeout, matching the
// "bounded transport timeout, seconds, provider-specific" concurrency rule
// in §5.
func New(baseURL string, timeout time.Duration) *Connector {
	return &Connector{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

func (c *Connector) Name() string { return "plc" }

func (c *Connector) Connect(ctx context.Context) error {
	if c.baseURL == "" {
		return &connector.Unavailable{Connector: "plc", Reason: "no base url configured"}
	}
	return nil
}

func (c *Connector) Disconnect(ctx context.Context) error { return nil }

func (c *Connector) HealthCheck(ctx context.Context) error {
	if c.baseURL == "" {
		return &connector.Unavailable{Connector: "plc", Reason: "not configured"}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return &connector.Unavailable{Connector: "plc", Reason: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return &connector.Unavailable{Connector: "plc", Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}
	return nil
}

// GetLatestTags fetches the most recent tag map(s) for a node (nodeID may
// be empty for "the default node"); the DIAGNOSE/STATUS skills use only the
// first entry.
func (c *Connector) GetLatestTags(ctx context.Context, nodeID string, limit int) ([]map[string]any, error) {
	if c.baseURL == "" {
		return nil, &connector.Unavailable{Connector: "plc", Reason: "not configured"}
	}
	url := fmt.Sprintf("%s/tags/latest?limit=%d", c.baseURL, limit)
	if nodeID != "" {
		url += "&node_id=" + nodeID
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &connector.Unavailable{Connector: "plc", Reason: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("plc: status %d", resp.StatusCode)
	}
	var tags []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("plc: decode response: %w", err)
	}
	return tags, nil
}
