// Package cmms implements the computerized-maintenance-management-system
// connector the WORK_ORDER skill uses when configured; otherwise that skill
// degrades to the portable-document + gist fallback (§4.6).
package cmms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"conduit/internal/connector"
)

// WorkOrder is the structured record the WORK_ORDER skill extracts via the
// Router's JSON-mode call.
type WorkOrder struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	AssetName   string `json:"asset_name"`
	AssetID     string `json:"asset_id"`
	Location    string `json:"location"`
	WorkType    string `json:"work_type"`
	Category    string `json:"category"`
	FailureCode string `json:"failure_code"`
}

// Connector talks to one CMMS HTTP endpoint.
type Connector struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string, timeout time.Duration) *Connector {
	return &Connector{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

func (c *Connector) Name() string { return "cmms" }

func (c *Connector) Connect(ctx context.Context) error {
	if c.baseURL == "" {
		return &connector.Unavailable{Connector: "cmms", Reason: "no base url configured"}
	}
	return nil
}

func (c *Connector) Disconnect(ctx context.Context) error { return nil }

func (c *Connector) HealthCheck(ctx context.Context) error {
	if c.baseURL == "" {
		return &connector.Unavailable{Connector: "cmms", Reason: "not configured"}
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	resp, err := c.client.Do(req)
	if err != nil {
		return &connector.Unavailable{Connector: "cmms", Reason: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return &connector.Unavailable{Connector: "cmms", Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}
	return nil
}

// CreateWorkOrder posts wo to the CMMS and returns its assigned identifier.
func (c *Connector) CreateWorkOrder(ctx context.Context, wo WorkOrder) (string, error) {
	if c.baseURL == "" {
		return "", &connector.Unavailable{Connector: "cmms", Reason: "not configured"}
	}
	body, err := json.Marshal(wo)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/work_orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return "", &connector.Unavailable{Connector: "cmms", Reason: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("cmms: status %d", resp.StatusCode)
	}
	var decoded struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("cmms: decode response: %w", err)
	}
	return decoded.ID, nil
}
