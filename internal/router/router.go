// Package router implements the LLM Routing Core: an intent-keyed routing
// table, budget enforcement, circuit-breaker-guarded failover, and
// capability matching across heterogeneous providers.
package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"conduit/internal/budget"
	"conduit/internal/health"
	"conduit/internal/intent"
	"conduit/internal/llmprovider"
)

// Route pairs one Intent with a primary provider name and an ordered
// fallback list. The routing table is process-configurable at startup and
// reloadable, never a hard-coded constant (Design Notes: "intentionally
// ambiguous").
type Route struct {
	Primary   string
	Fallbacks []string
}

// Table maps Intent to Route; a zero-value Table entry is a "default route"
// used when no entry exists for a given intent.
type Table struct {
	Routes  map[intent.Intent]Route
	Default Route
}

// CallOptions carries the per-dispatch parameters to Route.
type CallOptions struct {
	Prefer      string
	Images      []llmprovider.Image
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// AttemptResult records one candidate's outcome for NoProviderAvailable
// diagnostics.
type AttemptResult struct {
	Provider string
	Skipped  bool
	Reason   string
}

// NoProviderAvailable is raised when every candidate in the resolved list was
// skipped or failed.
type NoProviderAvailable struct {
	Intent   intent.Intent
	Attempts []AttemptResult
}

func (e *NoProviderAvailable) Error() string {
	return fmt.Sprintf("router: no provider available for intent %s (%d candidates attempted)", e.Intent, len(e.Attempts))
}

// Router selects and calls providers per the selection algorithm in §4.3.
type Router struct {
	providers map[string]llmprovider.Provider
	table     *Table
	budget    *budget.Tracker
	health    *health.Registry
	metrics   Metrics
}

// Metrics is the subset of the metrics aggregator the router emits to; kept
// as a narrow interface here to avoid an import cycle with the metrics
// package's broader surface.
type Metrics interface {
	RecordRoute(intentName, provider string, latencyMS int64, success bool)
}

type noopMetrics struct{}

func (noopMetrics) RecordRoute(string, string, int64, bool) {}

// New constructs a Router over the given providers and routing table.
func New(providers map[string]llmprovider.Provider, table *Table, b *budget.Tracker, h *health.Registry, m Metrics) *Router {
	if m == nil {
		m = noopMetrics{}
	}
	return &Router{providers: providers, table: table, budget: b, health: h, metrics: m}
}

// usable implements ProviderHealth's invariant: a provider is usable iff its
// circuit is closed, it is within budget, configured, and (if images are
// present) it supports vision, and (if json mode requested) supports it.
func (r *Router) usable(name string, opts CallOptions) (llmprovider.Provider, string) {
	p, ok := r.providers[name]
	if !ok {
		return nil, "not configured"
	}
	if !p.IsAvailable() {
		return nil, "unavailable"
	}
	if r.health.IsOpen(name) {
		return nil, "circuit open"
	}
	if !r.budget.IsWithinBudget(name) {
		return nil, "over budget"
	}
	if len(opts.Images) > 0 && !p.SupportsVision() {
		return nil, "vision unsupported"
	}
	if opts.JSONMode && !p.SupportsJSONMode() {
		return nil, "json mode unsupported"
	}
	return p, ""
}

func (r *Router) call(ctx context.Context, p llmprovider.Provider, messages []llmprovider.Message, opts CallOptions) (llmprovider.Response, error) {
	copts := llmprovider.CompleteOptions{
		SystemPrompt: "",
		MaxTokens:    opts.MaxTokens,
		Temperature:  opts.Temperature,
		JSONMode:     opts.JSONMode,
	}
	if len(opts.Images) > 0 {
		return p.CompleteWithVision(ctx, messages, opts.Images, copts)
	}
	return p.Complete(ctx, messages, copts)
}

// Route executes the selection algorithm from §4.3. systemPrompt is
// threaded through CompleteOptions separately so callers don't need to
// splice it into messages themselves.
func (r *Router) Route(ctx context.Context, in intent.Intent, messages []llmprovider.Message, systemPrompt string, opts CallOptions) (llmprovider.Response, error) {
	var attempts []AttemptResult

	tryOne := func(name string) (llmprovider.Response, bool, error) {
		p, skipReason := r.usable(name, opts)
		if p == nil {
			attempts = append(attempts, AttemptResult{Provider: name, Skipped: true, Reason: skipReason})
			return llmprovider.Response{}, false, nil
		}
		start := time.Now()
		copts := llmprovider.CompleteOptions{SystemPrompt: systemPrompt, MaxTokens: opts.MaxTokens, Temperature: opts.Temperature, JSONMode: opts.JSONMode}
		var resp llmprovider.Response
		var err error
		if len(opts.Images) > 0 {
			resp, err = p.CompleteWithVision(ctx, messages, opts.Images, copts)
		} else {
			resp, err = p.Complete(ctx, messages, copts)
		}
		latency := time.Since(start).Milliseconds()
		if err != nil {
			r.health.RecordFailure(name)
			r.metrics.RecordRoute(string(in), name, latency, false)
			attempts = append(attempts, AttemptResult{Provider: name, Skipped: false, Reason: err.Error()})
			return llmprovider.Response{}, true, err
		}
		r.health.RecordSuccess(name)
		r.budget.Record(name, resp.Tokens)
		resp.LatencyMS = latency
		r.metrics.RecordRoute(string(in), name, latency, true)
		return resp, true, nil
	}

	// Step 1: an explicit prefer, attempted first but not part of the
	// fallback chain's slot accounting.
	if opts.Prefer != "" {
		if resp, attempted, err := tryOne(opts.Prefer); attempted && err == nil {
			return resp, nil
		}
	}

	route := r.table.Default
	if rt, ok := r.table.Routes[in]; ok {
		route = rt
	}
	candidates := append([]string{route.Primary}, route.Fallbacks...)

	for _, name := range candidates {
		if name == opts.Prefer {
			continue // already attempted above
		}
		if resp, attempted, err := tryOne(name); attempted && err == nil {
			return resp, nil
		} else if attempted && err != nil {
			continue
		}
	}

	return llmprovider.Response{}, &NoProviderAvailable{Intent: in, Attempts: attempts}
}

var ErrNoCandidates = errors.New("router: no candidates configured for intent")
