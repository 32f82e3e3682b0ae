// Package metrics is the in-process counters / health aggregator,
// grounded on the prometheus usage pattern shared by BaSui01-agentflow,
// jordigilh-kubernaut, and MrWong99-glyphoxa (client_golang counters and
// histograms registered once at construction, incremented inline by the
// components they observe).
package metrics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Aggregator owns the process's prometheus collectors plus a small
// connector health-probe fan-out, matching §2's "in-process counters;
// fan-out health probe across connectors" responsibility.
type Aggregator struct {
	dispatches *prometheus.CounterVec
	routeCalls *prometheus.CounterVec
	latency    *prometheus.HistogramVec

	mu         sync.RWMutex
	probes     map[string]func(ctx context.Context) error
}

// New registers the aggregator's collectors against reg. Pass
// prometheus.NewRegistry() for isolated tests, or prometheus.DefaultRegisterer
// wrapped appropriately in production.
func New(reg prometheus.Registerer) *Aggregator {
	factory := promauto.With(reg)
	return &Aggregator{
		dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "conduit_dispatches_total",
			Help: "Total number of dispatched inbound messages, by intent and outcome.",
		}, []string{"intent", "outcome"}),
		routeCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "conduit_provider_calls_total",
			Help: "Total number of router provider calls, by intent, provider, and success.",
		}, []string{"intent", "provider", "success"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "conduit_provider_latency_ms",
			Help:    "Provider call latency in milliseconds.",
			Buckets: prometheus.ExponentialBuckets(10, 2, 12),
		}, []string{"intent", "provider"}),
		probes: map[string]func(ctx context.Context) error{},
	}
}

// RecordDispatch increments the dispatch counter for one intent/outcome pair.
func (a *Aggregator) RecordDispatch(intentName, outcome string) {
	a.dispatches.WithLabelValues(intentName, outcome).Inc()
}

// RecordRoute implements router.Metrics.
func (a *Aggregator) RecordRoute(intentName, provider string, latencyMS int64, success bool) {
	successLabel := "true"
	if !success {
		successLabel = "false"
	}
	a.routeCalls.WithLabelValues(intentName, provider, successLabel).Inc()
	a.latency.WithLabelValues(intentName, provider).Observe(float64(latencyMS))
}

// RegisterProbe registers a named connector health probe for the /health
// surface's fan-out.
func (a *Aggregator) RegisterProbe(name string, probe func(ctx context.Context) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.probes[name] = probe
}

// ProbeStatus is one connector's health-probe outcome.
type ProbeStatus struct {
	Healthy bool
	Error   string
}

// HealthReport is the /health payload shape: aggregate status plus
// per-connector detail.
type HealthReport struct {
	Status     string
	Connectors map[string]ProbeStatus
}

// Health fans out to every registered probe and aggregates the result:
// "healthy" only if every probe succeeds, otherwise "degraded".
func (a *Aggregator) Health(ctx context.Context) HealthReport {
	a.mu.RLock()
	probes := make(map[string]func(ctx context.Context) error, len(a.probes))
	for name, p := range a.probes {
		probes[name] = p
	}
	a.mu.RUnlock()

	report := HealthReport{Status: "healthy", Connectors: map[string]ProbeStatus{}}
	for name, probe := range probes {
		if err := probe(ctx); err != nil {
			report.Connectors[name] = ProbeStatus{Healthy: false, Error: err.Error()}
			report.Status = "degraded"
		} else {
			report.Connectors[name] = ProbeStatus{Healthy: true}
		}
	}
	return report
}
