// Package budget tracks per-provider daily request/token usage, grounded on
// Genesis's LogUsage accounting in pkg/llm/llm.go, generalized from a
// per-call Markdown log into a persistent process-local counter with lazy
// midnight reset.
package budget

import (
	"sync"
	"time"
)

// limits holds the configured caps for one provider; zero means unlimited.
type limits struct {
	dailyRequests int
	dailyTokens   int
}

// counters holds the running usage for one provider for "today".
type counters struct {
	requests  int
	tokens    int
	lastReset string // YYYY-MM-DD, local calendar date
}

// Summary is the read-only snapshot returned by Tracker.Summary.
type Summary struct {
	RequestsToday      int
	TokensToday        int
	DailyRequestLimit  int
	DailyTokenLimit    int
	WithinBudget       bool
}

// Tracker is the per-process, in-memory budget ledger. All state is
// protected by a single mutex; every operation completes its full
// read-modify-write before releasing it (§5 shared-mutable-state
// discipline).
type Tracker struct {
	mu       sync.Mutex
	limits   map[string]limits
	counters map[string]*counters
	now      func() time.Time // overridable for tests
}

// New constructs an empty Tracker.
func New() *Tracker {
	return &Tracker{
		limits:   map[string]limits{},
		counters: map[string]*counters{},
		now:      time.Now,
	}
}

// Configure sets the daily caps for a provider. A 0 limit means unlimited.
func (t *Tracker) Configure(provider string, dailyRequestLimit, dailyTokenLimit int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.limits[provider] = limits{dailyRequests: dailyRequestLimit, dailyTokens: dailyTokenLimit}
}

func (t *Tracker) today() string {
	return t.now().Format("2006-01-02")
}

// resetIfNeeded must be called with the mutex held.
func (t *Tracker) resetIfNeeded(provider string) *counters {
	c, ok := t.counters[provider]
	today := t.today()
	if !ok {
		c = &counters{lastReset: today}
		t.counters[provider] = c
		return c
	}
	if c.lastReset != today {
		c.requests = 0
		c.tokens = 0
		c.lastReset = today
	}
	return c
}

// IsWithinBudget reports whether provider has remaining daily request and
// token budget. A provider with no configured limits is always within
// budget.
func (t *Tracker) IsWithinBudget(provider string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.resetIfNeeded(provider)
	l := t.limits[provider]
	if l.dailyRequests > 0 && c.requests >= l.dailyRequests {
		return false
	}
	if l.dailyTokens > 0 && c.tokens >= l.dailyTokens {
		return false
	}
	return true
}

// Record increments the counters for a successful call. Must be called only
// after a provider call has succeeded (Testable Property 3).
func (t *Tracker) Record(provider string, tokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.resetIfNeeded(provider)
	c.requests++
	c.tokens += tokens
}

// Summary returns a per-provider usage snapshot.
func (t *Tracker) Summary() map[string]Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]Summary, len(t.limits))
	for provider, l := range t.limits {
		c := t.resetIfNeeded(provider)
		within := true
		if l.dailyRequests > 0 && c.requests >= l.dailyRequests {
			within = false
		}
		if l.dailyTokens > 0 && c.tokens >= l.dailyTokens {
			within = false
		}
		out[provider] = Summary{
			RequestsToday:     c.requests,
			TokensToday:       c.tokens,
			DailyRequestLimit: l.dailyRequests,
			DailyTokenLimit:   l.dailyTokens,
			WithinBudget:      within,
		}
	}
	return out
}
