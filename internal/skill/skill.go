// Package skill implements the Skill Registry and the eleven concrete
// skills dispatched by Intent. Grounded on Genesis's tools.ToolRegistry
// (pkg/tools/tool.go) name->implementation map, generalized from tool-name
// keys to Intent keys and from a single Execute method to the
// handle(InboundMessage, Context) contract in §4.6.
package skill

import (
	"context"
	"log/slog"
	"sync"

	"conduit/internal/intent"
	"conduit/internal/message"
)

// Skill is the capability set every skill implements.
type Skill interface {
	Intents() []intent.Intent
	Name() string
	Handle(ctx context.Context, in *message.Inbound, sc *Context) message.Outbound
}

// Registry maps Intent to Skill; the last registration for a given intent
// wins (logged), matching §4.6.
type Registry struct {
	mu    sync.RWMutex
	byIntent map[intent.Intent]Skill
}

func NewRegistry() *Registry {
	return &Registry{byIntent: map[intent.Intent]Skill{}}
}

// Register adds s under every intent it declares.
func (r *Registry) Register(s Skill) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, in := range s.Intents() {
		if existing, ok := r.byIntent[in]; ok {
			slog.Warn("skill registry: overriding existing skill", "intent", in, "previous", existing.Name(), "new", s.Name())
		}
		r.byIntent[in] = s
	}
}

// Lookup returns the skill registered for an intent, if any.
func (r *Registry) Lookup(in intent.Intent) (Skill, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byIntent[in]
	return s, ok
}

// All enumerates every registered (intent, skill-name) pair for ADMIN/HELP.
func (r *Registry) All() map[intent.Intent]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[intent.Intent]string, len(r.byIntent))
	for in, s := range r.byIntent {
		out[in] = s.Name()
	}
	return out
}
