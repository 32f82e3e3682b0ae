// Package dispatch implements the Dispatch Core: the single re-entrant
// entry point every channel adapter calls with a normalized Inbound message.
// Grounded on Genesis's agent.Engine.HandleMessage (pkg/agent/engine.go),
// generalized from a single-tool-loop agent into classify-then-skill-lookup
// dispatch over the Skill Registry.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"conduit/internal/intent"
	"conduit/internal/message"
	"conduit/internal/ratelimit"
	"conduit/internal/skill"
)

// Metrics is the narrow recording surface dispatch needs; satisfied by
// metrics.Aggregator.RecordDispatch.
type Metrics interface {
	RecordDispatch(intentName, outcome string)
}

type noopMetrics struct{}

func (noopMetrics) RecordDispatch(string, string) {}

// Core is the Dispatch Core.
type Core struct {
	registry  *skill.Registry
	context   *skill.Context
	metrics   Metrics
	rateLimit *ratelimit.Limiter
}

// New constructs a Core over the given skill registry, shared skill
// context, rate limiter, and metrics sink.
func New(registry *skill.Registry, sc *skill.Context, rl *ratelimit.Limiter, m Metrics) *Core {
	if m == nil {
		m = noopMetrics{}
	}
	return &Core{registry: registry, context: sc, rateLimit: rl, metrics: m}
}

// Dispatch runs the classify -> lookup -> handle pipeline from §4.5. It
// never lets a skill panic propagate past this call: a recovered panic is
// logged with its stack and converted into a generic user-facing reply on
// the same channel.
func (c *Core) Dispatch(ctx context.Context, in *message.Inbound) (out message.Outbound) {
	if in.Intent == "" || in.Intent == string(intent.Unknown) {
		in.Intent = string(intent.Classify(in))
	}

	if c.rateLimit != nil {
		if allowed, secs := c.rateLimit.Check(in.UserID); !allowed {
			c.metrics.RecordDispatch(in.Intent, "rate_limited")
			return message.NewOutbound(in, fmt.Sprintf("You've hit the hourly request limit; try again in %d seconds.", secs))
		}
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("dispatch: skill panicked", "intent", in.Intent, "panic", r, "stack", string(debug.Stack()))
			c.metrics.RecordDispatch(in.Intent, "panic")
			out = message.NewOutbound(in, "Something went wrong handling that request; it's been logged.")
		}
	}()

	s, ok := c.registry.Lookup(intent.Intent(in.Intent))
	if !ok {
		s, ok = c.registry.Lookup(intent.Chat)
	}
	if !ok {
		c.metrics.RecordDispatch(in.Intent, "no_skill")
		return message.NewOutbound(in, "No handler is available for that request right now.")
	}

	out = s.Handle(ctx, in, c.context)
	c.metrics.RecordDispatch(in.Intent, "ok")
	return out
}
