package skill

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"conduit/internal/intent"
	"conduit/internal/message"
)

// Status implements the STATUS skill: a deterministic, key-sorted tag dump
// with no LLM call at all. It does not run the fault detector.
type Status struct{}

func NewStatus() *Status { return &Status{} }

func (*Status) Name() string             { return "status" }
func (*Status) Intents() []intent.Intent { return []intent.Intent{intent.Status} }

func (s *Status) Handle(ctx context.Context, in *message.Inbound, sc *Context) message.Outbound {
	tags, err := sc.readTags(ctx, in.NodeID)
	if err != nil {
		return message.NewOutbound(in, "I couldn't reach the telemetry source for a status read right now.")
	}
	if len(tags) == 0 {
		return message.NewOutbound(in, "No telemetry is currently available for that equipment.")
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		if isReservedTag(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Current status:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, formatTagValue(tags[k]))
	}
	return message.NewOutbound(in, b.String())
}

func isReservedTag(key string) bool {
	switch key {
	case "id", "timestamp", "node_id":
		return true
	}
	return strings.HasPrefix(key, "_")
}

func formatTagValue(v any) string {
	switch n := v.(type) {
	case bool:
		if n {
			return "ON"
		}
		return "OFF"
	case float64:
		return fmt.Sprintf("%.2f", n)
	default:
		return fmt.Sprintf("%v", v)
	}
}
