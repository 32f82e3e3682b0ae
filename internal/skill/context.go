package skill

import (
	"context"

	"conduit/internal/budget"
	"conduit/internal/connector/cmms"
	"conduit/internal/connector/gist"
	"conduit/internal/connector/plc"
	"conduit/internal/connector/shell"
	"conduit/internal/conversation"
	"conduit/internal/fault"
	"conduit/internal/health"
	"conduit/internal/kb"
	"conduit/internal/message"
	"conduit/internal/metrics"
	"conduit/internal/ratelimit"
	"conduit/internal/router"
)

// Notifier lets a skill push a message to a user outside the normal
// request/response cycle, used by PHOTO's asynchronous enrichment
// completion and by any future out-of-band alerting.
type Notifier interface {
	Notify(ctx context.Context, out message.Outbound) error
}

// Context bundles every collaborator a skill may need. It is constructed
// once at startup and shared read-only across all skill invocations;
// individual collaborators own their own concurrency safety.
type Context struct {
	Router       *router.Router
	KB           *kb.Store
	Enrichment   *kb.Pipeline
	PLC          *plc.Connector
	CMMS         *cmms.Connector
	Gist         *gist.Connector
	Shell        *shell.Connector
	Conversation *conversation.Store
	RateLimit    *ratelimit.Limiter
	Budget       *budget.Tracker
	Health       *health.Registry
	Metrics      *metrics.Aggregator
	Registry     *Registry
	Notifier     Notifier

	SystemPrompt   string
	AllowList      []string
	ShellAllowList []string
	DefaultNodeID  string
}

// Allowed reports whether userID is permitted to use the gateway at all; an
// empty AllowList means "everyone allowed" (§5 access-control default).
func (c *Context) Allowed(userID string) bool {
	if len(c.AllowList) == 0 {
		return true
	}
	for _, u := range c.AllowList {
		if u == userID {
			return true
		}
	}
	return false
}

// ShellAllowed reports whether userID may invoke the SHELL skill; distinct
// from the general AllowList since shell access is a narrower privilege.
func (c *Context) ShellAllowed(userID string) bool {
	for _, u := range c.ShellAllowList {
		if u == userID {
			return true
		}
	}
	return false
}

// readTags fetches the latest telemetry snapshot for a node, defaulting to
// DefaultNodeID when the message carries none.
func (c *Context) readTags(ctx context.Context, nodeID string) (fault.Tags, error) {
	if nodeID == "" {
		nodeID = c.DefaultNodeID
	}
	rows, err := c.PLC.GetLatestTags(ctx, nodeID, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return fault.Tags{}, nil
	}
	return fault.Tags(rows[0]), nil
}
