package skill

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"conduit/internal/intent"
	"conduit/internal/message"
)

// Admin implements the ADMIN skill: a read-only summary of provider budget
// and health state. HELP shares the same handler with different framing
// text since neither touches mutable state.
type Admin struct {
	help bool
}

func NewAdmin() *Admin { return &Admin{} }
func NewHelp() *Admin  { return &Admin{help: true} }

func (a *Admin) Name() string {
	if a.help {
		return "help"
	}
	return "admin"
}

func (a *Admin) Intents() []intent.Intent {
	if a.help {
		return []intent.Intent{intent.Help}
	}
	return []intent.Intent{intent.Admin}
}

func (a *Admin) Handle(ctx context.Context, in *message.Inbound, sc *Context) message.Outbound {
	if a.help {
		return message.NewOutbound(in, helpText(sc))
	}
	return message.NewOutbound(in, adminSummary(ctx, sc))
}

func adminSummary(ctx context.Context, sc *Context) string {
	var b strings.Builder
	b.WriteString("Provider budget:\n")
	summary := sc.Budget.Summary()
	names := make([]string, 0, len(summary))
	for name := range summary {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := summary[name]
		status := "ok"
		if !s.WithinBudget {
			status = "over budget"
		}
		fmt.Fprintf(&b, "- %s: %d requests, %d tokens today (%s)\n", name, s.RequestsToday, s.TokensToday, status)
	}

	if sc.Metrics != nil {
		report := sc.Metrics.Health(ctx)
		fmt.Fprintf(&b, "\nConnector health: %s\n", report.Status)
		connNames := make([]string, 0, len(report.Connectors))
		for name := range report.Connectors {
			connNames = append(connNames, name)
		}
		sort.Strings(connNames)
		for _, name := range connNames {
			probe := report.Connectors[name]
			if probe.Healthy {
				fmt.Fprintf(&b, "- %s: healthy\n", name)
			} else {
				fmt.Fprintf(&b, "- %s: %s\n", name, probe.Error)
			}
		}
	}

	if sc.Registry != nil {
		b.WriteString("\nSkills registered:\n")
		skills := sc.Registry.All()
		intents := make([]string, 0, len(skills))
		for in := range skills {
			intents = append(intents, string(in))
		}
		sort.Strings(intents)
		for _, in := range intents {
			fmt.Fprintf(&b, "- %s -> %s\n", in, skills[intent.Intent(in)])
		}
	}
	return b.String()
}

func helpText(sc *Context) string {
	return "Available commands: /diagnose, /status, /photo, /wo, /search, /diagram, /gist, /project, /run, /admin, /help.\n" +
		"Send a photo for component identification, or just ask a question."
}
