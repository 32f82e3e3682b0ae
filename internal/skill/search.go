package skill

import (
	"context"
	"fmt"
	"strings"

	"conduit/internal/intent"
	"conduit/internal/llmprovider"
	"conduit/internal/message"
	"conduit/internal/router"
)

// searchProvider is the routing table's conventional name for the
// dedicated search-capable backend; Route's Prefer slot targets it first
// but still falls through to the table's ordinary fallback chain.
const searchProvider = "search"

// Search implements the SEARCH skill: routes to a dedicated search-oriented
// provider and attaches KB citations to the reply.
type Search struct{}

func NewSearch() *Search { return &Search{} }

func (*Search) Name() string             { return "search" }
func (*Search) Intents() []intent.Intent { return []intent.Intent{intent.Search} }

func (s *Search) Handle(ctx context.Context, in *message.Inbound, sc *Context) message.Outbound {
	messages := []llmprovider.Message{{Role: llmprovider.RoleUser, Content: in.Text}}
	resp, err := sc.Router.Route(ctx, intent.Search, messages, sc.SystemPrompt, router.CallOptions{Prefer: searchProvider, MaxTokens: 600})
	if err != nil {
		return message.NewOutbound(in, "I couldn't complete that search right now.")
	}

	atoms, _ := sc.KB.Search(ctx, in.Text, 3)
	var b strings.Builder
	b.WriteString(resp.Text)
	if len(atoms) > 0 {
		b.WriteString("\n\nCitations:\n")
		for _, a := range atoms {
			fmt.Fprintf(&b, "- %s\n", a.Title)
		}
	}
	return message.NewOutbound(in, b.String())
}
