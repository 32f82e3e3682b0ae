package skill

import (
	"context"
	"fmt"
	"strings"

	"conduit/internal/intent"
	"conduit/internal/kb"
	"conduit/internal/llmprovider"
	"conduit/internal/message"
	"conduit/internal/router"
)

// Chat implements the CHAT skill: general conversation, keyed on the raw
// query against the KB for grounding context, threaded with any prior turns
// the channel injected via Inbound.History(). Each exchange is appended to
// the conversation store, which this skill does not read back.
type Chat struct{}

func NewChat() *Chat { return &Chat{} }

func (*Chat) Name() string             { return "chat" }
func (*Chat) Intents() []intent.Intent { return []intent.Intent{intent.Chat} }

func (c *Chat) Handle(ctx context.Context, in *message.Inbound, sc *Context) message.Outbound {
	atoms, _ := sc.KB.Search(ctx, in.Text, 3)

	if len(atoms) > 0 && atoms[0].Actionable() {
		sc.Conversation.Add(in.UserID, "user", in.Text)
		answer := layer0ChatAnswer(atoms[0])
		sc.Conversation.Add(in.UserID, "assistant", answer)
		return message.NewOutbound(in, answer)
	}

	var messages []llmprovider.Message
	for _, h := range in.History() {
		messages = append(messages, llmprovider.Message{Role: llmprovider.Role(h.Role), Content: h.Content})
	}
	messages = append(messages, llmprovider.Message{Role: llmprovider.RoleUser, Content: withContext(in.Text, atoms)})

	resp, err := sc.Router.Route(ctx, intent.Chat, messages, sc.SystemPrompt, router.CallOptions{MaxTokens: 500, Temperature: 0.5})
	if err != nil {
		out := message.NewOutbound(in, "I'm unable to reach any assistant provider right now; please try again shortly.")
		return out
	}

	sc.Conversation.Add(in.UserID, "user", in.Text)
	sc.Conversation.Add(in.UserID, "assistant", resp.Text)

	return message.NewOutbound(in, resp.Text)
}

func layer0ChatAnswer(a *kb.Atom) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", a.Title)
	for i, s := range a.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	for _, f := range a.Fixes {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	fmt.Fprintf(&b, "\nSource: %s\n\n_Layer 0 (KB direct)_", a.Title)
	return b.String()
}

func withContext(text string, atoms []*kb.Atom) string {
	if len(atoms) == 0 {
		return text
	}
	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\n(Relevant reference material: ")
	for i, a := range atoms {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s - %s", a.Title, a.Summary)
	}
	b.WriteString(")")
	return b.String()
}
