package skill

import (
	"context"
	"fmt"
	"strings"

	"conduit/internal/connector/gist"
	"conduit/internal/intent"
	"conduit/internal/llmprovider"
	"conduit/internal/message"
	"conduit/internal/router"
)

// Gist implements the GIST skill: one router call generates a single
// document, published externally and returned as a URL.
type Gist struct{}

func NewGist() *Gist { return &Gist{} }

func (*Gist) Name() string             { return "gist" }
func (*Gist) Intents() []intent.Intent { return []intent.Intent{intent.Gist} }

func (g *Gist) Handle(ctx context.Context, in *message.Inbound, sc *Context) message.Outbound {
	prompt := "Write a single Markdown document covering: " + in.Text
	messages := []llmprovider.Message{{Role: llmprovider.RoleUser, Content: prompt}}
	resp, err := sc.Router.Route(ctx, intent.Gist, messages, sc.SystemPrompt, router.CallOptions{MaxTokens: 1200, Temperature: 0.3})
	if err != nil {
		return message.NewOutbound(in, "I couldn't generate that document right now.")
	}
	return publishDocument(ctx, in, sc, "notes.md", resp.Text)
}

// Project implements the PROJECT skill: a multi-file scaffold, one router
// call per file, each published under a single gist.
type Project struct{}

func NewProject() *Project { return &Project{} }

func (*Project) Name() string             { return "project" }
func (*Project) Intents() []intent.Intent { return []intent.Intent{intent.Project} }

func (p *Project) Handle(ctx context.Context, in *message.Inbound, sc *Context) message.Outbound {
	planPrompt := "List the file names (one per line, no commentary) needed to scaffold a minimal project for: " + in.Text
	planMessages := []llmprovider.Message{{Role: llmprovider.RoleUser, Content: planPrompt}}
	planResp, err := sc.Router.Route(ctx, intent.Project, planMessages, sc.SystemPrompt, router.CallOptions{MaxTokens: 200, Temperature: 0})
	if err != nil {
		return message.NewOutbound(in, "I couldn't plan that project scaffold right now.")
	}

	names := splitNonEmptyLines(planResp.Text)
	if len(names) == 0 {
		return message.NewOutbound(in, "I couldn't determine which files that project scaffold needs.")
	}

	var files []gist.File
	for _, name := range names {
		filePrompt := fmt.Sprintf("Write the complete contents of %s for a minimal project scaffold covering: %s", name, in.Text)
		fileMessages := []llmprovider.Message{{Role: llmprovider.RoleUser, Content: filePrompt}}
		resp, err := sc.Router.Route(ctx, intent.Project, fileMessages, sc.SystemPrompt, router.CallOptions{MaxTokens: 800, Temperature: 0.2})
		if err != nil {
			continue
		}
		files = append(files, gist.File{Name: name, Content: resp.Text})
	}
	if len(files) == 0 {
		return message.NewOutbound(in, "I planned the scaffold but couldn't generate any file contents.")
	}

	if sc.Gist == nil {
		return message.NewOutbound(in, fmt.Sprintf("Generated %d files, but no publishing service is configured.", len(files)))
	}
	url, err := sc.Gist.Publish(ctx, "Project scaffold: "+in.Text, files)
	if err != nil {
		return message.NewOutbound(in, fmt.Sprintf("Generated %d files, but publishing failed.", len(files)))
	}
	return message.NewOutbound(in, "Project scaffold: "+url)
}

func publishDocument(ctx context.Context, in *message.Inbound, sc *Context, filename, content string) message.Outbound {
	if sc.Gist == nil {
		return message.NewOutbound(in, content)
	}
	url, err := sc.Gist.Publish(ctx, in.Text, []gist.File{{Name: filename, Content: content}})
	if err != nil {
		return message.NewOutbound(in, content)
	}
	return message.NewOutbound(in, url)
}

func splitNonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
