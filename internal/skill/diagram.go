package skill

import (
	"context"
	"encoding/json"
	"fmt"

	"conduit/internal/intent"
	"conduit/internal/llmprovider"
	"conduit/internal/message"
	"conduit/internal/router"
)

const diagramSpecPrompt = `Produce a structured wiring/schematic diagram specification for the described component. Respond with ONLY a JSON object with keys: title, nodes (array of {id, label}), edges (array of {from, to, label}).`

// diagramSpec is the structured shape extracted from the router before
// rendering; its fields are only used to round-trip validity, not
// interpreted further here (rendering geometry is an external concern).
type diagramSpec struct {
	Title string `json:"title"`
	Nodes []struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	} `json:"nodes"`
	Edges []struct {
		From  string `json:"from"`
		To    string `json:"to"`
		Label string `json:"label"`
	} `json:"edges"`
}

// DiagramRenderer renders a validated diagram specification into an image;
// the rendering geometry itself is an out-of-scope external collaborator.
type DiagramRenderer interface {
	Render(ctx context.Context, spec json.RawMessage) (message.Attachment, error)
}

// Diagram implements the DIAGRAM skill: JSON-mode extraction with a single
// retry on parse failure, followed by external rendering.
type Diagram struct {
	Renderer DiagramRenderer
}

func NewDiagram(renderer DiagramRenderer) *Diagram { return &Diagram{Renderer: renderer} }

func (*Diagram) Name() string             { return "diagram" }
func (*Diagram) Intents() []intent.Intent { return []intent.Intent{intent.Diagram} }

func (d *Diagram) Handle(ctx context.Context, in *message.Inbound, sc *Context) message.Outbound {
	messages := []llmprovider.Message{{Role: llmprovider.RoleUser, Content: diagramSpecPrompt + "\n\n" + in.Text}}

	raw, resp, err := d.extract(ctx, sc, messages)
	if err != nil {
		// Retry once with the prior assistant turn and the parse error
		// appended, per §4.6.
		messages = append(messages,
			llmprovider.Message{Role: llmprovider.RoleAssistant, Content: resp.Text},
			llmprovider.Message{Role: llmprovider.RoleUser, Content: fmt.Sprintf("That was not valid JSON matching the schema: %s. Respond again with ONLY the corrected JSON object.", err)},
		)
		raw, _, err = d.extract(ctx, sc, messages)
		if err != nil {
			return message.NewOutbound(in, "I couldn't produce a valid diagram specification for that request.")
		}
	}

	if d.Renderer == nil {
		return message.NewOutbound(in, "Diagram specification produced, but no renderer is configured to turn it into an image.")
	}
	attachment, err := d.Renderer.Render(ctx, raw)
	if err != nil {
		return message.NewOutbound(in, "I built the diagram specification but rendering failed; please try again.")
	}

	out := message.NewOutbound(in, "Here's the diagram you asked for.")
	out.Attachments = append(out.Attachments, attachment)
	return out
}

func (d *Diagram) extract(ctx context.Context, sc *Context, messages []llmprovider.Message) (json.RawMessage, llmprovider.Response, error) {
	resp, err := sc.Router.Route(ctx, intent.Diagram, messages, sc.SystemPrompt, router.CallOptions{JSONMode: true, MaxTokens: 600, Temperature: 0})
	if err != nil {
		return nil, resp, err
	}
	var spec diagramSpec
	if err := json.Unmarshal([]byte(resp.Text), &spec); err != nil {
		return nil, resp, fmt.Errorf("diagram: parse: %w", err)
	}
	return json.RawMessage(resp.Text), resp, nil
}
