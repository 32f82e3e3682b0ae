package skill

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"conduit/internal/intent"
	"conduit/internal/llmprovider"
	"conduit/internal/message"
	"conduit/internal/router"
)

const (
	wiringSystemPrompt     = "You are a wiring and terminal identification assistant for industrial electrical components. Describe terminals, wiring color codes, and connection points precisely."
	diagnosticSystemPrompt = "You are a maintenance diagnostic assistant. Look for visible signs of fault, damage, or abnormal wear in this equipment photo."
	generalSystemPrompt    = "You are a maintenance assistant describing an equipment photo for a field technician."
)

// photoSystemPrompt selects one of three system prompts by caption keyword
// (§4.6); caption is matched case-insensitively.
func photoSystemPrompt(caption string) string {
	lower := strings.ToLower(caption)
	switch {
	case strings.Contains(lower, "wiring"), strings.Contains(lower, "diagram"), strings.Contains(lower, "terminal"):
		return wiringSystemPrompt
	case strings.Contains(lower, "diagnos"), strings.Contains(lower, "fault"), strings.Contains(lower, "issue"):
		return diagnosticSystemPrompt
	default:
		return generalSystemPrompt
	}
}

// Photo implements the PHOTO skill: a synchronous vision call answers the
// technician immediately, while KB enrichment runs in the background and
// reports back through the notifier once it finishes (§4.6, §4.8).
type Photo struct{}

func NewPhoto() *Photo { return &Photo{} }

func (*Photo) Name() string             { return "photo" }
func (*Photo) Intents() []intent.Intent { return []intent.Intent{intent.Photo} }

func (p *Photo) Handle(ctx context.Context, in *message.Inbound, sc *Context) message.Outbound {
	img := firstImage(in)
	if img == nil {
		return message.NewOutbound(in, "I didn't receive a usable image with that message.")
	}

	prompt := in.Text
	if prompt == "" {
		prompt = "Describe what you see in this equipment photo and note anything that looks abnormal."
	}
	messages := []llmprovider.Message{{Role: llmprovider.RoleUser, Content: prompt}}

	resp, err := sc.Router.Route(ctx, intent.Photo, messages, photoSystemPrompt(in.Text), router.CallOptions{
		Images:    []llmprovider.Image{*img},
		MaxTokens: 600,
	})
	out := message.NewOutbound(in, "")
	if err != nil {
		out.Text = "I couldn't analyze that photo right now; please try again."
	} else {
		out.Text = resp.Text
	}

	if sc.Enrichment != nil {
		go p.enrichAsync(context.Background(), *img, in, sc)
	}

	return out
}

func (p *Photo) enrichAsync(ctx context.Context, img llmprovider.Image, in *message.Inbound, sc *Context) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	result := sc.Enrichment.Run(ctx, in.ID, img, "")
	if result.Err != nil {
		slog.Warn("kb enrichment failed", "photo_id", in.ID, "error", result.Err)
		return
	}

	if sc.Notifier == nil {
		return
	}
	summary := fmt.Sprintf("Knowledge base updated from your photo: %s", result.Title)
	if result.NeedsReview {
		summary += " (flagged for review - conflicting wiring data)"
	}
	note := message.NewOutbound(in, summary)
	if err := sc.Notifier.Notify(ctx, note); err != nil {
		slog.Warn("kb enrichment notification failed", "photo_id", in.ID, "error", err)
	}
}

func firstImage(in *message.Inbound) *llmprovider.Image {
	for _, a := range in.Attachments {
		if a.Type == message.AttachmentImage && len(a.Data) > 0 {
			return &llmprovider.Image{Data: a.Data, MimeType: a.MimeType}
		}
	}
	return nil
}
