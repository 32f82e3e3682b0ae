// Package gemini adapts Google's Gemini API to the llmprovider contract,
// grounded on Genesis's pkg/llm/gemini client (same genai.NewClient
// construction, same GenerateContentConfig option wiring), collapsed into
// one blocking GenerateContent call per Complete/CompleteWithVision since
// this contract is request/response rather than streaming.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"conduit/internal/llmprovider"
)

// Provider wraps one Gemini model + API key pair.
type Provider struct {
	client  *genai.Client
	name    string
	model   string
	options map[string]any
}

// New mirrors Genesis's gemini.NewGeminiClient, but returns an error instead
// of panicking on client construction failure.
func New(name, apiKey, model string, options map[string]any) (*Provider, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Provider{client: client, name: name, model: model, options: options}, nil
}

func (p *Provider) Name() string           { return p.name }
func (p *Provider) IsAvailable() bool      { return p.client != nil }
func (p *Provider) SupportsVision() bool   { return true }
func (p *Provider) SupportsJSONMode() bool { return true }

func (p *Provider) genConfig(opts llmprovider.CompleteOptions) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if opts.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(opts.SystemPrompt, genai.RoleUser)
	}
	if opts.Temperature > 0 {
		t := float32(opts.Temperature)
		cfg.Temperature = &t
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

func convertHistory(messages []llmprovider.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.RoleUser
		if m.Role == llmprovider.RoleAssistant {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(m.Content, role))
	}
	return out
}

func (p *Provider) Complete(ctx context.Context, messages []llmprovider.Message, opts llmprovider.CompleteOptions) (llmprovider.Response, error) {
	start := time.Now()
	contents := convertHistory(messages)
	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, p.genConfig(opts))
	if err != nil {
		return llmprovider.Response{}, llmprovider.NewError(p.name, classify(err), err)
	}
	text := resp.Text()
	if text == "" {
		return llmprovider.Response{}, llmprovider.NewError(p.name, llmprovider.ErrUnknown, fmt.Errorf("empty response"))
	}
	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return llmprovider.Response{
		Text:      text,
		Model:     p.model,
		Provider:  p.name,
		Tokens:    tokens,
		LatencyMS: time.Since(start).Milliseconds(),
	}, nil
}

func (p *Provider) CompleteWithVision(ctx context.Context, messages []llmprovider.Message, images []llmprovider.Image, opts llmprovider.CompleteOptions) (llmprovider.Response, error) {
	if len(messages) == 0 {
		return llmprovider.Response{}, llmprovider.NewError(p.name, llmprovider.ErrUnknown, fmt.Errorf("no messages"))
	}
	start := time.Now()
	contents := convertHistory(messages[:len(messages)-1])

	last := messages[len(messages)-1]
	parts := []*genai.Part{genai.NewPartFromText(last.Content)}
	for _, img := range images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MimeType))
	}
	contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, p.genConfig(opts))
	if err != nil {
		return llmprovider.Response{}, llmprovider.NewError(p.name, classify(err), err)
	}
	text := resp.Text()
	if text == "" {
		return llmprovider.Response{}, llmprovider.NewError(p.name, llmprovider.ErrUnknown, fmt.Errorf("empty response"))
	}
	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return llmprovider.Response{
		Text:      text,
		Model:     p.model,
		Provider:  p.name,
		Tokens:    tokens,
		LatencyMS: time.Since(start).Milliseconds(),
	}, nil
}

func classify(err error) llmprovider.ErrorClass {
	msg := err.Error()
	switch {
	case containsAny(msg, "context deadline exceeded", "connection refused", "timeout", "unavailable"):
		return llmprovider.ErrTransport
	case containsAny(msg, "PERMISSION_DENIED", "UNAUTHENTICATED", "401"):
		return llmprovider.ErrAuth
	case containsAny(msg, "RESOURCE_EXHAUSTED", "429"):
		return llmprovider.ErrRateLimit
	default:
		return llmprovider.ErrUnknown
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
