// Package openai adapts any OpenAI-compatible chat completions endpoint
// (OpenAI itself, or a compatible gateway reached via BaseURL) to the
// llmprovider contract, grounded on Genesis's pkg/llm/openailm client (same
// SDK, same option.WithAPIKey/WithBaseURL construction), collapsed from
// Genesis's streaming loop into one blocking Chat.Completions.New call since
// Provider.Complete is request/response.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"conduit/internal/llmprovider"
)

// Provider wraps one OpenAI-compatible model.
type Provider struct {
	client       *openai.Client
	name         string
	model        string
	jsonModeOK   bool
	visionOK     bool
}

// New mirrors Genesis's openailm.NewClient option wiring.
func New(name, apiKey, model, baseURL string, jsonModeOK, visionOK bool) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: empty api key for provider %q", name)
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &Provider{client: &client, name: name, model: model, jsonModeOK: jsonModeOK, visionOK: visionOK}, nil
}

func (p *Provider) Name() string           { return p.name }
func (p *Provider) IsAvailable() bool      { return p.client != nil }
func (p *Provider) SupportsVision() bool   { return p.visionOK }
func (p *Provider) SupportsJSONMode() bool { return p.jsonModeOK }

func convertMessages(system string, messages []llmprovider.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, m := range messages {
		switch m.Role {
		case llmprovider.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case llmprovider.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.SystemMessage(m.Content))
		}
	}
	return out
}

func (p *Provider) Complete(ctx context.Context, messages []llmprovider.Message, opts llmprovider.CompleteOptions) (llmprovider.Response, error) {
	if opts.JSONMode && !p.jsonModeOK {
		return llmprovider.Response{}, llmprovider.NewError(p.name, llmprovider.ErrCapabilityMissing, fmt.Errorf("json mode not supported"))
	}
	start := time.Now()
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: convertMessages(opts.SystemPrompt, messages),
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llmprovider.Response{}, llmprovider.NewError(p.name, classify(err), err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return llmprovider.Response{}, llmprovider.NewError(p.name, llmprovider.ErrUnknown, fmt.Errorf("empty response"))
	}
	return llmprovider.Response{
		Text:      resp.Choices[0].Message.Content,
		Model:     string(resp.Model),
		Provider:  p.name,
		Tokens:    int(resp.Usage.TotalTokens),
		LatencyMS: time.Since(start).Milliseconds(),
		Raw:       resp,
	}, nil
}

func (p *Provider) CompleteWithVision(ctx context.Context, messages []llmprovider.Message, images []llmprovider.Image, opts llmprovider.CompleteOptions) (llmprovider.Response, error) {
	if !p.visionOK {
		return llmprovider.Response{}, llmprovider.NewError(p.name, llmprovider.ErrCapabilityMissing, fmt.Errorf("vision not supported"))
	}
	if len(messages) == 0 {
		return llmprovider.Response{}, llmprovider.NewError(p.name, llmprovider.ErrUnknown, fmt.Errorf("no messages"))
	}
	start := time.Now()
	converted := convertMessages(opts.SystemPrompt, messages[:len(messages)-1])
	last := messages[len(messages)-1]

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(last.Content),
	}
	for _, img := range images {
		url := fmt.Sprintf("data:%s;base64,%s", img.MimeType, base64Encode(img.Data))
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: url}))
	}
	converted = append(converted, openai.UserMessage(parts))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: converted,
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llmprovider.Response{}, llmprovider.NewError(p.name, classify(err), err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return llmprovider.Response{}, llmprovider.NewError(p.name, llmprovider.ErrUnknown, fmt.Errorf("empty response"))
	}
	return llmprovider.Response{
		Text:      resp.Choices[0].Message.Content,
		Model:     string(resp.Model),
		Provider:  p.name,
		Tokens:    int(resp.Usage.TotalTokens),
		LatencyMS: time.Since(start).Milliseconds(),
	}, nil
}

// classify mirrors Genesis's openailm.Client.IsTransientError.
func classify(err error) llmprovider.ErrorClass {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "context deadline exceeded"), strings.Contains(msg, "connection refused"), strings.Contains(msg, "timeout"):
		return llmprovider.ErrTransport
	case strings.Contains(msg, "401"), strings.Contains(msg, "unauthorized"):
		return llmprovider.ErrAuth
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"):
		return llmprovider.ErrRateLimit
	default:
		return llmprovider.ErrUnknown
	}
}
