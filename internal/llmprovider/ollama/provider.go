// Package ollama adapts a local/self-hosted Ollama model to the llmprovider
// contract, grounded on Genesis's pkg/llm/ollama client (same SDK, same
// custom no-timeout transport for long model loads, same message
// conversion), but collapsed from Genesis's streaming callback into one
// blocking call by setting Stream=false and waiting for the single
// response, since this contract's Provider.Complete is request/response.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"conduit/internal/llmprovider"
)

// Provider wraps one Ollama model reachable at baseURL.
type Provider struct {
	client  *api.Client
	model   string
	name    string
	options map[string]any
}

// New mirrors Genesis's NewOllamaClient: a transport with no response-header
// or overall timeout, since local model loads can take much longer than a
// typical HTTP client default.
func New(name, model, baseURL string, options map[string]any) (*Provider, error) {
	transport := &http.Transport{
		ResponseHeaderTimeout: 0,
		IdleConnTimeout:       90 * time.Second,
	}
	httpClient := &http.Client{Transport: transport, Timeout: 0}

	var client *api.Client
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("ollama: parse base url: %w", err)
		}
		client = api.NewClient(u, httpClient)
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollama: client from environment: %w", err)
		}
	}
	return &Provider{client: client, model: model, name: name, options: options}, nil
}

func (p *Provider) Name() string            { return p.name }
func (p *Provider) IsAvailable() bool       { return p.client != nil }
func (p *Provider) SupportsVision() bool    { return true }
func (p *Provider) SupportsJSONMode() bool  { return true }

func convertMessages(system string, messages []llmprovider.Message, images []llmprovider.Image) []api.Message {
	out := make([]api.Message, 0, len(messages)+1)
	if system != "" {
		out = append(out, api.Message{Role: "system", Content: system})
	}
	for i, m := range messages {
		am := api.Message{Role: string(m.Role), Content: m.Content}
		if i == len(messages)-1 {
			for _, img := range images {
				am.Images = append(am.Images, api.ImageData(img.Data))
			}
		}
		out = append(out, am)
	}
	return out
}

func (p *Provider) do(ctx context.Context, messages []llmprovider.Message, images []llmprovider.Image, opts llmprovider.CompleteOptions) (llmprovider.Response, error) {
	if len(images) > 0 && !p.SupportsVision() {
		return llmprovider.Response{}, llmprovider.NewError(p.name, llmprovider.ErrCapabilityMissing, fmt.Errorf("vision not supported"))
	}
	start := time.Now()
	streamOff := false
	options := map[string]any{}
	for k, v := range p.options {
		options[k] = v
	}
	if opts.Temperature > 0 {
		options["temperature"] = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}
	req := &api.ChatRequest{
		Model:    p.model,
		Messages: convertMessages(opts.SystemPrompt, messages, images),
		Stream:   &streamOff,
		Options:  options,
	}
	if opts.JSONMode {
		req.Format = []byte(`"json"`)
	}

	var text string
	var tokens int
	err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		text += resp.Message.Content
		tokens = resp.EvalCount + resp.PromptEvalCount
		return nil
	})
	if err != nil {
		return llmprovider.Response{}, llmprovider.NewError(p.name, classify(err), err)
	}
	if text == "" {
		return llmprovider.Response{}, llmprovider.NewError(p.name, llmprovider.ErrUnknown, fmt.Errorf("empty response"))
	}
	return llmprovider.Response{
		Text:      text,
		Model:     p.model,
		Provider:  p.name,
		Tokens:    tokens,
		LatencyMS: time.Since(start).Milliseconds(),
	}, nil
}

func (p *Provider) Complete(ctx context.Context, messages []llmprovider.Message, opts llmprovider.CompleteOptions) (llmprovider.Response, error) {
	return p.do(ctx, messages, nil, opts)
}

func (p *Provider) CompleteWithVision(ctx context.Context, messages []llmprovider.Message, images []llmprovider.Image, opts llmprovider.CompleteOptions) (llmprovider.Response, error) {
	return p.do(ctx, messages, images, opts)
}

// classify mirrors Genesis's OllamaClient.IsTransientError substring checks,
// translated into the router's ErrorClass taxonomy.
func classify(err error) llmprovider.ErrorClass {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "connection reset"), strings.Contains(msg, "overloaded"), strings.Contains(msg, "timeout"):
		return llmprovider.ErrTransport
	case strings.Contains(msg, "unauthorized"), strings.Contains(msg, "forbidden"):
		return llmprovider.ErrAuth
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "429"):
		return llmprovider.ErrRateLimit
	default:
		return llmprovider.ErrUnknown
	}
}
