// Package llmprovider defines the uniform capability contract the router
// uses to call any concrete LLM backend, generalizing Genesis's
// streaming-only pkg/llm.LLMClient into a request/response contract with
// explicit vision and JSON-mode capability flags.
package llmprovider

import (
	"context"
	"fmt"
)

// Role mirrors Genesis's pkg/llm message roles.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a conversation handed to a Provider.
type Message struct {
	Role    Role
	Content string
}

// Image is one inline image payload for a vision-capable call.
type Image struct {
	Data     []byte
	MimeType string
}

// Response is the normalized reply from any provider call.
type Response struct {
	Text       string
	Model      string
	Provider   string
	Tokens     int
	LatencyMS  int64
	Raw        any
}

// ErrorClass classifies why a provider call failed. The router does not
// branch on it: every failed call records a health failure and moves on to
// the next candidate.
type ErrorClass string

const (
	ErrAuth             ErrorClass = "auth"
	ErrRateLimit        ErrorClass = "rate_limit"
	ErrCapabilityMissing ErrorClass = "capability_missing"
	ErrTransport        ErrorClass = "transport"
	ErrUnknown          ErrorClass = "unknown"
)

// Error is the error type every Provider method returns on failure.
type Error struct {
	Provider string
	Class    ErrorClass
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Class, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a classified provider error.
func NewError(provider string, class ErrorClass, err error) *Error {
	return &Error{Provider: provider, Class: class, Err: err}
}

// CompleteOptions carries the optional parameters to Complete /
// CompleteWithVision beyond the message list itself.
type CompleteOptions struct {
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
	JSONMode     bool
}

// Provider is the capability set every LLM backend implements. Every
// method is required; a concrete provider reports its own vision and
// JSON-mode support through SupportsVision/SupportsJSONMode.
type Provider interface {
	Name() string
	IsAvailable() bool
	SupportsVision() bool
	SupportsJSONMode() bool
	Complete(ctx context.Context, messages []Message, opts CompleteOptions) (Response, error)
	CompleteWithVision(ctx context.Context, messages []Message, images []Image, opts CompleteOptions) (Response, error)
}
