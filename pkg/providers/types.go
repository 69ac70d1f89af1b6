package providers

import (
	"context"
	"time"
)

// Provider is the interface to the external language-model API.
//
// Implementations must respect context cancellation and return a typed error
// from this package on failure so the transport layer can map it.
type Provider interface {
	// SendCompletion forwards a validated message list to the upstream and
	// returns its reply.
	SendCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Healthy reports whether the provider is currently believed usable.
	Healthy() bool
}

// CompletionRequest is the provider-agnostic request shape.
type CompletionRequest struct {
	// Model is the upstream model identifier.
	Model string `json:"model"`

	// Messages is the validated conversation, oldest first.
	Messages []ChatMessage `json:"messages"`

	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// ChatMessage is one conversation turn in the upstream request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse is the provider-agnostic response shape.
type CompletionResponse struct {
	// Content is the generated reply text.
	Content string

	// Model is the model that actually served the request.
	Model string

	// Usage is the upstream token accounting, when reported.
	Usage Usage
}

// Usage reports upstream token counts.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Config contains configuration for an HTTP provider.
type Config struct {
	// BaseURL is the chat completions endpoint.
	BaseURL string

	// APIKey authenticates the relay to the upstream.
	APIKey string

	// Model is the default model to request.
	Model string

	// MaxTokens caps completion length. Zero means provider default.
	MaxTokens int

	// Timeout bounds a single upstream attempt.
	// Default: 60 seconds
	Timeout time.Duration

	// MaxRetries is the number of retries for transient failures.
	// Default: 2
	MaxRetries int
}
