package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// HTTPProvider is the generic HTTP adapter for chat-completion endpoints.
// It provides connection pooling, retry with exponential backoff, timeout
// handling, and failure-count health tracking.
type HTTPProvider struct {
	config Config
	client *http.Client
	logger *slog.Logger

	// health tracking
	healthMu            sync.RWMutex
	healthy             bool
	consecutiveFailures int
}

// consecutive failures before the provider reports unhealthy.
const unhealthyThreshold = 3

// NewHTTPProvider creates an HTTP provider from configuration.
func NewHTTPProvider(cfg Config) (*HTTPProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("provider base URL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPProvider{
		config: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		logger:  slog.Default().With("component", "provider"),
		healthy: true,
	}, nil
}

// wire types for the upstream chat endpoint.
type upstreamRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type upstreamResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SendCompletion implements Provider. Transient failures (5xx, network
// errors) are retried with exponential backoff; 4xx responses are not.
func (p *HTTPProvider) SendCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if req.Model == "" {
		req.Model = p.config.Model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = p.config.MaxTokens
	}

	var lastErr error
	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				p.recordFailure(ctx.Err())
				return nil, &TimeoutError{Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		resp, err := p.send(ctx, req)
		if err == nil {
			p.recordSuccess()
			return resp, nil
		}

		lastErr = err
		if !retryable(err) {
			break
		}
		p.logger.Warn("provider request failed, retrying",
			"attempt", attempt+1,
			"max_retries", p.config.MaxRetries,
			"error", err,
		)
	}

	p.recordFailure(lastErr)
	return nil, lastErr
}

func (p *HTTPProvider) send(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	payload, err := json.Marshal(upstreamRequest{
		Model:     req.Model,
		Messages:  req.Messages,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal provider request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build provider request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return nil, &TimeoutError{Err: err}
		}
		return nil, &ProviderError{Message: err.Error()}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 4<<20))
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	switch {
	case httpResp.StatusCode == http.StatusUnauthorized || httpResp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{Message: upstreamMessage(body)}
	case httpResp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{RetryAfterSeconds: parseRetryAfter(httpResp)}
	case httpResp.StatusCode >= 400:
		return nil, &ProviderError{
			StatusCode: httpResp.StatusCode,
			Message:    upstreamMessage(body),
		}
	}

	var parsed upstreamResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ParseError{Err: err}
	}
	if parsed.Error != nil {
		return nil, &ProviderError{
			StatusCode: httpResp.StatusCode,
			Message:    parsed.Error.Message,
		}
	}
	if len(parsed.Choices) == 0 {
		return nil, &ParseError{Err: fmt.Errorf("response contained no choices")}
	}

	return &CompletionResponse{
		Content: parsed.Choices[0].Message.Content,
		Model:   parsed.Model,
		Usage: Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
	}, nil
}

// Healthy implements Provider.
func (p *HTTPProvider) Healthy() bool {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.healthy
}

func (p *HTTPProvider) recordSuccess() {
	p.healthMu.Lock()
	defer p.healthMu.Unlock()
	p.healthy = true
	p.consecutiveFailures = 0
}

func (p *HTTPProvider) recordFailure(err error) {
	p.healthMu.Lock()
	defer p.healthMu.Unlock()

	p.consecutiveFailures++
	if p.consecutiveFailures >= unhealthyThreshold && p.healthy {
		p.healthy = false
		p.logger.Warn("provider marked unhealthy",
			"consecutive_failures", p.consecutiveFailures,
			"error", err,
		)
	}
}

// retryable reports whether an error is worth another attempt. Auth, rate
// limit, and client errors are final; timeouts and 5xx are transient.
func retryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.StatusCode == 0 || provErr.StatusCode >= 500
	}
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

func upstreamMessage(body []byte) string {
	var parsed struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}

func parseRetryAfter(resp *http.Response) int {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
