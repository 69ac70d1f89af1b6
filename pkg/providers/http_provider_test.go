package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func completionServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *HTTPProvider) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewHTTPProvider(Config{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		Model:      "test-model",
		Timeout:    2 * time.Second,
		MaxRetries: 2,
	})
	if err != nil {
		t.Fatalf("NewHTTPProvider: %v", err)
	}
	return srv, p
}

func okBody(content string) map[string]any {
	return map[string]any{
		"model": "test-model",
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
		"usage": map[string]int{
			"prompt_tokens":     10,
			"completion_tokens": 5,
			"total_tokens":      15,
		},
	}
}

func TestHTTPProvider_SendCompletion(t *testing.T) {
	_, p := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		var req upstreamRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode upstream request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("expected default model to be applied, got %q", req.Model)
		}
		json.NewEncoder(w).Encode(okBody("hello"))
	})

	resp, err := p.SendCompletion(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("SendCompletion: %v", err)
	}
	if resp.Content != "hello" {
		t.Errorf("expected content %q, got %q", "hello", resp.Content)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("expected 15 total tokens, got %d", resp.Usage.TotalTokens)
	}
	if !p.Healthy() {
		t.Error("expected provider healthy after success")
	}
}

func TestHTTPProvider_RetriesTransientFailures(t *testing.T) {
	var calls int32
	_, p := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(okBody("recovered"))
	})

	resp, err := p.SendCompletion(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("SendCompletion after retries: %v", err)
	}
	if resp.Content != "recovered" {
		t.Errorf("expected content %q, got %q", "recovered", resp.Content)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestHTTPProvider_NoRetryOnAuthError(t *testing.T) {
	var calls int32
	_, p := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "bad key"},
		})
	})

	_, err := p.SendCompletion(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected exactly 1 attempt for auth failure, got %d", got)
	}
}

func TestHTTPProvider_UpstreamRateLimit(t *testing.T) {
	_, p := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := p.SendCompletion(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})

	var rateErr *RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitError, got %T: %v", err, err)
	}
	if rateErr.RetryAfterSeconds != 30 {
		t.Errorf("expected Retry-After 30, got %d", rateErr.RetryAfterSeconds)
	}
}

func TestHTTPProvider_UnhealthyAfterConsecutiveFailures(t *testing.T) {
	_, p := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	for i := 0; i < unhealthyThreshold; i++ {
		if _, err := p.SendCompletion(context.Background(), &CompletionRequest{
			Messages: []ChatMessage{{Role: "user", Content: "hi"}},
		}); err == nil {
			t.Fatal("expected error from failing upstream")
		}
	}

	if p.Healthy() {
		t.Error("expected provider unhealthy after consecutive failures")
	}
}

func TestHTTPProvider_EmptyChoices(t *testing.T) {
	_, p := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"model": "m", "choices": []any{}})
	})

	_, err := p.SendCompletion(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T: %v", err, err)
	}
}

