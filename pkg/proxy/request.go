package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"patternlab/relay/pkg/proxy/types"
)

const (
	// MaxRequestBodySize is the maximum allowed request body size (1MB).
	// Chat requests are text-only; anything larger is abuse.
	MaxRequestBodySize = 1 << 20

	// AuthorizationHeader carries the optional client API key.
	AuthorizationHeader = "Authorization"

	// RequestIDHeader propagates client-supplied request IDs.
	RequestIDHeader = "X-Request-ID"
)

// ParseChatRequest parses and validates an HTTP request body into a
// ChatRequest. It enforces the body size cap, rejects malformed JSON, and
// applies the message constraints (allowed roles, content length).
func ParseChatRequest(r *http.Request) (*types.ChatRequest, error) {
	// Read one byte past the cap so a body of exactly the cap is accepted
	// and anything larger is detected without buffering it all.
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	if len(body) > MaxRequestBodySize {
		return nil, &RequestError{
			Message: fmt.Sprintf("request body exceeds maximum size of %d bytes", MaxRequestBodySize),
			Status:  http.StatusRequestEntityTooLarge,
		}
	}

	var req types.ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &RequestError{
			Message: "invalid JSON in request body",
			Status:  http.StatusBadRequest,
		}
	}

	if err := req.Validate(); err != nil {
		var valErr *types.ValidationError
		if errors.As(err, &valErr) {
			return nil, &RequestError{
				Message: valErr.Message,
				Field:   valErr.Field,
				Status:  http.StatusBadRequest,
			}
		}
		return nil, err
	}

	return &req, nil
}

// ExtractClientKey returns the identity used to scope admission windows.
// An API key from the Authorization header wins; otherwise the client IP.
func ExtractClientKey(r *http.Request) string {
	if key := ExtractAPIKey(r); key != "" {
		return key
	}
	return ClientIP(r)
}

// ExtractAPIKey extracts the bearer token from the Authorization header.
// Returns an empty string when the header is missing or malformed.
func ExtractAPIKey(r *http.Request) string {
	authHeader := r.Header.Get(AuthorizationHeader)
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// ClientIP returns the originating client address, preferring the first
// X-Forwarded-For hop when the relay sits behind a reverse proxy.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}

	host := r.RemoteAddr
	if idx := strings.LastIndexByte(host, ':'); idx >= 0 {
		host = host[:idx]
	}
	return host
}

// ExtractRequestID returns the client-supplied request ID, if any.
func ExtractRequestID(r *http.Request) string {
	return r.Header.Get(RequestIDHeader)
}

// RequestError represents a request parsing or validation failure.
type RequestError struct {
	Message string
	Field   string
	Status  int
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}
