package proxy

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// padToSize right-pads a JSON body with spaces, which json.Unmarshal
// tolerates, so the body size can be pinned exactly.
func padToSize(body string, size int) []byte {
	padded := make([]byte, size)
	copy(padded, body)
	for i := len(body); i < size; i++ {
		padded[i] = ' '
	}
	return padded
}

func TestParseChatRequest_BodySizeBoundary(t *testing.T) {
	valid := `{"messages": [{"role": "user", "content": "hello"}]}`

	t.Run("exactly at cap", func(t *testing.T) {
		body := padToSize(valid, MaxRequestBodySize)
		r := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(body))

		req, err := ParseChatRequest(r)
		if err != nil {
			t.Fatalf("ParseChatRequest: %v", err)
		}
		if len(req.Messages) != 1 {
			t.Errorf("messages = %d, want 1", len(req.Messages))
		}
	})

	t.Run("one past cap", func(t *testing.T) {
		body := padToSize(valid, MaxRequestBodySize+1)
		r := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(body))

		_, err := ParseChatRequest(r)
		var reqErr *RequestError
		if !errors.As(err, &reqErr) {
			t.Fatalf("error = %v, want *RequestError", err)
		}
		if reqErr.Status != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want %d", reqErr.Status, http.StatusRequestEntityTooLarge)
		}
	})
}

func TestExtractClientKey(t *testing.T) {
	tests := []struct {
		name       string
		auth       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"bearer token wins", "Bearer sk-test-123", "10.0.0.1:4242", "", "sk-test-123"},
		{"malformed auth falls back to ip", "sk-test-123", "10.0.0.1:4242", "", "10.0.0.1"},
		{"no auth uses remote ip", "", "10.0.0.2:4242", "", "10.0.0.2"},
		{"forwarded-for first hop", "", "10.0.0.3:4242", "203.0.113.7, 10.0.0.3", "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader("{}"))
			r.RemoteAddr = tt.remoteAddr
			if tt.auth != "" {
				r.Header.Set(AuthorizationHeader, tt.auth)
			}
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			if got := ExtractClientKey(r); got != tt.want {
				t.Errorf("ExtractClientKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
