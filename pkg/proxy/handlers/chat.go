package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"patternlab/relay/pkg/providers"
	"patternlab/relay/pkg/proxy"
	"patternlab/relay/pkg/proxy/middleware"
	"patternlab/relay/pkg/proxy/types"
)

// ChatHandler relays validated chat requests to the upstream provider.
type ChatHandler struct {
	provider providers.Provider
	logger   *slog.Logger

	// onUpstreamResult, when set, is called after every upstream attempt
	// with "success", "error", or "timeout". Used for metrics.
	onUpstreamResult func(outcome string, duration time.Duration)
}

// ChatHandlerOption configures a ChatHandler.
type ChatHandlerOption func(*ChatHandler)

// WithUpstreamResultHook registers a callback invoked after each upstream
// call completes.
func WithUpstreamResultHook(hook func(outcome string, duration time.Duration)) ChatHandlerOption {
	return func(h *ChatHandler) {
		h.onUpstreamResult = hook
	}
}

// NewChatHandler creates the chat relay handler.
func NewChatHandler(provider providers.Provider, opts ...ChatHandlerOption) *ChatHandler {
	h := &ChatHandler{
		provider: provider,
		logger:   slog.Default().With("component", "chat"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP parses and validates the request, forwards it upstream, and
// writes back the reply. Admission has already happened in middleware by the
// time this handler runs.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		proxy.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if h.provider == nil {
		proxy.WriteError(w, http.StatusServiceUnavailable, "No upstream provider configured")
		return
	}

	chatReq, err := proxy.ParseChatRequest(r)
	if err != nil {
		proxy.HandleError(w, err)
		return
	}

	upstreamReq := &providers.CompletionRequest{
		Messages: make([]providers.ChatMessage, 0, len(chatReq.Messages)),
	}
	for _, msg := range chatReq.Messages {
		upstreamReq.Messages = append(upstreamReq.Messages, providers.ChatMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	start := time.Now()
	resp, err := h.provider.SendCompletion(r.Context(), upstreamReq)
	elapsed := time.Since(start)

	if err != nil {
		h.recordUpstream(outcomeForError(err), elapsed)
		h.logger.ErrorContext(r.Context(), "upstream request failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"client_key", middleware.GetClientKey(r.Context()),
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		proxy.HandleError(w, err)
		return
	}

	h.recordUpstream("success", elapsed)
	h.logger.InfoContext(r.Context(), "chat request relayed",
		"request_id", middleware.GetRequestID(r.Context()),
		"model", resp.Model,
		"duration_ms", elapsed.Milliseconds(),
		"total_tokens", resp.Usage.TotalTokens,
	)

	out := &types.ChatResponse{
		Reply: resp.Content,
		Model: resp.Model,
	}
	if resp.Usage.TotalTokens > 0 {
		out.Usage = &types.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	proxy.WriteJSON(w, http.StatusOK, out)
}

func (h *ChatHandler) recordUpstream(outcome string, duration time.Duration) {
	if h.onUpstreamResult != nil {
		h.onUpstreamResult(outcome, duration)
	}
}

func outcomeForError(err error) string {
	if providers.IsTimeout(err) {
		return "timeout"
	}
	return "error"
}
