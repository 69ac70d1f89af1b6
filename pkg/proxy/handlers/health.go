package handlers

import (
	"net/http"
	"time"

	"patternlab/relay/pkg/providers"
	"patternlab/relay/pkg/proxy"
)

// HealthHandler answers liveness probes. It reports ok whenever the process
// is serving requests, regardless of upstream state.
type HealthHandler struct{}

// NewHealthHandler creates a liveness probe handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		proxy.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	proxy.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

// ReadyHandler answers readiness probes. The relay is ready when its
// upstream provider is configured and believed healthy.
type ReadyHandler struct {
	provider providers.Provider
}

// NewReadyHandler creates a readiness probe handler. A nil provider reports
// not ready.
func NewReadyHandler(provider providers.Provider) *ReadyHandler {
	return &ReadyHandler{provider: provider}
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		proxy.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ready := h.provider != nil && h.provider.Healthy()

	status := "ready"
	code := http.StatusOK
	if !ready {
		status = "not_ready"
		code = http.StatusServiceUnavailable
	}

	proxy.WriteJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Unix(),
	})
}
