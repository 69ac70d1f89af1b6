package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"patternlab/relay/pkg/admission"
	"patternlab/relay/pkg/proxy"
)

// AdmissionConfig configures the Admission middleware.
type AdmissionConfig struct {
	// Gate decides whether a request is admitted. Usually an
	// *admission.Controller, but any Gate works, including
	// admission.PassGate and admission.Pipeline.
	Gate admission.Gate

	// Controller, when set, is used to populate Retry-After and
	// X-RateLimit-* headers on denials. It may be nil (for example
	// when Gate is a PassGate), in which case denials carry no
	// rate limit headers.
	Controller *admission.Controller

	// OnDecision, when set, is invoked for every decision after the
	// gate runs. Used to feed the audit log and metrics. Must not block.
	OnDecision func(r *http.Request, key string, decision admission.Decision)
}

// Admission gates requests through the configured admission gate before
// forwarding them. Denied requests receive a 429 response with a Retry-After
// header; they are not forwarded and leave no trace in the window.
//
// The client key is derived from the request (API key when present,
// otherwise client IP) and stored in the request context for downstream
// handlers.
//
// Example usage:
//
//	controller := admission.NewController(admission.Config{})
//	handler = Admission(AdmissionConfig{Gate: controller, Controller: controller})(handler)
func Admission(config AdmissionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := proxy.ExtractClientKey(r)

			decision := admission.Admitted
			if config.Gate != nil {
				decision = config.Gate.TryAdmit(key)
			}

			if config.OnDecision != nil {
				config.OnDecision(r, key, decision)
			}

			if decision == admission.Denied {
				retryAfter := 1
				if config.Controller != nil {
					if win := config.Controller.Window(key); win != nil {
						setRateLimitHeaders(w, config.Controller, win)
						retryAfter = retryAfterSeconds(win.RetryAfter())
					}
				}

				slog.InfoContext(r.Context(), "request denied",
					"request_id", GetRequestID(r.Context()),
					"client_key", key,
					"path", r.URL.Path,
					"retry_after_seconds", retryAfter,
				)

				proxy.WriteRateLimited(w, retryAfter)
				return
			}

			ctx := context.WithValue(r.Context(), ClientKeyKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClientKey returns the client key stored by the Admission middleware,
// or "" if the middleware did not run.
func GetClientKey(ctx context.Context) string {
	if key, ok := ctx.Value(ClientKeyKey).(string); ok {
		return key
	}
	return ""
}

func setRateLimitHeaders(w http.ResponseWriter, c *admission.Controller, win *admission.Window) {
	cfg := c.Config()
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(win.Remaining()))
}

// retryAfterSeconds converts a wait duration to whole seconds, rounding up
// so clients never retry before the window has room.
func retryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 1
	}
	return int(math.Ceil(d.Seconds()))
}
