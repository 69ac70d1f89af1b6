package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"patternlab/relay/pkg/proxy"
	"patternlab/relay/pkg/proxy/types"
)

// Timeout enforces a per-request timeout using context.WithTimeout. If the
// timeout is exceeded, the request context is cancelled and a 504 Gateway
// Timeout error is returned.
//
// The timeout applies to the entire request processing pipeline including
// the upstream completion call. Handlers should honor context cancellation.
//
// Example usage:
//
//	handler = Timeout(60 * time.Second)(handler)
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			done := make(chan struct{})

			tw := newTimeoutWriter(w)

			go func() {
				defer close(done)
				next.ServeHTTP(tw, r.WithContext(ctx))
			}()

			select {
			case <-done:
				return

			case <-ctx.Done():
				if ctx.Err() == context.DeadlineExceeded {
					slog.Warn("request timeout",
						"request_id", GetRequestID(r.Context()),
						"method", r.Method,
						"path", r.URL.Path,
						"timeout", timeout,
					)

					tw.mu.Lock()
					defer tw.mu.Unlock()
					if !tw.wrote {
						tw.timedOut = true
						proxy.WriteJSON(w, http.StatusGatewayTimeout,
							types.NewErrorResponse("Request timeout. Please try again later."))
					}
				}
			}
		})
	}
}

// timeoutWriter guards against the handler goroutine writing after the
// timeout response has been sent. The handler gets a shadow header map, as
// in http.TimeoutHandler, so header mutation never races the 504 write;
// shadowed headers are copied to the real writer on the first WriteHeader
// or Write.
type timeoutWriter struct {
	w http.ResponseWriter

	mu       sync.Mutex
	header   http.Header
	wrote    bool
	timedOut bool
}

func newTimeoutWriter(w http.ResponseWriter) *timeoutWriter {
	return &timeoutWriter{w: w, header: make(http.Header)}
}

func (tw *timeoutWriter) Header() http.Header {
	return tw.header
}

func (tw *timeoutWriter) WriteHeader(status int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.writeHeaderLocked(status)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return len(b), nil
	}
	tw.writeHeaderLocked(http.StatusOK)
	return tw.w.Write(b)
}

// writeHeaderLocked copies the shadow headers through and writes the status
// once. Caller must hold the lock.
func (tw *timeoutWriter) writeHeaderLocked(status int) {
	if tw.timedOut || tw.wrote {
		return
	}
	tw.wrote = true

	dst := tw.w.Header()
	for k, v := range tw.header {
		dst[k] = v
	}
	tw.w.WriteHeader(status)
}
