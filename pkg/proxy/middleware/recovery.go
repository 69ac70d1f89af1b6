package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"patternlab/relay/pkg/proxy"
)

// Recovery recovers from panics in downstream handlers and returns a 500
// without exposing internals to the client. The panic and stack trace are
// logged with the request ID for correlation.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.ErrorContext(r.Context(), "panic in handler",
					"error", err,
					"request_id", GetRequestID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				proxy.WriteError(w, http.StatusInternalServerError,
					"An internal error occurred. Please try again later.")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
