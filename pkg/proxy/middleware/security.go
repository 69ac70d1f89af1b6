package middleware

import (
	"net/http"
	"strconv"
)

// SecurityConfig configures the security headers middleware.
type SecurityConfig struct {
	// EnableHSTS adds Strict-Transport-Security. Only set when the relay
	// terminates TLS or sits behind a TLS-terminating proxy.
	EnableHSTS bool

	// HSTSMaxAgeSeconds is the HSTS max-age. Default: 31536000 (1 year).
	HSTSMaxAgeSeconds int
}

// SecurityHeaders sets the standard browser hardening headers on every
// response. The relay serves JSON only, so framing and MIME sniffing are
// denied outright.
func SecurityHeaders(cfg SecurityConfig) func(http.Handler) http.Handler {
	hstsValue := ""
	if cfg.EnableHSTS {
		maxAge := cfg.HSTSMaxAgeSeconds
		if maxAge <= 0 {
			maxAge = 31536000
		}
		hstsValue = "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cache-Control", "no-store")
			if hstsValue != "" {
				h.Set("Strict-Transport-Security", hstsValue)
			}

			next.ServeHTTP(w, r)
		})
	}
}
