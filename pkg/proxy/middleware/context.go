package middleware

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// RequestIDKey stores the unique request ID.
	RequestIDKey contextKey = "request_id"

	// ClientKeyKey stores the admission key the request was gated under.
	ClientKeyKey contextKey = "client_key"
)
