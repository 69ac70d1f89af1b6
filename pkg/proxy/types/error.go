package types

// ErrorResponse is the flat error body the relay returns for every failure.
//
// The 429 body is a fixed contract: clients match on the exact message
// RateLimitMessage, so the shape and wording must not change.
type ErrorResponse struct {
	// Error is a human-readable error message.
	Error string `json:"error"`
}

// RateLimitMessage is the literal denial message surfaced with HTTP 429.
const RateLimitMessage = "Rate limit exceeded. Please try again later."

// NewErrorResponse creates an error body with the given message.
func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: message}
}

// NewRateLimitResponse creates the fixed 429 denial body.
func NewRateLimitResponse() *ErrorResponse {
	return &ErrorResponse{Error: RateLimitMessage}
}
