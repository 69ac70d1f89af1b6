package proxy

import (
	"encoding/json"
	"net/http"
	"strconv"

	"patternlab/relay/pkg/proxy/types"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError writes an error body with the given status code.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, types.NewErrorResponse(message))
}

// WriteRateLimited writes the fixed 429 denial contract. retryAfter, when
// positive, is surfaced in whole seconds via the Retry-After header.
func WriteRateLimited(w http.ResponseWriter, retryAfterSeconds int) {
	if retryAfterSeconds > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	WriteJSON(w, http.StatusTooManyRequests, types.NewRateLimitResponse())
}
