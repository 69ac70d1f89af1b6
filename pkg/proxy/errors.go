package proxy

import (
	"errors"
	"net/http"

	"patternlab/relay/pkg/providers"
)

// HandleError maps an error from parsing or the upstream provider to an HTTP
// status and client-safe message. Internal details never reach the client.
func HandleError(w http.ResponseWriter, err error) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		status := reqErr.Status
		if status == 0 {
			status = http.StatusBadRequest
		}
		WriteError(w, status, reqErr.Error())
		return
	}

	var rateErr *providers.RateLimitError
	if errors.As(err, &rateErr) {
		// The upstream itself throttled us; surface the same contract the
		// relay's own gate uses.
		WriteRateLimited(w, rateErr.RetryAfterSeconds)
		return
	}

	var authErr *providers.AuthError
	if errors.As(err, &authErr) {
		WriteError(w, http.StatusBadGateway, "Upstream authentication failed.")
		return
	}

	var timeoutErr *providers.TimeoutError
	if errors.As(err, &timeoutErr) {
		WriteError(w, http.StatusGatewayTimeout, "Upstream request timed out. Please try again.")
		return
	}

	var provErr *providers.ProviderError
	if errors.As(err, &provErr) {
		WriteError(w, http.StatusBadGateway, "Upstream provider error. Please try again.")
		return
	}

	WriteError(w, http.StatusInternalServerError, "An internal error occurred. Please try again later.")
}
