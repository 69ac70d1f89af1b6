package providers

import (
	"errors"
	"fmt"
)

// ProviderError is a generic upstream failure.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
}

// RateLimitError means the upstream throttled the relay.
type RateLimitError struct {
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("provider rate limit exceeded (retry after %ds)", e.RetryAfterSeconds)
}

// AuthError means the upstream rejected the relay's credentials.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("provider authentication failed: %s", e.Message)
}

// TimeoutError means the upstream did not answer in time.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider request timed out: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// ParseError means the upstream returned a body the relay could not decode.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse provider response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is, or wraps, a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
