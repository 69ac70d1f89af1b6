// Package middleware provides the HTTP middleware chain for the relay.
//
// Chain order (outermost first): Recovery, Logging, RequestID, CORS,
// SecurityHeaders, Timeout, Admission. Admission runs last so every denied
// request has already been assigned a request ID and will be logged, but no
// handler work happens for it.
package middleware
