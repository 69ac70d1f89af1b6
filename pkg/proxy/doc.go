// Package proxy implements request parsing, validation, and error mapping
// for the relay's HTTP surface.
//
// The package separates the pure decision logic (validation, admission) from
// transport concerns: handlers call ParseChatRequest and HandleError, and the
// middleware chain in pkg/proxy/middleware gates requests before they reach a
// handler. The admission controller itself never sees HTTP; this package owns
// the mapping from Denied to a 429 response.
package proxy
