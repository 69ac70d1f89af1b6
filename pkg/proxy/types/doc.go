// Package types defines the wire types for the relay's chat endpoint.
//
// The request shape is a plain message list; the error shape is the flat
// {"error": "..."} object existing clients already parse. Both are kept
// free of dependencies so handlers, middleware, and tests can share them.
package types
