// Package providers defines the upstream language-model interface and a
// generic HTTP adapter.
//
// The relay treats the upstream as an external collaborator: admission and
// validation happen before any provider call, and a provider failure maps to
// a typed error the transport layer translates. Provider-specific request
// transforms are deliberately out of scope; the HTTPProvider speaks one JSON
// chat shape to whatever endpoint the configuration points at.
package providers
