// Package sisense provides the authenticated HTTP transport used by every
// other package in this module to talk to a Sisense environment.
//
// A Client is bound to exactly one environment (one base URL, one API
// token). Cross-environment features such as migration hold two independent
// Clients, one per environment.
//
// # Configuration Example
//
//	domain: "https://analytics.example.com"
//	token: "YOUR_API_TOKEN"
//	is_ssl: true
//
// The client speaks JSON exclusively and injects a Bearer token on every
// request. Transient failures (network errors, 5xx responses) are retried
// with exponential backoff; 4xx responses are returned to the caller
// unmodified so that not-found and conflict handling stays a caller
// decision.
package sisense
