// Package qerrors defines the error taxonomy shared across querysense's
// components: Configuration, Io, Deserialization, Store, Embedding.*,
// Search, NotFound. Components wrap these sentinels with context via
// fmt.Errorf("...: %w", err) rather than inventing ad-hoc string errors.
package qerrors

import "errors"

var (
	// ErrConfiguration covers a missing required setting or a malformed template.
	ErrConfiguration = errors.New("configuration error")

	// ErrMalformedTemplate is returned by the Template Compiler for an empty
	// input or an unclosed "{{" placeholder.
	ErrMalformedTemplate = errors.New("malformed template")

	// ErrIO covers filesystem/file-open failures in the Ingestor.
	ErrIO = errors.New("io error")

	// ErrDeserialization covers a CSV/JSON row rejected by the record schema.
	ErrDeserialization = errors.New("deserialization error")

	// ErrStore covers SQL, extension-loading, or transaction failures.
	ErrStore = errors.New("store error")

	// ErrDimensionMismatch is returned by Store.EnsureVecTable when the
	// store's persisted vector dimension differs from the one requested.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrRateLimited marks a provider 429 response; retried internally by
	// the OpenAI provider and never returned to a caller directly.
	ErrRateLimited = errors.New("embedding rate limited")

	// ErrMaxRetries is returned once a chunk exhausts its retry budget.
	ErrMaxRetries = errors.New("embedding max retries exceeded")

	// ErrTransport covers network or HTTP-status failures talking to a
	// provider that are not rate-limit related.
	ErrTransport = errors.New("embedding transport error")

	// ErrSearch covers SQL prepare/execute failure inside a search strategy.
	ErrSearch = errors.New("search error")

	// ErrNotFound covers an unknown lookup (e.g. an unrecognized strategy name).
	ErrNotFound = errors.New("not found")
)
