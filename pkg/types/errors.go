// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Pipeline error kinds. Stages wrap these with fmt.Errorf("...: %w", ...) so
// callers can test them with errors.Is.
var (
	// ErrUpstreamUnavailable reports a network, auth, or service failure in
	// a generation, embedding, or search backend. Callers may retry with
	// backoff; the pipeline does not.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrIndexNotFound reports a search against an index that does not exist.
	ErrIndexNotFound = errors.New("index not found")

	// ErrMalformedGenerationOutput reports generated text that fails a
	// required parse contract (JSON query list, editor output).
	ErrMalformedGenerationOutput = errors.New("malformed generation output")

	// ErrGenerationSetup reports a streaming generation that failed before
	// its first chunk.
	ErrGenerationSetup = errors.New("generation setup failed")

	// ErrInvalidConfig reports a configuration rejected at startup.
	ErrInvalidConfig = errors.New("invalid configuration")
)
