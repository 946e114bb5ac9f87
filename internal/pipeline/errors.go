package pipeline

import "errors"

// Error taxonomy. The server layer maps these to HTTP status codes; the
// orchestrator records them verbatim in per-Item summaries.
var (
	// ErrInvalidInput marks caller errors: bad base64, unsupported URI
	// scheme or source type, malformed metadata JSON.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstreamUnavailable marks a non-2xx or timeout from the
	// extractor, an AI provider, or a sink.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrSourceFailure marks connect/login/select errors in a source.
	// Multi-Item sources degrade to an empty batch instead of returning it.
	ErrSourceFailure = errors.New("source failure")

	// ErrProcessorContract marks a processor that violated its contract,
	// e.g. returned no update without erroring or found a required field
	// missing.
	ErrProcessorContract = errors.New("processor contract violation")

	// ErrNotConfigured marks a requested capability whose configuration is
	// absent: async mode without a broker URL, a provider without its key.
	ErrNotConfigured = errors.New("not configured")
)
