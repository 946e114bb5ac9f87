// Package providers hosts the AI provider adapters behind the pipeline's
// Embedder and Analyzer capabilities.
package providers

import (
	"context"

	"github.com/geelink/docingest/internal/pipeline"
)

// Provider names accepted by the API's provider parameter.
const (
	NameOpenAI = "openai"
	NameAli    = "ali"
	NameGoogle = "google"
)

// RateLimitConfig defines rate limiting parameters for a provider.
type RateLimitConfig struct {
	RequestsPerMinute int
	BurstSize         int
}

// Provider is the base interface for all providers.
type Provider interface {
	// Name returns the provider's unique identifier.
	Name() string

	// Available returns true if the provider is configured and ready.
	Available() bool

	// RateLimit returns the rate limit configuration for this provider.
	RateLimit() RateLimitConfig
}

// EmbeddingsProvider generates vector embeddings from text. It satisfies
// pipeline.Embedder, so a registered provider plugs straight into the embed
// processor.
type EmbeddingsProvider interface {
	Provider

	// Embed returns the vector for text. An empty model selects
	// DefaultModel.
	Embed(ctx context.Context, text, model string) ([]float32, error)

	// DefaultModel returns the provider's default embedding model.
	DefaultModel() string
}

// AnalysisProvider runs LLM analysis tasks over document text. It satisfies
// pipeline.Analyzer.
type AnalysisProvider interface {
	Provider

	Analyze(ctx context.Context, text string, task pipeline.AnalysisTask) (string, error)
}
