// Package cache provides a Redis-backed cache for embedding vectors so
// repeated ingests of identical chunks skip the provider round trip.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/geelink/docingest/internal/pipeline"
)

// DefaultTTL is how long cached vectors live before Redis expires them.
const DefaultTTL = 7 * 24 * time.Hour

const keyPrefix = "docingest:emb"

// EmbeddingsCache stores vectors in Redis keyed by provider, model, and the
// SHA-256 of the chunk text.
type EmbeddingsCache struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// CacheOption configures an EmbeddingsCache.
type CacheOption func(*EmbeddingsCache)

// WithTTL overrides the default expiry for cached vectors.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *EmbeddingsCache) {
		c.ttl = ttl
	}
}

// WithLogger sets the cache logger.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *EmbeddingsCache) {
		c.logger = logger
	}
}

// NewEmbeddingsCache creates a cache over an existing Redis client.
func NewEmbeddingsCache(rdb redis.UniversalClient, opts ...CacheOption) *EmbeddingsCache {
	c := &EmbeddingsCache{
		rdb:    rdb,
		ttl:    DefaultTTL,
		logger: slog.Default().With("component", "embeddings-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds the Redis key for a provider, model, and text triple.
func Key(provider, model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, provider, model, hex.EncodeToString(sum[:]))
}

// Get returns the cached vector for the triple, or false on a miss. Redis
// errors are logged and reported as misses so ingestion never fails on a
// cache outage.
func (c *EmbeddingsCache) Get(ctx context.Context, provider, model, text string) ([]float32, bool) {
	raw, err := c.rdb.Get(ctx, Key(provider, model, text)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache read failed", "error", err)
		}
		return nil, false
	}

	vec, err := decodeVector(raw)
	if err != nil {
		c.logger.Warn("cache entry corrupt, ignoring", "error", err)
		return nil, false
	}
	return vec, true
}

// Set stores a vector for the triple. Failures are logged and swallowed.
func (c *EmbeddingsCache) Set(ctx context.Context, provider, model, text string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	if err := c.rdb.Set(ctx, Key(provider, model, text), encodeVector(vec), c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "error", err)
	}
}

// encodeVector packs a vector as little-endian float32 bytes.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("vector payload has %d bytes, not a multiple of 4", len(raw))
	}
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vec, nil
}

// CachedEmbedder wraps an embedder with read-through caching.
type CachedEmbedder struct {
	inner    pipeline.Embedder
	cache    *EmbeddingsCache
	provider string
}

var _ pipeline.Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder decorates inner with the cache. The provider name keys
// the cache entries alongside the model.
func NewCachedEmbedder(inner pipeline.Embedder, c *EmbeddingsCache, provider string) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: c, provider: provider}
}

// DefaultModel returns the inner embedder's default model.
func (e *CachedEmbedder) DefaultModel() string { return e.inner.DefaultModel() }

// Embed returns the cached vector when present, otherwise calls the inner
// embedder and stores the result.
func (e *CachedEmbedder) Embed(ctx context.Context, text, model string) ([]float32, error) {
	if model == "" {
		model = e.inner.DefaultModel()
	}
	if vec, ok := e.cache.Get(ctx, e.provider, model, text); ok {
		return vec, nil
	}

	vec, err := e.inner.Embed(ctx, text, model)
	if err != nil {
		return nil, err
	}
	e.cache.Set(ctx, e.provider, model, text, vec)
	return vec, nil
}
