// Package app wires configuration into a ready-to-run ingestion service:
// provider registry, processor chain, sinks, and per-request runners.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/geelink/docingest/internal/cache"
	"github.com/geelink/docingest/internal/chunkers"
	"github.com/geelink/docingest/internal/config"
	"github.com/geelink/docingest/internal/extractor"
	"github.com/geelink/docingest/internal/metrics"
	"github.com/geelink/docingest/internal/pipeline"
	"github.com/geelink/docingest/internal/processors"
	"github.com/geelink/docingest/internal/providers"
	"github.com/geelink/docingest/internal/sinks"
	"github.com/geelink/docingest/internal/textclean"
)

// App holds the long-lived collaborators shared by the HTTP server and the
// async worker. Build it once at startup; Runner() hands out per-request
// pipelines over the shared pieces.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	providers *providers.Registry
	registry  *pipeline.Registry
	sinks     []pipeline.Sink
	embCache  *cache.EmbeddingsCache
	metrics   *metrics.Recorder
}

// New assembles the service from configuration. Providers without an API key
// register as unavailable; sink construction failures are fatal.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		providers: providers.NewRegistry(),
		registry:  pipeline.NewRegistry(),
		metrics:   metrics.NewRecorder(),
	}

	if err := a.registerProviders(ctx); err != nil {
		return nil, err
	}
	if err := a.buildSinks(); err != nil {
		return nil, err
	}
	a.buildCache()

	opts := processors.Options{
		Extractor: extractor.NewClient(cfg.Extractor.URL,
			extractor.WithTimeout(cfg.Extractor.Timeout())),
		Cleaner:       textclean.NewCleaner(),
		Splitter:      chunkers.NewRecursiveSplitter(cfg.Pipeline.ChunkSize, cfg.Pipeline.ChunkOverlap),
		SourceSystem:  cfg.Pipeline.SourceSystem,
		NamespaceSeed: cfg.Pipeline.NamespaceSeed,
	}
	if err := processors.RegisterDefaults(a.registry, opts); err != nil {
		return nil, fmt.Errorf("registering processors; %w", err)
	}

	return a, nil
}

// Config returns the configuration the app was built from.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Providers returns the provider registry.
func (a *App) Providers() *providers.Registry {
	return a.providers
}

// registerProviders wires every configured AI provider. A missing key is not
// an error; the provider simply reports unavailable and the registry skips it
// when picking a default.
func (a *App) registerProviders(ctx context.Context) error {
	pc := a.cfg.Providers

	openAI := providers.NewOpenAI(providers.OpenAIConfig{
		APIKey:         pc.OpenAI.ResolveAPIKey(),
		EmbeddingModel: pc.OpenAI.EmbeddingModel,
		ChatModel:      pc.OpenAI.ChatModel,
		RateLimit:      providers.RateLimitConfig{RequestsPerMinute: pc.OpenAI.RateLimit},
	})
	if err := a.providers.RegisterEmbeddings(openAI); err != nil {
		return err
	}
	if err := a.providers.RegisterAnalysis(openAI); err != nil {
		return err
	}

	ali := providers.NewAli(providers.AliConfig{
		APIKey:         pc.Ali.ResolveAPIKey(),
		EmbeddingModel: pc.Ali.EmbeddingModel,
		ChatModel:      pc.Ali.ChatModel,
		RateLimit:      providers.RateLimitConfig{RequestsPerMinute: pc.Ali.RateLimit},
	})
	if err := a.providers.RegisterEmbeddings(ali); err != nil {
		return err
	}
	if err := a.providers.RegisterAnalysis(ali); err != nil {
		return err
	}

	if key := pc.Google.ResolveAPIKey(); key != "" {
		google, err := providers.NewGoogle(ctx, providers.GoogleConfig{
			APIKey:         key,
			EmbeddingModel: pc.Google.EmbeddingModel,
			ChatModel:      pc.Google.ChatModel,
			RateLimit:      providers.RateLimitConfig{RequestsPerMinute: pc.Google.RateLimit},
		})
		if err != nil {
			a.logger.Warn("google provider unavailable", "error", err)
		} else {
			if err := a.providers.RegisterEmbeddings(google); err != nil {
				return err
			}
			if err := a.providers.RegisterAnalysis(google); err != nil {
				return err
			}
		}
	}

	if def := pc.Default; def != "" {
		if err := a.providers.SetDefaultEmbeddings(def); err != nil {
			a.logger.Warn("default embeddings provider not registered", "provider", def)
		}
		if err := a.providers.SetDefaultAnalysis(def); err != nil {
			a.logger.Warn("default analysis provider not registered", "provider", def)
		}
	}
	return nil
}

// buildSinks constructs the Solr and vector sinks from config.
func (a *App) buildSinks() error {
	solr := sinks.NewSolr(a.cfg.Solr.URL, a.cfg.Solr.Collection)

	vector, err := sinks.NewVector(a.cfg.Vector.Path, a.cfg.Vector.Collection)
	if err != nil {
		return fmt.Errorf("opening vector store at %s; %w", a.cfg.Vector.Path, err)
	}

	a.sinks = []pipeline.Sink{solr, vector}
	return nil
}

// buildCache connects the embeddings cache when a Redis backend is
// configured. Connection problems surface later as cache misses.
func (a *App) buildCache() {
	url := a.cfg.Redis.BackendURL
	if url == "" {
		url = a.cfg.Redis.BrokerURL
	}
	if url == "" {
		return
	}

	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		a.logger.Warn("invalid redis url, embeddings cache disabled", "error", err)
		return
	}
	a.embCache = cache.NewEmbeddingsCache(redis.NewClient(redisOpts),
		cache.WithLogger(a.logger.With("component", "embeddings-cache")))
}

// embedder resolves the embeddings provider for a request. An empty name
// selects the registry default; when no provider is available at all the
// request proceeds without embeddings, so documents remain searchable in
// Solr. Only an explicitly named provider can fail resolution. The result is
// wrapped with the Redis cache when one is configured.
func (a *App) embedder(providerName string) (pipeline.Embedder, string, error) {
	var (
		p   providers.EmbeddingsProvider
		err error
	)
	if providerName == "" {
		p, err = a.providers.DefaultEmbeddings()
		if errors.Is(err, providers.ErrNoAvailableProvider) {
			a.logger.Warn("no embeddings provider available, ingesting without embeddings")
			return nil, "", nil
		}
	} else {
		p, err = a.providers.GetEmbeddings(providerName)
	}
	if err != nil {
		return nil, "", err
	}
	if !p.Available() {
		return nil, "", fmt.Errorf("provider %s has no API key; %w", p.Name(), pipeline.ErrNotConfigured)
	}

	var emb pipeline.Embedder = p
	if a.embCache != nil {
		emb = cache.NewCachedEmbedder(p, a.embCache, p.Name())
	}
	return emb, p.Name(), nil
}

// analyzer resolves the analysis provider matching the embeddings selection.
// Absent or unavailable analysis degrades to nil, which omits the analyze
// processor.
func (a *App) analyzer(providerName string) pipeline.Analyzer {
	var (
		p   providers.AnalysisProvider
		err error
	)
	if providerName == "" {
		p, err = a.providers.DefaultAnalysis()
	} else {
		p, err = a.providers.GetAnalysis(providerName)
	}
	if err != nil || !p.Available() {
		return nil
	}
	return p
}

// Runner builds a pipeline runner for one request. providerName selects the
// AI provider ("" for the configured default); every runner shares the
// registry, sinks, and metrics recorder.
func (a *App) Runner(providerName string) (*pipeline.Runner, error) {
	emb, resolved, err := a.embedder(providerName)
	if err != nil {
		return nil, fmt.Errorf("resolving provider %q; %w", providerName, err)
	}

	procs, err := a.registry.Build(pipeline.Capabilities{
		Embedder: emb,
		Analyzer: a.analyzer(resolved),
	})
	if err != nil {
		return nil, fmt.Errorf("building processor chain; %w", err)
	}

	return pipeline.NewRunner(procs, a.sinks,
		pipeline.WithMaxWorkers(a.cfg.Pipeline.MaxWorkers),
		pipeline.WithLogger(a.logger),
		pipeline.WithMetrics(a.metrics),
	), nil
}
