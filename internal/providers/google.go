package providers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/geelink/docingest/internal/pipeline"
)

// Default Google models.
const (
	DefaultGoogleEmbeddingModel = "text-embedding-004"
	DefaultGoogleChatModel      = "gemini-1.5-flash"
)

// GoogleConfig configures the Google Gemini provider.
type GoogleConfig struct {
	APIKey         string
	EmbeddingModel string
	ChatModel      string
	RateLimit      RateLimitConfig
}

// GoogleProvider implements embeddings and analysis via the Gemini API.
type GoogleProvider struct {
	apiKey         string
	client         *genai.Client
	embeddingModel string
	chatModel      string
	rateLimit      RateLimitConfig
	limiter        *rate.Limiter
	logger         *slog.Logger
}

// NewGoogle creates the Gemini provider. With an empty API key the provider
// is constructed unavailable and makes no network connections.
func NewGoogle(ctx context.Context, cfg GoogleConfig) (*GoogleProvider, error) {
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultGoogleEmbeddingModel
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultGoogleChatModel
	}

	p := &GoogleProvider{
		apiKey:         cfg.APIKey,
		embeddingModel: cfg.EmbeddingModel,
		chatModel:      cfg.ChatModel,
		rateLimit:      cfg.RateLimit,
		limiter:        newLimiter(cfg.RateLimit),
		logger:         slog.Default().With("component", "provider", "provider", NameGoogle),
	}
	if cfg.APIKey == "" {
		return p, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("creating google client; %w", err)
	}
	p.client = client
	return p, nil
}

var (
	_ EmbeddingsProvider = (*GoogleProvider)(nil)
	_ AnalysisProvider   = (*GoogleProvider)(nil)
)

// Name returns the provider's identifier.
func (p *GoogleProvider) Name() string { return NameGoogle }

// Available reports whether the provider can serve requests.
func (p *GoogleProvider) Available() bool { return p.apiKey != "" && p.client != nil }

// RateLimit returns the configured rate limit.
func (p *GoogleProvider) RateLimit() RateLimitConfig { return p.rateLimit }

// DefaultModel returns the default embedding model.
func (p *GoogleProvider) DefaultModel() string { return p.embeddingModel }

// Close releases the underlying API client.
func (p *GoogleProvider) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

// Embed generates the embedding vector for text.
func (p *GoogleProvider) Embed(ctx context.Context, text, model string) ([]float32, error) {
	if !p.Available() {
		return nil, fmt.Errorf("google provider has no api key; %w", pipeline.ErrNotConfigured)
	}
	if model == "" {
		model = p.embeddingModel
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	em := p.client.EmbeddingModel(model)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("google embedding request failed: %v; %w", err, pipeline.ErrUpstreamUnavailable)
	}
	if res.Embedding == nil {
		return nil, fmt.Errorf("google embedding response was empty; %w", pipeline.ErrUpstreamUnavailable)
	}
	return res.Embedding.Values, nil
}

// Analyze runs an LLM analysis task and returns the concatenated text parts.
func (p *GoogleProvider) Analyze(ctx context.Context, text string, task pipeline.AnalysisTask) (string, error) {
	if !p.Available() {
		return "", fmt.Errorf("google provider has no api key; %w", pipeline.ErrNotConfigured)
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}

	model := p.client.GenerativeModel(p.chatModel)
	resp, err := model.GenerateContent(ctx, genai.Text(BuildPrompt(TruncateForAnalysis(text), task)))
	if err != nil {
		return "", fmt.Errorf("google analysis request failed: %v; %w", err, pipeline.ErrUpstreamUnavailable)
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("google analysis response had no text; %w", pipeline.ErrUpstreamUnavailable)
	}
	return b.String(), nil
}
