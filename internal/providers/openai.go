package providers

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/geelink/docingest/internal/pipeline"
)

// Default OpenAI models.
const (
	DefaultOpenAIEmbeddingModel = "text-embedding-3-small"
	DefaultOpenAIChatModel      = "gpt-4o-mini"
)

// OpenAIConfig configures an OpenAI-compatible provider. BaseURL switches
// the endpoint, which also covers DashScope's compatible mode for Ali.
type OpenAIConfig struct {
	Name           string
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	ChatModel      string
	RateLimit      RateLimitConfig
}

// OpenAIProvider implements embeddings and LLM analysis over any
// OpenAI-compatible API.
type OpenAIProvider struct {
	name           string
	apiKey         string
	client         *openai.Client
	embeddingModel string
	chatModel      string
	rateLimit      RateLimitConfig
	limiter        *rate.Limiter
	logger         *slog.Logger
}

// NewOpenAI creates a provider from the given configuration. Model fields
// left empty fall back to the OpenAI defaults.
func NewOpenAI(cfg OpenAIConfig) *OpenAIProvider {
	if cfg.Name == "" {
		cfg.Name = NameOpenAI
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultOpenAIEmbeddingModel
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultOpenAIChatModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		name:           cfg.Name,
		apiKey:         cfg.APIKey,
		client:         openai.NewClientWithConfig(clientCfg),
		embeddingModel: cfg.EmbeddingModel,
		chatModel:      cfg.ChatModel,
		rateLimit:      cfg.RateLimit,
		limiter:        newLimiter(cfg.RateLimit),
		logger:         slog.Default().With("component", "provider", "provider", cfg.Name),
	}
}

var (
	_ EmbeddingsProvider = (*OpenAIProvider)(nil)
	_ AnalysisProvider   = (*OpenAIProvider)(nil)
)

// Name returns the provider's identifier.
func (p *OpenAIProvider) Name() string { return p.name }

// Available reports whether an API key is configured.
func (p *OpenAIProvider) Available() bool { return p.apiKey != "" }

// RateLimit returns the configured rate limit.
func (p *OpenAIProvider) RateLimit() RateLimitConfig { return p.rateLimit }

// DefaultModel returns the default embedding model.
func (p *OpenAIProvider) DefaultModel() string { return p.embeddingModel }

// Embed generates the embedding vector for text.
func (p *OpenAIProvider) Embed(ctx context.Context, text, model string) ([]float32, error) {
	if model == "" {
		model = p.embeddingModel
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, fmt.Errorf("%s embedding request failed: %v; %w", p.name, err, pipeline.ErrUpstreamUnavailable)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%s embedding response was empty; %w", p.name, pipeline.ErrUpstreamUnavailable)
	}
	return resp.Data[0].Embedding, nil
}

// Analyze runs an LLM analysis task and returns the raw model output.
func (p *OpenAIProvider) Analyze(ctx context.Context, text string, task pipeline.AnalysisTask) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}

	prompt := BuildPrompt(TruncateForAnalysis(text), task)
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s analysis request failed: %v; %w", p.name, err, pipeline.ErrUpstreamUnavailable)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s analysis response had no choices; %w", p.name, pipeline.ErrUpstreamUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}
