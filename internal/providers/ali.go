package providers

// DashScope's OpenAI-compatible endpoint and the Qwen defaults.
const (
	DashScopeBaseURL         = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	DefaultAliEmbeddingModel = "text-embedding-v4"
	DefaultAliChatModel      = "qwen-plus"
)

// AliConfig configures the Aliyun DashScope provider.
type AliConfig struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	ChatModel      string
	RateLimit      RateLimitConfig
}

// NewAli creates the Qwen provider over DashScope's compatible mode.
func NewAli(cfg AliConfig) *OpenAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DashScopeBaseURL
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultAliEmbeddingModel
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultAliChatModel
	}
	return NewOpenAI(OpenAIConfig{
		Name:           NameAli,
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		EmbeddingModel: cfg.EmbeddingModel,
		ChatModel:      cfg.ChatModel,
		RateLimit:      cfg.RateLimit,
	})
}
