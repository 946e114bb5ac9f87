// Package config loads and validates the service configuration from YAML
// files and environment variables.
package config

import (
	"os"
	"strings"
	"time"
)

// Config is the root configuration structure for the service.
type Config struct {
	AppName  string `yaml:"app_name" mapstructure:"app_name"`
	Debug    bool   `yaml:"debug" mapstructure:"debug"`
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
	LogFile  string `yaml:"log_file" mapstructure:"log_file"`

	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Extractor ExtractorConfig `yaml:"extractor" mapstructure:"extractor"`
	Solr      SolrConfig      `yaml:"solr" mapstructure:"solr"`
	Vector    VectorConfig    `yaml:"vector" mapstructure:"vector"`
	Redis     RedisConfig     `yaml:"redis" mapstructure:"redis"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Providers ProvidersConfig `yaml:"providers" mapstructure:"providers"`
	IMAP      IMAPConfig      `yaml:"imap" mapstructure:"imap"`
}

// ServerConfig holds the HTTP API configuration.
type ServerConfig struct {
	Bind            string `yaml:"bind" mapstructure:"bind"`
	Port            int    `yaml:"port" mapstructure:"port"`
	AllowedOrigins  string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ShutdownTimeout int    `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"` // seconds
}

// Origins splits the comma-separated allowed origins list.
func (c ServerConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// ExtractorConfig points at the Tika extraction service.
type ExtractorConfig struct {
	URL            string `yaml:"url" mapstructure:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// Timeout returns the extractor timeout as a duration.
func (c ExtractorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SolrConfig holds the full-text sink configuration.
type SolrConfig struct {
	URL        string `yaml:"url" mapstructure:"url"`
	Collection string `yaml:"collection" mapstructure:"collection"`
}

// VectorConfig holds the embedded vector store configuration.
type VectorConfig struct {
	Path       string `yaml:"path" mapstructure:"path"`
	Collection string `yaml:"collection" mapstructure:"collection"`
}

// RedisConfig holds broker and cache connection strings.
type RedisConfig struct {
	BrokerURL  string `yaml:"broker_url" mapstructure:"broker_url"`
	BackendURL string `yaml:"backend_url" mapstructure:"backend_url"`
}

// PipelineConfig tunes the orchestrator and processors.
type PipelineConfig struct {
	MaxWorkers    int    `yaml:"max_workers" mapstructure:"max_workers"`
	ChunkSize     int    `yaml:"chunk_size" mapstructure:"chunk_size"`
	ChunkOverlap  int    `yaml:"chunk_overlap" mapstructure:"chunk_overlap"`
	SourceSystem  string `yaml:"source_system" mapstructure:"source_system"`
	NamespaceSeed string `yaml:"namespace_seed" mapstructure:"namespace_seed"`
}

// ProviderConfig configures one embedding/LLM provider.
type ProviderConfig struct {
	APIKey         *string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	APIKeyEnv      string  `yaml:"api_key_env" mapstructure:"api_key_env"`
	EmbeddingModel string  `yaml:"embedding_model" mapstructure:"embedding_model"`
	ChatModel      string  `yaml:"chat_model" mapstructure:"chat_model"`
	RateLimit      int     `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per minute, 0 = unlimited
}

// ResolveAPIKey returns the API key from config or falls back to the
// environment variable named by api_key_env.
func (c *ProviderConfig) ResolveAPIKey() string {
	if c.APIKey != nil && *c.APIKey != "" {
		return *c.APIKey
	}
	return os.Getenv(c.APIKeyEnv)
}

// ProvidersConfig groups all provider configurations.
type ProvidersConfig struct {
	Default string         `yaml:"default" mapstructure:"default"`
	OpenAI  ProviderConfig `yaml:"openai" mapstructure:"openai"`
	Ali     ProviderConfig `yaml:"ali" mapstructure:"ali"`
	Google  ProviderConfig `yaml:"google" mapstructure:"google"`
}

// IMAPConfig holds mailbox ingestion defaults. Credentials arrive with each
// request; only the state location lives in config.
type IMAPConfig struct {
	StateFile string `yaml:"state_file" mapstructure:"state_file"`
}
