package config

import "github.com/spf13/viper"

// Default configuration values.
const (
	DefaultAppName  = "docingest"
	DefaultLogLevel = "info"
	DefaultLogFile  = ""

	DefaultServerBind            = "0.0.0.0"
	DefaultServerPort            = 8000
	DefaultServerShutdownTimeout = 30 // seconds

	DefaultExtractorURL     = "http://localhost:9998"
	DefaultExtractorTimeout = 120 // seconds

	DefaultSolrURL        = "http://localhost:8983"
	DefaultSolrCollection = "knowledge"

	DefaultVectorPath       = "./data/vectors"
	DefaultVectorCollection = "chunks"

	DefaultMaxWorkers   = 10
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
	DefaultSourceSystem = "rag_upload"
	DefaultNamespace    = "com.geelink.2025"

	DefaultIMAPStateFile = "./data/imap_seen_uids.json"
)

// setViperDefaults registers all default configuration values with a viper
// instance.
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("app_name", DefaultAppName)
	v.SetDefault("debug", false)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", DefaultLogFile)

	v.SetDefault("server.bind", DefaultServerBind)
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", "*")
	v.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)

	v.SetDefault("extractor.url", DefaultExtractorURL)
	v.SetDefault("extractor.timeout_seconds", DefaultExtractorTimeout)

	v.SetDefault("solr.url", DefaultSolrURL)
	v.SetDefault("solr.collection", DefaultSolrCollection)

	v.SetDefault("vector.path", DefaultVectorPath)
	v.SetDefault("vector.collection", DefaultVectorCollection)

	v.SetDefault("redis.broker_url", "")
	v.SetDefault("redis.backend_url", "")

	v.SetDefault("pipeline.max_workers", DefaultMaxWorkers)
	v.SetDefault("pipeline.chunk_size", DefaultChunkSize)
	v.SetDefault("pipeline.chunk_overlap", DefaultChunkOverlap)
	v.SetDefault("pipeline.source_system", DefaultSourceSystem)
	v.SetDefault("pipeline.namespace_seed", DefaultNamespace)

	v.SetDefault("providers.default", "")
	v.SetDefault("providers.openai.api_key_env", "OPENAI_API_KEY")
	v.SetDefault("providers.ali.api_key_env", "ALI_QWEN_API_KEY")
	v.SetDefault("providers.google.api_key_env", "GOOGLE_API_KEY")

	v.SetDefault("imap.state_file", DefaultIMAPStateFile)
}

// bindLegacyEnv wires the flat environment variable names that predate the
// nested config layout; they win over file values but lose to the
// DOCINGEST_-prefixed forms.
func bindLegacyEnv(v *viper.Viper) {
	v.BindEnv("app_name", "DOCINGEST_APP_NAME", "APP_NAME")
	v.BindEnv("debug", "DOCINGEST_DEBUG", "DEBUG")
	v.BindEnv("server.allowed_origins", "DOCINGEST_SERVER_ALLOWED_ORIGINS", "ALLOWED_ORIGINS")
	v.BindEnv("extractor.url", "DOCINGEST_EXTRACTOR_URL", "TIKA_SERVICE_URL")
	v.BindEnv("extractor.timeout_seconds", "DOCINGEST_EXTRACTOR_TIMEOUT_SECONDS", "TIKA_SERVICE_TIMEOUT")
	v.BindEnv("solr.url", "DOCINGEST_SOLR_URL", "SOLR_URL")
	v.BindEnv("solr.collection", "DOCINGEST_SOLR_COLLECTION", "SOLR_COLLECTION")
	v.BindEnv("redis.broker_url", "DOCINGEST_REDIS_BROKER_URL", "REDIS_BROKER_URL")
	v.BindEnv("redis.backend_url", "DOCINGEST_REDIS_BACKEND_URL", "REDIS_BACKEND_URL")
	v.BindEnv("pipeline.source_system", "DOCINGEST_PIPELINE_SOURCE_SYSTEM", "SOURCE_SYSTEM")
	v.BindEnv("providers.openai.embedding_model", "DOCINGEST_PROVIDERS_OPENAI_EMBEDDING_MODEL", "OPENAI_EMBEDDING_MODEL")
	v.BindEnv("providers.ali.embedding_model", "DOCINGEST_PROVIDERS_ALI_EMBEDDING_MODEL", "ALI_EMBEDDING_MODEL")
	v.BindEnv("providers.google.embedding_model", "DOCINGEST_PROVIDERS_GOOGLE_EMBEDDING_MODEL", "GOOGLE_EMBEDDING_MODEL")
}
