package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a config validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation failures.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var b strings.Builder
	b.WriteString("config validation failed:\n")
	for _, err := range e {
		b.WriteString("  - ")
		b.WriteString(err.Error())
		b.WriteString("\n")
	}
	return b.String()
}

// validProviders lists the recognized provider names for providers.default.
var validProviders = map[string]bool{
	"openai": true,
	"ali":    true,
	"google": true,
}

// Validate checks the configuration for errors.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("must be between 1 and 65535, got %d", cfg.Server.Port),
		})
	}
	if cfg.Server.Bind == "" {
		errs = append(errs, ValidationError{
			Field:   "server.bind",
			Message: "must not be empty",
		})
	}

	if cfg.Extractor.URL == "" {
		errs = append(errs, ValidationError{
			Field:   "extractor.url",
			Message: "must not be empty",
		})
	}
	if cfg.Extractor.TimeoutSeconds < 1 {
		errs = append(errs, ValidationError{
			Field:   "extractor.timeout_seconds",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Extractor.TimeoutSeconds),
		})
	}

	if cfg.Pipeline.MaxWorkers < 1 {
		errs = append(errs, ValidationError{
			Field:   "pipeline.max_workers",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Pipeline.MaxWorkers),
		})
	}
	if cfg.Pipeline.ChunkSize < 1 {
		errs = append(errs, ValidationError{
			Field:   "pipeline.chunk_size",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Pipeline.ChunkSize),
		})
	}
	if cfg.Pipeline.ChunkOverlap < 0 || cfg.Pipeline.ChunkOverlap >= cfg.Pipeline.ChunkSize {
		errs = append(errs, ValidationError{
			Field:   "pipeline.chunk_overlap",
			Message: fmt.Sprintf("must be non-negative and smaller than chunk_size, got %d", cfg.Pipeline.ChunkOverlap),
		})
	}

	if cfg.Providers.Default != "" && !validProviders[cfg.Providers.Default] {
		errs = append(errs, ValidationError{
			Field:   "providers.default",
			Message: fmt.Sprintf("must be one of openai, ali, google; got %q", cfg.Providers.Default),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
