package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/geelink/docingest/internal/pipeline"
	"github.com/geelink/docingest/internal/sources"
)

// RunnerProvider builds a pipeline runner for a given provider name. The app
// layer satisfies this.
type RunnerProvider interface {
	Runner(providerName string) (*pipeline.Runner, error)
}

// Worker drains queued ingest tasks through the pipeline.
type Worker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// NewWorker creates a worker bound to the Redis broker. concurrency bounds
// simultaneous task execution.
func NewWorker(brokerURL string, concurrency int, runners RunnerProvider, logger *slog.Logger) (*Worker, error) {
	if brokerURL == "" {
		return nil, fmt.Errorf("worker requires a redis broker url; %w", pipeline.ErrNotConfigured)
	}
	opt, err := asynq.ParseRedisURI(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("parsing broker url; %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency < 1 {
		concurrency = 1
	}

	w := &Worker{
		srv: asynq.NewServer(opt, asynq.Config{
			Concurrency:    concurrency,
			RetryDelayFunc: retryDelay,
		}),
		mux:    asynq.NewServeMux(),
		logger: logger.With("component", "queue-worker"),
	}
	w.mux.HandleFunc(TypeDocumentIngest, func(ctx context.Context, t *asynq.Task) error {
		return w.handleDocumentIngest(ctx, t, runners)
	})
	return w, nil
}

// retryDelay applies a fixed backoff to failed ingest tasks instead of
// asynq's exponential default.
func retryDelay(n int, err error, t *asynq.Task) time.Duration {
	return RetryDelay
}

// Run blocks processing tasks until Shutdown is called.
func (w *Worker) Run() error {
	return w.srv.Run(w.mux)
}

// Shutdown stops the worker, waiting for in-flight tasks.
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}

// handleDocumentIngest replays a queued upload through the same pipeline the
// synchronous upload endpoint uses. Invalid payloads are not retried.
func (w *Worker) handleDocumentIngest(ctx context.Context, t *asynq.Task, runners RunnerProvider) error {
	var p DocumentIngestPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decoding ingest payload: %v; %w", err, asynq.SkipRetry)
	}

	meta := p.Metadata
	if p.SourceSystem != "" {
		if meta == nil {
			meta = make(map[string]any)
		}
		meta["source_system"] = p.SourceSystem
	}

	runner, err := runners.Runner(p.Provider)
	if err != nil {
		return fmt.Errorf("building pipeline for task; %w", err)
	}

	summary, err := runner.Run(ctx, sources.NewFile(p.FileName, p.Content, meta))
	if err != nil {
		return fmt.Errorf("running pipeline for %s; %w", p.FileName, err)
	}
	if failed := summary.Failed(); failed > 0 {
		return fmt.Errorf("ingest of %s failed: %s", p.FileName, summary.Items[0].Error)
	}

	w.logger.Info("queued document ingested",
		"file_name", p.FileName,
		"items", len(summary.Items))
	return nil
}
