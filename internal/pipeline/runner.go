package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxWorkers bounds the orchestrator's multi-Item fan-out.
const DefaultMaxWorkers = 10

// MetricsRecorder receives orchestrator observations. The zero value of a
// Runner records nothing.
type MetricsRecorder interface {
	ItemProcessed(source, status string, elapsed time.Duration)
	ProcessorFailure(processor string)
	SinkFailure(sink string)
}

// Runner executes Source -> ordered Processors -> Sinks. Processors are
// sorted once at construction, ascending by Order with registration order
// breaking ties. A Runner is safe for concurrent use because processors and
// sinks are stateless after construction.
type Runner struct {
	processors []Processor
	sinks      []Sink
	maxWorkers int
	logger     *slog.Logger
	metrics    MetricsRecorder
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithMaxWorkers sets the fan-out bound for multi-Item sources.
func WithMaxWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.maxWorkers = n
		}
	}
}

// WithLogger sets the runner's logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// NewRunner creates a Runner over the given processors and sinks.
func NewRunner(processors []Processor, sinks []Sink, opts ...RunnerOption) *Runner {
	r := &Runner{
		processors: sortProcessors(processors),
		sinks:      sinks,
		maxWorkers: DefaultMaxWorkers,
		logger:     slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// sortProcessors orders ascending by Order, stable on registration order.
func sortProcessors(processors []Processor) []Processor {
	sorted := make([]Processor, len(processors))
	copy(sorted, processors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order() < sorted[j].Order()
	})
	return sorted
}

// Processors returns the runner's processor chain in execution order.
func (r *Runner) Processors() []Processor {
	return r.processors
}

// Run reads the source and pushes every Item through the chain. Items from
// multi-Item sources run concurrently up to the worker bound; each Item's
// processors execute sequentially. A failed Item never affects its siblings.
func (r *Runner) Run(ctx context.Context, src Source) (RunSummary, error) {
	summary := RunSummary{Source: src.Name()}

	items, err := src.Read(ctx)
	if err != nil {
		return summary, fmt.Errorf("source %s read failed; %w", src.Name(), err)
	}
	if len(items) == 0 {
		r.logger.Info("source yielded no items", "source", src.Name())
		return summary, nil
	}

	if len(items) == 1 {
		summary.Items = append(summary.Items, r.runItem(ctx, src.Name(), items[0]))
		return summary, nil
	}

	sem := semaphore.NewWeighted(int64(r.maxWorkers))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, item := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			summary.Items = append(summary.Items, failedSummary(src.Name(), item, err))
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func(item *Item) {
			defer wg.Done()
			defer sem.Release(1)
			entry := r.runItem(ctx, src.Name(), item)
			mu.Lock()
			summary.Items = append(summary.Items, entry)
			mu.Unlock()
		}(item)
	}
	wg.Wait()

	return summary, nil
}

// runItem applies the processor chain and sinks to a single Item.
func (r *Runner) runItem(ctx context.Context, sourceName string, item *Item) ItemSummary {
	start := time.Now()
	logger := r.logger.With("source", sourceName, "file_name", item.FileName)

	for _, p := range r.processors {
		update, err := p.Process(ctx, item)
		if err != nil {
			logger.Error("processor failed", "processor", p.Name(), "error", err)
			if r.metrics != nil {
				r.metrics.ProcessorFailure(p.Name())
			}
			return r.finish(sourceName, item, start, fmt.Errorf("processor %s; %w", p.Name(), err))
		}
		if update == nil {
			err := fmt.Errorf("processor %s returned no update; %w", p.Name(), ErrProcessorContract)
			logger.Error("processor contract violation", "processor", p.Name())
			if r.metrics != nil {
				r.metrics.ProcessorFailure(p.Name())
			}
			return r.finish(sourceName, item, start, err)
		}
		item.Apply(update)
	}

	for _, s := range r.sinks {
		if err := s.Write(ctx, item); err != nil {
			logger.Error("sink failed", "sink", s.Name(), "error", err)
			if r.metrics != nil {
				r.metrics.SinkFailure(s.Name())
			}
			return r.finish(sourceName, item, start, fmt.Errorf("sink %s; %w", s.Name(), err))
		}
	}

	logger.Info("item processed",
		"doc_id", item.DocID,
		"chunks", len(item.Chunks),
		"embeddings", len(item.Embeddings),
		"elapsed_ms", time.Since(start).Milliseconds())
	return r.finish(sourceName, item, start, nil)
}

// finish builds the Item's summary entry and records metrics.
func (r *Runner) finish(sourceName string, item *Item, start time.Time, err error) ItemSummary {
	elapsed := time.Since(start)
	entry := ItemSummary{
		FileName:       item.FileName,
		DocID:          item.DocID,
		Status:         StatusOK,
		ChunkCount:     len(item.Chunks),
		EmbeddingCount: len(item.Embeddings),
		Source:         sourceName,
		ElapsedMs:      elapsed.Milliseconds(),
	}
	if len(item.Embeddings) > 0 {
		entry.EmbeddingDim = len(item.Embeddings[0].Vector)
	}
	if err != nil {
		entry.Status = StatusFailed
		entry.Error = err.Error()
	}
	if r.metrics != nil {
		r.metrics.ItemProcessed(sourceName, entry.Status, elapsed)
	}
	return entry
}

func failedSummary(sourceName string, item *Item, err error) ItemSummary {
	return ItemSummary{
		FileName: item.FileName,
		DocID:    item.DocID,
		Status:   StatusFailed,
		Source:   sourceName,
		Error:    err.Error(),
	}
}
