package metrics

import (
	"time"

	"github.com/geelink/docingest/internal/pipeline"
)

// Recorder feeds pipeline run outcomes into the Prometheus metrics.
type Recorder struct{}

var _ pipeline.MetricsRecorder = (*Recorder)(nil)

// NewRecorder returns a Recorder backed by the package-level metrics.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// ItemProcessed records one finished Item with its final status.
func (r *Recorder) ItemProcessed(source, status string, elapsed time.Duration) {
	ItemsTotal.WithLabelValues(source, status).Inc()
	ItemDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ProcessorFailure records a processor failure by name.
func (r *Recorder) ProcessorFailure(processor string) {
	ProcessorFailuresTotal.WithLabelValues(processor).Inc()
}

// SinkFailure records a sink failure by name.
func (r *Recorder) SinkFailure(sink string) {
	SinkFailuresTotal.WithLabelValues(sink).Inc()
}
