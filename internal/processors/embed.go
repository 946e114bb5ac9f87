package processors

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geelink/docingest/internal/pipeline"
)

// Embed generates one vector per chunk through the injected embedder.
type Embed struct {
	embedder pipeline.Embedder
	model    string
	logger   *slog.Logger
}

var _ pipeline.Processor = (*Embed)(nil)

// NewEmbed creates the embed processor. An empty model uses the embedder's
// default; a nil embedder makes the processor a no-op that emits an empty
// embedding list.
func NewEmbed(embedder pipeline.Embedder, model string) *Embed {
	return &Embed{
		embedder: embedder,
		model:    model,
		logger:   slog.Default().With("component", "processor", "processor", "embed"),
	}
}

func (p *Embed) Name() string { return "embed" }
func (p *Embed) Order() int   { return pipeline.OrderEmbed }

// Process embeds every chunk. Any single failure aborts the Item so chunks
// and vectors stay aligned.
func (p *Embed) Process(ctx context.Context, item *pipeline.Item) (*pipeline.Update, error) {
	if p.embedder == nil {
		p.logger.Warn("no embedder configured, skipping", "doc_id", item.DocID)
		return &pipeline.Update{Embeddings: []pipeline.Embedding{}}, nil
	}

	model := p.model
	if model == "" {
		model = p.embedder.DefaultModel()
	}

	embeddings := make([]pipeline.Embedding, 0, len(item.Chunks))
	for i, chunk := range item.Chunks {
		vec, err := p.embedder.Embed(ctx, chunk, model)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %d/%d of %s; %w", i+1, len(item.Chunks), item.DocID, err)
		}
		embeddings = append(embeddings, pipeline.Embedding{Text: chunk, Vector: vec})
	}

	p.logger.Debug("embedded chunks", "doc_id", item.DocID, "count", len(embeddings), "model", model)
	return &pipeline.Update{Embeddings: embeddings}, nil
}
