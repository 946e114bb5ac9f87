package processors

import (
	"context"
	"log/slog"

	"github.com/geelink/docingest/internal/chunkers"
	"github.com/geelink/docingest/internal/pipeline"
)

// Chunk splits clean_text into overlapping chunks for embedding.
type Chunk struct {
	splitter chunkers.Splitter
	logger   *slog.Logger
}

var _ pipeline.Processor = (*Chunk)(nil)

// NewChunk creates the chunk processor. A nil splitter gets the default
// recursive splitter.
func NewChunk(splitter chunkers.Splitter) *Chunk {
	if splitter == nil {
		splitter = chunkers.NewRecursiveSplitter(chunkers.DefaultChunkSize, chunkers.DefaultChunkOverlap)
	}
	return &Chunk{
		splitter: splitter,
		logger:   slog.Default().With("component", "processor", "processor", "chunk"),
	}
}

func (p *Chunk) Name() string { return "chunk" }
func (p *Chunk) Order() int   { return pipeline.OrderChunk }

// Process splits clean_text. Empty text yields an empty chunk list.
func (p *Chunk) Process(ctx context.Context, item *pipeline.Item) (*pipeline.Update, error) {
	chunks := p.splitter.Split(item.CleanText)
	if chunks == nil {
		chunks = []string{}
	}

	p.logger.Debug("chunked text", "doc_id", item.DocID, "chunk_count", len(chunks))
	return &pipeline.Update{Chunks: chunks}, nil
}
