package sinks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/geelink/docingest/internal/pipeline"
)

// Vector upserts an Item's chunk records into an embedded chromem collection.
type Vector struct {
	collection *chromem.Collection
	logger     *slog.Logger
}

var _ pipeline.Sink = (*Vector)(nil)

// NewVector opens (or creates) the persistent store at path and the named
// collection inside it. Vectors arrive precomputed, so the collection's own
// embedding function is never invoked.
func NewVector(path, collection string) (*Vector, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("opening vector store at %s; %w", path, err)
	}

	noEmbed := chromem.EmbeddingFunc(func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("vector sink only accepts precomputed embeddings")
	})
	coll, err := db.GetOrCreateCollection(collection, nil, noEmbed)
	if err != nil {
		return nil, fmt.Errorf("opening vector collection %s; %w", collection, err)
	}

	return &Vector{
		collection: coll,
		logger:     slog.Default().With("component", "sink", "sink", "vector", "collection", collection),
	}, nil
}

func (s *Vector) Name() string { return "vector" }

// Write upserts every vector_doc that carries a non-empty vector.
func (s *Vector) Write(ctx context.Context, item *pipeline.Item) error {
	docs := make([]chromem.Document, 0, len(item.VectorDocs))
	for _, vd := range item.VectorDocs {
		vec, _ := vd["_gl_vector"].([]float32)
		if len(vec) == 0 {
			continue
		}
		id, _ := vd["id"].(string)
		content, _ := vd["chunk_content"].(string)

		meta := map[string]string{}
		for _, key := range []string{"doc_id", "parent_id", "title", "author", "source_name", "source_type", "source_path", "timestamp"} {
			if v, ok := vd[key].(string); ok && v != "" {
				meta[key] = v
			}
		}
		if idx, ok := vd["chunk_index"].(int); ok {
			meta["chunk_index"] = strconv.Itoa(idx)
		}

		docs = append(docs, chromem.Document{
			ID:        id,
			Content:   content,
			Embedding: vec,
			Metadata:  meta,
		})
	}

	if len(docs) == 0 {
		s.logger.Debug("no vectors to write", "doc_id", item.DocID)
		return nil
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("upserting %d vectors for %s: %v; %w", len(docs), item.DocID, err, pipeline.ErrUpstreamUnavailable)
	}

	s.logger.Info("vectors written", "doc_id", item.DocID, "count", len(docs))
	return nil
}
