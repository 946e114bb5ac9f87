package processors

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/geelink/docingest/internal/identity"
	"github.com/geelink/docingest/internal/pipeline"
)

// metadata keys that already have dedicated parent-record fields.
var assembleSkipKeys = map[string]bool{
	"title":    true,
	"author":   true,
	"filename": true,
	"filetype": true,
}

// Assemble builds the final persistence records: one parent document plus
// one record per chunk. It runs last and releases the Item's binary.
type Assemble struct {
	namespaceSeed string
	logger        *slog.Logger
}

var _ pipeline.Processor = (*Assemble)(nil)

// NewAssemble creates the assemble processor. An empty seed falls back to
// the default persistence namespace.
func NewAssemble(namespaceSeed string) *Assemble {
	if namespaceSeed == "" {
		namespaceSeed = identity.DefaultNamespaceSeed
	}
	return &Assemble{
		namespaceSeed: namespaceSeed,
		logger:        slog.Default().With("component", "processor", "processor", "assemble"),
	}
}

func (p *Assemble) Name() string { return "assemble" }
func (p *Assemble) Order() int   { return pipeline.OrderAssemble }

// Process emits solr_docs (parent plus chunks) and vector_docs (chunks only).
// Record ids are deterministic UUIDv5 values so re-ingesting a document
// overwrites its previous records.
func (p *Assemble) Process(ctx context.Context, item *pipeline.Item) (*pipeline.Update, error) {
	meta := item.Metadata
	if meta == nil {
		meta = map[string]any{}
	}

	docID := item.DocID
	if docID == "" {
		if s, ok := meta["doc_id"].(string); ok && s != "" {
			docID = s
		} else {
			docID = uuid.NewString()
		}
	}
	now := time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")

	parent := map[string]any{
		"id":            identity.PersistenceID(p.namespaceSeed, docID),
		"doc_id":        docID,
		"doc_type":      "document",
		"raw_content":   item.RawText,
		"content":       item.CleanText,
		"title":         metaString(meta, "title"),
		"author":        metaString(meta, "author"),
		"source_name":   metaStringDefault(meta, "source_name", item.FileName),
		"source_type":   metaString(meta, "source_type"),
		"source_path":   item.SourcePath,
		"source":        metaString(meta, "source"),
		"created_at":    metaString(meta, "created_at"),
		"modified_at":   metaString(meta, "modified_at"),
		"keywords":      meta["keywords"],
		"summary":       metaString(meta, "summary"),
		"section_title": metaString(meta, "section_title"),
		"language":      metaString(meta, "language"),
		"chunk_count":   len(item.Embeddings),
		"timestamp":     now,
	}
	for k, v := range meta {
		if !assembleSkipKeys[k] {
			parent[k] = v
		}
	}

	n := len(item.Chunks)
	if len(item.Embeddings) < n {
		n = len(item.Embeddings)
	}
	chunkDocs := make([]map[string]any, 0, n)
	for idx := 0; idx < n; idx++ {
		chunkID := fmt.Sprintf("%s_chunk_%06d", docID, idx)
		chunkDocs = append(chunkDocs, map[string]any{
			"id":            identity.PersistenceID(p.namespaceSeed, chunkID),
			"doc_id":        chunkID,
			"doc_type":      "chunk",
			"parent_id":     parent["id"],
			"chunk_index":   idx,
			"chunk_content": item.Chunks[idx],
			"_gl_vector":    item.Embeddings[idx].Vector,
			"title":         parent["title"],
			"author":        parent["author"],
			"source_name":   parent["source_name"],
			"source_type":   parent["source_type"],
			"source_path":   parent["source_path"],
			"timestamp":     now,
		})
	}

	p.logger.Info("assembled records",
		"doc_id", docID,
		"solr_docs", 1+len(chunkDocs),
		"vector_docs", len(chunkDocs))

	solrDocs := make([]map[string]any, 0, 1+len(chunkDocs))
	solrDocs = append(solrDocs, parent)
	solrDocs = append(solrDocs, chunkDocs...)

	return &pipeline.Update{
		DocID:      pipeline.StringPtr(docID),
		SolrDocs:   solrDocs,
		VectorDocs: chunkDocs,
		DropBinary: true,
	}, nil
}

func metaString(meta map[string]any, key string) string {
	if s, ok := meta[key].(string); ok {
		return s
	}
	return ""
}

func metaStringDefault(meta map[string]any, key, fallback string) string {
	if s, ok := meta[key].(string); ok && s != "" {
		return s
	}
	return fallback
}
