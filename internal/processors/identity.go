// Package processors contains the ordered pipeline stages that turn a raw
// Item into persistence-ready records.
package processors

import (
	"context"
	"log/slog"

	"github.com/geelink/docingest/internal/identity"
	"github.com/geelink/docingest/internal/pipeline"
)

// Identity assigns the stable doc_id. It runs before every other processor
// so downstream stages can reference the id.
type Identity struct {
	sourceSystem string
	logger       *slog.Logger
}

var _ pipeline.Processor = (*Identity)(nil)

// NewIdentity creates the identity processor. An empty sourceSystem falls
// back to the default.
func NewIdentity(sourceSystem string) *Identity {
	if sourceSystem == "" {
		sourceSystem = identity.DefaultSourceSystem
	}
	return &Identity{
		sourceSystem: sourceSystem,
		logger:       slog.Default().With("component", "processor", "processor", "identity"),
	}
}

func (p *Identity) Name() string { return "identity" }
func (p *Identity) Order() int   { return pipeline.OrderIdentity }

// Process hashes the Item's content into a doc_id unless the caller supplied
// one. The id lands on the Item root and in metadata.doc_id.
func (p *Identity) Process(ctx context.Context, item *pipeline.Item) (*pipeline.Update, error) {
	content := item.Binary
	if len(content) == 0 {
		switch {
		case item.RawText != "":
			content = []byte(item.RawText)
		case item.SourcePath != "":
			content = []byte(item.SourcePath)
		default:
			p.logger.Warn("no content to hash, id will not be content-stable", "file_name", item.FileName)
			content = []byte("no_content")
		}
	}

	preferred := preferredDocID(item)
	sourceSystem := p.sourceSystem
	if s, ok := item.UserMetadata["source_system"].(string); ok && s != "" {
		sourceSystem = s
	}

	docID := identity.StableDocID(content, item.FileName, preferred, sourceSystem)
	p.logger.Debug("assigned doc_id", "doc_id", docID, "file_name", item.FileName)

	meta := map[string]any{}
	for k, v := range item.Metadata {
		meta[k] = v
	}
	meta["doc_id"] = docID

	return &pipeline.Update{
		DocID:    pipeline.StringPtr(docID),
		Metadata: meta,
	}, nil
}

// preferredDocID resolves a caller-supplied id: the explicit doc_id key wins,
// then an id the source already stamped, then business aliases.
func preferredDocID(item *pipeline.Item) string {
	if s, ok := item.UserMetadata["doc_id"].(string); ok && s != "" {
		return s
	}
	if item.DocID != "" {
		return item.DocID
	}
	for _, key := range []string{"business_id", "archive_no", "id"} {
		if s, ok := item.UserMetadata[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
