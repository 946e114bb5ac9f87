package processors

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/geelink/docingest/internal/extractor"
	"github.com/geelink/docingest/internal/pipeline"
)

// Extract delegates binary-to-text conversion and metadata extraction to the
// Tika service, then normalizes the result into the canonical metadata set.
type Extract struct {
	client *extractor.Client
	logger *slog.Logger
}

var _ pipeline.Processor = (*Extract)(nil)

// NewExtract creates the extract processor over a Tika client.
func NewExtract(client *extractor.Client) *Extract {
	return &Extract{
		client: client,
		logger: slog.Default().With("component", "processor", "processor", "extract"),
	}
}

func (p *Extract) Name() string { return "extract" }
func (p *Extract) Order() int   { return pipeline.OrderExtract }

// Process resolves raw_text and metadata for the Item. Sources that already
// carry authoritative text (web pages, inline text) skip the extractor round
// trip but still get normalized metadata; an extractor failure aborts the Item.
func (p *Extract) Process(ctx context.Context, item *pipeline.Item) (*pipeline.Update, error) {
	if item.TextAuthoritative && item.RawText != "" {
		return p.normalized(item, nil, item.RawText, pipeline.StringPtr(item.RawText)), nil
	}

	if len(item.Binary) == 0 {
		p.logger.Warn("no binary to extract", "file_name", item.FileName, "doc_id", item.DocID)
		return p.normalized(item, nil, item.RawText, pipeline.StringPtr(item.RawText)), nil
	}

	rawText, err := p.client.ExtractText(ctx, item.FileName, item.Binary)
	if err != nil {
		return nil, fmt.Errorf("extracting text for %s; %w", item.FileName, err)
	}
	rawMeta, err := p.client.ExtractMeta(ctx, item.FileName, item.Binary)
	if err != nil {
		return nil, fmt.Errorf("extracting metadata for %s; %w", item.FileName, err)
	}

	p.logger.Info("extraction complete",
		"doc_id", item.DocID,
		"file_name", item.FileName,
		"text_length", len(rawText))

	return p.normalized(item, rawMeta, rawText, pipeline.StringPtr(rawText)), nil
}

func (p *Extract) normalized(item *pipeline.Item, rawMeta map[string]any, text string, rawText *string) *pipeline.Update {
	sourceType := string(item.SourceType)
	if ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(item.FileName), ".")); ext != "" && len(item.Binary) > 0 {
		sourceType = ext
	}

	meta := extractor.Normalize(extractor.NormalizeInput{
		Raw:             rawMeta,
		DocID:           item.DocID,
		FileName:        item.FileName,
		SourceType:      sourceType,
		Content:         item.Binary,
		Text:            text,
		IngestionMethod: string(item.SourceType),
	})

	// Caller metadata wins over extractor-derived keys.
	for k, v := range item.UserMetadata {
		meta[k] = v
	}
	for k, v := range item.Metadata {
		if _, exists := meta[k]; !exists {
			meta[k] = v
		}
	}

	return &pipeline.Update{
		RawText:  rawText,
		Metadata: meta,
	}
}
