package processors

import (
	"context"
	"log/slog"
	"strings"

	"github.com/geelink/docingest/internal/pipeline"
)

// Analyze asks the LLM capability for a business glossary of the document
// and stores it in metadata. The processor is only registered when an
// analyzer is configured, and even then a provider failure must not sink the
// Item, so failures degrade to an empty glossary.
type Analyze struct {
	analyzer pipeline.Analyzer
	logger   *slog.Logger
}

var _ pipeline.Processor = (*Analyze)(nil)

// NewAnalyze creates the analyze processor.
func NewAnalyze(analyzer pipeline.Analyzer) *Analyze {
	return &Analyze{
		analyzer: analyzer,
		logger:   slog.Default().With("component", "processor", "processor", "analyze"),
	}
}

func (p *Analyze) Name() string { return "analyze" }
func (p *Analyze) Order() int   { return pipeline.OrderAnalyze }

// Process extracts the business glossary from clean_text.
func (p *Analyze) Process(ctx context.Context, item *pipeline.Item) (*pipeline.Update, error) {
	glossary := ""
	if strings.TrimSpace(item.CleanText) != "" {
		out, err := p.analyzer.Analyze(ctx, item.CleanText, pipeline.TaskBusinessGlossary)
		if err != nil {
			p.logger.Warn("analysis failed, continuing without glossary",
				"doc_id", item.DocID, "error", err)
		} else {
			glossary = strings.TrimSpace(out)
		}
	}

	meta := map[string]any{}
	for k, v := range item.Metadata {
		meta[k] = v
	}
	meta["business_glossary"] = glossary

	return &pipeline.Update{Metadata: meta}, nil
}
