package processors

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/geelink/docingest/internal/pipeline"
	"github.com/geelink/docingest/internal/textclean"
)

// Clean turns raw_text into clean_text through the multi-stage text cleaner.
type Clean struct {
	cleaner *textclean.Cleaner
	logger  *slog.Logger
}

var _ pipeline.Processor = (*Clean)(nil)

// NewClean creates the clean processor. A nil cleaner gets the default
// configuration.
func NewClean(cleaner *textclean.Cleaner) *Clean {
	if cleaner == nil {
		cleaner = textclean.NewCleaner()
	}
	return &Clean{
		cleaner: cleaner,
		logger:  slog.Default().With("component", "processor", "processor", "clean"),
	}
}

func (p *Clean) Name() string { return "clean" }
func (p *Clean) Order() int   { return pipeline.OrderClean }

// Process cleans the Item's text. When extraction produced no raw_text but
// the binary is plausibly text, it is decoded with charset fallbacks first.
// Short inputs that the length gate would erase keep their trimmed raw form,
// since the gate exists to drop long documents that collapse into noise.
func (p *Clean) Process(ctx context.Context, item *pipeline.Item) (*pipeline.Update, error) {
	raw := item.RawText
	if raw == "" && len(item.Binary) > 0 {
		raw = textclean.DecodeBytes(item.Binary)
	}

	isHTML := strings.Contains(strings.ToLower(item.ContentType), "html") ||
		textclean.IsHTMLDocument(raw)

	clean := p.cleaner.Clean(ctx, raw, isHTML)
	if clean == "" {
		if trimmed := strings.TrimSpace(raw); trimmed != "" &&
			utf8.RuneCountInString(trimmed) <= textclean.MinCleanLength {
			clean = trimmed
		}
	}

	p.logger.Debug("cleaned text",
		"doc_id", item.DocID,
		"raw_length", utf8.RuneCountInString(raw),
		"clean_length", utf8.RuneCountInString(clean))

	return &pipeline.Update{CleanText: pipeline.StringPtr(clean)}, nil
}
