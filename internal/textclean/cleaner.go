// Package textclean normalizes extracted document text: encoding repair,
// HTML structure restoration, layout noise removal, compliance masking, and
// optional semantic deduplication of near-identical paragraphs.
package textclean

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MinCleanLength is the final length gate: shorter results are considered
// extraction noise and emitted as empty.
const MinCleanLength = 30

// Cleaner runs the full normalization pipeline over raw text. The zero
// options enable HTML restoration and compliance masking with no deduper.
type Cleaner struct {
	htmlParse bool
	mask      bool
	deduper   Deduper
	logger    *slog.Logger
}

// CleanerOption configures a Cleaner.
type CleanerOption func(*Cleaner)

// WithHTMLParse toggles HTML-to-Markdown restoration.
func WithHTMLParse(enabled bool) CleanerOption {
	return func(c *Cleaner) { c.htmlParse = enabled }
}

// WithComplianceMask toggles blacklist removal and PII masking.
func WithComplianceMask(enabled bool) CleanerOption {
	return func(c *Cleaner) { c.mask = enabled }
}

// WithDeduper installs a paragraph deduper. Nil disables the stage.
func WithDeduper(d Deduper) CleanerOption {
	return func(c *Cleaner) { c.deduper = d }
}

// NewCleaner creates a Cleaner with the given options.
func NewCleaner(opts ...CleanerOption) *Cleaner {
	c := &Cleaner{
		htmlParse: true,
		mask:      true,
		logger:    slog.Default().With("component", "textclean"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean transforms raw extractor output into canonical text. isHTML marks
// input the extractor emitted as an HTML document.
func (c *Cleaner) Clean(ctx context.Context, raw string, isHTML bool) string {
	text := fixEncoding(raw)

	if c.htmlParse && isHTML {
		restored, err := HTMLToMarkdown(text)
		if err != nil {
			c.logger.Warn("html restore failed, falling back to plain text", "error", err)
		} else {
			text = restored
		}
	}

	text = norm.NFKC.String(text)
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	text = removeLayoutNoise(text)

	lines := cleanLines(text)
	paragraphs := mergeParagraphs(lines)

	var nonEmpty []string
	for _, p := range paragraphs {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if c.deduper != nil && len(nonEmpty) > 1 {
		nonEmpty = c.deduper.Dedup(ctx, nonEmpty)
	}

	for i, p := range nonEmpty {
		nonEmpty[i] = strings.TrimSpace(p)
	}
	text = strings.TrimSpace(strings.Join(nonEmpty, "\n\n"))

	if c.mask {
		text = maskCompliance(text)
	}

	text = finalize(text)

	if utf8.RuneCountInString(text) <= MinCleanLength {
		return ""
	}
	return text
}

var (
	reCJKGap       = regexp.MustCompile(`([\x{4e00}-\x{9fa5}])[\s\x{00A0}\x{200B}\x{3000}]*([\x{4e00}-\x{9fa5}])`)
	reSpaceRun     = regexp.MustCompile(`[ \t]+`)
	reBlankPadding = regexp.MustCompile(` *\n\n *`)
	reBlankRun     = regexp.MustCompile(`\n{3,}`)
)

// finalize collapses whitespace between CJK characters, space runs, and
// blank-line runs.
func finalize(text string) string {
	// Iterate: non-overlapping matches leave every other gap on one pass.
	for {
		collapsed := reCJKGap.ReplaceAllString(text, "$1$2")
		if collapsed == text {
			break
		}
		text = collapsed
	}
	text = reSpaceRun.ReplaceAllString(text, " ")
	text = reBlankPadding.ReplaceAllString(text, "\n\n")
	text = reBlankRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
