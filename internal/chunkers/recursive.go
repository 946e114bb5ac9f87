package chunkers

import (
	"strings"
	"unicode/utf8"
)

// Default separators in order of preference: paragraph break, line break,
// word boundary, then character level as a last resort.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveSplitter splits text at the highest-priority separator that
// yields pieces within the chunk size, recursing into over-sized pieces with
// the next separator. Adjacent small pieces are merged back up to the chunk
// size, and consecutive chunks carry the configured overlap.
type RecursiveSplitter struct {
	separators   []string
	chunkSize    int
	chunkOverlap int
}

// SplitterOption configures a RecursiveSplitter.
type SplitterOption func(*RecursiveSplitter)

// WithSeparators overrides the separator priority list.
func WithSeparators(seps []string) SplitterOption {
	return func(s *RecursiveSplitter) {
		if len(seps) > 0 {
			s.separators = seps
		}
	}
}

// NewRecursiveSplitter creates a splitter with the given chunk size and
// overlap; non-positive values fall back to the defaults.
func NewRecursiveSplitter(chunkSize, chunkOverlap int, opts ...SplitterOption) *RecursiveSplitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}
	s := &RecursiveSplitter{
		separators:   defaultSeparators,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Splitter = (*RecursiveSplitter)(nil)

// Split segments text into chunks. Empty or whitespace-only input yields no
// chunks, and no chunk in the output is empty.
func (s *RecursiveSplitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.splitText(text, s.separators)
}

// splitText picks the first separator present in the text and recurses into
// pieces that still exceed the chunk size.
func (s *RecursiveSplitter) splitText(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var remaining []string
	for i, c := range separators {
		if c == "" {
			sep = ""
			remaining = nil
			break
		}
		if strings.Contains(text, c) {
			sep = c
			remaining = separators[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		pieces = splitRunes(text)
	} else {
		pieces = strings.Split(text, sep)
	}

	var chunks []string
	var pending []string
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		if utf8.RuneCountInString(piece) < s.chunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			chunks = append(chunks, s.merge(pending, sep)...)
			pending = nil
		}
		if len(remaining) == 0 {
			// Atomic over-sized piece with no finer separator left.
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, s.splitText(piece, remaining)...)
		}
	}
	if len(pending) > 0 {
		chunks = append(chunks, s.merge(pending, sep)...)
	}
	return chunks
}

// merge combines small pieces into chunks as close to the chunk size as
// possible, retaining the overlap tail between consecutive chunks.
func (s *RecursiveSplitter) merge(pieces []string, sep string) []string {
	sepLen := utf8.RuneCountInString(sep)

	var chunks []string
	var current []string
	total := 0

	joinLen := func() int {
		if len(current) > 0 {
			return sepLen
		}
		return 0
	}

	for _, piece := range pieces {
		pieceLen := utf8.RuneCountInString(piece)
		if total+pieceLen+joinLen() > s.chunkSize && len(current) > 0 {
			if chunk := joinPieces(current, sep); chunk != "" {
				chunks = append(chunks, chunk)
			}
			// Drop from the front until the kept tail fits inside the
			// overlap budget and leaves room for the next piece.
			for total > s.chunkOverlap || (total+pieceLen+joinLen() > s.chunkSize && total > 0) {
				total -= utf8.RuneCountInString(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		if len(current) > 0 {
			total += sepLen
		}
		current = append(current, piece)
		total += pieceLen
	}

	if chunk := joinPieces(current, sep); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func joinPieces(pieces []string, sep string) string {
	return strings.TrimSpace(strings.Join(pieces, sep))
}

// splitRunes breaks text into individual characters for last-resort merging.
func splitRunes(text string) []string {
	out := make([]string, 0, utf8.RuneCountInString(text))
	for _, r := range text {
		out = append(out, string(r))
	}
	return out
}
