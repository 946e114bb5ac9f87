package textclean

import (
	"context"
	"log/slog"
	"math"
)

// DedupThreshold is the cosine similarity above which a paragraph counts as
// a duplicate of one already kept.
const DedupThreshold = 0.94

// Deduper removes near-duplicate paragraphs. Implementations must preserve
// first-occurrence order of the retained paragraphs.
type Deduper interface {
	Dedup(ctx context.Context, paragraphs []string) []string
}

// EmbedBatchFunc embeds a batch of texts, one vector per input.
type EmbedBatchFunc func(ctx context.Context, texts []string) ([][]float32, error)

// CosineDeduper drops paragraphs whose maximum cosine similarity against the
// already-kept set reaches the threshold. On embedding failure the input is
// returned unchanged, so the feature degrades silently.
type CosineDeduper struct {
	embed     EmbedBatchFunc
	threshold float64
	logger    *slog.Logger
}

// NewCosineDeduper creates a deduper over the given embedding function.
// A non-positive threshold falls back to DedupThreshold.
func NewCosineDeduper(embed EmbedBatchFunc, threshold float64) *CosineDeduper {
	if threshold <= 0 {
		threshold = DedupThreshold
	}
	return &CosineDeduper{
		embed:     embed,
		threshold: threshold,
		logger:    slog.Default().With("component", "semantic-dedup"),
	}
}

var _ Deduper = (*CosineDeduper)(nil)

// Dedup keeps paragraph i only if its similarity against every kept
// paragraph stays below the threshold. The first paragraph is always kept.
func (d *CosineDeduper) Dedup(ctx context.Context, paragraphs []string) []string {
	if len(paragraphs) <= 1 || d.embed == nil {
		return paragraphs
	}

	vectors, err := d.embed(ctx, paragraphs)
	if err != nil || len(vectors) != len(paragraphs) {
		d.logger.Warn("paragraph embedding failed, dedup disabled for this document", "error", err)
		return paragraphs
	}

	kept := []int{0}
	for i := 1; i < len(paragraphs); i++ {
		maxSim := -1.0
		for _, k := range kept {
			if sim := cosine(vectors[i], vectors[k]); sim > maxSim {
				maxSim = sim
			}
		}
		if maxSim < d.threshold {
			kept = append(kept, i)
		}
	}

	out := make([]string, 0, len(kept))
	for _, i := range kept {
		out = append(out, paragraphs[i])
	}
	return out
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
