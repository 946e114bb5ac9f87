package textclean

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fixedEmbed(vectors map[string][]float32) EmbedBatchFunc {
	return func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, t := range texts {
			out[i] = vectors[t]
		}
		return out, nil
	}
}

func TestDedupDropsNearDuplicates(t *testing.T) {
	d := NewCosineDeduper(fixedEmbed(map[string][]float32{
		"contract terms":      {1, 0, 0},
		"contract terms copy": {0.999, 0.01, 0},
		"payment schedule":    {0, 1, 0},
	}), 0.94)

	got := d.Dedup(context.Background(), []string{
		"contract terms",
		"contract terms copy",
		"payment schedule",
	})
	assert.Equal(t, []string{"contract terms", "payment schedule"}, got)
}

func TestDedupPreservesOrder(t *testing.T) {
	d := NewCosineDeduper(fixedEmbed(map[string][]float32{
		"a": {1, 0, 0},
		"b": {0, 1, 0},
		"c": {0, 0, 1},
	}), 0.94)

	got := d.Dedup(context.Background(), []string{"c", "a", "b"})
	assert.Equal(t, []string{"c", "a", "b"}, got)
}

func TestDedupDegradesOnEmbedFailure(t *testing.T) {
	d := NewCosineDeduper(func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("provider down")
	}, 0)

	in := []string{"x", "y"}
	assert.Equal(t, in, d.Dedup(context.Background(), in))
}

func TestDedupSingleParagraphPassthrough(t *testing.T) {
	d := NewCosineDeduper(nil, 0)
	in := []string{"only one"}
	assert.Equal(t, in, d.Dedup(context.Background(), in))
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosine([]float32{1}, []float32{1, 2}))
}
