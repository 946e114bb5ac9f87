package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemApply(t *testing.T) {
	item := &Item{
		FileName: "a.txt",
		Binary:   []byte("bytes"),
		RawText:  "raw",
		DocID:    "old",
	}

	item.Apply(&Update{
		DocID:     StringPtr("new"),
		CleanText: StringPtr("clean"),
		Metadata:  map[string]any{"title": "T"},
	})

	assert.Equal(t, "new", item.DocID)
	assert.Equal(t, "clean", item.CleanText)
	assert.Equal(t, "raw", item.RawText, "unset fields stay untouched")
	assert.Equal(t, map[string]any{"title": "T"}, item.Metadata)
	assert.Equal(t, []byte("bytes"), item.Binary)
}

func TestItemApplyEmptySliceClears(t *testing.T) {
	item := &Item{Chunks: []string{"x"}}
	item.Apply(&Update{Embeddings: []Embedding{}})
	assert.NotNil(t, item.Embeddings)
	assert.Empty(t, item.Embeddings)
	assert.Equal(t, []string{"x"}, item.Chunks)
}

func TestItemApplyDropBinary(t *testing.T) {
	item := &Item{Binary: []byte("payload")}
	item.Apply(&Update{DropBinary: true})
	assert.Nil(t, item.Binary)
}

func TestItemApplyNil(t *testing.T) {
	item := &Item{DocID: "keep"}
	item.Apply(nil)
	assert.Equal(t, "keep", item.DocID)
}
