package chunkers

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmpty(t *testing.T) {
	s := NewRecursiveSplitter(500, 50)
	assert.Empty(t, s.Split(""))
	assert.Empty(t, s.Split("   \n\n  "))
}

func TestSplitShortText(t *testing.T) {
	s := NewRecursiveSplitter(500, 50)
	chunks := s.Split("hello world")
	assert.Equal(t, []string{"hello world"}, chunks)
}

func TestSplitOverlapContinuousText(t *testing.T) {
	// 1200 characters without separators forces character-level splitting.
	text := strings.Repeat("abcdefghij", 120)
	s := NewRecursiveSplitter(500, 50)

	chunks := s.Split(text)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 500)
	assert.Len(t, chunks[1], 500)
	assert.Len(t, chunks[2], 300)
	assert.Equal(t, chunks[0][len(chunks[0])-50:], chunks[1][:50])
	assert.Equal(t, chunks[1][len(chunks[1])-50:], chunks[2][:50])
}

func TestSplitRespectsParagraphs(t *testing.T) {
	paras := []string{
		strings.Repeat("a", 200),
		strings.Repeat("b", 200),
		strings.Repeat("c", 200),
	}
	text := strings.Join(paras, "\n\n")
	s := NewRecursiveSplitter(500, 50)

	chunks := s.Split(text)
	require.Len(t, chunks, 2)
	// First chunk packs the first two paragraphs (200+2+200 <= 500).
	assert.Contains(t, chunks[0], paras[0])
	assert.Contains(t, chunks[0], paras[1])
	assert.Contains(t, chunks[1], paras[2])
}

func TestSplitNoChunkExceedsSize(t *testing.T) {
	text := strings.Repeat("word ", 1000) + "\n\n" + strings.Repeat("句子内容", 300)
	s := NewRecursiveSplitter(500, 50)

	for _, c := range s.Split(text) {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 500)
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestSplitCJKByRunes(t *testing.T) {
	// 600 CJK runes; size is measured in runes, not bytes.
	text := strings.Repeat("中文内容测试", 100)
	s := NewRecursiveSplitter(500, 50)

	chunks := s.Split(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, 500, utf8.RuneCountInString(chunks[0]))
	assert.Equal(t, 150, utf8.RuneCountInString(chunks[1]))
}

func TestSplitDefaultsApplied(t *testing.T) {
	s := NewRecursiveSplitter(0, -1)
	assert.Equal(t, DefaultChunkSize, s.chunkSize)
	assert.Equal(t, DefaultChunkOverlap, s.chunkOverlap)
}

func TestSplitCustomSeparators(t *testing.T) {
	s := NewRecursiveSplitter(10, 0, WithSeparators([]string{"|", ""}))
	chunks := s.Split("aaa|bbb|ccc")
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 10)
	}
}
