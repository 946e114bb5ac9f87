// Package chunkers segments normalized text into bounded-length pieces
// suitable for embedding.
package chunkers

// Default segmentation parameters, measured in characters (runes).
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// Splitter turns a text into an ordered sequence of chunks.
type Splitter interface {
	Split(text string) []string
}
