package pipeline

// Canonical processor orders.
const (
	OrderIdentity = 5
	OrderExtract  = 10
	OrderClean    = 20
	OrderChunk    = 30
	OrderEmbed    = 40
	OrderAnalyze  = 50
	OrderAssemble = 100

	// DefaultOrder applies to processors that do not declare one.
	DefaultOrder = 100
)

// Item statuses in a summary.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// ItemSummary is the per-Item result surfaced to callers. It carries counts
// and dimensions only; raw bytes, vectors, and full text never leave the
// orchestrator.
type ItemSummary struct {
	FileName       string `json:"file_name"`
	DocID          string `json:"doc_id"`
	Status         string `json:"status"`
	ChunkCount     int    `json:"chunk_count"`
	EmbeddingCount int    `json:"embedding_count"`
	EmbeddingDim   int    `json:"embedding_dim"`
	Source         string `json:"source"`
	ElapsedMs      int64  `json:"elapsed_ms"`
	Error          string `json:"error,omitempty"`
}

// RunSummary is the aggregate result of one orchestrator run. Items appear
// in completion order.
type RunSummary struct {
	Source string        `json:"source"`
	Items  []ItemSummary `json:"items"`
}

// Failed reports how many Items ended in StatusFailed.
func (s RunSummary) Failed() int {
	n := 0
	for _, it := range s.Items {
		if it.Status == StatusFailed {
			n++
		}
	}
	return n
}
