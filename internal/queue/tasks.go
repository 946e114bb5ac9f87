// Package queue provides async document ingestion over Redis using asynq.
// The HTTP API enqueues upload tasks; a separate worker process drains them
// through the same pipeline the synchronous endpoints use.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TypeDocumentIngest is the task type for queued document uploads.
const TypeDocumentIngest = "document:ingest"

// DefaultMaxRetry bounds redelivery of a failing ingest task.
const DefaultMaxRetry = 3

// RetryDelay is the fixed pause before a failed ingest task is retried.
const RetryDelay = 10 * time.Second

// DocumentIngestPayload carries one uploaded document through Redis.
// Content is raw file bytes; encoding/json base64-encodes it on the wire.
type DocumentIngestPayload struct {
	FileName     string         `json:"file_name"`
	Content      []byte         `json:"content"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Provider     string         `json:"provider,omitempty"`
	SourceSystem string         `json:"source_system,omitempty"`
}

// NewDocumentIngestTask builds the asynq task for one upload.
func NewDocumentIngestTask(p DocumentIngestPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshaling ingest payload; %w", err)
	}
	return asynq.NewTask(TypeDocumentIngest, data, asynq.MaxRetry(DefaultMaxRetry)), nil
}
