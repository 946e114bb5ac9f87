package queue

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/geelink/docingest/internal/pipeline"
)

// Client enqueues ingestion tasks. A nil Client (no broker configured)
// rejects enqueues with pipeline.ErrNotConfigured.
type Client struct {
	inner *asynq.Client
}

// NewClient connects to the Redis broker. An empty URL returns a nil client,
// which keeps the async endpoints routable but rejecting.
func NewClient(brokerURL string) (*Client, error) {
	if brokerURL == "" {
		return nil, nil
	}
	opt, err := asynq.ParseRedisURI(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("parsing broker url; %w", err)
	}
	return &Client{inner: asynq.NewClient(opt)}, nil
}

// EnqueueDocument queues one upload for background ingestion and returns the
// broker task ID.
func (c *Client) EnqueueDocument(ctx context.Context, p DocumentIngestPayload) (string, error) {
	if c == nil || c.inner == nil {
		return "", fmt.Errorf("async ingestion requires a redis broker url; %w", pipeline.ErrNotConfigured)
	}

	task, err := NewDocumentIngestTask(p)
	if err != nil {
		return "", err
	}
	info, err := c.inner.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("enqueueing ingest task: %v; %w", err, pipeline.ErrUpstreamUnavailable)
	}
	return info.ID, nil
}

// Close releases the broker connection.
func (c *Client) Close() error {
	if c == nil || c.inner == nil {
		return nil
	}
	return c.inner.Close()
}
