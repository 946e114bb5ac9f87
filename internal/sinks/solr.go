// Package sinks persists assembled Items into the search and vector stores.
package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geelink/docingest/internal/pipeline"
)

// SolrTimeout bounds one update round trip.
const SolrTimeout = 10 * time.Second

// Solr posts an Item's solr_docs to a Solr collection with an immediate
// commit.
type Solr struct {
	baseURL    string
	collection string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ pipeline.Sink = (*Solr)(nil)

// SolrOption configures the sink.
type SolrOption func(*Solr)

// WithSolrHTTPClient replaces the HTTP client, mainly for tests.
func WithSolrHTTPClient(h *http.Client) SolrOption {
	return func(s *Solr) {
		s.httpClient = h
	}
}

// NewSolr creates a sink for the collection at baseURL.
func NewSolr(baseURL, collection string, opts ...SolrOption) *Solr {
	s := &Solr{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: SolrTimeout},
		logger:     slog.Default().With("component", "sink", "sink", "solr", "collection", collection),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Solr) Name() string { return "solr" }

// Write posts the Item's solr_docs as one JSON array. An empty document list
// is a no-op.
func (s *Solr) Write(ctx context.Context, item *pipeline.Item) error {
	if len(item.SolrDocs) == 0 {
		s.logger.Debug("no solr docs to write", "doc_id", item.DocID)
		return nil
	}

	payload, err := json.Marshal(item.SolrDocs)
	if err != nil {
		return fmt.Errorf("encoding solr docs for %s; %w", item.DocID, err)
	}

	updateURL := fmt.Sprintf("%s/solr/%s/update?commit=true", s.baseURL, s.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, updateURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building solr request; %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("solr update failed: %v; %w", err, pipeline.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		s.logger.Error("solr rejected update",
			"doc_id", item.DocID, "status", resp.StatusCode, "body", string(snippet))
		return fmt.Errorf("solr returned status %d; %w", resp.StatusCode, pipeline.ErrUpstreamUnavailable)
	}

	s.logger.Info("solr documents written", "doc_id", item.DocID, "count", len(item.SolrDocs))
	return nil
}
