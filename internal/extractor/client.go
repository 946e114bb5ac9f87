// Package extractor wraps the external Tika text/metadata extraction service
// and normalizes its metadata into the fields downstream processors rely on.
package extractor

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

// DefaultTimeout bounds one extraction round trip.
const DefaultTimeout = 120 * time.Second

// Client talks to a Tika server over its PUT endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = h
	}
}

// NewClient creates a client for the Tika server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default().With("component", "extractor"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExtractText PUTs the bytes to /tika and returns the plain-text body. The
// response is always interpreted as UTF-8 regardless of the declared charset.
func (c *Client) ExtractText(ctx context.Context, fileName string, data []byte) (string, error) {
	body, err := c.put(ctx, "/tika", fileName, data, "text/plain")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ExtractMeta PUTs the bytes to /meta and returns the flat metadata mapping.
// Values may be strings or arrays of strings.
func (c *Client) ExtractMeta(ctx context.Context, fileName string, data []byte) (map[string]any, error) {
	body, err := c.put(ctx, "/meta", fileName, data, "application/json")
	if err != nil {
		return nil, err
	}
	meta := map[string]any{}
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("decoding extractor metadata; %w", err)
	}
	return meta, nil
}

func (c *Client) put(ctx context.Context, path, fileName string, data []byte, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("building extractor request; %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("File-Name", fileName)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extractor %s request failed: %v; %w", path, err, pipeline.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		c.logger.Error("extractor returned error",
			"path", path, "status", resp.StatusCode, "body", string(snippet))
		return nil, fmt.Errorf("extractor %s returned status %d; %w", path, resp.StatusCode, pipeline.ErrUpstreamUnavailable)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading extractor response; %w", err)
	}
	return body, nil
}
