package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/geelink/docingest/internal/metrics"
	"github.com/geelink/docingest/internal/pipeline"
	"github.com/geelink/docingest/internal/providers"
	"github.com/geelink/docingest/internal/queue"
	"github.com/geelink/docingest/internal/sources"
)

// IngestRequest is one entry of the /ingest body.
type IngestRequest struct {
	SourceType    string         `json:"source_type"`
	FileName      string         `json:"file_name,omitempty"`
	Text          string         `json:"text,omitempty"`
	URI           string         `json:"uri,omitempty"`
	Base64Content string         `json:"base64_content,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Provider      string         `json:"provider,omitempty"`
	SourceSystem  string         `json:"source_system,omitempty"`
}

// EmailIngestRequest is the /email/ingest_email body. Credentials arrive
// per request and are never persisted.
type EmailIngestRequest struct {
	Host         string         `json:"host"`
	Port         int            `json:"port,omitempty"`
	Username     string         `json:"username"`
	Password     string         `json:"password"`
	Mailbox      string         `json:"mailbox,omitempty"`
	MaxEmails    int            `json:"max_emails,omitempty"`
	Provider     string         `json:"provider,omitempty"`
	SourceSystem string         `json:"source_system,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	ResetState   bool           `json:"reset_state,omitempty"`
}

// statusForError maps the pipeline error taxonomy to HTTP codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidInput),
		errors.Is(err, providers.ErrProviderNotFound):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{"status": "error", "error": err.Error()})
}

// mergeSourceSystem copies metadata and stamps the per-request source
// system so the identity processor picks it up.
func mergeSourceSystem(meta map[string]any, sourceSystem string) map[string]any {
	if sourceSystem == "" {
		return meta
	}
	out := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	out["source_system"] = sourceSystem
	return out
}

// parseMetadataField decodes the optional JSON metadata form field.
func parseMetadataField(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("malformed metadata json: %v; %w", err, pipeline.ErrInvalidInput)
	}
	return meta, nil
}

// runAndRespond executes one pipeline run and writes the single-run
// response. A failed single-Item run surfaces as 500 with the processor
// error in the summary.
func (s *Server) runAndRespond(c *gin.Context, providerName string, src pipeline.Source) {
	runner, err := s.runners.Runner(providerName)
	if err != nil {
		abortWithError(c, err)
		return
	}

	summary, err := runner.Run(c.Request.Context(), src)
	if err != nil {
		abortWithError(c, err)
		return
	}

	status := "completed"
	code := http.StatusOK
	if len(summary.Items) == 1 && summary.Failed() == 1 {
		status = "failed"
		code = http.StatusInternalServerError
	}
	c.JSON(code, gin.H{"status": status, "result": summary})
}

// handleUpload ingests one multipart file synchronously.
func (s *Server) handleUpload(c *gin.Context) {
	fileName, data, meta, ok := s.parseUploadForm(c)
	if !ok {
		return
	}
	s.runAndRespond(c, c.Query("provider"), sources.NewFile(fileName, data, meta))
}

// handleUploadAsync enqueues the same upload for background ingestion.
func (s *Server) handleUploadAsync(c *gin.Context) {
	fileName, data, meta, ok := s.parseUploadForm(c)
	if !ok {
		return
	}

	taskID, err := s.queue.EnqueueDocument(c.Request.Context(), queue.DocumentIngestPayload{
		FileName:     fileName,
		Content:      data,
		Metadata:     meta,
		Provider:     c.Query("provider"),
		SourceSystem: c.Query("source_system"),
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrNotConfigured) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
			return
		}
		abortWithError(c, err)
		return
	}

	metrics.QueuedTasksTotal.Inc()
	c.JSON(http.StatusOK, gin.H{"status": "queued", "task_id": taskID})
}

// parseUploadForm extracts the multipart file and optional metadata. On
// failure it writes the error response and returns ok=false.
func (s *Server) parseUploadForm(c *gin.Context) (fileName string, data []byte, meta map[string]any, ok bool) {
	header, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, fmt.Errorf("missing file field; %w", pipeline.ErrInvalidInput))
		return "", nil, nil, false
	}

	f, err := header.Open()
	if err != nil {
		abortWithError(c, fmt.Errorf("opening upload; %w", err))
		return "", nil, nil, false
	}
	defer f.Close()

	data, err = io.ReadAll(f)
	if err != nil {
		abortWithError(c, fmt.Errorf("reading upload; %w", err))
		return "", nil, nil, false
	}

	meta, err = parseMetadataField(c.PostForm("metadata"))
	if err != nil {
		abortWithError(c, err)
		return "", nil, nil, false
	}

	return header.Filename, data, mergeSourceSystem(meta, c.Query("source_system")), true
}

// handleIngest accepts a single request object or an array of them.
func (s *Server) handleIngest(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		abortWithError(c, fmt.Errorf("reading body; %w", err))
		return
	}

	trimmed := strings.TrimLeftFunc(string(body), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if strings.HasPrefix(trimmed, "[") {
		var reqs []IngestRequest
		if err := json.Unmarshal(body, &reqs); err != nil {
			abortWithError(c, fmt.Errorf("malformed request body: %v; %w", err, pipeline.ErrInvalidInput))
			return
		}
		s.handleIngestBatch(c, reqs)
		return
	}

	var req IngestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		abortWithError(c, fmt.Errorf("malformed request body: %v; %w", err, pipeline.ErrInvalidInput))
		return
	}

	src, err := s.buildSource(req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	s.runAndRespond(c, req.Provider, src)
}

// handleIngestBatch runs each request independently; one bad entry never
// blocks the rest.
func (s *Server) handleIngestBatch(c *gin.Context, reqs []IngestRequest) {
	results := make([]gin.H, 0, len(reqs))
	for _, req := range reqs {
		results = append(results, s.runOne(c, req))
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "completed",
		"total_requests": len(reqs),
		"results":        results,
	})
}

// runOne executes a single batch entry and reports its outcome.
func (s *Server) runOne(c *gin.Context, req IngestRequest) gin.H {
	src, err := s.buildSource(req)
	if err != nil {
		return gin.H{"status": "failed", "error": err.Error()}
	}
	runner, err := s.runners.Runner(req.Provider)
	if err != nil {
		return gin.H{"status": "failed", "error": err.Error()}
	}
	summary, err := runner.Run(c.Request.Context(), src)
	if err != nil {
		return gin.H{"status": "failed", "error": err.Error()}
	}

	status := "completed"
	if summary.Failed() > 0 {
		status = "failed"
	}
	return gin.H{"status": status, "result": summary}
}

// buildSource maps one ingest request onto a pipeline source.
func (s *Server) buildSource(req IngestRequest) (pipeline.Source, error) {
	meta := mergeSourceSystem(req.Metadata, req.SourceSystem)

	switch req.SourceType {
	case "text":
		if req.Text == "" {
			return nil, fmt.Errorf("source_type text requires text; %w", pipeline.ErrInvalidInput)
		}
		return sources.NewText(req.FileName, req.Text, meta), nil
	case "base64":
		if req.Base64Content == "" {
			return nil, fmt.Errorf("source_type base64 requires base64_content; %w", pipeline.ErrInvalidInput)
		}
		return sources.NewBase64(req.FileName, req.Base64Content, meta), nil
	case "uri":
		if req.URI == "" {
			return nil, fmt.Errorf("source_type uri requires uri; %w", pipeline.ErrInvalidInput)
		}
		return sources.NewURI(req.URI, meta), nil
	case "web":
		if req.URI == "" {
			return nil, fmt.Errorf("source_type web requires uri; %w", pipeline.ErrInvalidInput)
		}
		return sources.NewCrawler(crawlerConfig(req.URI, req.Metadata), meta), nil
	default:
		return nil, fmt.Errorf("unsupported source_type %q; %w", req.SourceType, pipeline.ErrInvalidInput)
	}
}

// crawlerConfig reads the crawl parameters the caller may tuck into
// metadata.
func crawlerConfig(startURL string, meta map[string]any) sources.CrawlerConfig {
	cfg := sources.CrawlerConfig{
		StartURL:        startURL,
		MaxDepth:        sources.DefaultCrawlDepth,
		AllowSubdomains: true,
		RespectRobots:   true,
	}
	if d, ok := meta["max_depth"].(float64); ok && d >= 0 {
		cfg.MaxDepth = int(d)
	}
	if exts, ok := meta["allowed_extensions"].([]any); ok {
		for _, e := range exts {
			if s, ok := e.(string); ok {
				cfg.AllowedExtensions = append(cfg.AllowedExtensions, s)
			}
		}
	}
	return cfg
}

// handleEmailIngest drains unseen messages from the given mailbox through
// the pipeline.
func (s *Server) handleEmailIngest(c *gin.Context) {
	var req EmailIngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("malformed request body: %v; %w", err, pipeline.ErrInvalidInput))
		return
	}
	if req.Host == "" || req.Username == "" || req.Password == "" {
		abortWithError(c, fmt.Errorf("host, username and password are required; %w", pipeline.ErrInvalidInput))
		return
	}

	src := sources.NewIMAP(sources.IMAPConfig{
		Host:       req.Host,
		Port:       req.Port,
		Username:   req.Username,
		Password:   req.Password,
		Mailbox:    req.Mailbox,
		MaxEmails:  req.MaxEmails,
		StateFile:  s.cfg.IMAP.StateFile,
		ResetState: req.ResetState,
	}, mergeSourceSystem(req.Metadata, req.SourceSystem))

	runner, err := s.runners.Runner(req.Provider)
	if err != nil {
		abortWithError(c, err)
		return
	}
	summary, err := runner.Run(c.Request.Context(), src)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed", "result": summary})
}
