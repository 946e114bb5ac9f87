package sources

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/geelink/docingest/internal/pipeline"
)

// HTTPFetchTimeout bounds one remote download.
const HTTPFetchTimeout = 20 * time.Second

// URI resolves a local path, file:// URI, or http(s) URL into Items. A
// directory expands into one Item per file under it.
type URI struct {
	uri        string
	userMeta   map[string]any
	httpClient *http.Client
	logger     *slog.Logger
}

var _ pipeline.Source = (*URI)(nil)

// URIOption configures a URI source.
type URIOption func(*URI)

// WithURIHTTPClient replaces the download client, mainly for tests.
func WithURIHTTPClient(h *http.Client) URIOption {
	return func(s *URI) {
		s.httpClient = h
	}
}

// NewURI creates a URI source.
func NewURI(uri string, userMeta map[string]any, opts ...URIOption) *URI {
	s := &URI{
		uri:        uri,
		userMeta:   userMeta,
		httpClient: &http.Client{Timeout: HTTPFetchTimeout},
		logger:     slog.Default().With("component", "source", "source", "uri"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *URI) Name() string { return "uri" }

func (s *URI) Read(ctx context.Context) ([]*pipeline.Item, error) {
	switch {
	case strings.HasPrefix(s.uri, "file://"):
		return s.readLocal(strings.TrimPrefix(s.uri, "file://"))
	case isLocalPath(s.uri):
		return s.readLocal(s.uri)
	case strings.HasPrefix(s.uri, "http://"), strings.HasPrefix(s.uri, "https://"):
		return s.readRemote(ctx)
	default:
		return nil, fmt.Errorf("unsupported uri scheme in %q; %w", s.uri, pipeline.ErrInvalidInput)
	}
}

// isLocalPath recognizes POSIX absolute paths and Windows drive paths.
func isLocalPath(uri string) bool {
	if strings.HasPrefix(uri, "/") {
		return true
	}
	if len(uri) >= 3 && uri[1] == ':' && (uri[2] == '\\' || uri[2] == '/') {
		c := uri[0]
		return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
	}
	return false
}

func (s *URI) readLocal(path string) ([]*pipeline.Item, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %v; %w", path, err, pipeline.ErrSourceFailure)
	}

	if !info.IsDir() {
		item, err := s.localItem(path)
		if err != nil {
			return nil, err
		}
		return []*pipeline.Item{item}, nil
	}

	var items []*pipeline.Item
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("skipping unreadable entry", "path", p, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		item, err := s.localItem(p)
		if err != nil {
			s.logger.Warn("skipping unreadable file", "path", p, "error", err)
			return nil
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %v; %w", path, err, pipeline.ErrSourceFailure)
	}
	return items, nil
}

func (s *URI) localItem(path string) (*pipeline.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %v; %w", path, err, pipeline.ErrSourceFailure)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &pipeline.Item{
		FileName:     filepath.Base(path),
		Binary:       data,
		SourcePath:   abs,
		SourceType:   pipeline.SourceTypeURI,
		UserMetadata: s.userMeta,
	}, nil
}

func (s *URI) readRemote(ctx context.Context) ([]*pipeline.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.uri, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %v; %w", s.uri, err, pipeline.ErrInvalidInput)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %v; %w", s.uri, err, pipeline.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s returned status %d; %w", s.uri, resp.StatusCode, pipeline.ErrUpstreamUnavailable)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %v; %w", s.uri, err, pipeline.ErrUpstreamUnavailable)
	}

	return []*pipeline.Item{{
		FileName:     RemoteFilename(s.uri),
		Binary:       data,
		SourcePath:   s.uri,
		SourceType:   pipeline.SourceTypeURI,
		ContentType:  resp.Header.Get("Content-Type"),
		UserMetadata: s.userMeta,
	}}, nil
}

// RemoteFilename derives a safe filename from a URL's last path segment.
// Runs of disallowed characters collapse to a single underscore; an empty
// result becomes "remote_file".
func RemoteFilename(rawURL string) string {
	segment := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		segment = u.Path
	}
	if i := strings.LastIndex(segment, "/"); i >= 0 {
		segment = segment[i+1:]
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range segment {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9',
			r == '_', r == '.', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	name := b.String()
	if name == "" || name == "_" {
		return "remote_file"
	}
	return name
}
