package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/temoto/robotstxt"
	"golang.org/x/net/html"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/semaphore"

	"github.com/geelink/docingest/internal/pipeline"
)

// Crawler defaults.
const (
	DefaultCrawlDepth       = 2
	DefaultCrawlConcurrency = 6
	CrawlFetchTimeout       = 30 * time.Second
)

// DefaultAllowedExtensions lists the document types a crawl collects when
// the caller does not narrow them.
var DefaultAllowedExtensions = []string{
	".html", ".htm", ".pdf", ".txt", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
}

// adPatterns mark advertising and tracking URLs the crawler never follows.
var adPatterns = []string{
	"doubleclick", "googlesyndication", "google-analytics", "googletagmanager",
	"adservice", "adsystem", "adclick", "facebook.com", "facebook.net",
	"baidu.com", "analytics", "tracker", "tracking", "ads.", "ad.",
}

// CrawlerConfig parameterizes one crawl.
type CrawlerConfig struct {
	StartURL          string
	MaxDepth          int
	AllowedExtensions []string
	Concurrency       int
	AllowSubdomains   bool
	RestrictToPath    bool
	RespectRobots     bool
}

// Crawler walks a site breadth-first from a start URL, emitting one Item per
// in-scope HTML page or allowed binary document.
type Crawler struct {
	cfg        CrawlerConfig
	userMeta   map[string]any
	httpClient *http.Client
	logger     *slog.Logger

	start       *url.URL
	registrable string
	pathPrefix  string
	robots      *robotstxt.RobotsData

	mu      sync.Mutex
	visited map[string]struct{}
	seen    map[string]struct{}
	results []*pipeline.Item
}

var _ pipeline.Source = (*Crawler)(nil)

// CrawlerOption configures a Crawler.
type CrawlerOption func(*Crawler)

// WithCrawlerHTTPClient replaces the fetch client, mainly for tests.
func WithCrawlerHTTPClient(h *http.Client) CrawlerOption {
	return func(c *Crawler) {
		c.httpClient = h
	}
}

// NewCrawler creates a crawler.
func NewCrawler(cfg CrawlerConfig, userMeta map[string]any, opts ...CrawlerOption) *Crawler {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultCrawlDepth
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultCrawlConcurrency
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = DefaultAllowedExtensions
	}
	c := &Crawler{
		cfg:        cfg,
		userMeta:   userMeta,
		httpClient: &http.Client{Timeout: CrawlFetchTimeout},
		logger:     slog.Default().With("component", "source", "source", "web"),
		visited:    make(map[string]struct{}),
		seen:       make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Crawler) Name() string { return "web" }

// Read runs the bounded-concurrency BFS and returns the collected Items in
// discovery order. Per-URL failures are logged and skipped.
func (c *Crawler) Read(ctx context.Context) ([]*pipeline.Item, error) {
	start, err := url.Parse(c.cfg.StartURL)
	if err != nil || start.Host == "" {
		return nil, fmt.Errorf("invalid start url %q; %w", c.cfg.StartURL, pipeline.ErrInvalidInput)
	}
	c.start = start
	if reg, err := publicsuffix.EffectiveTLDPlusOne(start.Hostname()); err == nil {
		c.registrable = reg
	}
	if strings.HasSuffix(start.Path, "/") {
		c.pathPrefix = strings.TrimSuffix(start.Path, "/")
	} else {
		c.pathPrefix = path.Dir(start.Path)
	}
	if c.pathPrefix == "." || c.pathPrefix == "/" {
		c.pathPrefix = ""
	}

	// Crawl state is per run.
	c.mu.Lock()
	c.visited = make(map[string]struct{})
	c.seen = make(map[string]struct{})
	c.results = nil
	c.mu.Unlock()

	if c.cfg.RespectRobots {
		c.loadRobots(ctx, start)
	}

	sem := semaphore.NewWeighted(int64(c.cfg.Concurrency))
	var wg sync.WaitGroup

	var enqueue func(rawURL string, depth int)
	enqueue = func(rawURL string, depth int) {
		c.mu.Lock()
		if _, dup := c.seen[rawURL]; dup {
			c.mu.Unlock()
			return
		}
		c.seen[rawURL] = struct{}{}
		c.mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)
			c.crawl(ctx, rawURL, depth, enqueue)
		}()
	}

	enqueue(NormalizeURL(c.cfg.StartURL), 0)
	wg.Wait()

	c.logger.Info("crawl finished",
		"start_url", c.cfg.StartURL, "pages", len(c.results), "urls_seen", len(c.seen))
	return c.results, nil
}

func (c *Crawler) loadRobots(ctx context.Context, start *url.URL) {
	robotsURL := start.Scheme + "://" + start.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("robots.txt fetch failed, crawling without it", "error", err)
		return
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		c.logger.Warn("robots.txt unparseable, crawling without it", "error", err)
		return
	}
	c.robots = data
}

func (c *Crawler) crawl(ctx context.Context, rawURL string, depth int, enqueue func(string, int)) {
	c.mu.Lock()
	if _, done := c.visited[rawURL]; done {
		c.mu.Unlock()
		return
	}
	c.visited[rawURL] = struct{}{}
	c.mu.Unlock()

	u, err := url.Parse(rawURL)
	if err != nil {
		return
	}
	if c.robots != nil && !c.robots.TestAgent(u.Path, "*") {
		return
	}
	if isAdURL(rawURL) || !c.inScope(u) {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("fetch failed", "url", rawURL, "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("skipping non-200", "url", rawURL, "status", resp.StatusCode)
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("read failed", "url", rawURL, "error", err)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	switch {
	case strings.Contains(contentType, "text/html"):
		c.handleHTML(rawURL, body, depth, enqueue)
	case c.isAllowedBinary(rawURL, contentType):
		c.appendResult(&pipeline.Item{
			FileName:     RemoteFilename(rawURL),
			Binary:       body,
			SourcePath:   rawURL,
			SourceType:   pipeline.SourceTypeWeb,
			ContentType:  contentType,
			Score:        0.0,
			UserMetadata: c.userMeta,
		})
	}
}

func (c *Crawler) handleHTML(rawURL string, body []byte, depth int, enqueue func(string, int)) {
	text := extractArticleText(string(body), rawURL)
	score := math.Min(1.0, float64(len(text))/math.Max(1, float64(len(body)))*10)
	score = math.Round(score*10000) / 10000

	c.appendResult(&pipeline.Item{
		FileName:          RemoteFilename(rawURL),
		Binary:            body,
		RawText:           text,
		TextAuthoritative: true,
		SourcePath:        rawURL,
		SourceType:        pipeline.SourceTypeWeb,
		Score:             score,
		UserMetadata:      c.userMeta,
	})

	if depth >= c.cfg.MaxDepth {
		return
	}
	base, err := url.Parse(rawURL)
	if err != nil {
		return
	}
	for _, href := range extractLinks(string(body)) {
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			continue
		}
		normalized := NormalizeURL(abs.String())
		if isAdURL(normalized) || !c.inScope(abs) {
			continue
		}
		enqueue(normalized, depth+1)
	}
}

func (c *Crawler) appendResult(item *pipeline.Item) {
	c.mu.Lock()
	c.results = append(c.results, item)
	c.mu.Unlock()
}

// inScope applies the host/subdomain/path policy from the start URL.
func (c *Crawler) inScope(u *url.URL) bool {
	host := u.Hostname()
	switch {
	case host == c.start.Hostname():
	case c.cfg.AllowSubdomains && c.registrable != "" && strings.HasSuffix(host, "."+c.registrable):
	default:
		return false
	}
	if c.cfg.RestrictToPath && !underPath(u.Path, c.pathPrefix) {
		return false
	}
	return true
}

// underPath reports whether p equals prefix or sits below it as a full path
// segment, so "/docsfoo" never matches a "/docs" scope.
func underPath(p, prefix string) bool {
	if prefix == "" {
		return true
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

func (c *Crawler) isAllowedBinary(rawURL, contentType string) bool {
	if strings.Contains(contentType, "application/pdf") ||
		strings.Contains(contentType, "application/octet-stream") {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(RemoteFilename(rawURL)), "."))
	for _, allowed := range c.cfg.AllowedExtensions {
		if ext == strings.ToLower(strings.TrimPrefix(allowed, ".")) {
			return true
		}
	}
	return false
}

// NormalizeURL strips the fragment and any trailing slash except on the root
// path, so the same page is never queued twice.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	return u.String()
}

func isAdURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, p := range adPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// extractArticleText pulls the main article text from HTML, preferring the
// readability extraction and falling back to whitespace-joined tree text.
func extractArticleText(src, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil || pageURL == "" {
		parsed = &url.URL{Scheme: "http", Host: "localhost"}
	}
	if article, err := readability.FromReader(strings.NewReader(src), parsed); err == nil {
		if text := strings.TrimSpace(article.TextContent); text != "" {
			return text
		}
	}
	return htmlTreeText(src)
}

// htmlTreeText emits all text nodes joined by single spaces, skipping script
// and style bodies.
func htmlTreeText(src string) string {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return ""
	}
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return strings.Join(parts, " ")
}

// extractLinks returns every href attribute on anchor tags.
func extractLinks(src string) []string {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil
	}
	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" && attr.Val != "" {
					links = append(links, attr.Val)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return links
}
