package processors

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geelink/docingest/internal/extractor"
	"github.com/geelink/docingest/internal/pipeline"
)

func TestIdentityHashesContent(t *testing.T) {
	p := NewIdentity("")
	item := &pipeline.Item{FileName: "report.pdf", Binary: []byte("content")}

	u, err := p.Process(context.Background(), item)
	require.NoError(t, err)
	require.NotNil(t, u.DocID)

	assert.True(t, strings.HasPrefix(*u.DocID, "rag_upload_"))
	assert.Equal(t, *u.DocID, u.Metadata["doc_id"])

	// Same content, same filename, same id.
	u2, err := p.Process(context.Background(), &pipeline.Item{FileName: "report.pdf", Binary: []byte("content")})
	require.NoError(t, err)
	assert.Equal(t, *u.DocID, *u2.DocID)
}

func TestIdentityPreferredIDWins(t *testing.T) {
	p := NewIdentity("")
	item := &pipeline.Item{
		FileName:     "report.pdf",
		Binary:       []byte("content"),
		UserMetadata: map[string]any{"doc_id": " ARC-2025-001 "},
	}

	u, err := p.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, "ARC-2025-001", *u.DocID)
}

func TestIdentitySourceSystemOverride(t *testing.T) {
	p := NewIdentity("crm")
	item := &pipeline.Item{FileName: "a.txt", RawText: "hello"}

	u, err := p.Process(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(*u.DocID, "crm_"))

	item.UserMetadata = map[string]any{"source_system": "erp"}
	u, err = p.Process(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(*u.DocID, "erp_"))
}

func TestIdentityBusinessAliases(t *testing.T) {
	p := NewIdentity("")
	item := &pipeline.Item{
		FileName:     "a.txt",
		RawText:      "hello",
		UserMetadata: map[string]any{"archive_no": "2024-007"},
	}

	u, err := p.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, "2024-007", *u.DocID)
}

func newTestExtractor(t *testing.T, text string, meta string) *extractor.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tika":
			w.Write([]byte(text))
		case "/meta":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(meta))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return extractor.NewClient(srv.URL)
}

func TestExtractRoundTrip(t *testing.T) {
	client := newTestExtractor(t, "extracted body text", `{"dc:title":"年度报告","xmpTPg:NPages":"12"}`)
	p := NewExtract(client)

	item := &pipeline.Item{
		FileName:   "年度报告.pdf",
		Binary:     []byte("%PDF-1.7"),
		SourceType: pipeline.SourceTypeFile,
		DocID:      "rag_upload_abc",
		Metadata:   map[string]any{"doc_id": "rag_upload_abc"},
	}

	u, err := p.Process(context.Background(), item)
	require.NoError(t, err)
	require.NotNil(t, u.RawText)
	assert.Equal(t, "extracted body text", *u.RawText)
	assert.Equal(t, "年度报告", u.Metadata["title"])
	assert.Equal(t, 12, u.Metadata["page_count"])
	assert.Equal(t, "pdf", u.Metadata["source_type"])
	assert.Equal(t, "file", u.Metadata["ingestion_method"])
	assert.Equal(t, "rag_upload_abc", u.Metadata["doc_id"])
}

func TestExtractSkipsAuthoritativeText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("extractor must not be called for authoritative text")
	}))
	defer srv.Close()
	p := NewExtract(extractor.NewClient(srv.URL))

	item := &pipeline.Item{
		FileName:          "page.html",
		RawText:           "crawled article text",
		TextAuthoritative: true,
		SourceType:        pipeline.SourceTypeWeb,
	}

	u, err := p.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, "crawled article text", *u.RawText)
	assert.Equal(t, "web", u.Metadata["ingestion_method"])
}

func TestExtractNoBinary(t *testing.T) {
	p := NewExtract(extractor.NewClient("http://127.0.0.1:1"))
	item := &pipeline.Item{
		FileName:   "inline_text",
		RawText:    "caller provided text",
		SourceType: pipeline.SourceTypeText,
	}

	u, err := p.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, "caller provided text", *u.RawText)
	assert.Equal(t, "text", u.Metadata["source_type"])
}

func TestExtractUserMetadataWins(t *testing.T) {
	client := newTestExtractor(t, "body", `{"dc:creator":"tika author"}`)
	p := NewExtract(client)

	item := &pipeline.Item{
		FileName:     "doc.docx",
		Binary:       []byte("bytes"),
		SourceType:   pipeline.SourceTypeFile,
		UserMetadata: map[string]any{"author": "业务系统", "department": "risk"},
	}

	u, err := p.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, "业务系统", u.Metadata["author"])
	assert.Equal(t, "risk", u.Metadata["department"])
}

func TestExtractFailureAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	p := NewExtract(extractor.NewClient(srv.URL))

	_, err := p.Process(context.Background(), &pipeline.Item{FileName: "x.pdf", Binary: []byte("b")})
	assert.ErrorIs(t, err, pipeline.ErrUpstreamUnavailable)
}

func TestCleanShortRawFallback(t *testing.T) {
	p := NewClean(nil)
	item := &pipeline.Item{RawText: "hello world"}

	u, err := p.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, "hello world", *u.CleanText)
}

func TestCleanDecodesBinaryWhenNoRawText(t *testing.T) {
	p := NewClean(nil)
	long := strings.Repeat("This sentence keeps the document over the minimum length. ", 4)
	item := &pipeline.Item{Binary: []byte(long)}

	u, err := p.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Contains(t, *u.CleanText, "This sentence keeps the document")
}

func TestCleanHTMLContentType(t *testing.T) {
	p := NewClean(nil)
	item := &pipeline.Item{
		RawText:     "<html><body><h1>合同条款说明</h1><p>本合同适用于所有长期合作伙伴，并且对双方均具有约束力。</p></body></html>",
		ContentType: "text/html; charset=utf-8",
	}

	u, err := p.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Contains(t, *u.CleanText, "合同条款说明")
	assert.NotContains(t, *u.CleanText, "<h1>")
}

func TestChunkEmptyCleanText(t *testing.T) {
	p := NewChunk(nil)
	u, err := p.Process(context.Background(), &pipeline.Item{CleanText: ""})
	require.NoError(t, err)
	require.NotNil(t, u.Chunks)
	assert.Empty(t, u.Chunks)
}

func TestChunkSplitsLongText(t *testing.T) {
	p := NewChunk(nil)
	item := &pipeline.Item{CleanText: strings.Repeat("a", 1200)}

	u, err := p.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Len(t, u.Chunks, 3)
}

type stubEmbedder struct {
	fail  bool
	calls []string
}

func (s *stubEmbedder) Embed(ctx context.Context, text, model string) ([]float32, error) {
	if s.fail {
		return nil, errors.New("provider down")
	}
	s.calls = append(s.calls, model)
	return []float32{float32(len(text))}, nil
}

func (s *stubEmbedder) DefaultModel() string { return "stub-embed-model" }

func TestEmbedAllChunks(t *testing.T) {
	emb := &stubEmbedder{}
	p := NewEmbed(emb, "")
	item := &pipeline.Item{Chunks: []string{"one", "twotwo"}}

	u, err := p.Process(context.Background(), item)
	require.NoError(t, err)
	require.Len(t, u.Embeddings, 2)
	assert.Equal(t, "one", u.Embeddings[0].Text)
	assert.Equal(t, []float32{3}, u.Embeddings[0].Vector)
	assert.Equal(t, []string{"stub-embed-model", "stub-embed-model"}, emb.calls)
}

func TestEmbedFailureAborts(t *testing.T) {
	p := NewEmbed(&stubEmbedder{fail: true}, "")
	_, err := p.Process(context.Background(), &pipeline.Item{Chunks: []string{"one"}})
	assert.Error(t, err)
}

func TestEmbedWithoutEmbedder(t *testing.T) {
	p := NewEmbed(nil, "")
	u, err := p.Process(context.Background(), &pipeline.Item{Chunks: []string{"one"}})
	require.NoError(t, err)
	require.NotNil(t, u.Embeddings)
	assert.Empty(t, u.Embeddings)
}

type stubAnalyzer struct {
	fail bool
}

func (s *stubAnalyzer) Analyze(ctx context.Context, text string, task pipeline.AnalysisTask) (string, error) {
	if s.fail {
		return "", errors.New("provider down")
	}
	return "术语A: 定义A", nil
}

func TestAnalyzeWritesGlossary(t *testing.T) {
	p := NewAnalyze(&stubAnalyzer{})
	item := &pipeline.Item{CleanText: "正文内容", Metadata: map[string]any{"doc_id": "d1"}}

	u, err := p.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, "术语A: 定义A", u.Metadata["business_glossary"])
	assert.Equal(t, "d1", u.Metadata["doc_id"])
}

func TestAnalyzeEmptyInput(t *testing.T) {
	p := NewAnalyze(&stubAnalyzer{})
	u, err := p.Process(context.Background(), &pipeline.Item{CleanText: "   "})
	require.NoError(t, err)
	assert.Equal(t, "", u.Metadata["business_glossary"])
}

func TestAnalyzeFailureDegrades(t *testing.T) {
	p := NewAnalyze(&stubAnalyzer{fail: true})
	u, err := p.Process(context.Background(), &pipeline.Item{CleanText: "正文"})
	require.NoError(t, err)
	assert.Equal(t, "", u.Metadata["business_glossary"])
}

func TestRegisterDefaults(t *testing.T) {
	reg := pipeline.NewRegistry()
	require.NoError(t, RegisterDefaults(reg, Options{}))

	withAnalyzer, err := reg.Build(pipeline.Capabilities{Analyzer: &stubAnalyzer{}})
	require.NoError(t, err)
	assert.Len(t, withAnalyzer, 7)

	withoutAnalyzer, err := reg.Build(pipeline.Capabilities{})
	require.NoError(t, err)
	assert.Len(t, withoutAnalyzer, 6)
	for _, p := range withoutAnalyzer {
		assert.NotEqual(t, "analyze", p.Name())
	}
}
