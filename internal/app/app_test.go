package app

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geelink/docingest/internal/config"
	"github.com/geelink/docingest/internal/pipeline"
	"github.com/geelink/docingest/internal/sources"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppName: "docingest",
		Server:  config.ServerConfig{Bind: "127.0.0.1", Port: 8000},
		Extractor: config.ExtractorConfig{
			URL:            "http://localhost:9998",
			TimeoutSeconds: 5,
		},
		Solr:   config.SolrConfig{URL: "http://localhost:8983", Collection: "knowledge"},
		Vector: config.VectorConfig{Path: filepath.Join(t.TempDir(), "vectors"), Collection: "chunks"},
		Pipeline: config.PipelineConfig{
			MaxWorkers:    2,
			ChunkSize:     500,
			ChunkOverlap:  50,
			SourceSystem:  "rag_upload",
			NamespaceSeed: "com.geelink.2025",
		},
		Providers: config.ProvidersConfig{
			OpenAI: config.ProviderConfig{APIKeyEnv: "TEST_OPENAI_KEY"},
			Ali:    config.ProviderConfig{APIKeyEnv: "TEST_ALI_KEY"},
			Google: config.ProviderConfig{APIKeyEnv: "TEST_GOOGLE_KEY"},
		},
	}
}

func TestNewBuildsRunnerWithProvider(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-test")

	a, err := New(context.Background(), testConfig(t), nil)
	require.NoError(t, err)

	runner, err := a.Runner("")
	require.NoError(t, err)

	procs := runner.Processors()
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"identity", "extract", "clean", "chunk", "embed", "analyze", "assemble"}, names)

	orders := make([]int, 0, len(procs))
	for _, p := range procs {
		orders = append(orders, p.Order())
	}
	assert.IsIncreasing(t, orders)
}

func TestRunnerWithoutAnyProvider(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), nil)
	require.NoError(t, err)

	runner, err := a.Runner("")
	require.NoError(t, err)

	names := make([]string, 0)
	for _, p := range runner.Processors() {
		names = append(names, p.Name())
	}
	// Embed stays in the chain and degrades to an empty embedding list;
	// analyze is omitted entirely.
	assert.Contains(t, names, "embed")
	assert.NotContains(t, names, "analyze")
}

func TestIngestWithoutProviderSkipsEmbeddings(t *testing.T) {
	tikaMux := http.NewServeMux()
	tikaMux.HandleFunc("/tika", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello world"))
	})
	tikaMux.HandleFunc("/meta", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Content-Type":"text/plain"}`))
	})
	tika := httptest.NewServer(tikaMux)
	defer tika.Close()

	var solrWrites int32
	solr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&solrWrites, 1)
		w.Write([]byte(`{}`))
	}))
	defer solr.Close()

	cfg := testConfig(t)
	cfg.Extractor.URL = tika.URL
	cfg.Solr.URL = solr.URL

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)

	runner, err := a.Runner("")
	require.NoError(t, err)

	content := base64.StdEncoding.EncodeToString([]byte("hello world"))
	summary, err := runner.Run(context.Background(), sources.NewBase64("hello.txt", content, nil))
	require.NoError(t, err)

	require.Len(t, summary.Items, 1)
	item := summary.Items[0]
	assert.Equal(t, pipeline.StatusOK, item.Status)
	assert.Equal(t, 1, item.ChunkCount)
	assert.Zero(t, item.EmbeddingCount)
	assert.True(t, strings.HasPrefix(item.DocID, "rag_upload_"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&solrWrites))
}

func TestRunnerRejectsUnknownProvider(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-test")

	a, err := New(context.Background(), testConfig(t), nil)
	require.NoError(t, err)

	_, err = a.Runner("azure")
	assert.Error(t, err)
}

func TestRunnerRejectsProviderWithoutKey(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-test")

	a, err := New(context.Background(), testConfig(t), nil)
	require.NoError(t, err)

	_, err = a.Runner("ali")
	assert.ErrorIs(t, err, pipeline.ErrNotConfigured)
}
