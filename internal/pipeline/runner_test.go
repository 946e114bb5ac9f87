package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	name  string
	items []*Item
	err   error
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Read(ctx context.Context) ([]*Item, error) {
	return s.items, s.err
}

type fakeProcessor struct {
	name    string
	order   int
	process func(ctx context.Context, item *Item) (*Update, error)
}

func (p *fakeProcessor) Name() string { return p.name }
func (p *fakeProcessor) Order() int   { return p.order }

func (p *fakeProcessor) Process(ctx context.Context, item *Item) (*Update, error) {
	return p.process(ctx, item)
}

type recordingSink struct {
	name string
	err  error

	mu    sync.Mutex
	items []*Item
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Write(ctx context.Context, item *Item) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()
	return nil
}

func TestRunnerProcessorOrdering(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	track := func(name string) func(context.Context, *Item) (*Update, error) {
		return func(ctx context.Context, item *Item) (*Update, error) {
			mu.Lock()
			calls = append(calls, name)
			mu.Unlock()
			return &Update{}, nil
		}
	}

	// Registered out of order; ties broken by registration order.
	processors := []Processor{
		&fakeProcessor{name: "assemble", order: OrderAssemble, process: track("assemble")},
		&fakeProcessor{name: "identity", order: OrderIdentity, process: track("identity")},
		&fakeProcessor{name: "clean", order: OrderClean, process: track("clean")},
		&fakeProcessor{name: "tie-a", order: OrderClean, process: track("tie-a")},
		&fakeProcessor{name: "extract", order: OrderExtract, process: track("extract")},
	}

	runner := NewRunner(processors, nil)
	src := &fakeSource{name: "test", items: []*Item{{FileName: "a.txt"}}}

	summary, err := runner.Run(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, StatusOK, summary.Items[0].Status)
	assert.Equal(t, []string{"identity", "extract", "clean", "tie-a", "assemble"}, calls)
}

func TestRunnerMergesUpdates(t *testing.T) {
	processors := []Processor{
		&fakeProcessor{name: "ident", order: OrderIdentity, process: func(ctx context.Context, item *Item) (*Update, error) {
			return &Update{DocID: StringPtr("doc-1")}, nil
		}},
		&fakeProcessor{name: "chunk", order: OrderChunk, process: func(ctx context.Context, item *Item) (*Update, error) {
			require.Equal(t, "doc-1", item.DocID)
			return &Update{Chunks: []string{"a", "b"}}, nil
		}},
	}
	sink := &recordingSink{name: "mem"}
	runner := NewRunner(processors, []Sink{sink})

	summary, err := runner.Run(context.Background(), &fakeSource{name: "test", items: []*Item{{FileName: "a"}}})
	require.NoError(t, err)
	require.Len(t, sink.items, 1)
	assert.Equal(t, "doc-1", sink.items[0].DocID)
	assert.Equal(t, 2, summary.Items[0].ChunkCount)
}

func TestRunnerNilUpdateIsContractViolation(t *testing.T) {
	processors := []Processor{
		&fakeProcessor{name: "bad", order: OrderClean, process: func(ctx context.Context, item *Item) (*Update, error) {
			return nil, nil
		}},
	}
	sink := &recordingSink{name: "mem"}
	runner := NewRunner(processors, []Sink{sink})

	summary, err := runner.Run(context.Background(), &fakeSource{name: "test", items: []*Item{{FileName: "a"}}})
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, StatusFailed, summary.Items[0].Status)
	assert.Contains(t, summary.Items[0].Error, ErrProcessorContract.Error())
	assert.Empty(t, sink.items, "failed item must not reach sinks")
}

func TestRunnerProcessorFailureAbortsOnlyThatItem(t *testing.T) {
	boom := errors.New("boom")
	processors := []Processor{
		&fakeProcessor{name: "flaky", order: OrderClean, process: func(ctx context.Context, item *Item) (*Update, error) {
			if item.FileName == "bad.txt" {
				return nil, boom
			}
			return &Update{}, nil
		}},
	}
	sink := &recordingSink{name: "mem"}
	runner := NewRunner(processors, []Sink{sink}, WithMaxWorkers(2))

	items := []*Item{
		{FileName: "ok-1.txt"},
		{FileName: "bad.txt"},
		{FileName: "ok-2.txt"},
	}
	summary, err := runner.Run(context.Background(), &fakeSource{name: "test", items: items})
	require.NoError(t, err)
	require.Len(t, summary.Items, 3)

	byName := map[string]ItemSummary{}
	for _, entry := range summary.Items {
		byName[entry.FileName] = entry
	}
	assert.Equal(t, StatusFailed, byName["bad.txt"].Status)
	assert.Equal(t, StatusOK, byName["ok-1.txt"].Status)
	assert.Equal(t, StatusOK, byName["ok-2.txt"].Status)
	assert.Len(t, sink.items, 2)
	assert.Equal(t, 1, summary.Failed())
}

func TestRunnerSinkFailureFailsItem(t *testing.T) {
	processors := []Processor{
		&fakeProcessor{name: "noop", order: OrderClean, process: func(ctx context.Context, item *Item) (*Update, error) {
			return &Update{}, nil
		}},
	}
	sink := &recordingSink{name: "dead", err: fmt.Errorf("connection refused; %w", ErrUpstreamUnavailable)}
	runner := NewRunner(processors, []Sink{sink})

	summary, err := runner.Run(context.Background(), &fakeSource{name: "test", items: []*Item{{FileName: "a"}}})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, summary.Items[0].Status)
	assert.Contains(t, summary.Items[0].Error, "sink dead")
}

func TestRunnerSummaryNeverCarriesVectorsOrText(t *testing.T) {
	processors := []Processor{
		&fakeProcessor{name: "embed", order: OrderEmbed, process: func(ctx context.Context, item *Item) (*Update, error) {
			return &Update{
				Chunks:     []string{"chunk one", "chunk two"},
				Embeddings: []Embedding{{Text: "chunk one", Vector: []float32{1, 2, 3}}, {Text: "chunk two", Vector: []float32{4, 5, 6}}},
			}, nil
		}},
	}
	runner := NewRunner(processors, nil)

	summary, err := runner.Run(context.Background(), &fakeSource{name: "test", items: []*Item{{FileName: "a"}}})
	require.NoError(t, err)
	entry := summary.Items[0]
	assert.Equal(t, 2, entry.ChunkCount)
	assert.Equal(t, 2, entry.EmbeddingCount)
	assert.Equal(t, 3, entry.EmbeddingDim)
}

func TestRunnerEmptyBatch(t *testing.T) {
	runner := NewRunner(nil, nil)
	summary, err := runner.Run(context.Background(), &fakeSource{name: "empty"})
	require.NoError(t, err)
	assert.Empty(t, summary.Items)
}

func TestRunnerSourceError(t *testing.T) {
	runner := NewRunner(nil, nil)
	_, err := runner.Run(context.Background(), &fakeSource{name: "broken", err: fmt.Errorf("dial failed; %w", ErrSourceFailure)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceFailure)
}
