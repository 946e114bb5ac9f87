package pipeline

import "context"

// Source produces one or more Items from an external origin. A batch source
// that cannot even connect returns an empty slice rather than an error;
// single-Item sources return ErrSourceFailure.
type Source interface {
	// Name returns the source's identifier, surfaced in run summaries.
	Name() string

	// Read yields the Items for one run.
	Read(ctx context.Context) ([]*Item, error)
}

// Processor is an ordered transformation over an Item. Process inspects the
// Item and returns a partial Update for the orchestrator to merge; it must
// not mutate the Item. Processors are stateless after construction and may
// be shared across concurrent Items.
type Processor interface {
	Name() string

	// Order positions the processor in the chain; lower runs earlier.
	Order() int

	Process(ctx context.Context, item *Item) (*Update, error)
}

// Sink persists an Item's assembled outputs. A sink failure aborts the Item.
type Sink interface {
	Name() string
	Write(ctx context.Context, item *Item) error
}

// Embedder is the embedding capability injected into the embed processor.
type Embedder interface {
	// Embed returns the vector for text. An empty model selects the
	// provider's default.
	Embed(ctx context.Context, text, model string) ([]float32, error)

	// DefaultModel returns the provider's default embedding model.
	DefaultModel() string
}

// AnalysisTask selects what the Analyzer extracts from a document.
type AnalysisTask string

const (
	TaskSummary          AnalysisTask = "summary"
	TaskKeywords         AnalysisTask = "keywords"
	TaskBusinessGlossary AnalysisTask = "business_glossary"
)

// Analyzer is the LLM capability injected into the analyze processor.
type Analyzer interface {
	Analyze(ctx context.Context, text string, task AnalysisTask) (string, error)
}
