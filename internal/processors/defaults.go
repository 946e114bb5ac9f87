package processors

import (
	"github.com/geelink/docingest/internal/chunkers"
	"github.com/geelink/docingest/internal/extractor"
	"github.com/geelink/docingest/internal/pipeline"
	"github.com/geelink/docingest/internal/textclean"
)

// Options configures the default processor chain.
type Options struct {
	Extractor     *extractor.Client
	Cleaner       *textclean.Cleaner
	Splitter      chunkers.Splitter
	EmbedModel    string
	SourceSystem  string
	NamespaceSeed string
}

// RegisterDefaults wires the full processor chain into the registry. The
// embed processor always registers and degrades to an empty embedding list
// without an embedder; the analyze processor is omitted entirely when no
// analyzer capability is present.
func RegisterDefaults(reg *pipeline.Registry, opts Options) error {
	factories := []struct {
		name    string
		factory pipeline.Factory
	}{
		{"identity", func(pipeline.Capabilities) (pipeline.Processor, error) {
			return NewIdentity(opts.SourceSystem), nil
		}},
		{"extract", func(pipeline.Capabilities) (pipeline.Processor, error) {
			return NewExtract(opts.Extractor), nil
		}},
		{"clean", func(pipeline.Capabilities) (pipeline.Processor, error) {
			return NewClean(opts.Cleaner), nil
		}},
		{"chunk", func(pipeline.Capabilities) (pipeline.Processor, error) {
			return NewChunk(opts.Splitter), nil
		}},
		{"embed", func(caps pipeline.Capabilities) (pipeline.Processor, error) {
			return NewEmbed(caps.Embedder, opts.EmbedModel), nil
		}},
		{"analyze", func(caps pipeline.Capabilities) (pipeline.Processor, error) {
			if caps.Analyzer == nil {
				return nil, nil
			}
			return NewAnalyze(caps.Analyzer), nil
		}},
		{"assemble", func(pipeline.Capabilities) (pipeline.Processor, error) {
			return NewAssemble(opts.NamespaceSeed), nil
		}},
	}

	for _, f := range factories {
		if err := reg.Register(f.name, f.factory); err != nil {
			return err
		}
	}
	return nil
}
