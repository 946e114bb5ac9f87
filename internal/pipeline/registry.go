package pipeline

import (
	"fmt"
	"log/slog"
	"sync"
)

// Capabilities are the external collaborators a processor may require at
// construction. Absent capabilities degrade the processor (embed yields an
// empty result) or omit it (analyze).
type Capabilities struct {
	Embedder Embedder
	Analyzer Analyzer
}

// Factory builds a processor instance. A factory returning (nil, nil)
// signals that the processor should be skipped for this configuration.
type Factory func(caps Capabilities) (Processor, error)

// Registry collects processor factories and builds an ordered chain.
type Registry struct {
	mu        sync.RWMutex
	names     []string
	factories map[string]Factory
	logger    *slog.Logger
}

// NewRegistry creates an empty processor registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		logger:    slog.Default().With("component", "processor-registry"),
	}
}

// Register adds a processor factory. Registration order breaks order ties
// when the chain is built.
func (r *Registry) Register(name string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("processor %q already registered", name)
	}
	r.names = append(r.names, name)
	r.factories[name] = f
	return nil
}

// Build instantiates every registered processor and returns them sorted by
// Order. A single factory failure is logged and skipped; an empty result is
// a registry-wide failure.
func (r *Registry) Build(caps Capabilities) ([]Processor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var processors []Processor
	for _, name := range r.names {
		p, err := r.factories[name](caps)
		if err != nil {
			r.logger.Warn("skipping processor", "processor", name, "error", err)
			continue
		}
		if p == nil {
			r.logger.Debug("processor omitted for this configuration", "processor", name)
			continue
		}
		processors = append(processors, p)
	}

	if len(processors) == 0 {
		return nil, fmt.Errorf("no processors could be constructed")
	}
	return sortProcessors(processors), nil
}

// Names returns the registered processor names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
