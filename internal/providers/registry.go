package providers

import (
	"errors"
	"sync"
)

var (
	// ErrProviderNotFound is returned when a provider is not registered.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderExists is returned when registering a duplicate provider.
	ErrProviderExists = errors.New("provider already exists")

	// ErrNoAvailableProvider is returned when no provider is available.
	ErrNoAvailableProvider = errors.New("no available provider")
)

// Registry manages provider registration and lookup. The first available
// provider registered for each capability becomes the default.
type Registry struct {
	mu                  sync.RWMutex
	embeddingsProviders map[string]EmbeddingsProvider
	analysisProviders   map[string]AnalysisProvider
	defaultEmbeddings   string
	defaultAnalysis     string
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		embeddingsProviders: make(map[string]EmbeddingsProvider),
		analysisProviders:   make(map[string]AnalysisProvider),
	}
}

// RegisterEmbeddings registers an embeddings provider.
func (r *Registry) RegisterEmbeddings(p EmbeddingsProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.embeddingsProviders[name]; exists {
		return ErrProviderExists
	}
	r.embeddingsProviders[name] = p

	if r.defaultEmbeddings == "" && p.Available() {
		r.defaultEmbeddings = name
	}
	return nil
}

// RegisterAnalysis registers an analysis provider.
func (r *Registry) RegisterAnalysis(p AnalysisProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.analysisProviders[name]; exists {
		return ErrProviderExists
	}
	r.analysisProviders[name] = p

	if r.defaultAnalysis == "" && p.Available() {
		r.defaultAnalysis = name
	}
	return nil
}

// GetEmbeddings returns an embeddings provider by name.
func (r *Registry) GetEmbeddings(name string) (EmbeddingsProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.embeddingsProviders[name]
	if !exists {
		return nil, ErrProviderNotFound
	}
	return p, nil
}

// GetAnalysis returns an analysis provider by name.
func (r *Registry) GetAnalysis(name string) (AnalysisProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.analysisProviders[name]
	if !exists {
		return nil, ErrProviderNotFound
	}
	return p, nil
}

// DefaultEmbeddings returns the default embeddings provider, falling back to
// the first available one.
func (r *Registry) DefaultEmbeddings() (EmbeddingsProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.defaultEmbeddings != "" {
		return r.embeddingsProviders[r.defaultEmbeddings], nil
	}
	for _, p := range r.embeddingsProviders {
		if p.Available() {
			return p, nil
		}
	}
	return nil, ErrNoAvailableProvider
}

// DefaultAnalysis returns the default analysis provider, falling back to the
// first available one.
func (r *Registry) DefaultAnalysis() (AnalysisProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.defaultAnalysis != "" {
		return r.analysisProviders[r.defaultAnalysis], nil
	}
	for _, p := range r.analysisProviders {
		if p.Available() {
			return p, nil
		}
	}
	return nil, ErrNoAvailableProvider
}

// SetDefaultEmbeddings sets the default embeddings provider by name.
func (r *Registry) SetDefaultEmbeddings(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.embeddingsProviders[name]; !exists {
		return ErrProviderNotFound
	}
	r.defaultEmbeddings = name
	return nil
}

// SetDefaultAnalysis sets the default analysis provider by name.
func (r *Registry) SetDefaultAnalysis(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.analysisProviders[name]; !exists {
		return ErrProviderNotFound
	}
	r.defaultAnalysis = name
	return nil
}

// AvailableEmbeddings returns all available embeddings providers.
func (r *Registry) AvailableEmbeddings() []EmbeddingsProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []EmbeddingsProvider
	for _, p := range r.embeddingsProviders {
		if p.Available() {
			out = append(out, p)
		}
	}
	return out
}

// AvailableAnalysis returns all available analysis providers.
func (r *Registry) AvailableAnalysis() []AnalysisProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []AnalysisProvider
	for _, p := range r.analysisProviders {
		if p.Available() {
			out = append(out, p)
		}
	}
	return out
}
