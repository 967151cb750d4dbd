package sources

import (
	"fmt"
	"sync"

	"seniorguard/internal/domain/models"
	"seniorguard/pkg/logger"
)

// Registry holds signal sources in registration order.
// Registration order is the source-processing order used when merging threats.
type Registry struct {
	order  []Source
	byID   map[string]Source
	mu     sync.RWMutex
	logger *logger.Logger
}

// NewRegistry creates a new source registry
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		byID:   make(map[string]Source),
		logger: log.WithComponent("source-registry"),
	}
}

// Register appends a source. IDs must be unique.
func (r *Registry) Register(src Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := src.ID()
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("source already registered: %s", id)
	}

	r.byID[id] = src
	r.order = append(r.order, src)
	r.logger.Info().
		Str("source_id", id).
		Str("name", src.Name()).
		Bool("configured", src.Configured()).
		Msg("registered signal source")

	return nil
}

// MustRegister registers every source and panics on a duplicate ID
func (r *Registry) MustRegister(srcs ...Source) {
	for _, s := range srcs {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

// Get returns a source by ID
func (r *Registry) Get(id string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.byID[id]
	return src, ok
}

// List returns all registered sources in registration order
func (r *Registry) List() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, len(r.order))
	copy(out, r.order)
	return out
}

// ForKind returns the sources that analyze the given subject kind, in registration order
func (r *Registry) ForKind(kind models.SubjectKind) []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, 0, len(r.order))
	for _, s := range r.order {
		if s.Supports(kind) {
			out = append(out, s)
		}
	}
	return out
}

// Count returns the number of registered sources
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// CountConfigured returns the number of sources able to run
func (r *Registry) CountConfigured() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, s := range r.order {
		if s.Configured() {
			count++
		}
	}
	return count
}

// Capabilities reports which sources are configured
func (r *Registry) Capabilities() []models.Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := make([]models.Capability, 0, len(r.order))
	for _, s := range r.order {
		caps = append(caps, models.Capability{
			SourceID:   s.ID(),
			Name:       s.Name(),
			Configured: s.Configured(),
		})
	}
	return caps
}
