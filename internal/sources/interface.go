package sources

//go:generate mockgen -source=interface.go -destination=mocks/mocks.go -package=mocks Source

import (
	"context"
	"time"

	"seniorguard/internal/domain/models"
)

// Source is one independent detector contributing a SignalResult to a scan
type Source interface {
	// ID returns the unique identifier for this source
	ID() string

	// Name returns the human-readable name of this source
	Name() string

	// Supports reports whether the source analyzes subjects of this kind
	Supports(kind models.SubjectKind) bool

	// Configured reports whether the source has what it needs to run (credentials, endpoints)
	Configured() bool

	// Timeout bounds a single Check call. Zero means the source is local and unbounded.
	Timeout() time.Duration

	// Check analyzes the subject. Errors are classified with models.KindOf by the caller.
	Check(ctx context.Context, subject models.ScanSubject) (*models.SignalResult, error)
}

// BaseSource provides the identity and capability plumbing shared by every source
type BaseSource struct {
	id      string
	name    string
	kinds   map[models.SubjectKind]bool
	timeout time.Duration
}

// NewBaseSource creates a new base source
func NewBaseSource(id, name string, timeout time.Duration, kinds ...models.SubjectKind) *BaseSource {
	b := &BaseSource{
		id:      id,
		name:    name,
		kinds:   make(map[models.SubjectKind]bool, len(kinds)),
		timeout: timeout,
	}
	for _, k := range kinds {
		b.kinds[k] = true
	}
	return b
}

// ID returns the unique identifier for this source
func (b *BaseSource) ID() string {
	return b.id
}

// Name returns the human-readable name of this source
func (b *BaseSource) Name() string {
	return b.name
}

// Supports reports whether the source analyzes subjects of this kind
func (b *BaseSource) Supports(kind models.SubjectKind) bool {
	return b.kinds[kind]
}

// Configured is true for local sources; remote sources override it
func (b *BaseSource) Configured() bool {
	return true
}

// Timeout returns the per-call bound
func (b *BaseSource) Timeout() time.Duration {
	return b.timeout
}

// TextKinds are the subject kinds routed to the text analysis path
var TextKinds = []models.SubjectKind{
	models.SubjectKindText,
	models.SubjectKindEmail,
	models.SubjectKindTranscript,
}
