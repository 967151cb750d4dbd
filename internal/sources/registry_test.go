package sources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seniorguard/internal/domain/models"
	"seniorguard/pkg/logger"
)

type stubSource struct {
	*BaseSource
	configured bool
}

func (s *stubSource) Configured() bool { return s.configured }

func (s *stubSource) Check(ctx context.Context, subject models.ScanSubject) (*models.SignalResult, error) {
	return models.Undetected(s.ID()), nil
}

func newStub(id string, configured bool, kinds ...models.SubjectKind) *stubSource {
	return &stubSource{BaseSource: NewBaseSource(id, id, time.Second, kinds...), configured: configured}
}

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry(logger.NewNop())
	r.MustRegister(
		newStub("c", true, models.SubjectKindURL),
		newStub("a", false, models.SubjectKindURL, models.SubjectKindText),
		newStub("b", true, models.SubjectKindText),
	)

	var ids []string
	for _, s := range r.List() {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	ids = ids[:0]
	for _, s := range r.ForKind(models.SubjectKindText) {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []string{"a", "b"}, ids)

	assert.Equal(t, 3, r.Count())
	assert.Equal(t, 2, r.CountConfigured())
}

func TestRegistryRejectsDuplicateID(t *testing.T) {
	r := NewRegistry(logger.NewNop())
	require.NoError(t, r.Register(newStub("x", true)))
	require.Error(t, r.Register(newStub("x", true)))

	_, ok := r.Get("x")
	assert.True(t, ok)
	assert.Panics(t, func() { r.MustRegister(newStub("x", true)) })
}

func TestRegistryCapabilities(t *testing.T) {
	r := NewRegistry(logger.NewNop())
	r.MustRegister(newStub("safe_browsing", false, models.SubjectKindURL))

	caps := r.Capabilities()
	require.Len(t, caps, 1)
	assert.Equal(t, models.Capability{SourceID: "safe_browsing", Name: "safe_browsing", Configured: false}, caps[0])
}

func TestBaseSourceDefaults(t *testing.T) {
	b := NewBaseSource("pattern", "Pattern", 0, models.SubjectKindURL)
	assert.True(t, b.Configured())
	assert.True(t, b.Supports(models.SubjectKindURL))
	assert.False(t, b.Supports(models.SubjectKindText))
	assert.Zero(t, b.Timeout())
}
