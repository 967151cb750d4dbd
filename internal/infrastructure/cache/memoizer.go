package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"seniorguard/internal/domain/models"
	"seniorguard/pkg/logger"
)

// Backend is a verdict store. Both MemoryCache and RedisCache implement it.
type Backend interface {
	Get(ctx context.Context, key string) (*models.ThreatVerdict, bool, error)
	Set(ctx context.Context, key string, v *models.ThreatVerdict, ttl time.Duration) error
}

// Memoizer serves repeated scans of the same subject from a Backend and
// collapses concurrent scans of one subject into a single computation.
// Backend errors are logged and treated as misses.
type Memoizer struct {
	backend Backend
	ttl     time.Duration
	group   singleflight.Group
	logger  *logger.Logger
	now     func() time.Time
}

func NewMemoizer(backend Backend, ttl time.Duration, log *logger.Logger) *Memoizer {
	return &Memoizer{
		backend: backend,
		ttl:     ttl,
		logger:  log.WithComponent("verdict-cache"),
		now:     time.Now,
	}
}

// Do returns the cached verdict for key, or runs compute once for all concurrent callers.
// The shared computation runs under the first caller's context. A waiting caller whose own
// context is still live recomputes when that shared run was cancelled.
// The computed verdict is stored only when compute reports it cacheable.
func (m *Memoizer) Do(ctx context.Context, key string, compute func(ctx context.Context) (*models.ThreatVerdict, bool)) (*models.ThreatVerdict, bool) {
	if v, ok := m.lookup(ctx, key); ok {
		fresh := *v
		fresh.Timestamp = m.now()
		return &fresh, true
	}

	led := false
	res, _, _ := m.group.Do(key, func() (any, error) {
		led = true
		return m.run(ctx, key, compute), nil
	})
	v := res.(*models.ThreatVerdict)

	if !led && ctx.Err() == nil && v.Cancelled() {
		m.logger.Debug().Msg("shared scan was cancelled, recomputing for waiting caller")
		v = m.run(ctx, key, compute)
	}
	return v, false
}

func (m *Memoizer) run(ctx context.Context, key string, compute func(ctx context.Context) (*models.ThreatVerdict, bool)) *models.ThreatVerdict {
	v, cacheable := compute(ctx)
	if cacheable {
		if err := m.backend.Set(ctx, key, v, m.ttl); err != nil {
			m.logger.Warn().Err(err).Msg("failed to store verdict")
		}
	}
	return v
}

func (m *Memoizer) lookup(ctx context.Context, key string) (*models.ThreatVerdict, bool) {
	v, ok, err := m.backend.Get(ctx, key)
	if err != nil {
		m.logger.Warn().Err(err).Msg("verdict cache lookup failed")
		return nil, false
	}
	return v, ok
}
