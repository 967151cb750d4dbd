package services

import (
	"context"
	"strings"
	"time"

	"seniorguard/internal/config"
	"seniorguard/internal/domain/models"
	"seniorguard/internal/metrics"
	"seniorguard/internal/sources"
	"seniorguard/internal/sources/ai"
	"seniorguard/pkg/logger"
)

// Memoizer caches verdicts by subject key. compute reports whether its verdict may be stored.
// Implementations must be safe for concurrent use.
type Memoizer interface {
	Do(ctx context.Context, key string, compute func(ctx context.Context) (*models.ThreatVerdict, bool)) (v *models.ThreatVerdict, hit bool)
}

// EventPublisher announces completed scans
type EventPublisher interface {
	PublishVerdict(ctx context.Context, v *models.ThreatVerdict) error
	PublishAggregate(ctx context.Context, v *models.AggregateVerdict) error
}

// Transcriber turns validated audio into text
type Transcriber interface {
	Configured() bool
	Transcribe(ctx context.Context, audio []byte, format string) (*ai.Transcription, error)
}

// Engine is the entry point for every scan. It holds no per-scan state and is safe for concurrent use.
type Engine struct {
	cfg         config.EngineConfig
	registry    *sources.Registry
	aggregator  *Aggregator
	batch       *BatchScanner
	transcriber Transcriber
	memo        Memoizer
	publisher   EventPublisher
	metrics     *metrics.Metrics
	logger      *logger.Logger
	now         func() time.Time
}

// EngineOption configures optional collaborators
type EngineOption func(*Engine)

// WithMemoizer enables verdict memoization for URL and text scans
func WithMemoizer(m Memoizer) EngineOption {
	return func(e *Engine) { e.memo = m }
}

// WithPublisher publishes every completed scan
func WithPublisher(p EventPublisher) EngineOption {
	return func(e *Engine) { e.publisher = p }
}

// WithMetrics records source and verdict metrics
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithTranscriber enables the audio path
func WithTranscriber(t Transcriber) EngineOption {
	return func(e *Engine) { e.transcriber = t }
}

// NewEngine creates an engine over the given source registry
func NewEngine(cfg config.EngineConfig, registry *sources.Registry, log *logger.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:      cfg,
		registry: registry,
		logger:   log.WithComponent("engine"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.aggregator = NewAggregator(registry, e.metrics, log)
	e.aggregator.now = func() time.Time { return e.now() }
	e.batch = NewBatchScanner(e.scanSubject, cfg.MaxBatchURLs)
	e.batch.now = func() time.Time { return e.now() }
	return e
}

// ScanURL scans a single link
func (e *Engine) ScanURL(ctx context.Context, rawURL string) (*models.ThreatVerdict, error) {
	subject, err := models.NewURLSubject(rawURL)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	return e.finish(ctx, subject, e.scanSubject(ctx, subject), start), nil
}

// ScanText scans a free-text message
func (e *Engine) ScanText(ctx context.Context, text string) (*models.ThreatVerdict, error) {
	subject, err := models.NewTextSubject(models.SubjectKindText, text, e.cfg.MaxTextBytes)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	return e.finish(ctx, subject, e.scanSubject(ctx, subject), start), nil
}

// ScanVoiceText scans an already transcribed call
func (e *Engine) ScanVoiceText(ctx context.Context, transcript string) (*models.ThreatVerdict, error) {
	subject, err := models.NewTextSubject(models.SubjectKindTranscript, transcript, e.cfg.MaxTextBytes)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	return e.finish(ctx, subject, e.scanSubject(ctx, subject), start), nil
}

// ScanVoiceStream joins the chunks received so far and scans them as one transcript
func (e *Engine) ScanVoiceStream(ctx context.Context, chunks []string) (*models.StreamVerdict, error) {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) == 0 {
		return nil, models.NewInputValidationError("chunks", models.ErrEmptyInput, "at least one non-empty chunk is required")
	}

	v, err := e.ScanVoiceText(ctx, strings.Join(parts, " "))
	if err != nil {
		return nil, err
	}
	return &models.StreamVerdict{
		ThreatVerdict:  v,
		ChunksAnalyzed: len(parts),
		LatestChunk:    parts[len(parts)-1],
	}, nil
}

// ScanVoiceAudio transcribes a recorded call and scans the transcript.
// Format and size are checked before any remote call.
func (e *Engine) ScanVoiceAudio(ctx context.Context, audio []byte, format string) (*models.ThreatVerdict, error) {
	format, err := ai.ValidateAudio(audio, format, int64(e.cfg.MaxAudioBytes))
	if err != nil {
		return nil, err
	}
	start := time.Now()

	if e.transcriber == nil || !e.transcriber.Configured() {
		r := models.NotApplicable(ai.TranscriberSourceID)
		r.Error, r.ErrorMessage = models.ErrorKindConfiguration, models.ErrNotConfigured.Error()
		return e.untranscribed(format, r), nil
	}

	t, err := e.transcriber.Transcribe(ctx, audio, format)
	if err != nil {
		kind := models.KindOf(err)
		if ctx.Err() != nil {
			kind = models.ErrorKindCancelled
		}
		e.logger.Warn().Err(err).Str("kind", string(kind)).Msg("transcription failed")
		return e.untranscribed(format, models.Failed(ai.TranscriberSourceID, kind, err)), nil
	}
	if strings.TrimSpace(t.Text) == "" {
		return e.untranscribed(format, models.Undetected(ai.TranscriberSourceID)), nil
	}

	subject, err := models.NewTextSubject(models.SubjectKindTranscript, t.Text, e.cfg.MaxTextBytes)
	if err != nil {
		return nil, err
	}

	// the memoized verdict is shared, so annotate a copy
	out := *e.scanSubject(ctx, subject)
	out.Transcript = t.Text
	out.Language = t.Language
	return e.finish(ctx, subject, &out, start), nil
}

// untranscribed is the verdict for audio that produced no text to analyze
func (e *Engine) untranscribed(format string, r *models.SignalResult) *models.ThreatVerdict {
	v := Merge(models.NewAudioSubject(format), []*models.SignalResult{r}, e.now())
	v.Confidence = 0
	advice := Recommend(false, v.ThreatLevel, "", v.IsSafe, true, nil)
	v.Headline, v.Recommendations = advice.Headline, advice.Recommendations
	return v
}

// ScanEmail scans every link in an email body, up to the batch cap, plus a keyword sweep of the text
func (e *Engine) ScanEmail(ctx context.Context, body string) (*models.AggregateVerdict, error) {
	if _, err := models.NewTextSubject(models.SubjectKindEmail, body, e.cfg.MaxTextBytes); err != nil {
		return nil, err
	}

	start := time.Now()
	agg := e.batch.Scan(ctx, body)
	e.metrics.ObserveVerdict(string(models.SubjectKindEmail), string(agg.ThreatLevel), time.Since(start))

	e.logger.Info().
		Int("urls_found", agg.URLsFound).
		Int("urls_scanned", agg.URLsScanned).
		Str("threat_level", string(agg.ThreatLevel)).
		Msg("email scanned")

	if e.publisher != nil {
		if err := e.publisher.PublishAggregate(ctx, agg); err != nil {
			e.logger.Warn().Err(err).Msg("failed to publish email verdict")
		}
	}
	return agg, nil
}

// Capabilities reports which sources have what they need to run
func (e *Engine) Capabilities() []models.Capability {
	caps := e.registry.Capabilities()
	caps = append(caps, models.Capability{
		SourceID:   ai.TranscriberSourceID,
		Name:       "Speech-to-Text Transcriber",
		Configured: e.transcriber != nil && e.transcriber.Configured(),
	})
	return caps
}

// scanSubject runs the aggregator, through the memoizer when one is configured
func (e *Engine) scanSubject(ctx context.Context, subject models.ScanSubject) *models.ThreatVerdict {
	if e.memo == nil {
		return e.aggregator.Scan(ctx, subject)
	}

	v, hit := e.memo.Do(ctx, subject.CacheKey(), func(ctx context.Context) (*models.ThreatVerdict, bool) {
		v := e.aggregator.Scan(ctx, subject)
		return v, cacheable(v)
	})
	if hit {
		e.metrics.CacheHit()
	} else {
		e.metrics.CacheMiss()
	}
	return v
}

// cacheable rejects verdicts degraded by provider failures or cancellation
func cacheable(v *models.ThreatVerdict) bool {
	for _, r := range v.Evidence {
		if r.Error != "" && r.Error != models.ErrorKindConfiguration {
			return false
		}
	}
	return true
}

func (e *Engine) finish(ctx context.Context, subject models.ScanSubject, v *models.ThreatVerdict, start time.Time) *models.ThreatVerdict {
	e.metrics.ObserveVerdict(string(subject.Kind()), string(v.ThreatLevel), time.Since(start))

	log := e.logger.WithScanKind(string(subject.Kind()))
	ev := log.Info().
		Str("threat_level", string(v.ThreatLevel)).
		Bool("is_safe", v.IsSafe).
		Strs("contributors", v.Contributors)
	if subject.IsURL() {
		ev = ev.Str("host", subject.Host())
	} else {
		ev = ev.Int("length", len(subject.Value()))
	}
	ev.Msg("scan completed")

	if e.publisher != nil {
		if err := e.publisher.PublishVerdict(ctx, v); err != nil {
			log.Warn().Err(err).Msg("failed to publish verdict")
		}
	}
	return v
}
