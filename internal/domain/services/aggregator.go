package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"seniorguard/internal/domain/models"
	"seniorguard/internal/metrics"
	"seniorguard/internal/sources"
	"seniorguard/internal/sources/heuristic"
	"seniorguard/pkg/logger"
)

// Aggregator fans a subject out to every registered source and merges what comes back
type Aggregator struct {
	registry *sources.Registry
	metrics  *metrics.Metrics
	logger   *logger.Logger
	now      func() time.Time
}

// NewAggregator creates a new Aggregator. m may be nil.
func NewAggregator(registry *sources.Registry, m *metrics.Metrics, log *logger.Logger) *Aggregator {
	return &Aggregator{
		registry: registry,
		metrics:  m,
		logger:   log.WithComponent("aggregator"),
		now:      time.Now,
	}
}

// Scan collects signals for the subject and merges them into a verdict. It never fails.
func (a *Aggregator) Scan(ctx context.Context, subject models.ScanSubject) *models.ThreatVerdict {
	results := a.Collect(ctx, subject)
	return Merge(subject, results, a.now())
}

// Collect runs every source that supports the subject's kind concurrently and waits for all of them.
// Results come back in registration order regardless of completion order.
func (a *Aggregator) Collect(ctx context.Context, subject models.ScanSubject) []*models.SignalResult {
	srcs := a.registry.ForKind(subject.Kind())
	results := make([]*models.SignalResult, len(srcs))

	var g errgroup.Group
	for i, src := range srcs {
		i, src := i, src
		g.Go(func() error {
			results[i] = a.check(ctx, src, subject)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// check runs one source under its own deadline and folds any failure into the result
func (a *Aggregator) check(ctx context.Context, src sources.Source, subject models.ScanSubject) (result *models.SignalResult) {
	log := a.logger.WithSourceID(src.ID())
	start := time.Now()
	defer func() {
		a.metrics.ObserveSource(src.ID(), outcome(result), time.Since(start))
	}()

	if !src.Configured() {
		return models.NotApplicable(src.ID())
	}

	sctx := ctx
	if t := src.Timeout(); t > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	res, err := safeCheck(sctx, src, subject)
	if err == nil && res == nil {
		err = &models.ProviderError{Kind: models.ErrorKindMalformedResponse, Source: src.ID(), Message: "no result"}
	}
	if err != nil {
		kind := models.KindOf(err)
		if ctx.Err() != nil {
			kind = models.ErrorKindCancelled
		}

		if kind == models.ErrorKindConfiguration {
			res = models.NotApplicable(src.ID())
			res.Error, res.ErrorMessage = kind, err.Error()
			return res
		}

		log.Warn().Err(err).Str("kind", string(kind)).Dur("elapsed", time.Since(start)).Msg("signal source failed")
		return models.Failed(src.ID(), kind, err)
	}

	res.SourceID = src.ID()
	if !res.Severity.Valid() {
		res.Severity = models.SeverityLow
	}
	log.Debug().
		Bool("detected", res.Detected).
		Str("severity", string(res.Severity)).
		Dur("elapsed", time.Since(start)).
		Msg("signal source completed")
	return res
}

// safeCheck turns a panicking source into an error so one bad source cannot take the scan down
func safeCheck(ctx context.Context, src sources.Source, subject models.ScanSubject) (res *models.SignalResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("source %s panicked: %v", src.ID(), r)
		}
	}()
	return src.Check(ctx, subject)
}

func outcome(r *models.SignalResult) string {
	switch {
	case r == nil:
		return "unknown"
	case r.Error != "":
		return string(r.Error)
	case !r.Applicable:
		return "not_applicable"
	case r.Detected:
		return "detected"
	default:
		return "clean"
	}
}

// Merge folds source results into one verdict. Results must be in source registration order;
// the verdict depends only on that order, never on completion order.
func Merge(subject models.ScanSubject, results []*models.SignalResult, at time.Time) *models.ThreatVerdict {
	v := &models.ThreatVerdict{
		Subject:      subject,
		Timestamp:    at,
		ThreatLevel:  models.SeverityLow,
		Threats:      []string{},
		Evidence:     make(map[string]*models.SignalResult, len(results)),
		Contributors: []string{},
	}

	applicable := 0
	for _, r := range results {
		if r == nil {
			continue
		}
		v.Evidence[r.SourceID] = r
		if r.Applicable {
			applicable++
		}
		if r.Contributed() {
			v.Contributors = append(v.Contributors, r.SourceID)
		}
		if !r.Counts() {
			continue
		}

		v.ThreatLevel = v.ThreatLevel.Join(r.Severity)
		for _, e := range r.Evidence {
			if !slices.Contains(v.Threats, e) {
				v.Threats = append(v.Threats, e)
			}
		}
		for _, c := range r.Categories {
			if !slices.Contains(v.Tags, c) {
				v.Tags = append(v.Tags, c)
			}
		}
	}

	v.PrimaryCategory = primaryCategory(results, v.ThreatLevel)
	v.Confidence = verdictConfidence(results, len(v.Contributors), applicable)
	v.IsSafe = v.ThreatLevel == models.SeverityLow && len(v.Threats) == 0

	if !subject.IsURL() {
		if r := v.Evidence[heuristic.PhraseSourceID]; r.Contributed() {
			if an, ok := heuristic.AnalysisFrom(r); ok {
				ind := an.Indicators
				v.Indicators = &ind
				v.DetectedPhrases = an.Matches.ByName()
				// the phrase classifier names the scam even when another source set the level
				if cat := an.MatchedCategory(); cat != "" && !v.IsSafe {
					v.PrimaryCategory = cat
				}
			}
		}
		if v.ThreatLevel == models.SeverityCritical {
			v.ImmediateAction = heuristic.ImmediateActionCritical
		}
	}

	advice := Recommend(subject.IsURL(), v.ThreatLevel, v.PrimaryCategory, v.IsSafe, len(v.Contributors) == 0, v.Indicators)
	v.Headline = advice.Headline
	v.Recommendations = advice.Recommendations
	return v
}

// primaryCategory is the first category of the first counted result sitting at the merged level
func primaryCategory(results []*models.SignalResult, level models.Severity) models.Category {
	for _, r := range results {
		if r.Counts() && r.Severity == level && len(r.Categories) > 0 {
			return r.Categories[0]
		}
	}
	return ""
}

// verdictConfidence is the strongest detection's confidence, or the share of applicable
// sources that answered when nothing was detected
func verdictConfidence(results []*models.SignalResult, contributed, applicable int) int {
	best, detected := 0, false
	for _, r := range results {
		if r.Counts() {
			detected = true
			best = max(best, r.Confidence)
		}
	}
	if detected {
		return min(best, 100)
	}
	if applicable == 0 {
		return 0
	}
	return contributed * 100 / applicable
}
