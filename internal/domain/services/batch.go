package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"seniorguard/internal/domain/models"
	"seniorguard/internal/sources/heuristic"
)

// DefaultMaxBatchURLs is the hard cap on URLs scanned per email; further matches are ignored
const DefaultMaxBatchURLs = 10

var urlPattern = regexp.MustCompile(`https?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\(\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)

// ExtractURLs returns every URL in text in order of appearance, duplicates included
func ExtractURLs(text string) []string {
	return urlPattern.FindAllString(text, -1)
}

// URLScanner scans a single URL subject. The Engine satisfies it with its memoized URL path.
type URLScanner func(ctx context.Context, subject models.ScanSubject) *models.ThreatVerdict

// BatchScanner folds the verdicts of the URLs found in a long text into one aggregate verdict
type BatchScanner struct {
	scan    URLScanner
	maxURLs int
	now     func() time.Time
}

// NewBatchScanner creates a batch scanner. maxURLs <= 0 means DefaultMaxBatchURLs.
func NewBatchScanner(scan URLScanner, maxURLs int) *BatchScanner {
	if maxURLs <= 0 {
		maxURLs = DefaultMaxBatchURLs
	}
	return &BatchScanner{scan: scan, maxURLs: maxURLs, now: time.Now}
}

// Scan extracts, bounds and scans the URLs in body concurrently, then sweeps the text for scam keywords
func (b *BatchScanner) Scan(ctx context.Context, body string) *models.AggregateVerdict {
	found := ExtractURLs(body)
	retained := found[:min(len(found), b.maxURLs)]

	subjects := make([]models.ScanSubject, 0, len(retained))
	for _, raw := range retained {
		s, err := models.NewURLSubject(raw)
		if err != nil {
			continue
		}
		subjects = append(subjects, s)
	}

	verdicts := make([]*models.ThreatVerdict, len(subjects))
	var g errgroup.Group
	for i, s := range subjects {
		i, s := i, s
		g.Go(func() error {
			verdicts[i] = b.scan(ctx, s)
			return nil
		})
	}
	_ = g.Wait()

	agg := &models.AggregateVerdict{
		Timestamp:   b.now(),
		ThreatLevel: models.SeverityLow,
		Threats:     []string{},
		URLsFound:   len(found),
		URLsScanned: len(verdicts),
		URLResults:  verdicts,
	}

	for _, v := range verdicts {
		agg.ThreatLevel = agg.ThreatLevel.Join(v.ThreatLevel)
		agg.Threats = append(agg.Threats, v.Threats...)
	}
	agg.PrimaryCategory = aggregatePrimary(verdicts, agg.ThreatLevel)

	agg.KeywordsFound = heuristic.FindScamKeywords(body)
	if len(agg.KeywordsFound) > 0 && agg.ThreatLevel == models.SeverityLow {
		shown := agg.KeywordsFound[:min(len(agg.KeywordsFound), 5)]
		agg.Threats = append(agg.Threats, fmt.Sprintf("Email contains scam keywords: %s", strings.Join(shown, ", ")))
		agg.ThreatLevel = models.SeverityMedium
	}

	agg.IsSafe = agg.ThreatLevel == models.SeverityLow && len(agg.Threats) == 0

	insufficient := len(verdicts) > 0
	for _, v := range verdicts {
		if len(v.Contributors) > 0 {
			insufficient = false
		}
	}
	advice := Recommend(true, agg.ThreatLevel, agg.PrimaryCategory, agg.IsSafe, insufficient, nil)
	agg.Headline = advice.Headline
	agg.Recommendations = advice.Recommendations
	return agg
}

// aggregatePrimary is the primary category of the first verdict, in scan order, at the aggregate level
func aggregatePrimary(verdicts []*models.ThreatVerdict, level models.Severity) models.Category {
	for _, v := range verdicts {
		if v.ThreatLevel == level && v.PrimaryCategory != "" {
			return v.PrimaryCategory
		}
	}
	return ""
}
