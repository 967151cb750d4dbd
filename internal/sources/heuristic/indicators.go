package heuristic

import (
	"context"
	"fmt"
	"strings"

	"seniorguard/internal/domain/models"
	"seniorguard/internal/sources"
)

const PhraseSourceID = "phrase_spotter"

// ImmediateActionCritical is attached to every critical transcript verdict
const ImmediateActionCritical = "End the interaction immediately"

// TranscriptAnalysis is the scored and classified outcome of phrase spotting
type TranscriptAnalysis struct {
	Matches         PhraseMatches            `json:"-"`
	Indicators      models.WarningIndicators `json:"indicators"`
	IsSuspicious    bool                     `json:"is_suspicious"`
	Category        models.Category          `json:"category,omitempty"`
	ThreatLevel     models.Severity          `json:"threat_level"`
	Confidence      int                      `json:"confidence"`
	Escalated       bool                     `json:"escalated"`
	ImmediateAction string                   `json:"immediate_action,omitempty"`
}

// ScoreIndicators builds the warning vector from phrase matches and the raw transcript
func ScoreIndicators(m PhraseMatches, transcript string) models.WarningIndicators {
	pressure := m.Count(models.CategoryPressureTactics)
	payment := m.Count(models.CategoryPaymentRequest)
	return models.WarningIndicators{
		HighUrgency:             pressure,
		PaymentRequest:          payment,
		TechSupport:             m.Count(models.CategoryTechSupport),
		GovernmentImpersonation: m.Count(models.CategoryGovernmentImpersonation),
		PressureTactics:         pressure,
		IdentityVerification:    countIdentityWords(transcript),
		SuspiciousPaymentMethod: payment,
	}
}

// classification order: first match wins
var categoryPriority = []struct {
	category models.Category
	level    models.Severity
}{
	{models.CategoryTechSupport, models.SeverityHigh},
	{models.CategoryGovernmentImpersonation, models.SeverityCritical},
	{models.CategoryGrandparent, models.SeverityHigh},
	{models.CategoryBankFraud, models.SeverityHigh},
	{models.CategoryLottery, models.SeverityMedium},
}

// Classify picks the primary category, base level and confidence for a scored transcript
func Classify(m PhraseMatches, ind models.WarningIndicators) TranscriptAnalysis {
	a := TranscriptAnalysis{
		Matches:     m,
		Indicators:  ind,
		ThreatLevel: models.SeverityLow,
	}

	total := ind.Total()
	if total == 0 {
		return a
	}

	a.IsSuspicious = true
	a.Category, a.ThreatLevel = models.CategoryUnknown, models.SeverityMedium
	matched := false
	for _, p := range categoryPriority {
		if m.Has(p.category) {
			a.Category, a.ThreatLevel = p.category, p.level
			matched = true
			break
		}
	}
	if !matched && ind.PaymentRequest >= 2 {
		a.Category, a.ThreatLevel = models.CategoryPaymentRequest, models.SeverityHigh
	}

	a.Confidence = min(total*15, 100)

	if ind.PaymentRequest >= 2 && ind.HighUrgency >= 2 {
		a.ThreatLevel = models.SeverityCritical
		a.Confidence = min(a.Confidence+20, 100)
		a.Escalated = true
	}

	if a.ThreatLevel == models.SeverityCritical {
		a.ImmediateAction = ImmediateActionCritical
	}
	return a
}

// MatchedCategory is the classified category, or for a transcript with no indicators
// the highest priority category whose phrases still appeared
func (a TranscriptAnalysis) MatchedCategory() models.Category {
	if a.Category != "" {
		return a.Category
	}
	for _, p := range categoryPriority {
		if a.Matches.Has(p.category) {
			return p.category
		}
	}
	return ""
}

// AnalyzeTranscript runs phrase spotting, indicator scoring and classification
func AnalyzeTranscript(transcript string) TranscriptAnalysis {
	m := SpotPhrases(transcript)
	return Classify(m, ScoreIndicators(m, transcript))
}

// PhraseSpotter is the text-path source wrapping AnalyzeTranscript
type PhraseSpotter struct {
	*sources.BaseSource
}

// NewPhraseSpotter creates the phrase spotting source
func NewPhraseSpotter() *PhraseSpotter {
	return &PhraseSpotter{
		BaseSource: sources.NewBaseSource(PhraseSourceID, "Scam Phrase Spotter", 0, sources.TextKinds...),
	}
}

// Check implements sources.Source
func (p *PhraseSpotter) Check(_ context.Context, subject models.ScanSubject) (*models.SignalResult, error) {
	if !subject.Kind().IsText() {
		return models.NotApplicable(p.ID()), nil
	}

	a := AnalyzeTranscript(subject.Value())
	return a.Signal(p.ID()), nil
}

// Signal converts the analysis to a SignalResult. The analysis itself rides along in Raw["analysis"].
func (a TranscriptAnalysis) Signal(sourceID string) *models.SignalResult {
	r := models.Undetected(sourceID)
	r.Raw = map[string]any{"analysis": &a}
	if !a.IsSuspicious {
		return r
	}

	r.Detected = true
	r.Severity = a.ThreatLevel
	r.Confidence = a.Confidence
	r.Categories = append(r.Categories, a.Category)

	for _, cat := range phraseCatalogs {
		phrases := a.Matches[cat.Category]
		if len(phrases) == 0 {
			continue
		}
		if cat.Category != a.Category {
			r.Categories = append(r.Categories, cat.Category)
		}
		for _, ph := range phrases {
			r.Evidence = append(r.Evidence, fmt.Sprintf("%s phrase: %q", capitalize(cat.Category.Label()), ph))
		}
	}
	if a.Indicators.IdentityVerification > 0 {
		r.Evidence = append(r.Evidence, "Asks you to verify or confirm personal details")
	}
	return r
}

// AnalysisFrom extracts the TranscriptAnalysis carried by a phrase spotter result
func AnalysisFrom(r *models.SignalResult) (*TranscriptAnalysis, bool) {
	if r == nil || r.Raw == nil {
		return nil, false
	}
	a, ok := r.Raw["analysis"].(*TranscriptAnalysis)
	return a, ok
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
