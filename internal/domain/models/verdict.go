package models

import "time"

// WarningIndicators counts scam indicators found in a transcript
type WarningIndicators struct {
	HighUrgency             int `json:"high_urgency"`
	PaymentRequest          int `json:"payment_request"`
	TechSupport             int `json:"tech_support"`
	GovernmentImpersonation int `json:"government_impersonation"`
	PressureTactics         int `json:"pressure_tactics"`
	IdentityVerification    int `json:"identity_verification"`
	SuspiciousPaymentMethod int `json:"suspicious_payment_method"`
}

// Total sums every dimension
func (w WarningIndicators) Total() int {
	return w.HighUrgency + w.PaymentRequest + w.TechSupport + w.GovernmentImpersonation +
		w.PressureTactics + w.IdentityVerification + w.SuspiciousPaymentMethod
}

// ThreatVerdict is the merged risk assessment for one subject.
// It is built once per scan and never mutated afterwards.
type ThreatVerdict struct {
	Subject         ScanSubject              `json:"subject"`
	Timestamp       time.Time                `json:"timestamp"`
	IsSafe          bool                     `json:"is_safe"`
	ThreatLevel     Severity                 `json:"threat_level"`
	PrimaryCategory Category                 `json:"primary_category,omitempty"`
	Tags            []Category               `json:"tags,omitempty"`
	Threats         []string                 `json:"threats"`
	Confidence      int                      `json:"confidence"`
	Headline        string                   `json:"headline"`
	Recommendations []string                 `json:"recommendations"`
	Evidence        map[string]*SignalResult `json:"evidence"`
	Contributors    []string                 `json:"contributors"`

	// Text and voice path only
	Indicators      *WarningIndicators  `json:"indicators,omitempty"`
	DetectedPhrases map[string][]string `json:"detected_phrases,omitempty"`
	ImmediateAction string              `json:"immediate_action,omitempty"`

	// Audio path only
	Transcript string `json:"transcript,omitempty"`
	Language   string `json:"language,omitempty"`
}

// Consistent checks is_safe == (threat_level == low AND no threats)
func (v *ThreatVerdict) Consistent() bool {
	return v.IsSafe == (v.ThreatLevel == SeverityLow && len(v.Threats) == 0)
}

// Cancelled reports whether any source was cut short by the caller going away
func (v *ThreatVerdict) Cancelled() bool {
	for _, r := range v.Evidence {
		if r != nil && r.Error == ErrorKindCancelled {
			return true
		}
	}
	return false
}

// StreamVerdict is a verdict over concatenated transcript chunks
type StreamVerdict struct {
	*ThreatVerdict
	ChunksAnalyzed int    `json:"chunks_analyzed"`
	LatestChunk    string `json:"latest_chunk"`
}

// AggregateVerdict folds the verdicts of every URL found in an email body
type AggregateVerdict struct {
	Timestamp       time.Time        `json:"timestamp"`
	IsSafe          bool             `json:"is_safe"`
	ThreatLevel     Severity         `json:"threat_level"`
	PrimaryCategory Category         `json:"primary_category,omitempty"`
	Threats         []string         `json:"threats"`
	URLsFound       int              `json:"urls_found"`
	URLsScanned     int              `json:"urls_scanned"`
	URLResults      []*ThreatVerdict `json:"url_results"`
	KeywordsFound   []string         `json:"keywords_found,omitempty"`
	Headline        string           `json:"headline"`
	Recommendations []string         `json:"recommendations"`
}

// Capability reports whether a signal source is wired with credentials
type Capability struct {
	SourceID   string `json:"source_id"`
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}
