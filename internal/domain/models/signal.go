package models

// SignalResult is one source's contribution to a scan
type SignalResult struct {
	SourceID     string         `json:"source_id"`
	Applicable   bool           `json:"applicable"`
	Detected     bool           `json:"detected"`
	Severity     Severity       `json:"severity"`
	Confidence   int            `json:"confidence"`
	Categories   []Category     `json:"categories,omitempty"`
	Evidence     []string       `json:"evidence,omitempty"`
	Raw          map[string]any `json:"raw,omitempty"`
	Error        ErrorKind      `json:"error,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// NotApplicable is the result of a source that was skipped, typically for a missing credential
func NotApplicable(sourceID string) *SignalResult {
	return &SignalResult{
		SourceID: sourceID,
		Severity: SeverityLow,
	}
}

// Undetected is a clean, applicable result
func Undetected(sourceID string) *SignalResult {
	return &SignalResult{
		SourceID:   sourceID,
		Applicable: true,
		Severity:   SeverityLow,
	}
}

// Failed records a source that was applicable but could not produce a signal
func Failed(sourceID string, kind ErrorKind, err error) *SignalResult {
	r := &SignalResult{
		SourceID:   sourceID,
		Applicable: true,
		Severity:   SeverityLow,
		Error:      kind,
	}
	if err != nil {
		r.ErrorMessage = err.Error()
	}
	return r
}

// Contributed reports whether the source ran and returned a usable answer
func (r *SignalResult) Contributed() bool {
	return r != nil && r.Applicable && r.Error == ""
}

// Counts reports whether the result may influence severity and threats
func (r *SignalResult) Counts() bool {
	return r.Contributed() && r.Detected
}
