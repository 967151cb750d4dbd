package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"seniorguard/internal/domain/models"
	"seniorguard/internal/sources"
	"seniorguard/internal/sources/heuristic"
	"seniorguard/pkg/logger"
)

const ContentAnalyzerSourceID = "ai_analysis"

const analyzerSystemPrompt = "You are a cybersecurity expert specializing in scam detection. " +
	"Analyze content for potential threats and provide clear, actionable guidance."

// OutcomeKind tells whether the model reply could be read as a structured verdict
type OutcomeKind string

const (
	OutcomeStructured OutcomeKind = "structured"
	OutcomeUnparsed   OutcomeKind = "fallback"
)

// ModelVerdict is the shape requested from the model
type ModelVerdict struct {
	IsSuspicious   bool     `json:"is_suspicious"`
	Confidence     int      `json:"confidence"`
	Reasons        []string `json:"reasons"`
	Recommendation string   `json:"recommendation"`
}

// Outcome is either the model's structured verdict or the keyword fallback that replaced an unreadable reply
type Outcome struct {
	Kind     OutcomeKind  `json:"kind"`
	Verdict  ModelVerdict `json:"verdict"`
	Keywords []string     `json:"keywords,omitempty"`
	RawReply string       `json:"-"`
}

// ContentAnalyzer asks a generative model for a second opinion on a URL or a message
type ContentAnalyzer struct {
	*sources.BaseSource
	llm    *LLMClient
	logger *logger.Logger
}

// NewContentAnalyzer creates the generative content analysis source
func NewContentAnalyzer(llm *LLMClient, log *logger.Logger) *ContentAnalyzer {
	timeout := llm.Timeout()
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	kinds := append([]models.SubjectKind{models.SubjectKindURL}, sources.TextKinds...)

	return &ContentAnalyzer{
		BaseSource: sources.NewBaseSource(ContentAnalyzerSourceID, "Generative Content Analyzer", timeout, kinds...),
		llm:        llm,
		logger:     log.WithComponent("content-analyzer"),
	}
}

// Configured reports whether the underlying model client has a credential
func (a *ContentAnalyzer) Configured() bool {
	return a.llm.Configured()
}

// Check implements sources.Source
func (a *ContentAnalyzer) Check(ctx context.Context, subject models.ScanSubject) (*models.SignalResult, error) {
	if !a.Configured() {
		return models.NotApplicable(a.ID()), nil
	}

	keywords := heuristic.FindScamKeywords(subject.Value())
	reply, err := a.llm.Chat(ctx, analyzerSystemPrompt, buildPrompt(subject, keywords))
	if err != nil {
		return nil, err
	}

	outcome := ParseReply(reply, keywords)
	if outcome.Kind == OutcomeUnparsed {
		a.logger.Warn().
			Int("keywords", len(keywords)).
			Msg("model reply not in the requested shape, using keyword fallback")
	}
	return outcome.Signal(a.ID()), nil
}

// buildPrompt gives the model the subject, its URL parts and the catalog keywords already spotted
func buildPrompt(subject models.ScanSubject, keywords []string) string {
	var sb strings.Builder

	if u := subject.URL(); u != nil {
		sb.WriteString("Analyze this URL for potential scam indicators:\n")
		fmt.Fprintf(&sb, "URL: %s\n", subject.Value())
		fmt.Fprintf(&sb, "Domain: %s\n", u.Host)
		fmt.Fprintf(&sb, "Path: %s\n", u.Path)
		fmt.Fprintf(&sb, "Query parameters: %s\n\n", u.RawQuery)
		sb.WriteString("Consider:\n")
		sb.WriteString("1. Domain legitimacy and trustworthiness\n")
		sb.WriteString("2. Presence of scam-related keywords\n")
		sb.WriteString("3. URL structure and patterns\n")
		sb.WriteString("4. Potential brand impersonation\n")
		sb.WriteString("5. Overall risk assessment\n\n")
	} else {
		sb.WriteString("Analyze this message for potential scam indicators:\n```\n")
		sb.WriteString(subject.Value())
		sb.WriteString("\n```\n\n")
		sb.WriteString("Consider urgency and pressure, requests for money or gift cards, ")
		sb.WriteString("impersonation of companies or authorities, and requests for personal information.\n\n")
	}

	found := "None"
	if len(keywords) > 0 {
		found = strings.Join(keywords, ", ")
	}
	fmt.Fprintf(&sb, "Found keywords: %s\n\n", found)

	sb.WriteString("Provide a JSON response with:\n")
	sb.WriteString("- is_suspicious (boolean)\n")
	sb.WriteString("- confidence (0-100)\n")
	sb.WriteString("- reasons (list of strings)\n")
	sb.WriteString("- recommendation (string)\n")
	return sb.String()
}

// wireVerdict tolerates the loose typing models tend to produce
type wireVerdict struct {
	IsSuspicious   *bool    `json:"is_suspicious"`
	Confidence     *float64 `json:"confidence"`
	Reasons        []string `json:"reasons"`
	Recommendation string   `json:"recommendation"`
}

// ParseReply reads the model reply. A reply without a boolean is_suspicious is replaced by the keyword rule.
func ParseReply(reply string, keywords []string) Outcome {
	var w wireVerdict
	if err := json.Unmarshal([]byte(extractJSON(reply)), &w); err == nil && w.IsSuspicious != nil {
		v := ModelVerdict{
			IsSuspicious:   *w.IsSuspicious,
			Reasons:        w.Reasons,
			Recommendation: w.Recommendation,
		}
		if w.Confidence != nil {
			v.Confidence = normalizeConfidence(*w.Confidence)
		}
		return Outcome{Kind: OutcomeStructured, Verdict: v, Keywords: keywords, RawReply: reply}
	}
	return fallback(reply, keywords)
}

func fallback(reply string, keywords []string) Outcome {
	v := ModelVerdict{
		IsSuspicious:   len(keywords) > 2,
		Confidence:     min(len(keywords)*20, 80),
		Recommendation: strings.TrimSpace(reply),
	}
	for _, kw := range keywords {
		v.Reasons = append(v.Reasons, "Contains scam keyword: "+kw)
	}
	return Outcome{Kind: OutcomeUnparsed, Verdict: v, Keywords: keywords, RawReply: reply}
}

// normalizeConfidence accepts 0-100 or a 0-1 fraction
func normalizeConfidence(c float64) int {
	if c > 0 && c <= 1 {
		c *= 100
	}
	return int(math.Round(math.Max(0, math.Min(c, 100))))
}

// Signal converts the outcome to a SignalResult. The model never raises severity above medium.
func (o Outcome) Signal(sourceID string) *models.SignalResult {
	r := models.Undetected(sourceID)
	r.Raw = map[string]any{
		"parse":          string(o.Kind),
		"is_suspicious":  o.Verdict.IsSuspicious,
		"confidence":     o.Verdict.Confidence,
		"recommendation": o.Verdict.Recommendation,
	}
	if len(o.Keywords) > 0 {
		r.Raw["keywords"] = o.Keywords
	}
	if !o.Verdict.IsSuspicious {
		return r
	}

	r.Detected = true
	r.Severity = models.SeverityMedium
	r.Confidence = o.Verdict.Confidence
	r.Categories = []models.Category{models.CategoryAIFlagged}
	r.Evidence = append([]string{"AI detected potential scam indicators"}, o.Verdict.Reasons...)
	return r
}
