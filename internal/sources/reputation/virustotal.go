package reputation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"seniorguard/internal/config"
	"seniorguard/internal/domain/models"
	"seniorguard/internal/sources"
	"seniorguard/pkg/logger"
)

const (
	VirusTotalSourceID = "virustotal"

	virusTotalAPIURL = "https://www.virustotal.com/api/v3"
)

// VirusTotal looks URLs up in the VirusTotal v3 multi-engine index
type VirusTotal struct {
	*sources.BaseSource
	apiURL  string
	apiKey  string
	enabled bool
	client  *http.Client
	logger  *logger.Logger
}

// NewVirusTotal creates the VirusTotal source
func NewVirusTotal(cfg config.ProviderConfig, log *logger.Logger) *VirusTotal {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	apiURL := strings.TrimSuffix(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = virusTotalAPIURL
	}

	return &VirusTotal{
		BaseSource: sources.NewBaseSource(VirusTotalSourceID, "VirusTotal", timeout, models.SubjectKindURL),
		apiURL:     apiURL,
		apiKey:     cfg.APIKey,
		enabled:    cfg.Enabled,
		client:     &http.Client{},
		logger:     log.WithComponent("virustotal"),
	}
}

// Configured reports whether an API key is present
func (c *VirusTotal) Configured() bool {
	return c.enabled && c.apiKey != ""
}

type vtAnalysisStats struct {
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Undetected int `json:"undetected"`
	Harmless   int `json:"harmless"`
	Timeout    int `json:"timeout"`
}

type vtURLResponse struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			LastAnalysisStats vtAnalysisStats `json:"last_analysis_stats"`
			Reputation        int             `json:"reputation"`
		} `json:"attributes"`
	} `json:"data"`
}

// urlID is the unpadded URL-safe base64 identifier VirusTotal uses for URL objects
func urlID(raw string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Check implements sources.Source
func (c *VirusTotal) Check(ctx context.Context, subject models.ScanSubject) (*models.SignalResult, error) {
	if !subject.IsURL() || !c.Configured() {
		return models.NotApplicable(c.ID()), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/urls/"+urlID(subject.Value()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, models.NewTransientError(c.ID(), 0, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewTransientError(c.ID(), resp.StatusCode, "failed to read body", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return c.submit(ctx, subject.Value()), nil
	default:
		return nil, models.NewTransientError(c.ID(), resp.StatusCode, "unexpected status", nil)
	}

	var vt vtURLResponse
	if err := json.Unmarshal(body, &vt); err != nil {
		return nil, malformed(c.ID(), err)
	}

	stats := vt.Data.Attributes.LastAnalysisStats
	n := stats.Malicious + stats.Suspicious

	c.logger.Debug().
		Str("url", subject.Value()).
		Int("malicious", stats.Malicious).
		Int("suspicious", stats.Suspicious).
		Msg("VirusTotal lookup completed")

	result := models.Undetected(c.ID())
	result.Raw = map[string]any{
		"match_count": n,
		"malicious":   stats.Malicious,
		"suspicious":  stats.Suspicious,
		"harmless":    stats.Harmless,
		"undetected":  stats.Undetected,
	}
	if n == 0 {
		return result, nil
	}

	result.Detected = true
	result.Severity = severityForMatches(n)
	result.Confidence = min(50+n*10, 100)
	result.Categories = []models.Category{models.CategoryReputationFlagged}
	result.Evidence = []string{fmt.Sprintf("Flagged by %d security vendors", n)}
	return result, nil
}

// submit queues an unseen URL for analysis and returns a neutral pending result.
// A failed submission is logged and does not turn the lookup into an error.
func (c *VirusTotal) submit(ctx context.Context, rawURL string) *models.SignalResult {
	result := models.Undetected(c.ID())
	result.Raw = map[string]any{"match_count": 0, "pending": true}

	form := url.Values{"url": {rawURL}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/urls", strings.NewReader(form.Encode()))
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to build submission request")
		return result
	}
	req.Header.Set("x-apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", rawURL).Msg("URL submission failed")
		return result
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	result.Raw["submitted"] = resp.StatusCode == http.StatusOK
	c.logger.Debug().Str("url", rawURL).Int("status", resp.StatusCode).Msg("URL submitted for analysis")
	return result
}
