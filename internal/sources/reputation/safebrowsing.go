package reputation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"time"

	"seniorguard/internal/config"
	"seniorguard/internal/domain/models"
	"seniorguard/internal/sources"
	"seniorguard/pkg/logger"
)

const (
	SafeBrowsingSourceID = "safe_browsing"

	safeBrowsingAPIURL     = "https://safebrowsing.googleapis.com/v4/threatMatches:find"
	safeBrowsingConfidence = 95
)

var safeBrowsingThreatTypes = []string{
	"MALWARE",
	"SOCIAL_ENGINEERING",
	"UNWANTED_SOFTWARE",
	"POTENTIALLY_HARMFUL_APPLICATION",
}

// SafeBrowsing checks URLs against the Google Safe Browsing v4 lookup API
type SafeBrowsing struct {
	*sources.BaseSource
	apiURL     string
	apiKey     string
	enabled    bool
	httpClient *http.Client
	logger     *logger.Logger
}

// NewSafeBrowsing creates the Safe Browsing source. Without an API key it stays registered but not applicable.
func NewSafeBrowsing(cfg config.ProviderConfig, log *logger.Logger) *SafeBrowsing {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = safeBrowsingAPIURL
	}

	return &SafeBrowsing{
		BaseSource: sources.NewBaseSource(SafeBrowsingSourceID, "Google Safe Browsing", timeout, models.SubjectKindURL),
		apiURL:     apiURL,
		apiKey:     cfg.APIKey,
		enabled:    cfg.Enabled,
		httpClient: &http.Client{},
		logger:     log.WithComponent("safe-browsing"),
	}
}

// Configured reports whether an API key is present
func (c *SafeBrowsing) Configured() bool {
	return c.enabled && c.apiKey != ""
}

// Check implements sources.Source
func (c *SafeBrowsing) Check(ctx context.Context, subject models.ScanSubject) (*models.SignalResult, error) {
	if !subject.IsURL() || !c.Configured() {
		return models.NotApplicable(c.ID()), nil
	}

	reqBody := safeBrowsingRequest{
		Client: safeBrowsingClient{
			ClientID:      "seniorguard",
			ClientVersion: "1.0.0",
		},
		ThreatInfo: threatInfo{
			ThreatTypes:      safeBrowsingThreatTypes,
			PlatformTypes:    []string{"ANY_PLATFORM"},
			ThreatEntryTypes: []string{"URL"},
			ThreatEntries:    []threatEntry{{URL: subject.Value()}},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"?key="+c.apiKey, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewTransientError(c.ID(), 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, models.NewTransientError(c.ID(), resp.StatusCode, "unexpected status", nil)
	}

	var apiResp safeBrowsingResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, malformed(c.ID(), err)
	}

	c.logger.Debug().
		Str("url", subject.Value()).
		Int("threats_found", len(apiResp.Matches)).
		Msg("Safe Browsing check completed")

	return c.toSignal(apiResp.Matches), nil
}

func (c *SafeBrowsing) toSignal(matches []threatMatch) *models.SignalResult {
	result := models.Undetected(c.ID())
	result.Raw = map[string]any{"match_count": len(matches)}
	if len(matches) == 0 {
		return result
	}

	result.Detected = true
	result.Confidence = safeBrowsingConfidence
	result.Severity = severityForMatches(len(matches))

	for _, m := range matches {
		if !slices.Contains(result.Evidence, m.ThreatType) {
			result.Evidence = append(result.Evidence, m.ThreatType)
		}
		cat := categoryForThreatType(m.ThreatType)
		if !slices.Contains(result.Categories, cat) {
			result.Categories = append(result.Categories, cat)
		}
	}
	return result
}

func categoryForThreatType(t string) models.Category {
	if t == "SOCIAL_ENGINEERING" {
		return models.CategorySocialEngineering
	}
	return models.CategoryMalware
}

type safeBrowsingRequest struct {
	Client     safeBrowsingClient `json:"client"`
	ThreatInfo threatInfo         `json:"threatInfo"`
}

type safeBrowsingClient struct {
	ClientID      string `json:"clientId"`
	ClientVersion string `json:"clientVersion"`
}

type threatInfo struct {
	ThreatTypes      []string      `json:"threatTypes"`
	PlatformTypes    []string      `json:"platformTypes"`
	ThreatEntryTypes []string      `json:"threatEntryTypes"`
	ThreatEntries    []threatEntry `json:"threatEntries"`
}

type threatEntry struct {
	URL string `json:"url"`
}

type safeBrowsingResponse struct {
	Matches []threatMatch `json:"matches"`
}

type threatMatch struct {
	ThreatType    string      `json:"threatType"`
	PlatformType  string      `json:"platformType"`
	Threat        threatEntry `json:"threat"`
	CacheDuration string      `json:"cacheDuration"`
}
