package heuristic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seniorguard/internal/domain/models"
)

func urlSubject(t *testing.T, raw string) models.ScanSubject {
	t.Helper()
	s, err := models.NewURLSubject(raw)
	require.NoError(t, err)
	return s
}

func transcriptSubject(t *testing.T, text string) models.ScanSubject {
	t.Helper()
	s, err := models.NewTextSubject(models.SubjectKindTranscript, text, 0)
	require.NoError(t, err)
	return s
}

func TestAnalyzeURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		reasons []string
	}{
		{
			name: "legitimate brand domain",
			url:  "https://www.paypal.com/signin",
		},
		{
			name: "public suffix counts as one label",
			url:  "https://www.bbc.co.uk/news",
		},
		{
			name:    "shortener",
			url:     "http://bit.ly/abc",
			reasons: []string{"Link uses the bit.ly shortening service, so the real destination is hidden"},
		},
		{
			name: "ip literal with brand in path",
			url:  "http://192.168.1.5/paypal-secure-login",
			reasons: []string{
				"Link uses an IP address instead of a domain name",
				"Possible paypal impersonation",
			},
		},
		{
			name: "stacked rules fire in fixed order",
			url:  "http://secure-paypal.com.login.tk/",
			reasons: []string{
				"Domain uses the free .tk top-level domain often used by scammers",
				"Link contains a phishing-style name (secure-paypal.com)",
				"Possible paypal impersonation",
				"Excessive subdomains (4 levels)",
			},
		},
		{
			name:    "deep subdomains",
			url:     "https://a.b.c.example.com/",
			reasons: []string{"Excessive subdomains (5 levels)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := AnalyzeURL(urlSubject(t, tt.url).URL())
			var got []string
			for _, f := range findings {
				got = append(got, f.Reason)
			}
			assert.Equal(t, tt.reasons, got)
		})
	}
}

func TestPatternHeuristicCheck(t *testing.T) {
	p := NewPatternHeuristic()

	res, err := p.Check(context.Background(), urlSubject(t, "http://192.168.1.5/paypal-secure-login"))
	require.NoError(t, err)
	assert.True(t, res.Applicable)
	assert.True(t, res.Detected)
	assert.Equal(t, models.SeverityMedium, res.Severity)
	assert.Len(t, res.Evidence, 2)
	assert.Equal(t, []models.Category{models.CategoryPhishingPattern, models.CategoryBrandImpersonation}, res.Categories)

	res, err = p.Check(context.Background(), urlSubject(t, "https://example.com"))
	require.NoError(t, err)
	assert.False(t, res.Detected)
	assert.Equal(t, models.SeverityLow, res.Severity)
	assert.Equal(t, "example.com", res.Raw["registrable_domain"])

	res, err = p.Check(context.Background(), transcriptSubject(t, "hello"))
	require.NoError(t, err)
	assert.False(t, res.Applicable)
}

func TestSpotPhrasesFollowsCatalogOrder(t *testing.T) {
	m := SpotPhrases("Send BITCOIN or a gift card, this is URGENT, act now")
	assert.Equal(t, []string{"gift card", "bitcoin"}, m[models.CategoryPaymentRequest])
	assert.Equal(t, []string{"act now", "urgent"}, m[models.CategoryPressureTactics])
	assert.Equal(t, []string{"act now", "urgent", "gift card", "bitcoin"}, m.Flatten())
}

func TestSpotPhrasesFoldsCurlyApostrophes(t *testing.T) {
	m := SpotPhrases("Grandma, it’s me grandma, I’m in jail")
	assert.Equal(t, []string{"it's me grandma", "i'm in jail"}, m[models.CategoryGrandparent])
}

func TestAnalyzeTranscript(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		suspicious bool
		category   models.Category
		level      models.Severity
		confidence int
		escalated  bool
	}{
		{
			name:  "benign",
			text:  "Hi, just checking in, how are you?",
			level: models.SeverityLow,
		},
		{
			name:       "government impersonation",
			text:       "This is the IRS, you have an arrest warrant, send payment immediately with gift cards",
			suspicious: true,
			category:   models.CategoryGovernmentImpersonation,
			level:      models.SeverityCritical,
			confidence: 90,
		},
		{
			name:       "tech support caps confidence",
			text:       "Your computer has a virus, allow remote access with teamviewer right now, act now",
			suspicious: true,
			category:   models.CategoryTechSupport,
			level:      models.SeverityHigh,
			confidence: 100,
		},
		{
			name:       "payment scam escalates",
			text:       "Pay with a gift card or bitcoin right now, this is urgent",
			suspicious: true,
			category:   models.CategoryPaymentRequest,
			level:      models.SeverityCritical,
			confidence: 100,
			escalated:  true,
		},
		{
			name:       "bank fraud outranks lottery",
			text:       "We saw unusual activity, verify your identity. Also you've won!",
			suspicious: true,
			category:   models.CategoryBankFraud,
			level:      models.SeverityHigh,
			confidence: 15,
		},
		{
			name:       "lottery is medium",
			text:       "You've won! Claim your prize, please confirm",
			suspicious: true,
			category:   models.CategoryLottery,
			level:      models.SeverityMedium,
			confidence: 15,
		},
		{
			name:       "indicators without a category",
			text:       "Read me your account number and social security",
			suspicious: true,
			category:   models.CategoryUnknown,
			level:      models.SeverityMedium,
			confidence: 30,
		},
		{
			name:  "category phrase without indicators stays low",
			text:  "I'm in jail and I need money",
			level: models.SeverityLow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AnalyzeTranscript(tt.text)
			assert.Equal(t, tt.suspicious, a.IsSuspicious)
			assert.Equal(t, tt.category, a.Category)
			assert.Equal(t, tt.level, a.ThreatLevel)
			assert.Equal(t, tt.confidence, a.Confidence)
			assert.Equal(t, tt.escalated, a.Escalated)
			if tt.level == models.SeverityCritical {
				assert.Equal(t, ImmediateActionCritical, a.ImmediateAction)
			} else {
				assert.Empty(t, a.ImmediateAction)
			}
		})
	}
}

func TestScoreIndicatorsTotalSeven(t *testing.T) {
	text := "Your computer has a virus, allow remote access with teamviewer right now, act now"
	m := SpotPhrases(text)
	ind := ScoreIndicators(m, text)
	assert.Equal(t, 7, ind.Total())
	assert.Equal(t, 3, ind.TechSupport)
	assert.Equal(t, 2, ind.HighUrgency)
	assert.Equal(t, 2, ind.PressureTactics)
}

func TestPhraseSpotterCheck(t *testing.T) {
	p := NewPhraseSpotter()
	res, err := p.Check(context.Background(),
		transcriptSubject(t, "This is the IRS, you have an arrest warrant, send payment immediately with gift cards"))
	require.NoError(t, err)

	assert.True(t, res.Detected)
	assert.Equal(t, models.SeverityCritical, res.Severity)
	assert.Equal(t, models.CategoryGovernmentImpersonation, res.Categories[0])
	assert.Contains(t, res.Categories, models.CategoryPressureTactics)
	assert.Contains(t, res.Categories, models.CategoryPaymentRequest)
	assert.Equal(t, `Government impersonation phrase: "arrest warrant"`, res.Evidence[0])

	a, ok := AnalysisFrom(res)
	require.True(t, ok)
	assert.Equal(t, 2, a.Indicators.GovernmentImpersonation)

	res, err = p.Check(context.Background(), urlSubject(t, "https://example.com"))
	require.NoError(t, err)
	assert.False(t, res.Applicable)
}

func TestFindScamKeywords(t *testing.T) {
	found := FindScamKeywords("URGENT: your PayPal is suspended. Click here to verify.")
	assert.Equal(t, []string{"urgent", "verify", "suspended", "click here", "paypal"}, found)
	assert.Empty(t, FindScamKeywords("lunch on friday?"))
}

func TestMatchedCategory(t *testing.T) {
	assert.Equal(t, models.CategoryGovernmentImpersonation,
		AnalyzeTranscript("This is the IRS, you have an arrest warrant").MatchedCategory())

	unscored := AnalyzeTranscript("Congratulations, you've won! Claim your prize today")
	assert.False(t, unscored.IsSuspicious)
	assert.Empty(t, unscored.Category)
	assert.Equal(t, models.CategoryLottery, unscored.MatchedCategory())

	assert.Empty(t, AnalyzeTranscript("Hi, just checking in, how are you?").MatchedCategory())
}
