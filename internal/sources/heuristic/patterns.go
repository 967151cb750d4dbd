package heuristic

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/net/publicsuffix"

	"seniorguard/internal/domain/models"
	"seniorguard/internal/sources"
)

const PatternSourceID = "pattern_heuristic"

var (
	shorteners = map[string]bool{
		"bit.ly": true, "tinyurl.com": true, "t.co": true, "goo.gl": true,
		"ow.ly": true, "is.gd": true, "buff.ly": true, "adf.ly": true,
		"j.mp": true, "rb.gy": true, "cutt.ly": true, "short.io": true,
		"rebrand.ly": true, "bl.ink": true, "s.id": true, "shorturl.at": true,
		"tiny.cc": true,
	}

	freeTLDs = map[string]bool{"tk": true, "ml": true, "ga": true, "cf": true, "gq": true}

	// "secure-", "verify-" ... glued to something that looks like a domain
	phishingNamePattern = regexp.MustCompile(`(?:secure|account|verify|update|confirm)-[a-z0-9]+\.[a-z]{2,}`)

	trustedBrands = []string{"paypal", "amazon", "microsoft", "google", "apple", "facebook", "bank"}
)

// maxHostLabels is the most labels a host may carry before it counts as excessive.
// The public suffix (co.uk, com.au) counts as one label.
const maxHostLabels = 3

// PatternFinding is one fired structural rule
type PatternFinding struct {
	Category models.Category
	Reason   string
}

// PatternHeuristic flags suspicious URL structure without any network access
type PatternHeuristic struct {
	*sources.BaseSource
}

// NewPatternHeuristic creates the URL pattern source
func NewPatternHeuristic() *PatternHeuristic {
	return &PatternHeuristic{
		BaseSource: sources.NewBaseSource(PatternSourceID, "URL Pattern Heuristic", 0, models.SubjectKindURL),
	}
}

// Check implements sources.Source
func (p *PatternHeuristic) Check(_ context.Context, subject models.ScanSubject) (*models.SignalResult, error) {
	u := subject.URL()
	if u == nil {
		return models.NotApplicable(p.ID()), nil
	}

	findings := AnalyzeURL(u)
	result := models.Undetected(p.ID())
	result.Raw = map[string]any{"domain": u.Hostname()}
	if reg, err := publicsuffix.EffectiveTLDPlusOne(u.Hostname()); err == nil {
		result.Raw["registrable_domain"] = reg
	}

	if len(findings) == 0 {
		return result, nil
	}

	result.Detected = true
	result.Severity = models.SeverityMedium
	result.Confidence = min(50+10*(len(findings)-1), 80)
	for _, f := range findings {
		result.Evidence = append(result.Evidence, f.Reason)
		if !slices.Contains(result.Categories, f.Category) {
			result.Categories = append(result.Categories, f.Category)
		}
	}
	return result, nil
}

// AnalyzeURL runs every structural rule in a fixed order and returns the ones that fired
func AnalyzeURL(u *url.URL) []PatternFinding {
	host := strings.ToLower(u.Hostname())
	path := strings.ToLower(u.EscapedPath())
	isIP := net.ParseIP(host) != nil

	var findings []PatternFinding
	add := func(c models.Category, format string, args ...any) {
		findings = append(findings, PatternFinding{Category: c, Reason: fmt.Sprintf(format, args...)})
	}

	if s := shortenerFor(host); s != "" {
		add(models.CategoryPhishingPattern, "Link uses the %s shortening service, so the real destination is hidden", s)
	}

	if isIP {
		add(models.CategoryPhishingPattern, "Link uses an IP address instead of a domain name")
	}

	if tld := lastLabel(host); freeTLDs[tld] {
		add(models.CategoryPhishingPattern, "Domain uses the free .%s top-level domain often used by scammers", tld)
	}

	if m := phishingNamePattern.FindString(host + path); m != "" {
		add(models.CategoryPhishingPattern, "Link contains a phishing-style name (%s)", m)
	}

	for _, brand := range trustedBrands {
		if impersonates(brand, host, path, isIP) {
			add(models.CategoryBrandImpersonation, "Possible %s impersonation", brand)
		}
	}

	if !isIP {
		if n := hostLabels(host); n > maxHostLabels {
			add(models.CategoryPhishingPattern, "Excessive subdomains (%d levels)", n)
		}
	}

	return findings
}

// impersonates checks the host for the brand name. An IP host cannot belong to the
// brand, so a brand name in its path counts as well.
func impersonates(brand, host, path string, isIP bool) bool {
	if strings.HasSuffix(host, brand+".com") {
		return false
	}
	if strings.Contains(host, brand) {
		return true
	}
	return isIP && strings.Contains(path, brand)
}

func shortenerFor(host string) string {
	host = strings.TrimPrefix(host, "www.")
	if shorteners[host] {
		return host
	}
	return ""
}

func lastLabel(host string) string {
	if i := strings.LastIndexByte(host, '.'); i >= 0 {
		return host[i+1:]
	}
	return host
}

// hostLabels counts labels with the public suffix folded into one
func hostLabels(host string) int {
	host = strings.TrimSuffix(host, ".")
	suffix, _ := publicsuffix.PublicSuffix(host)
	if suffix == "" || suffix == host {
		return strings.Count(host, ".") + 1
	}
	rest := strings.TrimSuffix(host, "."+suffix)
	return strings.Count(rest, ".") + 2
}
