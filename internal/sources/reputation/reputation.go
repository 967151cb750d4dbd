// Package reputation adapts remote URL reputation services to the signal source interface.
package reputation

import "seniorguard/internal/domain/models"

// severityForMatches maps a normalized match count onto the severity lattice
func severityForMatches(n int) models.Severity {
	switch {
	case n > 5:
		return models.SeverityCritical
	case n > 0:
		return models.SeverityHigh
	default:
		return models.SeverityLow
	}
}

func malformed(sourceID string, err error) *models.ProviderError {
	return &models.ProviderError{
		Kind:       models.ErrorKindMalformedResponse,
		Source:     sourceID,
		Message:    "failed to decode response",
		Underlying: err,
	}
}
