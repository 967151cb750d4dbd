package models

// Severity is a totally ordered risk tier. Merging two tiers takes the max.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Severities lists every tier from least to most severe
func Severities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// Rank returns the position of the tier in the order. Unknown values rank as low.
func (s Severity) Rank() int {
	return severityRank[s]
}

// Valid reports whether s is one of the four tiers
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// AtLeast reports whether s is as severe as other or more
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// Join returns the more severe of the two tiers
func (s Severity) Join(other Severity) Severity {
	if other.Rank() > s.Rank() {
		return other
	}
	if !s.Valid() {
		return SeverityLow
	}
	return s
}

// JoinSeverities folds the tiers with Join, starting from low
func JoinSeverities(levels ...Severity) Severity {
	out := SeverityLow
	for _, l := range levels {
		out = out.Join(l)
	}
	return out
}
