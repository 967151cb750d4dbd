package streaming

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"seniorguard/internal/domain/models"
)

// EventType represents the type of scan event
type EventType string

const (
	EventTypeScanCompleted  EventType = "scan_completed"
	EventTypeEmailCompleted EventType = "email_completed"
)

// SubjectRoot is the first token of every published NATS subject
const SubjectRoot = "scans"

// ScanEvent announces a finished scan. It carries the outcome, never the scanned text.
type ScanEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	Kind            models.SubjectKind `json:"kind"`
	Host            string             `json:"host,omitempty"`
	ThreatLevel     models.Severity    `json:"threat_level"`
	IsSafe          bool               `json:"is_safe"`
	PrimaryCategory models.Category    `json:"primary_category,omitempty"`
	Tags            []models.Category  `json:"tags,omitempty"`
	ThreatCount     int                `json:"threat_count"`
	Confidence      int                `json:"confidence"`
	Contributors    []string           `json:"contributors,omitempty"`

	// Email only
	URLsFound   int `json:"urls_found,omitempty"`
	URLsScanned int `json:"urls_scanned,omitempty"`
}

// NewVerdictEvent builds the event for a single-subject verdict
func NewVerdictEvent(v *models.ThreatVerdict) *ScanEvent {
	event := &ScanEvent{
		ID:              uuid.New().String(),
		Type:            EventTypeScanCompleted,
		Timestamp:       v.Timestamp,
		Kind:            v.Subject.Kind(),
		ThreatLevel:     v.ThreatLevel,
		IsSafe:          v.IsSafe,
		PrimaryCategory: v.PrimaryCategory,
		Tags:            v.Tags,
		ThreatCount:     len(v.Threats),
		Confidence:      v.Confidence,
		Contributors:    v.Contributors,
	}
	if v.Subject.IsURL() {
		event.Host = v.Subject.Host()
	}
	return event
}

// NewAggregateEvent builds the event for an email scan
func NewAggregateEvent(a *models.AggregateVerdict) *ScanEvent {
	return &ScanEvent{
		ID:              uuid.New().String(),
		Type:            EventTypeEmailCompleted,
		Timestamp:       a.Timestamp,
		Kind:            models.SubjectKindEmail,
		ThreatLevel:     a.ThreatLevel,
		IsSafe:          a.IsSafe,
		PrimaryCategory: a.PrimaryCategory,
		ThreatCount:     len(a.Threats),
		URLsFound:       a.URLsFound,
		URLsScanned:     a.URLsScanned,
	}
}

// Subject returns the NATS subject for the event.
// Hierarchy: scans.completed.<kind>.<level>, e.g. scans.completed.url.high
func (e *ScanEvent) Subject() string {
	kind := string(e.Kind)
	if kind == "" {
		kind = "unknown"
	}
	level := string(e.ThreatLevel)
	if level == "" {
		level = "unknown"
	}
	return fmt.Sprintf("%s.completed.%s.%s", SubjectRoot, kind, level)
}

// Subscription filters the events a live client receives
type Subscription struct {
	// Filter by minimum threat level (empty = all)
	MinLevel models.Severity `json:"min_level,omitempty"`

	// Filter by subject kinds (empty = all)
	Kinds []models.SubjectKind `json:"kinds,omitempty"`

	// Filter by primary category (empty = all)
	Categories []models.Category `json:"categories,omitempty"`

	// Drop safe verdicts
	UnsafeOnly bool `json:"unsafe_only,omitempty"`
}

// Matches checks if an event passes the subscription filters
func (s *Subscription) Matches(event *ScanEvent) bool {
	if s.MinLevel != "" && event.ThreatLevel.Rank() < s.MinLevel.Rank() {
		return false
	}
	if len(s.Kinds) > 0 && !slices.Contains(s.Kinds, event.Kind) {
		return false
	}
	if len(s.Categories) > 0 && !slices.Contains(s.Categories, event.PrimaryCategory) {
		return false
	}
	if s.UnsafeOnly && event.IsSafe {
		return false
	}
	return true
}
