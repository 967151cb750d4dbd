package streaming

import (
	"context"

	"seniorguard/internal/domain/models"
)

// ScanPublisher implements services.EventPublisher on top of the EventBus and the WebSocket hub
type ScanPublisher struct {
	eventBus *EventBus
	wsHub    *WebSocketHub
}

// NewScanPublisher creates a publisher. Either collaborator may be nil.
func NewScanPublisher(eventBus *EventBus, wsHub *WebSocketHub) *ScanPublisher {
	return &ScanPublisher{
		eventBus: eventBus,
		wsHub:    wsHub,
	}
}

// PublishVerdict announces a single-subject verdict
func (p *ScanPublisher) PublishVerdict(ctx context.Context, v *models.ThreatVerdict) error {
	return p.publish(ctx, NewVerdictEvent(v))
}

// PublishAggregate announces an email verdict
func (p *ScanPublisher) PublishAggregate(ctx context.Context, a *models.AggregateVerdict) error {
	return p.publish(ctx, NewAggregateEvent(a))
}

func (p *ScanPublisher) publish(ctx context.Context, event *ScanEvent) error {
	// Live clients get the event even if NATS refused it
	if p.wsHub != nil {
		p.wsHub.BroadcastEvent(event)
	}
	if p.eventBus != nil {
		return p.eventBus.Publish(ctx, event)
	}
	return nil
}
