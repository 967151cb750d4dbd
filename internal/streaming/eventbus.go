package streaming

import (
	"context"
	"strconv"
	"sync"

	"seniorguard/pkg/logger"
)

// EventBus distributes scan events to NATS and to in-process subscribers
type EventBus struct {
	nats   *NATSPublisher
	logger *logger.Logger

	mu          sync.RWMutex
	subscribers map[string]chan *ScanEvent
	nextID      int
}

// NewEventBus creates an event bus. nats may be nil.
func NewEventBus(nats *NATSPublisher, log *logger.Logger) *EventBus {
	return &EventBus{
		nats:        nats,
		logger:      log.WithComponent("event-bus"),
		subscribers: make(map[string]chan *ScanEvent),
	}
}

// Publish sends an event to NATS when connected, then to every local subscriber.
// A slow subscriber loses events instead of blocking the scan.
func (eb *EventBus) Publish(ctx context.Context, event *ScanEvent) error {
	var err error
	if eb.nats != nil && eb.nats.IsConnected() {
		err = eb.nats.Publish(ctx, event)
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for id, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			eb.logger.Debug().Str("subscriber", id).Msg("subscriber channel full, dropping event")
		}
	}

	return err
}

// Subscribe registers a local subscriber. The returned function unsubscribes and closes the channel.
func (eb *EventBus) Subscribe(buffer int) (<-chan *ScanEvent, func()) {
	eb.mu.Lock()
	eb.nextID++
	id := strconv.Itoa(eb.nextID)
	ch := make(chan *ScanEvent, buffer)
	eb.subscribers[id] = ch
	eb.mu.Unlock()

	eb.logger.Debug().Str("subscriber_id", id).Msg("new subscriber")

	unsubscribe := func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		if _, ok := eb.subscribers[id]; ok {
			close(ch)
			delete(eb.subscribers, id)
			eb.logger.Debug().Str("subscriber_id", id).Msg("subscriber removed")
		}
	}
	return ch, unsubscribe
}

// SubscriberCount returns the number of active subscribers
func (eb *EventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers)
}

// NATSConnected reports whether events currently reach NATS
func (eb *EventBus) NATSConnected() bool {
	return eb.nats != nil && eb.nats.IsConnected()
}

// Close removes every subscriber and closes the NATS connection
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for id, ch := range eb.subscribers {
		close(ch)
		delete(eb.subscribers, id)
	}

	if eb.nats != nil {
		eb.nats.Close()
	}
}
