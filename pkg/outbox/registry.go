package outbox

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/craftmarket/bundles-backend/pkg/db/models"
	"github.com/craftmarket/bundles-backend/pkg/enums"
)

// NonRetryableError marks a row that can never be published as stored.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable outbox error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

// EventDescriptor is the routing entry for one event type.
type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
}

// ResolvedEvent is an outbox row with its route and decoded envelope.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   PayloadEnvelope
}

type EventRegistry struct {
	mtx     sync.RWMutex
	entries map[enums.OutboxEventType]EventDescriptor
}

// NewEventRegistry routes every bundle event to bundleTopic.
func NewEventRegistry(bundleTopic string) (*EventRegistry, error) {
	if bundleTopic == "" {
		return nil, fmt.Errorf("bundle events topic is required")
	}
	reg := &EventRegistry{entries: map[enums.OutboxEventType]EventDescriptor{}}
	for _, eventType := range enums.OutboxEventTypes() {
		reg.entries[eventType] = EventDescriptor{
			EventType:     eventType,
			AggregateType: eventType.Aggregate(),
			Topic:         bundleTopic,
		}
	}
	return reg, nil
}

func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	r.mtx.RLock()
	descriptor, ok := r.entries[event.EventType]
	r.mtx.RUnlock()
	if !ok {
		return nil, NonRetryableError{Err: fmt.Errorf("no route registered for %s", event.EventType)}
	}
	if descriptor.AggregateType != event.AggregateType {
		return nil, NonRetryableError{Err: fmt.Errorf("event %s expects aggregate %s, got %s", event.EventType, descriptor.AggregateType, event.AggregateType)}
	}

	var envelope PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NonRetryableError{Err: fmt.Errorf("decode envelope for %s: %w", event.ID, err)}
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil, NonRetryableError{Err: errEmptyData}
	}
	return &ResolvedEvent{Descriptor: descriptor, Envelope: envelope}, nil
}
