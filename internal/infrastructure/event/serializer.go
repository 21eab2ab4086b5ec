package event

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/travelagency/backoffice/internal/domain/invoicing"
	"github.com/travelagency/backoffice/internal/domain/shared"
)

// EventSerializer turns domain events into the JSON payloads stored in the
// event log and back. Only registered event types can be read back.
type EventSerializer struct {
	mu    sync.RWMutex
	types map[string]func() shared.DomainEvent
}

// NewEventSerializer returns a serializer with the invoicing events registered
func NewEventSerializer() *EventSerializer {
	s := &EventSerializer{types: make(map[string]func() shared.DomainEvent)}
	s.Register(invoicing.EventTypeInvoiceCreated, &invoicing.InvoiceCreatedEvent{})
	return s
}

// Register maps eventType to the concrete type of sample, which must be a
// pointer to a struct implementing DomainEvent.
func (s *EventSerializer) Register(eventType string, sample shared.DomainEvent) {
	elem := reflect.TypeOf(sample).Elem()
	factory := func() shared.DomainEvent {
		return reflect.New(elem).Interface().(shared.DomainEvent)
	}

	s.mu.Lock()
	s.types[eventType] = factory
	s.mu.Unlock()
}

func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event.EventType(), err)
	}
	return data, nil
}

func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	factory, ok := s.types[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	event := factory()
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("decode %s: %w", eventType, err)
	}
	return event, nil
}

func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.types[eventType]
	return ok
}

// RegisteredTypes lists the known event types sorted by name
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.types))
}
