package event

import (
	"context"
	"fmt"

	"github.com/travelagency/backoffice/internal/domain/shared"
)

// EventLog stores serialized events
type EventLog interface {
	Append(ctx context.Context, event shared.DomainEvent, payload []byte) error
}

// EventLogHandler writes every registered event it receives to an EventLog,
// giving committed invoices a durable audit trail.
type EventLogHandler struct {
	log        EventLog
	serializer *EventSerializer
}

// NewEventLogHandler creates a new EventLogHandler
func NewEventLogHandler(log EventLog, serializer *EventSerializer) *EventLogHandler {
	return &EventLogHandler{log: log, serializer: serializer}
}

// Handle serializes and appends the event
func (h *EventLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := h.serializer.Serialize(event)
	if err != nil {
		return err
	}
	if err := h.log.Append(ctx, event, payload); err != nil {
		return fmt.Errorf("append %s to event log: %w", event.EventType(), err)
	}
	return nil
}

// EventTypes returns the event types the serializer knows
func (h *EventLogHandler) EventTypes() []string {
	return h.serializer.RegisteredTypes()
}

// Ensure EventLogHandler implements EventHandler
var _ shared.EventHandler = (*EventLogHandler)(nil)
