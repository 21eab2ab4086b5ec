package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/travelagency/backoffice/internal/domain/shared"
)

// EventLogModel is an append-only record of a published domain event
type EventLogModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	EventType     string    `gorm:"type:varchar(255);not null;index"`
	AggregateID   uuid.UUID `gorm:"type:uuid;not null;index"`
	AggregateType string    `gorm:"type:varchar(255);not null"`
	Payload       []byte    `gorm:"type:jsonb;not null"`
	OccurredAt    time.Time `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (EventLogModel) TableName() string {
	return "domain_event_log"
}

// ToDomain converts the row to an audit trail entry
func (m *EventLogModel) ToDomain() shared.LoggedEvent {
	return shared.LoggedEvent{
		EventID:       m.EventID,
		EventType:     m.EventType,
		AggregateID:   m.AggregateID,
		AggregateType: m.AggregateType,
		Payload:       m.Payload,
		OccurredAt:    m.OccurredAt,
	}
}
