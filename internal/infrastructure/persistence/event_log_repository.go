package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/travelagency/backoffice/internal/domain/shared"
	"github.com/travelagency/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormEventLogRepository appends published domain events to domain_event_log
type GormEventLogRepository struct {
	db *gorm.DB
}

// NewGormEventLogRepository creates a new GormEventLogRepository
func NewGormEventLogRepository(db *gorm.DB) *GormEventLogRepository {
	return &GormEventLogRepository{db: db}
}

// Append stores one serialized event. Re-delivering the same event is a no-op.
func (r *GormEventLogRepository) Append(ctx context.Context, event shared.DomainEvent, payload []byte) error {
	entry := models.EventLogModel{
		ID:            uuid.New(),
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		Payload:       payload,
		OccurredAt:    event.OccurredAt(),
		CreatedAt:     time.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(&entry).Error
}

// FindByAggregate returns the logged events of one aggregate, oldest first
func (r *GormEventLogRepository) FindByAggregate(ctx context.Context, aggregateID uuid.UUID) ([]shared.LoggedEvent, error) {
	var rows []models.EventLogModel
	if err := r.db.WithContext(ctx).
		Where("aggregate_id = ?", aggregateID).
		Order("occurred_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]shared.LoggedEvent, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}
