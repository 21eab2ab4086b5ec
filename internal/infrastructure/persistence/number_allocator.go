package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/travelagency/backoffice/internal/domain/invoicing"
	"github.com/travelagency/backoffice/internal/domain/shared"
	"github.com/travelagency/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormNumberAllocator hands out invoice numbers from a per-year sequence row.
// Format: PREFIX-YYYY-NNNNN (e.g., INV-2026-00001)
//
// The sequence row is locked for the duration of the allocation, so
// concurrent allocators on the same database never hand out the same value.
// A year without a row is seeded from the highest invoice number already
// stored for it.
type GormNumberAllocator struct {
	db     *gorm.DB
	format invoicing.NumberFormat
	now    func() time.Time
}

// NewGormNumberAllocator creates a new GormNumberAllocator
func NewGormNumberAllocator(db *gorm.DB, format invoicing.NumberFormat) *GormNumberAllocator {
	return &GormNumberAllocator{db: db, format: format, now: time.Now}
}

// Next reserves count consecutive numbers of the current year
func (a *GormNumberAllocator) Next(ctx context.Context, count int) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}
	year := a.now().Year()
	prefix := a.format.YearPrefix(year)

	var numbers []string
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := a.lockSequence(tx, prefix, year)
		if err != nil {
			return err
		}

		last := seq.LastValue + int64(count)
		if a.format.Exhausted(last) {
			return shared.ErrAllocatorExhausted
		}

		if err := tx.Model(&models.InvoiceNumberSequenceModel{}).
			Where("prefix = ?", prefix).
			Updates(map[string]any{"last_value": last, "updated_at": time.Now()}).Error; err != nil {
			return err
		}

		numbers = make([]string, 0, count)
		for v := seq.LastValue + 1; v <= last; v++ {
			numbers = append(numbers, a.format.Format(year, v))
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrAllocatorExhausted) {
			return nil, err
		}
		return nil, fmt.Errorf("allocate invoice number: %w", err)
	}
	return numbers, nil
}

func (a *GormNumberAllocator) lockSequence(tx *gorm.DB, prefix string, year int) (*models.InvoiceNumberSequenceModel, error) {
	var seq models.InvoiceNumberSequenceModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("prefix = ?", prefix).
		First(&seq).Error
	if err == nil {
		return &seq, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	highest, err := a.highestIssued(tx, prefix, year)
	if err != nil {
		return nil, err
	}
	seed := models.InvoiceNumberSequenceModel{Prefix: prefix, LastValue: highest, UpdatedAt: time.Now()}
	// another allocator may have seeded the row since the lookup above
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, err
	}

	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("prefix = ?", prefix).
		First(&seq).Error; err != nil {
		return nil, err
	}
	return &seq, nil
}

// HighestSequence returns the largest sequence value already stored for year
func (a *GormNumberAllocator) HighestSequence(ctx context.Context, year int) (int64, error) {
	return a.highestIssued(a.db.WithContext(ctx), a.format.YearPrefix(year), year)
}

// highestIssued returns the largest sequence value among stored invoices of
// year; manually typed numbers that do not parse are skipped. Every number of
// the year is inspected since a text sort ranks "INV-2026-MANUAL" above
// "INV-2026-00042".
func (a *GormNumberAllocator) highestIssued(tx *gorm.DB, prefix string, year int) (int64, error) {
	var numbers []string
	if err := tx.Model(&models.InvoiceModel{}).
		Where("number LIKE ?", prefix+"%").
		Pluck("number", &numbers).Error; err != nil {
		return 0, err
	}

	var highest int64
	for _, number := range numbers {
		if seq, ok := a.format.ParseSequence(year, number); ok && seq > highest {
			highest = seq
		}
	}
	return highest, nil
}

// Ensure GormNumberAllocator implements NumberAllocator
var _ invoicing.NumberAllocator = (*GormNumberAllocator)(nil)
