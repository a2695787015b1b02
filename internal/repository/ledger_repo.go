package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Eursukkul/ewm-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository stores the confirmed count per event. Writes must run in
// the transaction that changes the matching request statuses.
type LedgerRepository interface {
	Get(ctx context.Context, tx *gorm.DB, eventID uint) (int, error)
	Add(ctx context.Context, tx *gorm.DB, eventID uint, delta int) error
	Set(ctx context.Context, tx *gorm.DB, eventID uint, confirmed int) error
	Counts(ctx context.Context, eventIDs []uint) (map[uint]int, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

// Get returns 0 for events that never had a confirmed request.
func (r *ledgerRepository) Get(ctx context.Context, tx *gorm.DB, eventID uint) (int, error) {
	var entry models.LedgerEntry
	err := tx.WithContext(ctx).First(&entry, "event_id = ?", eventID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, classify(err)
	}
	return entry.Confirmed, nil
}

func (r *ledgerRepository) Add(ctx context.Context, tx *gorm.DB, eventID uint, delta int) error {
	if delta == 0 {
		return nil
	}
	entry := models.LedgerEntry{EventID: eventID, Confirmed: delta, UpdatedAt: time.Now()}
	return classify(tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"confirmed":  gorm.Expr("participation_ledger.confirmed + ?", delta),
			"updated_at": entry.UpdatedAt,
		}),
	}).Create(&entry).Error)
}

func (r *ledgerRepository) Set(ctx context.Context, tx *gorm.DB, eventID uint, confirmed int) error {
	entry := models.LedgerEntry{EventID: eventID, Confirmed: confirmed, UpdatedAt: time.Now()}
	return classify(tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"confirmed", "updated_at"}),
	}).Create(&entry).Error)
}

// Counts returns the confirmed count for each id that has a ledger entry.
func (r *ledgerRepository) Counts(ctx context.Context, eventIDs []uint) (map[uint]int, error) {
	counts := make(map[uint]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}
	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).Where("event_id IN ?", eventIDs).Find(&entries).Error; err != nil {
		return nil, err
	}
	for _, e := range entries {
		counts[e.EventID] = e.Confirmed
	}
	return counts, nil
}
