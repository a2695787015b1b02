package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/ewm-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventFilter narrows Search. Zero values leave a dimension unfiltered.
type EventFilter struct {
	Text       string
	Categories []uint
	Paid       *bool
	RangeStart *time.Time
	RangeEnd   *time.Time
	States     []models.EventState
	Initiators []uint
}

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, id uint) (*models.Event, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Event, error)
	Update(ctx context.Context, tx *gorm.DB, event *models.Event) error
	FindByInitiator(ctx context.Context, initiatorID uint, from, size int) ([]models.Event, error)
	Search(ctx context.Context, filter EventFilter) ([]models.Event, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	return classify(r.db.WithContext(ctx).Create(event).Error)
}

func (r *eventRepository) FindByID(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// FindByIDForUpdate acquires a row-level lock on the event within the given transaction.
func (r *eventRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Event, error) {
	var event models.Event
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&event, id).Error; err != nil {
		return nil, classify(err)
	}
	return &event, nil
}

func (r *eventRepository) Update(ctx context.Context, tx *gorm.DB, event *models.Event) error {
	return classify(tx.WithContext(ctx).Save(event).Error)
}

func (r *eventRepository) FindByInitiator(ctx context.Context, initiatorID uint, from, size int) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("initiator_id = ?", initiatorID).
		Order("id ASC").
		Offset(from).
		Limit(size).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Search returns every event matching filter ordered by id. Sorting by
// derived data and pagination happen after enrichment.
func (r *eventRepository) Search(ctx context.Context, filter EventFilter) ([]models.Event, error) {
	q := r.db.WithContext(ctx).Model(&models.Event{})
	if filter.Text != "" {
		pattern := "%" + filter.Text + "%"
		q = q.Where("annotation ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if len(filter.Categories) > 0 {
		q = q.Where("category_id IN ?", filter.Categories)
	}
	if filter.Paid != nil {
		q = q.Where("paid = ?", *filter.Paid)
	}
	if filter.RangeStart != nil {
		q = q.Where("event_date >= ?", *filter.RangeStart)
	}
	if filter.RangeEnd != nil {
		q = q.Where("event_date <= ?", *filter.RangeEnd)
	}
	if len(filter.States) > 0 {
		q = q.Where("state IN ?", filter.States)
	}
	if len(filter.Initiators) > 0 {
		q = q.Where("initiator_id IN ?", filter.Initiators)
	}

	var events []models.Event
	if err := q.Order("id ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
