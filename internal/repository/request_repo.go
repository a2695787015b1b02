package repository

import (
	"context"

	"github.com/Eursukkul/ewm-service/internal/models"
	"gorm.io/gorm"
)

type RequestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, req *models.Request) error
	FindByID(ctx context.Context, id uint) (*models.Request, error)
	FindByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]models.Request, error)
	FindByEventID(ctx context.Context, eventID uint) ([]models.Request, error)
	FindByRequesterID(ctx context.Context, requesterID uint) ([]models.Request, error)
	FindActiveByRequesterAndEvent(ctx context.Context, tx *gorm.DB, requesterID, eventID uint) (*models.Request, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.RequestStatus) error
	CountByStatus(ctx context.Context, tx *gorm.DB, eventID uint, status models.RequestStatus) (int64, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, tx *gorm.DB, req *models.Request) error {
	return classify(tx.WithContext(ctx).Create(req).Error)
}

func (r *requestRepository) FindByID(ctx context.Context, id uint) (*models.Request, error) {
	var req models.Request
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]models.Request, error) {
	var reqs []models.Request
	if len(ids) == 0 {
		return reqs, nil
	}
	if err := tx.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&reqs).Error; err != nil {
		return nil, classify(err)
	}
	return reqs, nil
}

func (r *requestRepository) FindByEventID(ctx context.Context, eventID uint) ([]models.Request, error) {
	var reqs []models.Request
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Order("id ASC").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *requestRepository) FindByRequesterID(ctx context.Context, requesterID uint) ([]models.Request, error) {
	var reqs []models.Request
	if err := r.db.WithContext(ctx).Where("requester_id = ?", requesterID).Order("id ASC").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *requestRepository) FindActiveByRequesterAndEvent(ctx context.Context, tx *gorm.DB, requesterID, eventID uint) (*models.Request, error) {
	var req models.Request
	err := tx.WithContext(ctx).
		Where("requester_id = ? AND event_id = ? AND status <> ?", requesterID, eventID, models.RequestCanceled).
		First(&req).Error
	if err != nil {
		return nil, classify(err)
	}
	return &req, nil
}

func (r *requestRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.RequestStatus) error {
	return classify(tx.WithContext(ctx).
		Model(&models.Request{}).
		Where("id = ?", id).
		Update("status", status).Error)
}

func (r *requestRepository) CountByStatus(ctx context.Context, tx *gorm.DB, eventID uint, status models.RequestStatus) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Request{}).
		Where("event_id = ? AND status = ?", eventID, status).
		Count(&count).Error
	return count, classify(err)
}
