package repository

import (
	"context"
	"errors"
	"time"

	"peerhaven/internal/models"

	"gorm.io/gorm"
)

// ApplicationRepository defines persistence operations for helper applications.
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.HelperApplication) error
	GetByID(ctx context.Context, id uint) (*models.HelperApplication, error)
	ListByAccount(ctx context.Context, accountID uint) ([]models.HelperApplication, error)
	ListPending(ctx context.Context, limit, offset int) ([]models.HelperApplication, error)
	CountPendingByAccount(ctx context.Context, accountID uint) (int64, error)
	// MarkApprovedWhere transitions pending -> approved with reviewer and
	// timestamp. Returns false when the application already left pending.
	MarkApprovedWhere(ctx context.Context, id uint, reviewerID uint, approvedAt time.Time) (bool, error)
	// MarkRejectedWhere transitions pending -> rejected. Returns false when
	// the application already left pending.
	MarkRejectedWhere(ctx context.Context, id uint, reviewerID uint, notes string) (bool, error)
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository returns a new ApplicationRepository implementation.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, app *models.HelperApplication) error {
	if err := r.db.WithContext(ctx).Create(app).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id uint) (*models.HelperApplication, error) {
	var app models.HelperApplication
	if err := r.db.WithContext(ctx).Preload("Account").First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Helper application", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &app, nil
}

func (r *applicationRepository) ListByAccount(ctx context.Context, accountID uint) ([]models.HelperApplication, error) {
	var apps []models.HelperApplication
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&apps).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return apps, nil
}

func (r *applicationRepository) ListPending(ctx context.Context, limit, offset int) ([]models.HelperApplication, error) {
	var apps []models.HelperApplication
	if err := r.db.WithContext(ctx).
		Where("status = ?", models.ApplicationStatusPending).
		Preload("Account").
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&apps).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return apps, nil
}

func (r *applicationRepository) CountPendingByAccount(ctx context.Context, accountID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.HelperApplication{}).
		Where("account_id = ? AND status = ?", accountID, models.ApplicationStatusPending).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *applicationRepository) MarkApprovedWhere(ctx context.Context, id uint, reviewerID uint, approvedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.HelperApplication{}).
		Where("id = ? AND status = ?", id, models.ApplicationStatusPending).
		Updates(map[string]any{
			"status":         models.ApplicationStatusApproved,
			"reviewed_by_id": reviewerID,
			"approved_at":    approvedAt,
		})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *applicationRepository) MarkRejectedWhere(ctx context.Context, id uint, reviewerID uint, notes string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.HelperApplication{}).
		Where("id = ? AND status = ?", id, models.ApplicationStatusPending).
		Updates(map[string]any{
			"status":         models.ApplicationStatusRejected,
			"reviewed_by_id": reviewerID,
			"review_notes":   notes,
		})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}
