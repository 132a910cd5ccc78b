package repository

import (
	"context"
	"errors"

	"peerhaven/internal/models"

	"gorm.io/gorm"
)

// ReportRepository defines persistence operations for content reports.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uint) (*models.Report, error)
	// ListPending returns every pending report with its post (including
	// soft-deleted posts) and the post author preloaded, oldest first.
	ListPending(ctx context.Context) ([]models.Report, error)
	// ResolveAllPending transitions every pending report on the post to the
	// given terminal status and returns how many rows changed. Zero rows is
	// not an error: a concurrent moderator may have resolved them already.
	ResolveAllPending(ctx context.Context, postID uint, to models.ReportStatus) (int64, error)
	// ResolveWhere transitions a single report from pending to the given
	// status. Returns false when the report already left pending.
	ResolveWhere(ctx context.Context, id uint, to models.ReportStatus) (bool, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository returns a new ReportRepository implementation.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Report", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &report, nil
}

func (r *reportRepository) ListPending(ctx context.Context) ([]models.Report, error) {
	var reports []models.Report
	if err := r.db.WithContext(ctx).
		Where("status = ?", models.ReportStatusPending).
		Preload("Post", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped()
		}).
		Preload("Post.Account").
		Order("created_at ASC").
		Find(&reports).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reports, nil
}

func (r *reportRepository) ResolveAllPending(ctx context.Context, postID uint, to models.ReportStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("post_id = ? AND status = ?", postID, models.ReportStatusPending).
		Update("status", to)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *reportRepository) ResolveWhere(ctx context.Context, id uint, to models.ReportStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("id = ? AND status = ?", id, models.ReportStatusPending).
		Update("status", to)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}
