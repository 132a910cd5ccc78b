package repository

import (
	"context"
	"errors"
	"time"

	"peerhaven/internal/cache"
	"peerhaven/internal/models"

	"gorm.io/gorm"
)

// HelpRequestRepository defines persistence operations for help requests and
// their chat messages.
type HelpRequestRepository interface {
	Create(ctx context.Context, req *models.HelpRequest) error
	GetByID(ctx context.Context, id uint) (*models.HelpRequest, error)
	ListByRequester(ctx context.Context, requesterID uint, limit, offset int) ([]models.HelpRequest, error)
	ListByHelper(ctx context.Context, helperID uint, limit, offset int) ([]models.HelpRequest, error)
	ListByStatus(ctx context.Context, status models.HelpRequestStatus, limit, offset int) ([]models.HelpRequest, error)

	// AssignWhere transitions pending -> assigned with the given helper.
	AssignWhere(ctx context.Context, id, helperID uint) (bool, error)
	// AcceptWhere transitions assigned -> in_progress, guarded on the
	// assigned helper.
	AcceptWhere(ctx context.Context, id, helperID uint, acceptedAt time.Time) (bool, error)
	// CompleteWhere transitions in_progress -> completed, guarded on the
	// assigned helper.
	CompleteWhere(ctx context.Context, id, helperID uint, completedAt time.Time) (bool, error)
	// ResetAssignedByHelper returns every task the helper has been assigned
	// but not yet accepted to the pool. In-progress and completed tasks are
	// left untouched.
	ResetAssignedByHelper(ctx context.Context, helperID uint) (int64, error)

	CreateMessage(ctx context.Context, msg *models.HelpMessage) error
	ListMessages(ctx context.Context, requestID uint, limit, offset int) ([]models.HelpMessage, error)
}

type helpRequestRepository struct {
	db *gorm.DB
}

// NewHelpRequestRepository returns a new HelpRequestRepository implementation.
func NewHelpRequestRepository(db *gorm.DB) HelpRequestRepository {
	return &helpRequestRepository{db: db}
}

func (r *helpRequestRepository) Create(ctx context.Context, req *models.HelpRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *helpRequestRepository) GetByID(ctx context.Context, id uint) (*models.HelpRequest, error) {
	var req models.HelpRequest
	err := cache.Aside(ctx, cache.HelpRequestKey(id), &req, cache.HelpRequestTTL, func() error {
		return r.db.WithContext(ctx).
			Preload("Requester").
			Preload("AssignedHelper").
			First(&req, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Help request", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

func (r *helpRequestRepository) ListByRequester(ctx context.Context, requesterID uint, limit, offset int) ([]models.HelpRequest, error) {
	return r.list(ctx, r.db.Where("requester_id = ?", requesterID), limit, offset)
}

func (r *helpRequestRepository) ListByHelper(ctx context.Context, helperID uint, limit, offset int) ([]models.HelpRequest, error) {
	return r.list(ctx, r.db.Where("assigned_helper_id = ?", helperID), limit, offset)
}

func (r *helpRequestRepository) ListByStatus(ctx context.Context, status models.HelpRequestStatus, limit, offset int) ([]models.HelpRequest, error) {
	return r.list(ctx, r.db.Where("status = ?", status), limit, offset)
}

func (r *helpRequestRepository) list(ctx context.Context, q *gorm.DB, limit, offset int) ([]models.HelpRequest, error) {
	var reqs []models.HelpRequest
	if err := q.WithContext(ctx).
		Preload("Requester").
		Preload("AssignedHelper").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reqs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

func (r *helpRequestRepository) AssignWhere(ctx context.Context, id, helperID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.HelpRequest{}).
		Where("id = ? AND status = ?", id, models.HelpRequestStatusPending).
		Updates(map[string]any{
			"status":             models.HelpRequestStatusAssigned,
			"assigned_helper_id": helperID,
		})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		cache.InvalidateHelpRequest(ctx, id)
	}
	return res.RowsAffected > 0, nil
}

func (r *helpRequestRepository) AcceptWhere(ctx context.Context, id, helperID uint, acceptedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.HelpRequest{}).
		Where("id = ? AND status = ? AND assigned_helper_id = ?", id, models.HelpRequestStatusAssigned, helperID).
		Updates(map[string]any{
			"status":      models.HelpRequestStatusInProgress,
			"accepted_at": acceptedAt,
		})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		cache.InvalidateHelpRequest(ctx, id)
	}
	return res.RowsAffected > 0, nil
}

func (r *helpRequestRepository) CompleteWhere(ctx context.Context, id, helperID uint, completedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.HelpRequest{}).
		Where("id = ? AND status = ? AND assigned_helper_id = ?", id, models.HelpRequestStatusInProgress, helperID).
		Updates(map[string]any{
			"status":       models.HelpRequestStatusCompleted,
			"completed_at": completedAt,
		})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		cache.InvalidateHelpRequest(ctx, id)
	}
	return res.RowsAffected > 0, nil
}

func (r *helpRequestRepository) ResetAssignedByHelper(ctx context.Context, helperID uint) (int64, error) {
	// IDs are collected up front so each reset row can be invalidated.
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.HelpRequest{}).
		Where("assigned_helper_id = ? AND status = ?", helperID, models.HelpRequestStatusAssigned).
		Pluck("id", &ids).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res := r.db.WithContext(ctx).
		Model(&models.HelpRequest{}).
		Where("id IN ? AND assigned_helper_id = ? AND status = ?", ids, helperID, models.HelpRequestStatusAssigned).
		Updates(map[string]any{
			"status":             models.HelpRequestStatusPending,
			"assigned_helper_id": nil,
		})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	for _, id := range ids {
		cache.InvalidateHelpRequest(ctx, id)
	}
	return res.RowsAffected, nil
}

func (r *helpRequestRepository) CreateMessage(ctx context.Context, msg *models.HelpMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *helpRequestRepository) ListMessages(ctx context.Context, requestID uint, limit, offset int) ([]models.HelpMessage, error) {
	var msgs []models.HelpMessage
	if err := r.db.WithContext(ctx).
		Where("help_request_id = ?", requestID).
		Preload("Sender").
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}
