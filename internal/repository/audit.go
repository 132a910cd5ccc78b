package repository

import (
	"context"

	"peerhaven/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuditRepository defines persistence operations for the append-only audit log.
type AuditRepository interface {
	// Append writes one audit entry. A missing EventID gets a fresh UUID;
	// a duplicate EventID is silently skipped so retried sagas never log
	// the same decision twice.
	Append(ctx context.Context, entry *models.AuditLogEntry) error
	ListByTarget(ctx context.Context, targetType models.AuditTargetType, targetID uint, limit, offset int) ([]models.AuditLogEntry, error)
	ListByActor(ctx context.Context, actorID uint, limit, offset int) ([]models.AuditLogEntry, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository returns a new AuditRepository implementation.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, entry *models.AuditLogEntry) error {
	if entry.EventID == "" {
		entry.EventID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(entry).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *auditRepository) ListByTarget(ctx context.Context, targetType models.AuditTargetType, targetID uint, limit, offset int) ([]models.AuditLogEntry, error) {
	var entries []models.AuditLogEntry
	if err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}

func (r *auditRepository) ListByActor(ctx context.Context, actorID uint, limit, offset int) ([]models.AuditLogEntry, error) {
	var entries []models.AuditLogEntry
	if err := r.db.WithContext(ctx).
		Where("actor_id = ?", actorID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}
