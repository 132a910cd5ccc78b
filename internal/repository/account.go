// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"peerhaven/internal/cache"
	"peerhaven/internal/models"

	"gorm.io/gorm"
)

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Account, error)
	// GetByIDFresh bypasses the cache. Sanction and role preconditions must
	// never be evaluated against a cached row.
	GetByIDFresh(ctx context.Context, id uint) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
	Update(ctx context.Context, account *models.Account) error
	List(ctx context.Context, limit, offset int) ([]models.Account, error)
	ListByRole(ctx context.Context, role models.Role, limit, offset int) ([]models.Account, error)

	// SetBanWhere flips status active -> banned with the given expiry.
	// Returns false when the guard did not match (already banned).
	SetBanWhere(ctx context.Context, id uint, expiresAt *time.Time) (bool, error)
	// ClearBanWhere flips status banned -> active and clears the expiry.
	// Returns false when the account was not banned.
	ClearBanWhere(ctx context.Context, id uint) (bool, error)
	// ClearExpiredBan clears a ban only if the stored expiry still matches,
	// so two concurrent sweeps cannot fight a newer re-ban.
	ClearExpiredBan(ctx context.Context, id uint, expiresAt time.Time) (bool, error)
	// SetRoleWhere changes the role only while the current role matches.
	SetRoleWhere(ctx context.Context, id uint, from, to models.Role) (bool, error)
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository returns a new AccountRepository implementation.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	key := cache.AccountKey(id)

	err := cache.Aside(ctx, key, &account, cache.AccountTTL, func() error {
		if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Account", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) GetByIDFresh(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Account", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &account, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Account", email)
		}
		return nil, models.NewInternalError(err)
	}
	return &account, nil
}

func (r *accountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Account", username)
		}
		return nil, models.NewInternalError(err)
	}
	return &account, nil
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *accountRepository) Update(ctx context.Context, account *models.Account) error {
	if err := r.db.WithContext(ctx).Save(account).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateAccount(ctx, account.ID)
	return nil
}

func (r *accountRepository) List(ctx context.Context, limit, offset int) ([]models.Account, error) {
	var accounts []models.Account
	if err := r.db.WithContext(ctx).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&accounts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return accounts, nil
}

func (r *accountRepository) ListByRole(ctx context.Context, role models.Role, limit, offset int) ([]models.Account, error) {
	var accounts []models.Account
	if err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&accounts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return accounts, nil
}

func (r *accountRepository) SetBanWhere(ctx context.Context, id uint, expiresAt *time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ? AND status = ?", id, models.StatusActive).
		Updates(map[string]any{
			"status":         models.StatusBanned,
			"ban_expires_at": expiresAt,
		})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		cache.InvalidateAccount(ctx, id)
	}
	return res.RowsAffected > 0, nil
}

func (r *accountRepository) ClearBanWhere(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ? AND status = ?", id, models.StatusBanned).
		Updates(map[string]any{
			"status":         models.StatusActive,
			"ban_expires_at": nil,
		})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		cache.InvalidateAccount(ctx, id)
	}
	return res.RowsAffected > 0, nil
}

func (r *accountRepository) ClearExpiredBan(ctx context.Context, id uint, expiresAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ? AND status = ? AND ban_expires_at = ?", id, models.StatusBanned, expiresAt).
		Updates(map[string]any{
			"status":         models.StatusActive,
			"ban_expires_at": nil,
		})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		cache.InvalidateAccount(ctx, id)
	}
	return res.RowsAffected > 0, nil
}

func (r *accountRepository) SetRoleWhere(ctx context.Context, id uint, from, to models.Role) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ? AND role = ?", id, from).
		Update("role", to)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		cache.InvalidateAccount(ctx, id)
	}
	return res.RowsAffected > 0, nil
}
