package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Role is the trust level of an account. Roles form a ladder: each level
// keeps the capabilities of the ones below it.
type Role string

const (
	RoleUser       Role = "user"
	RolePeerHelper Role = "peer_helper"
	RoleCounselor  Role = "counselor"
	RoleModerator  Role = "moderator"
	RoleAdmin      Role = "admin"
)

// ParseRole normalizes a raw role string. Unknown values fall back to the
// base user role rather than failing.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RolePeerHelper:
		return RolePeerHelper
	case RoleCounselor:
		return RoleCounselor
	case RoleModerator:
		return RoleModerator
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// AccountStatus is the stored sanction state of an account.
type AccountStatus string

const (
	StatusActive AccountStatus = "active"
	StatusBanned AccountStatus = "banned"
)

// Account represents a registered member of the community.
type Account struct {
	ID       uint          `gorm:"primaryKey" json:"id"`
	Username string        `gorm:"uniqueIndex;not null" json:"username"`
	Email    string        `gorm:"uniqueIndex;not null" json:"email"`
	Password string        `gorm:"not null" json:"-"`
	Role     Role          `gorm:"type:varchar(20);not null;default:'user';index" json:"role"`
	Status   AccountStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	// BanExpiresAt is nil for permanent bans and for active accounts.
	// Stored state may lag reality; readers must go through EffectiveStatus
	// or the sanction service sweep.
	BanExpiresAt *time.Time     `json:"ban_expires_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// EffectiveStatus returns the sanction state at the given instant,
// treating a lapsed temporary ban as active even before the stored row
// has been corrected.
func (a *Account) EffectiveStatus(now time.Time) AccountStatus {
	if a.Status == StatusBanned && a.BanExpiresAt != nil && !now.Before(*a.BanExpiresAt) {
		return StatusActive
	}
	return a.Status
}

// IsEffectivelyBanned reports whether the account is banned at the given
// instant, expiry-aware.
func (a *Account) IsEffectivelyBanned(now time.Time) bool {
	return a.EffectiveStatus(now) == StatusBanned
}

// CanModerate reports whether the role may act on the moderation queue
// and apply sanctions.
func (a *Account) CanModerate() bool {
	return a.Role == RoleModerator || a.Role == RoleAdmin
}

// CanReviewApplications reports whether the role may review helper
// applications and coordinate help-request assignment.
func (a *Account) CanReviewApplications() bool {
	return a.Role == RoleCounselor || a.Role == RoleModerator || a.Role == RoleAdmin
}
