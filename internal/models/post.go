package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a piece of member-authored content.
type Post struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	Title     string   `gorm:"not null" json:"title"`
	Content   string   `gorm:"type:text;not null" json:"content"`
	AccountID uint     `gorm:"not null;index" json:"account_id"`
	Account   *Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	// Hidden is mutated only by the moderation hide action.
	Hidden    bool           `gorm:"not null;default:false;index" json:"hidden"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
