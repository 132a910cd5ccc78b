package models

import "time"

// HelperApplicationStatus defines lifecycle states for peer-helper
// applications. Approved and rejected are terminal.
type HelperApplicationStatus string

const (
	// ApplicationStatusPending indicates the application is awaiting review.
	ApplicationStatusPending HelperApplicationStatus = "pending"
	// ApplicationStatusApproved indicates the application was accepted and
	// the applicant promoted to peer helper.
	ApplicationStatusApproved HelperApplicationStatus = "approved"
	// ApplicationStatusRejected indicates the application was denied.
	ApplicationStatusRejected HelperApplicationStatus = "rejected"
)

// HelperApplication is a member's request to be elevated to peer helper.
// The workflow enforces at most one pending application per account.
type HelperApplication struct {
	ID           uint                    `gorm:"primaryKey" json:"id"`
	AccountID    uint                    `gorm:"not null;index" json:"account_id"`
	Account      *Account                `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Motivation   string                  `gorm:"type:text;not null" json:"motivation"`
	Experience   string                  `gorm:"type:text" json:"experience"`
	Status       HelperApplicationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReviewedByID *uint                   `json:"reviewed_by_id,omitempty"`
	ReviewedBy   *Account                `gorm:"foreignKey:ReviewedByID" json:"reviewed_by,omitempty"`
	ReviewNotes  string                  `gorm:"type:text" json:"review_notes"`
	ApprovedAt   *time.Time              `json:"approved_at,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}
