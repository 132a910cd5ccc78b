package models

import "time"

// HelpRequestStatus defines the linear task lifecycle of a help request.
// There are no cycles and no cancellation state.
type HelpRequestStatus string

const (
	// HelpRequestStatusPending indicates the request is waiting in the
	// assignment pool.
	HelpRequestStatusPending HelpRequestStatus = "pending"
	// HelpRequestStatusAssigned indicates a counselor picked a helper who
	// has not yet accepted.
	HelpRequestStatusAssigned HelpRequestStatus = "assigned"
	// HelpRequestStatusInProgress indicates the assigned helper accepted;
	// chat is open only in this state.
	HelpRequestStatusInProgress HelpRequestStatus = "in_progress"
	// HelpRequestStatusCompleted indicates the helper closed the request.
	HelpRequestStatusCompleted HelpRequestStatus = "completed"
)

// HelpRequest is a member's request for one-on-one peer support.
// Invariant: AssignedHelperID, when non-nil, references an account whose role
// is peer helper and who is not banned; the role workflow restores this when
// a helper is revoked or banned.
type HelpRequest struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	RequesterID      uint              `gorm:"not null;index" json:"requester_id"`
	Requester        *Account          `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	AssignedHelperID *uint             `gorm:"index" json:"assigned_helper_id,omitempty"`
	AssignedHelper   *Account          `gorm:"foreignKey:AssignedHelperID" json:"assigned_helper,omitempty"`
	Title            string            `gorm:"not null" json:"title"`
	Description      string            `gorm:"type:text" json:"description"`
	Status           HelpRequestStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	AcceptedAt       *time.Time        `json:"accepted_at,omitempty"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// HelpMessage is one chat message exchanged inside an in-progress help
// request.
type HelpMessage struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	HelpRequestID uint      `gorm:"not null;index" json:"help_request_id"`
	SenderID      uint      `gorm:"not null;index" json:"sender_id"`
	Sender        *Account  `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Body          string    `gorm:"type:text;not null" json:"body"`
	CreatedAt     time.Time `json:"created_at"`
}
