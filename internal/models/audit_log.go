package models

import "time"

// AuditAction identifies the kind of decision recorded in the audit log.
type AuditAction string

const (
	AuditActionBan               AuditAction = "account.ban"
	AuditActionUnban             AuditAction = "account.unban"
	AuditActionBanExpired        AuditAction = "account.ban_expired"
	AuditActionPostHidden        AuditAction = "post.hidden"
	AuditActionReportsIgnored    AuditAction = "post.reports_ignored"
	AuditActionReportDismissed   AuditAction = "report.dismissed"
	AuditActionHelperApproved    AuditAction = "helper.approved"
	AuditActionHelperRejected    AuditAction = "helper.rejected"
	AuditActionHelperRevoked     AuditAction = "helper.revoked"
	AuditActionRequestAssigned   AuditAction = "help_request.assigned"
	AuditActionRequestReassigned AuditAction = "help_request.reassigned"
)

// AuditTargetType labels what kind of entity an audit entry refers to.
type AuditTargetType string

const (
	AuditTargetAccount     AuditTargetType = "account"
	AuditTargetPost        AuditTargetType = "post"
	AuditTargetReport      AuditTargetType = "report"
	AuditTargetApplication AuditTargetType = "helper_application"
	AuditTargetHelpRequest AuditTargetType = "help_request"
)

// AuditLogEntry records one sanction, role, or moderation decision.
// Rows are append-only: never mutated, never deleted. EventID is a dedupe
// key so a retried saga step cannot log the same decision twice.
// A nil ActorID marks a system-initiated entry (e.g. a ban expiry
// correction); the column is nullable so the actor foreign key admits it.
type AuditLogEntry struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	EventID    string          `gorm:"type:varchar(36);not null;uniqueIndex" json:"event_id"`
	ActorID    *uint           `gorm:"index" json:"actor_id,omitempty"`
	Actor      *Account        `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Action     AuditAction     `gorm:"type:varchar(40);not null;index" json:"action"`
	TargetType AuditTargetType `gorm:"type:varchar(30);not null" json:"target_type"`
	TargetID   uint            `gorm:"not null;index" json:"target_id"`
	Reason     string          `gorm:"type:text" json:"reason"`
	CreatedAt  time.Time       `gorm:"index" json:"created_at"`
}
