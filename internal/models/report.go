package models

import "time"

// ReportStatus defines lifecycle states for content reports.
// A report is immutable once it leaves pending.
type ReportStatus string

const (
	// ReportStatusPending indicates the report is awaiting moderation.
	ReportStatusPending ReportStatus = "pending"
	// ReportStatusDismissed indicates a single report was dismissed without
	// touching sibling reports or the post.
	ReportStatusDismissed ReportStatus = "dismissed"
	// ReportStatusResolvedHidden indicates the reported post was hidden.
	ReportStatusResolvedHidden ReportStatus = "resolved_hidden"
	// ReportStatusResolvedIgnored indicates moderation chose to leave the
	// post visible.
	ReportStatusResolvedIgnored ReportStatus = "resolved_ignored"
)

// Report is one member's complaint about one post. Multiple reports may
// target the same post; the moderation queue groups them.
type Report struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	PostID     uint         `gorm:"not null;index" json:"post_id"`
	Post       *Post        `gorm:"foreignKey:PostID" json:"post,omitempty"`
	ReporterID uint         `gorm:"not null;index" json:"reporter_id"`
	Reporter   *Account     `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	Reason     string       `gorm:"type:text;not null" json:"reason"`
	Status     ReportStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// HighRiskReportThreshold is the pending-report count at or above which a
// post is flagged high risk in the moderation queue.
const HighRiskReportThreshold = 3

// AggregatedReport is one moderation-queue row: all pending reports on a
// single post collapsed together.
type AggregatedReport struct {
	PostID      uint      `json:"post_id"`
	Post        *Post     `json:"post,omitempty"`
	ReportCount int       `json:"report_count"`
	Reasons     []string  `json:"reasons"`
	IsHighRisk  bool      `json:"is_high_risk"`
	NewestAt    time.Time `json:"newest_at"`
	OldestAt    time.Time `json:"oldest_at"`
	// ContentUnavailable is set when the post row was deleted by an admin
	// after the reports were filed; the row still renders with a
	// placeholder instead of failing.
	ContentUnavailable bool `json:"content_unavailable,omitempty"`
}
