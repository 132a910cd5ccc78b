package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"peerhaven/internal/middleware"
	"peerhaven/internal/models"
	"peerhaven/internal/repository"
)

// Queue sort keys.
const (
	QueueSortNewest       = "newest"
	QueueSortOldest       = "oldest"
	QueueSortMostReported = "most_reported"
)

// ListQueueInput holds filter and sort parameters for the moderation queue.
type ListQueueInput struct {
	Sort   string
	Search string
}

// ModerationService turns the flat stream of reports into a deduplicated
// moderation queue and executes queue-level decisions.
type ModerationService struct {
	reports  repository.ReportRepository
	posts    repository.PostRepository
	accounts repository.AccountRepository
	audit    repository.AuditRepository
}

// NewModerationService returns a new ModerationService.
func NewModerationService(
	reports repository.ReportRepository,
	posts repository.PostRepository,
	accounts repository.AccountRepository,
	audit repository.AuditRepository,
) *ModerationService {
	return &ModerationService{
		reports:  reports,
		posts:    posts,
		accounts: accounts,
		audit:    audit,
	}
}

// FileReport records a member's complaint about a post.
func (s *ModerationService) FileReport(ctx context.Context, reporterID, postID uint, reason string) (*models.Report, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, models.NewValidationError("Report reason is required")
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	report := &models.Report{
		PostID:     postID,
		ReporterID: reporterID,
		Reason:     strings.TrimSpace(reason),
		Status:     models.ReportStatusPending,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}
	middleware.ReportsFiled.Inc()
	return report, nil
}

// ListQueue groups all pending reports by target post. Reasons are the set
// union in first-seen order; a post with three or more pending reports is
// flagged high risk. Posts deleted by an admin still render with a
// content-unavailable placeholder.
func (s *ModerationService) ListQueue(ctx context.Context, actorID uint, in ListQueueInput) ([]models.AggregatedReport, error) {
	if err := s.requireModerator(ctx, actorID); err != nil {
		return nil, err
	}

	pending, err := s.reports.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	groups := map[uint]*models.AggregatedReport{}
	var order []uint
	for i := range pending {
		r := &pending[i]
		agg, ok := groups[r.PostID]
		if !ok {
			agg = &models.AggregatedReport{
				PostID:   r.PostID,
				Post:     r.Post,
				NewestAt: r.CreatedAt,
				OldestAt: r.CreatedAt,
			}
			if r.Post == nil || r.Post.DeletedAt.Valid {
				agg.Post = nil
				agg.ContentUnavailable = true
			}
			groups[r.PostID] = agg
			order = append(order, r.PostID)
		}

		agg.ReportCount++
		if !containsFold(agg.Reasons, r.Reason) {
			agg.Reasons = append(agg.Reasons, r.Reason)
		}
		if r.CreatedAt.After(agg.NewestAt) {
			agg.NewestAt = r.CreatedAt
		}
		if r.CreatedAt.Before(agg.OldestAt) {
			agg.OldestAt = r.CreatedAt
		}
	}

	queue := make([]models.AggregatedReport, 0, len(order))
	for _, postID := range order {
		agg := groups[postID]
		agg.IsHighRisk = agg.ReportCount >= models.HighRiskReportThreshold
		if !matchesSearch(agg, in.Search) {
			continue
		}
		queue = append(queue, *agg)
	}

	sortQueue(queue, in.Sort)
	return queue, nil
}

// HidePost hides the post and resolves every pending report on it. The
// report-status writes are ordered before the hidden-flag write: a crash in
// between leaves reports resolved but content visible, the safer of the two
// partial states. A post with zero remaining pending reports is a benign
// no-op for the report half.
func (s *ModerationService) HidePost(ctx context.Context, actorID, postID uint) error {
	if err := s.requireModerator(ctx, actorID); err != nil {
		return err
	}
	if _, err := s.posts.GetByIDAny(ctx, postID); err != nil {
		return err
	}

	resolved, err := s.reports.ResolveAllPending(ctx, postID, models.ReportStatusResolvedHidden)
	if err != nil {
		return err
	}

	hidden, err := s.posts.SetHiddenWhere(ctx, postID, true)
	if err != nil {
		return err
	}
	if !hidden && resolved == 0 {
		// Already hidden and no pending reports: a concurrent moderator got
		// here first.
		return nil
	}

	middleware.ModerationActions.WithLabelValues("hide").Inc()
	s.appendAudit(ctx, &models.AuditLogEntry{
		ActorID:    &actorID,
		Action:     models.AuditActionPostHidden,
		TargetType: models.AuditTargetPost,
		TargetID:   postID,
	})
	return nil
}

// IgnoreAll resolves every pending report on the post without touching the
// post itself.
func (s *ModerationService) IgnoreAll(ctx context.Context, actorID, postID uint) error {
	if err := s.requireModerator(ctx, actorID); err != nil {
		return err
	}
	if _, err := s.posts.GetByIDAny(ctx, postID); err != nil {
		return err
	}

	resolved, err := s.reports.ResolveAllPending(ctx, postID, models.ReportStatusResolvedIgnored)
	if err != nil {
		return err
	}
	if resolved == 0 {
		return nil
	}

	middleware.ModerationActions.WithLabelValues("ignore").Inc()
	s.appendAudit(ctx, &models.AuditLogEntry{
		ActorID:    &actorID,
		Action:     models.AuditActionReportsIgnored,
		TargetType: models.AuditTargetPost,
		TargetID:   postID,
	})
	return nil
}

// Dismiss dismisses a single report without affecting sibling reports or the
// post. An already-resolved report is a benign no-op.
func (s *ModerationService) Dismiss(ctx context.Context, actorID, reportID uint) error {
	if err := s.requireModerator(ctx, actorID); err != nil {
		return err
	}
	if _, err := s.reports.GetByID(ctx, reportID); err != nil {
		return err
	}

	applied, err := s.reports.ResolveWhere(ctx, reportID, models.ReportStatusDismissed)
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	middleware.ModerationActions.WithLabelValues("dismiss").Inc()
	s.appendAudit(ctx, &models.AuditLogEntry{
		ActorID:    &actorID,
		Action:     models.AuditActionReportDismissed,
		TargetType: models.AuditTargetReport,
		TargetID:   reportID,
	})
	return nil
}

func (s *ModerationService) requireModerator(ctx context.Context, actorID uint) error {
	actor, err := s.accounts.GetByIDFresh(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.CanModerate() {
		return models.NewForbiddenError("Only moderators may act on the moderation queue")
	}
	return nil
}

func (s *ModerationService) appendAudit(ctx context.Context, entry *models.AuditLogEntry) {
	if err := s.audit.Append(ctx, entry); err != nil {
		middleware.Logger.ErrorContext(ctx, "audit append failed",
			slog.String("action", string(entry.Action)),
			slog.Uint64("target_id", uint64(entry.TargetID)),
			slog.String("error", err.Error()),
		)
	}
}

func sortQueue(queue []models.AggregatedReport, key string) {
	switch key {
	case QueueSortOldest:
		sort.SliceStable(queue, func(i, j int) bool {
			if queue[i].OldestAt.Equal(queue[j].OldestAt) {
				return queue[i].PostID < queue[j].PostID
			}
			return queue[i].OldestAt.Before(queue[j].OldestAt)
		})
	case QueueSortMostReported:
		sort.SliceStable(queue, func(i, j int) bool {
			if queue[i].ReportCount == queue[j].ReportCount {
				return queue[i].PostID < queue[j].PostID
			}
			return queue[i].ReportCount > queue[j].ReportCount
		})
	case QueueSortNewest:
		fallthrough
	default:
		sort.SliceStable(queue, func(i, j int) bool {
			if queue[i].NewestAt.Equal(queue[j].NewestAt) {
				return queue[i].PostID < queue[j].PostID
			}
			return queue[i].NewestAt.After(queue[j].NewestAt)
		})
	}
}

func matchesSearch(agg *models.AggregatedReport, search string) bool {
	search = strings.TrimSpace(search)
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	if agg.Post != nil {
		if strings.Contains(strings.ToLower(agg.Post.Title), needle) ||
			strings.Contains(strings.ToLower(agg.Post.Content), needle) {
			return true
		}
		if agg.Post.Account != nil &&
			strings.Contains(strings.ToLower(agg.Post.Account.Username), needle) {
			return true
		}
	}
	return false
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
