package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"peerhaven/internal/middleware"
	"peerhaven/internal/models"
	"peerhaven/internal/repository"
)

// RevokeInput describes one peer-helper revocation.
type RevokeInput struct {
	AccountID uint
	Reason    string
	ActorID   uint
}

// RoleService manages the helper-application lifecycle, peer-helper role
// elevation and revocation, and the task reassignment that keeps help
// request assignments consistent with role changes.
type RoleService struct {
	applications repository.ApplicationRepository
	accounts     repository.AccountRepository
	requests     repository.HelpRequestRepository
	audit        repository.AuditRepository
	now          func() time.Time
}

// NewRoleService returns a new RoleService.
func NewRoleService(
	applications repository.ApplicationRepository,
	accounts repository.AccountRepository,
	requests repository.HelpRequestRepository,
	audit repository.AuditRepository,
) *RoleService {
	return &RoleService{
		applications: applications,
		accounts:     accounts,
		requests:     requests,
		audit:        audit,
		now:          time.Now,
	}
}

// Apply submits a helper application. An account may hold at most one
// pending application, and existing peer helpers cannot apply again.
func (s *RoleService) Apply(ctx context.Context, accountID uint, motivation, experience string) (*models.HelperApplication, error) {
	if strings.TrimSpace(motivation) == "" {
		return nil, models.NewValidationError("Motivation is required")
	}

	account, err := s.accounts.GetByIDFresh(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Role != models.RoleUser {
		return nil, models.NewValidationError("Only regular members may apply to become a peer helper")
	}

	pending, err := s.applications.CountPendingByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, models.NewValidationError("You already have a pending helper application")
	}

	app := &models.HelperApplication{
		AccountID:  accountID,
		Motivation: strings.TrimSpace(motivation),
		Experience: strings.TrimSpace(experience),
		Status:     models.ApplicationStatusPending,
	}
	if err := s.applications.Create(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// ListPending returns applications awaiting review.
func (s *RoleService) ListPending(ctx context.Context, actorID uint, limit, offset int) ([]models.HelperApplication, error) {
	if err := s.requireReviewer(ctx, actorID); err != nil {
		return nil, err
	}
	return s.applications.ListPending(ctx, limit, offset)
}

// ListMine returns the caller's own applications.
func (s *RoleService) ListMine(ctx context.Context, accountID uint) ([]models.HelperApplication, error) {
	return s.applications.ListByAccount(ctx, accountID)
}

// Approve marks the application approved and promotes the applicant to peer
// helper. The two writes form a saga: when a previous attempt marked the
// application approved but the role write was lost, re-approving completes
// the missing half instead of erroring. A fully applied approval is a benign
// no-op. The audit entry carries a deterministic event ID so the retry path
// never logs the decision twice.
func (s *RoleService) Approve(ctx context.Context, applicationID, actorID uint) error {
	if err := s.requireReviewer(ctx, actorID); err != nil {
		return err
	}

	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return err
	}

	switch app.Status {
	case models.ApplicationStatusRejected:
		return models.NewPreconditionFailedError("Application has already been rejected")
	case models.ApplicationStatusPending:
		applied, markErr := s.applications.MarkApprovedWhere(ctx, applicationID, actorID, s.now())
		if markErr != nil {
			return markErr
		}
		if !applied {
			// Lost a race with another reviewer. Fall through to the repair
			// check so a concurrent approve still converges.
			fresh, freshErr := s.applications.GetByID(ctx, applicationID)
			if freshErr != nil {
				return freshErr
			}
			if fresh.Status == models.ApplicationStatusRejected {
				return models.NewPreconditionFailedError("Application has already been rejected")
			}
		}
	case models.ApplicationStatusApproved:
		// Repair path: the application half already committed.
	}

	promoted, err := s.accounts.SetRoleWhere(ctx, app.AccountID, models.RoleUser, models.RolePeerHelper)
	if err != nil {
		return err
	}

	applicant, err := s.accounts.GetByIDFresh(ctx, app.AccountID)
	if err != nil {
		return err
	}
	if applicant.Role != models.RolePeerHelper {
		// The conditional role write found neither user nor peer_helper:
		// the account was elevated elsewhere in the meantime.
		return models.NewPreconditionFailedError("Applicant account is no longer eligible for promotion")
	}

	if promoted {
		middleware.ModerationActions.WithLabelValues("helper_approved").Inc()
	}
	s.appendAudit(ctx, &models.AuditLogEntry{
		EventID:    fmt.Sprintf("helper-approved-%d", applicationID),
		ActorID:    &actorID,
		Action:     models.AuditActionHelperApproved,
		TargetType: models.AuditTargetApplication,
		TargetID:   applicationID,
	})
	return nil
}

// Reject marks the application rejected. No account mutation occurs.
// An already-rejected application is a benign no-op; an approved one is a
// precondition failure.
func (s *RoleService) Reject(ctx context.Context, applicationID, actorID uint, notes string) error {
	if err := s.requireReviewer(ctx, actorID); err != nil {
		return err
	}

	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if app.Status == models.ApplicationStatusRejected {
		return nil
	}
	if app.Status == models.ApplicationStatusApproved {
		return models.NewPreconditionFailedError("Application has already been approved")
	}

	applied, err := s.applications.MarkRejectedWhere(ctx, applicationID, actorID, notes)
	if err != nil {
		return err
	}
	if !applied {
		return models.NewPreconditionFailedError("Application has already been reviewed")
	}

	s.appendAudit(ctx, &models.AuditLogEntry{
		EventID:    fmt.Sprintf("helper-rejected-%d", applicationID),
		ActorID:    &actorID,
		Action:     models.AuditActionHelperRejected,
		TargetType: models.AuditTargetApplication,
		TargetID:   applicationID,
		Reason:     notes,
	})
	return nil
}

// Revoke strips the peer-helper role and returns every task the helper was
// assigned but had not yet accepted to the pool. In-progress and completed
// tasks are intentionally left untouched: an in-progress task carries live
// conversation state that abrupt reassignment would corrupt. Exactly one
// audit entry records the decision.
func (s *RoleService) Revoke(ctx context.Context, in RevokeInput) error {
	if strings.TrimSpace(in.Reason) == "" {
		return models.NewValidationError("Revocation reason is required")
	}
	if err := s.requireReviewer(ctx, in.ActorID); err != nil {
		return err
	}

	target, err := s.accounts.GetByIDFresh(ctx, in.AccountID)
	if err != nil {
		return err
	}
	switch target.Role {
	case models.RolePeerHelper:
		// proceed
	case models.RoleUser:
		// Already revoked: the end state matches the intent.
		return nil
	default:
		return models.NewPreconditionFailedError("Account is not a peer helper")
	}

	demoted, err := s.accounts.SetRoleWhere(ctx, in.AccountID, models.RolePeerHelper, models.RoleUser)
	if err != nil {
		return err
	}
	if !demoted {
		// Concurrent revoke won; treat as done.
		return nil
	}

	reset, err := s.requests.ResetAssignedByHelper(ctx, in.AccountID)
	if err != nil {
		// Role change committed but the reassignment half failed. The next
		// revoke retry cannot repair it (role already user), so surface the
		// error after logging; an operator rerun of assignment cleanup is
		// idempotent.
		middleware.Logger.ErrorContext(ctx, "task reassignment failed after revocation",
			slog.Uint64("helper_id", uint64(in.AccountID)),
			slog.String("error", err.Error()),
		)
		return err
	}

	middleware.ModerationActions.WithLabelValues("helper_revoked").Inc()
	s.appendAudit(ctx, &models.AuditLogEntry{
		ActorID:    &in.ActorID,
		Action:     models.AuditActionHelperRevoked,
		TargetType: models.AuditTargetAccount,
		TargetID:   in.AccountID,
		Reason:     fmt.Sprintf("%s (reassigned %d tasks)", in.Reason, reset),
	})
	return nil
}

func (s *RoleService) requireReviewer(ctx context.Context, actorID uint) error {
	actor, err := s.accounts.GetByIDFresh(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.CanReviewApplications() {
		return models.NewForbiddenError("Only counselors may review helper applications")
	}
	return nil
}

func (s *RoleService) appendAudit(ctx context.Context, entry *models.AuditLogEntry) {
	if err := s.audit.Append(ctx, entry); err != nil {
		middleware.Logger.ErrorContext(ctx, "audit append failed",
			slog.String("action", string(entry.Action)),
			slog.Uint64("target_id", uint64(entry.TargetID)),
			slog.String("error", err.Error()),
		)
	}
}
