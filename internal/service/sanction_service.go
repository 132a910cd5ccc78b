// Package service implements the trust and moderation lifecycle logic.
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

// BanInput describes one ban request. A zero Duration means permanent.
type BanInput struct {
	TargetID uint
	Duration time.Duration
	Reason   string
	ActorID  uint
}

// SanctionService owns the ban/unban state machine for accounts, including
// lazy expiry reconciliation on read paths.
type SanctionService struct {
	accounts repository.AccountRepository
	requests repository.HelpRequestRepository
	audit    repository.AuditRepository
	now      func() time.Time
}

// NewSanctionService returns a new SanctionService.
func NewSanctionService(
	accounts repository.AccountRepository,
	requests repository.HelpRequestRepository,
	audit repository.AuditRepository,
) *SanctionService {
	return &SanctionService{
		accounts: accounts,
		requests: requests,
		audit:    audit,
		now:      time.Now,
	}
}

// Ban sanctions the target account. Admin accounts cannot be banned and the
// reason is mandatory. The audit entry is written only after the state write
// is confirmed. Banning a peer helper also returns their not-yet-accepted
// tasks to the assignment pool so no orphaned assignment survives.
func (s *SanctionService) Ban(ctx context.Context, in BanInput) error {
	if strings.TrimSpace(in.Reason) == "" {
		return models.NewValidationError("Ban reason is required")
	}

	actor, err := s.accounts.GetByIDFresh(ctx, in.ActorID)
	if err != nil {
		return err
	}
	if !actor.CanModerate() {
		return models.NewForbiddenError("Only moderators may apply sanctions")
	}

	target, err := s.accounts.GetByIDFresh(ctx, in.TargetID)
	if err != nil {
		return err
	}
	if target.Role == models.RoleAdmin {
		return models.NewForbiddenError("Admin accounts cannot be banned")
	}

	var expiresAt *time.Time
	if in.Duration > 0 {
		t := s.now().Add(in.Duration)
		expiresAt = &t
	}

	applied, err := s.accounts.SetBanWhere(ctx, in.TargetID, expiresAt)
	if err != nil {
		return err
	}
	if !applied {
		// Another moderator already banned the account; the end state
		// matches the intent, so report success without a second audit
		// entry.
		return nil
	}

	if target.Role == models.RolePeerHelper {
		if _, resetErr := s.requests.ResetAssignedByHelper(ctx, in.TargetID); resetErr != nil {
			middleware.Logger.ErrorContext(ctx, "failed to reset assigned tasks after ban",
				slog.Uint64("helper_id", uint64(in.TargetID)),
				slog.String("error", resetErr.Error()),
			)
		}
	}

	middleware.SanctionsApplied.WithLabelValues("ban").Inc()

	reason := in.Reason
	if in.Duration > 0 {
		reason = fmt.Sprintf("%s (temporary, %s)", in.Reason, in.Duration)
	} else {
		reason = fmt.Sprintf("%s (permanent)", in.Reason)
	}
	s.appendAudit(ctx, &models.AuditLogEntry{
		ActorID:    &in.ActorID,
		Action:     models.AuditActionBan,
		TargetType: models.AuditTargetAccount,
		TargetID:   in.TargetID,
		Reason:     reason,
	})
	return nil
}

// Unban clears a sanction. Unbanning an account that is already active is a
// benign no-op and writes no audit entry.
func (s *SanctionService) Unban(ctx context.Context, targetID, actorID uint) error {
	actor, err := s.accounts.GetByIDFresh(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.CanModerate() {
		return models.NewForbiddenError("Only moderators may apply sanctions")
	}

	if _, err := s.accounts.GetByIDFresh(ctx, targetID); err != nil {
		return err
	}

	applied, err := s.accounts.ClearBanWhere(ctx, targetID)
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	middleware.SanctionsApplied.WithLabelValues("unban").Inc()
	s.appendAudit(ctx, &models.AuditLogEntry{
		ActorID:    &actorID,
		Action:     models.AuditActionUnban,
		TargetType: models.AuditTargetAccount,
		TargetID:   targetID,
	})
	return nil
}

// ReconcileExpired corrects expired temporary bans in the given batch.
// It is called opportunistically by read paths, never by a timer; stored
// state may be arbitrarily stale between calls. The returned batch always
// reflects the corrected states, even when a persist fails: the write is
// best-effort and idempotent, so the next read path retries it.
func (s *SanctionService) ReconcileExpired(ctx context.Context, accounts []models.Account) []models.Account {
	now := s.now()
	for i := range accounts {
		a := &accounts[i]
		if a.Status != models.StatusBanned || a.BanExpiresAt == nil || now.Before(*a.BanExpiresAt) {
			continue
		}

		applied, err := s.accounts.ClearExpiredBan(ctx, a.ID, *a.BanExpiresAt)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "ban expiry persist failed, correcting in memory only",
				slog.Uint64("account_id", uint64(a.ID)),
				slog.String("error", err.Error()),
			)
		} else if applied {
			middleware.BanExpiryCorrections.Inc()
			// A nil ActorID marks a system correction, not a moderator decision.
			s.appendAudit(ctx, &models.AuditLogEntry{
				EventID:    fmt.Sprintf("ban-expired-%d-%d", a.ID, a.BanExpiresAt.Unix()),
				Action:     models.AuditActionBanExpired,
				TargetType: models.AuditTargetAccount,
				TargetID:   a.ID,
			})
		}

		a.Status = models.StatusActive
		a.BanExpiresAt = nil
	}
	return accounts
}

// IsEffectivelyBanned reports the target's sanction state after accounting
// for temporary-ban expiry, persisting any correction it discovers.
func (s *SanctionService) IsEffectivelyBanned(ctx context.Context, accountID uint) (bool, error) {
	account, err := s.accounts.GetByIDFresh(ctx, accountID)
	if err != nil {
		return false, err
	}
	corrected := s.ReconcileExpired(ctx, []models.Account{*account})
	return corrected[0].Status == models.StatusBanned, nil
}

func (s *SanctionService) appendAudit(ctx context.Context, entry *models.AuditLogEntry) {
	if err := s.audit.Append(ctx, entry); err != nil {
		middleware.Logger.ErrorContext(ctx, "audit append failed",
			slog.String("action", string(entry.Action)),
			slog.Uint64("target_id", uint64(entry.TargetID)),
			slog.String("error", err.Error()),
		)
	}
}
