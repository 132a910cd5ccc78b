package service

import (
	"context"
	"strings"
	"time"

	"peerhaven/internal/middleware"
	"peerhaven/internal/models"
	"peerhaven/internal/repository"
)

// HelpRequestService drives a help request through its linear task
// lifecycle and gates chat access on it. Chat is open only while the
// request is in progress: "assigned" means the helper has not yet accepted,
// so neither party can message until acceptance.
type HelpRequestService struct {
	requests  repository.HelpRequestRepository
	accounts  repository.AccountRepository
	sanctions *SanctionService
	now       func() time.Time
}

// NewHelpRequestService returns a new HelpRequestService.
func NewHelpRequestService(
	requests repository.HelpRequestRepository,
	accounts repository.AccountRepository,
	sanctions *SanctionService,
) *HelpRequestService {
	return &HelpRequestService{
		requests:  requests,
		accounts:  accounts,
		sanctions: sanctions,
		now:       time.Now,
	}
}

// Create opens a new help request in the pending pool.
func (s *HelpRequestService) Create(ctx context.Context, requesterID uint, title, description string) (*models.HelpRequest, error) {
	if strings.TrimSpace(title) == "" {
		return nil, models.NewValidationError("Title is required")
	}

	req := &models.HelpRequest{
		RequesterID: requesterID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Status:      models.HelpRequestStatusPending,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	middleware.HelpRequestTransitions.WithLabelValues(string(models.HelpRequestStatusPending)).Inc()
	return req, nil
}

// Get returns one help request.
func (s *HelpRequestService) Get(ctx context.Context, id uint) (*models.HelpRequest, error) {
	return s.requests.GetByID(ctx, id)
}

// ListPool returns unassigned requests waiting for a helper.
func (s *HelpRequestService) ListPool(ctx context.Context, actorID uint, limit, offset int) ([]models.HelpRequest, error) {
	actor, err := s.accounts.GetByIDFresh(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.CanReviewApplications() {
		return nil, models.NewForbiddenError("Only counselors may browse the assignment pool")
	}
	return s.requests.ListByStatus(ctx, models.HelpRequestStatusPending, limit, offset)
}

// ListMine returns requests the account opened, plus those assigned to it
// when the account is a helper.
func (s *HelpRequestService) ListMine(ctx context.Context, accountID uint, limit, offset int) ([]models.HelpRequest, error) {
	mine, err := s.requests.ListByRequester(ctx, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	assigned, err := s.requests.ListByHelper(ctx, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	seen := make(map[uint]bool, len(mine))
	for _, r := range mine {
		seen[r.ID] = true
	}
	for _, r := range assigned {
		if !seen[r.ID] {
			mine = append(mine, r)
		}
	}
	return mine, nil
}

// Assign moves a pending request to a helper. The helper must currently hold
// the peer-helper role and must not be effectively banned; the check is
// expiry-aware so a lapsed temporary ban does not block assignment.
// Re-assigning the same helper is a benign no-op.
func (s *HelpRequestService) Assign(ctx context.Context, requestID, helperID, actorID uint) error {
	actor, err := s.accounts.GetByIDFresh(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.CanReviewApplications() {
		return models.NewForbiddenError("Only counselors may assign help requests")
	}

	helper, err := s.accounts.GetByIDFresh(ctx, helperID)
	if err != nil {
		return err
	}
	if helper.Role != models.RolePeerHelper {
		return models.NewPreconditionFailedError("Assignment target is not a peer helper")
	}
	banned, err := s.sanctions.IsEffectivelyBanned(ctx, helperID)
	if err != nil {
		return err
	}
	if banned {
		return models.NewPreconditionFailedError("Assignment target is banned")
	}

	applied, err := s.requests.AssignWhere(ctx, requestID, helperID)
	if err != nil {
		return err
	}
	if !applied {
		req, getErr := s.requests.GetByID(ctx, requestID)
		if getErr != nil {
			return getErr
		}
		if req.Status == models.HelpRequestStatusAssigned &&
			req.AssignedHelperID != nil && *req.AssignedHelperID == helperID {
			return nil
		}
		return models.NewPreconditionFailedError("Help request is no longer pending")
	}

	middleware.HelpRequestTransitions.WithLabelValues(string(models.HelpRequestStatusAssigned)).Inc()
	return nil
}

// Accept lets the assigned helper start working the request. Chat opens as
// a consequence of this transition.
func (s *HelpRequestService) Accept(ctx context.Context, requestID, helperID uint) error {
	applied, err := s.requests.AcceptWhere(ctx, requestID, helperID, s.now())
	if err != nil {
		return err
	}
	if !applied {
		req, getErr := s.requests.GetByID(ctx, requestID)
		if getErr != nil {
			return getErr
		}
		if req.Status == models.HelpRequestStatusInProgress &&
			req.AssignedHelperID != nil && *req.AssignedHelperID == helperID {
			return nil
		}
		if req.AssignedHelperID == nil || *req.AssignedHelperID != helperID {
			return models.NewForbiddenError("Only the assigned helper may accept this request")
		}
		return models.NewPreconditionFailedError("Help request is not awaiting acceptance")
	}

	middleware.HelpRequestTransitions.WithLabelValues(string(models.HelpRequestStatusInProgress)).Inc()
	return nil
}

// Complete closes an in-progress request. Only the assigned helper may
// complete it; a repeat call after success is a benign no-op.
func (s *HelpRequestService) Complete(ctx context.Context, requestID, helperID uint) error {
	applied, err := s.requests.CompleteWhere(ctx, requestID, helperID, s.now())
	if err != nil {
		return err
	}
	if !applied {
		req, getErr := s.requests.GetByID(ctx, requestID)
		if getErr != nil {
			return getErr
		}
		if req.Status == models.HelpRequestStatusCompleted &&
			req.AssignedHelperID != nil && *req.AssignedHelperID == helperID {
			return nil
		}
		if req.AssignedHelperID == nil || *req.AssignedHelperID != helperID {
			return models.NewForbiddenError("Only the assigned helper may complete this request")
		}
		return models.NewPreconditionFailedError("Help request is not in progress")
	}

	middleware.HelpRequestTransitions.WithLabelValues(string(models.HelpRequestStatusCompleted)).Inc()
	return nil
}

// CanChat reports whether the account may read or write chat on the
// request. Access requires the in-progress state and membership in the
// conversation (requester or assigned helper); every other status denies
// both parties.
func (s *HelpRequestService) CanChat(ctx context.Context, requestID, accountID uint) (bool, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return false, err
	}
	if req.Status != models.HelpRequestStatusInProgress {
		return false, nil
	}
	if req.RequesterID == accountID {
		return true, nil
	}
	return req.AssignedHelperID != nil && *req.AssignedHelperID == accountID, nil
}

// PostMessage appends a chat message, subject to the chat gate.
func (s *HelpRequestService) PostMessage(ctx context.Context, requestID, senderID uint, body string) (*models.HelpMessage, error) {
	if strings.TrimSpace(body) == "" {
		return nil, models.NewValidationError("Message body is required")
	}

	allowed, err := s.CanChat(ctx, requestID, senderID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, models.NewForbiddenError("Chat is not open for this help request")
	}

	msg := &models.HelpMessage{
		HelpRequestID: requestID,
		SenderID:      senderID,
		Body:          strings.TrimSpace(body),
	}
	if err := s.requests.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages returns the conversation, subject to the chat gate.
func (s *HelpRequestService) ListMessages(ctx context.Context, requestID, accountID uint, limit, offset int) ([]models.HelpMessage, error) {
	allowed, err := s.CanChat(ctx, requestID, accountID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, models.NewForbiddenError("Chat is not open for this help request")
	}
	return s.requests.ListMessages(ctx, requestID, limit, offset)
}
