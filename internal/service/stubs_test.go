package service

import (
	"context"
	"testing"
	"time"

	"peerhaven/internal/models"
)

// Hand-rolled repository stubs shared by the service tests in this package.
// Each noop constructor returns permissive defaults; individual tests
// override only the calls they care about.

type accountRepoStub struct {
	getByIDFn         func(context.Context, uint) (*models.Account, error)
	getByIDFreshFn    func(context.Context, uint) (*models.Account, error)
	getByEmailFn      func(context.Context, string) (*models.Account, error)
	getByUsernameFn   func(context.Context, string) (*models.Account, error)
	createFn          func(context.Context, *models.Account) error
	updateFn          func(context.Context, *models.Account) error
	listFn            func(context.Context, int, int) ([]models.Account, error)
	listByRoleFn      func(context.Context, models.Role, int, int) ([]models.Account, error)
	setBanWhereFn     func(context.Context, uint, *time.Time) (bool, error)
	clearBanWhereFn   func(context.Context, uint) (bool, error)
	clearExpiredBanFn func(context.Context, uint, time.Time) (bool, error)
	setRoleWhereFn    func(context.Context, uint, models.Role, models.Role) (bool, error)
}

func (s *accountRepoStub) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	return s.getByIDFn(ctx, id)
}
func (s *accountRepoStub) GetByIDFresh(ctx context.Context, id uint) (*models.Account, error) {
	return s.getByIDFreshFn(ctx, id)
}
func (s *accountRepoStub) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *accountRepoStub) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *accountRepoStub) Create(ctx context.Context, a *models.Account) error {
	return s.createFn(ctx, a)
}
func (s *accountRepoStub) Update(ctx context.Context, a *models.Account) error {
	return s.updateFn(ctx, a)
}
func (s *accountRepoStub) List(ctx context.Context, limit, offset int) ([]models.Account, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *accountRepoStub) ListByRole(ctx context.Context, role models.Role, limit, offset int) ([]models.Account, error) {
	return s.listByRoleFn(ctx, role, limit, offset)
}
func (s *accountRepoStub) SetBanWhere(ctx context.Context, id uint, expiresAt *time.Time) (bool, error) {
	return s.setBanWhereFn(ctx, id, expiresAt)
}
func (s *accountRepoStub) ClearBanWhere(ctx context.Context, id uint) (bool, error) {
	return s.clearBanWhereFn(ctx, id)
}
func (s *accountRepoStub) ClearExpiredBan(ctx context.Context, id uint, expiresAt time.Time) (bool, error) {
	return s.clearExpiredBanFn(ctx, id, expiresAt)
}
func (s *accountRepoStub) SetRoleWhere(ctx context.Context, id uint, from, to models.Role) (bool, error) {
	return s.setRoleWhereFn(ctx, id, from, to)
}

func noopAccountRepo() *accountRepoStub {
	return &accountRepoStub{
		getByIDFn:         func(_ context.Context, id uint) (*models.Account, error) { return &models.Account{ID: id}, nil },
		getByIDFreshFn:    func(_ context.Context, id uint) (*models.Account, error) { return &models.Account{ID: id}, nil },
		getByEmailFn:      func(context.Context, string) (*models.Account, error) { return &models.Account{}, nil },
		getByUsernameFn:   func(context.Context, string) (*models.Account, error) { return &models.Account{}, nil },
		createFn:          func(context.Context, *models.Account) error { return nil },
		updateFn:          func(context.Context, *models.Account) error { return nil },
		listFn:            func(context.Context, int, int) ([]models.Account, error) { return nil, nil },
		listByRoleFn:      func(context.Context, models.Role, int, int) ([]models.Account, error) { return nil, nil },
		setBanWhereFn:     func(context.Context, uint, *time.Time) (bool, error) { return true, nil },
		clearBanWhereFn:   func(context.Context, uint) (bool, error) { return true, nil },
		clearExpiredBanFn: func(context.Context, uint, time.Time) (bool, error) { return true, nil },
		setRoleWhereFn:    func(context.Context, uint, models.Role, models.Role) (bool, error) { return true, nil },
	}
}

type applicationRepoStub struct {
	createFn                func(context.Context, *models.HelperApplication) error
	getByIDFn               func(context.Context, uint) (*models.HelperApplication, error)
	listByAccountFn         func(context.Context, uint) ([]models.HelperApplication, error)
	listPendingFn           func(context.Context, int, int) ([]models.HelperApplication, error)
	countPendingByAccountFn func(context.Context, uint) (int64, error)
	markApprovedWhereFn     func(context.Context, uint, uint, time.Time) (bool, error)
	markRejectedWhereFn     func(context.Context, uint, uint, string) (bool, error)
}

func (s *applicationRepoStub) Create(ctx context.Context, a *models.HelperApplication) error {
	return s.createFn(ctx, a)
}
func (s *applicationRepoStub) GetByID(ctx context.Context, id uint) (*models.HelperApplication, error) {
	return s.getByIDFn(ctx, id)
}
func (s *applicationRepoStub) ListByAccount(ctx context.Context, accountID uint) ([]models.HelperApplication, error) {
	return s.listByAccountFn(ctx, accountID)
}
func (s *applicationRepoStub) ListPending(ctx context.Context, limit, offset int) ([]models.HelperApplication, error) {
	return s.listPendingFn(ctx, limit, offset)
}
func (s *applicationRepoStub) CountPendingByAccount(ctx context.Context, accountID uint) (int64, error) {
	return s.countPendingByAccountFn(ctx, accountID)
}
func (s *applicationRepoStub) MarkApprovedWhere(ctx context.Context, id, reviewerID uint, approvedAt time.Time) (bool, error) {
	return s.markApprovedWhereFn(ctx, id, reviewerID, approvedAt)
}
func (s *applicationRepoStub) MarkRejectedWhere(ctx context.Context, id, reviewerID uint, notes string) (bool, error) {
	return s.markRejectedWhereFn(ctx, id, reviewerID, notes)
}

func noopApplicationRepo() *applicationRepoStub {
	return &applicationRepoStub{
		createFn: func(context.Context, *models.HelperApplication) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.HelperApplication, error) {
			return &models.HelperApplication{ID: id, Status: models.ApplicationStatusPending}, nil
		},
		listByAccountFn:         func(context.Context, uint) ([]models.HelperApplication, error) { return nil, nil },
		listPendingFn:           func(context.Context, int, int) ([]models.HelperApplication, error) { return nil, nil },
		countPendingByAccountFn: func(context.Context, uint) (int64, error) { return 0, nil },
		markApprovedWhereFn:     func(context.Context, uint, uint, time.Time) (bool, error) { return true, nil },
		markRejectedWhereFn:     func(context.Context, uint, uint, string) (bool, error) { return true, nil },
	}
}

type helpRequestRepoStub struct {
	createFn                func(context.Context, *models.HelpRequest) error
	getByIDFn               func(context.Context, uint) (*models.HelpRequest, error)
	listByRequesterFn       func(context.Context, uint, int, int) ([]models.HelpRequest, error)
	listByHelperFn          func(context.Context, uint, int, int) ([]models.HelpRequest, error)
	listByStatusFn          func(context.Context, models.HelpRequestStatus, int, int) ([]models.HelpRequest, error)
	assignWhereFn           func(context.Context, uint, uint) (bool, error)
	acceptWhereFn           func(context.Context, uint, uint, time.Time) (bool, error)
	completeWhereFn         func(context.Context, uint, uint, time.Time) (bool, error)
	resetAssignedByHelperFn func(context.Context, uint) (int64, error)
	createMessageFn         func(context.Context, *models.HelpMessage) error
	listMessagesFn          func(context.Context, uint, int, int) ([]models.HelpMessage, error)
}

func (s *helpRequestRepoStub) Create(ctx context.Context, r *models.HelpRequest) error {
	return s.createFn(ctx, r)
}
func (s *helpRequestRepoStub) GetByID(ctx context.Context, id uint) (*models.HelpRequest, error) {
	return s.getByIDFn(ctx, id)
}
func (s *helpRequestRepoStub) ListByRequester(ctx context.Context, requesterID uint, limit, offset int) ([]models.HelpRequest, error) {
	return s.listByRequesterFn(ctx, requesterID, limit, offset)
}
func (s *helpRequestRepoStub) ListByHelper(ctx context.Context, helperID uint, limit, offset int) ([]models.HelpRequest, error) {
	return s.listByHelperFn(ctx, helperID, limit, offset)
}
func (s *helpRequestRepoStub) ListByStatus(ctx context.Context, status models.HelpRequestStatus, limit, offset int) ([]models.HelpRequest, error) {
	return s.listByStatusFn(ctx, status, limit, offset)
}
func (s *helpRequestRepoStub) AssignWhere(ctx context.Context, id, helperID uint) (bool, error) {
	return s.assignWhereFn(ctx, id, helperID)
}
func (s *helpRequestRepoStub) AcceptWhere(ctx context.Context, id, helperID uint, acceptedAt time.Time) (bool, error) {
	return s.acceptWhereFn(ctx, id, helperID, acceptedAt)
}
func (s *helpRequestRepoStub) CompleteWhere(ctx context.Context, id, helperID uint, completedAt time.Time) (bool, error) {
	return s.completeWhereFn(ctx, id, helperID, completedAt)
}
func (s *helpRequestRepoStub) ResetAssignedByHelper(ctx context.Context, helperID uint) (int64, error) {
	return s.resetAssignedByHelperFn(ctx, helperID)
}
func (s *helpRequestRepoStub) CreateMessage(ctx context.Context, m *models.HelpMessage) error {
	return s.createMessageFn(ctx, m)
}
func (s *helpRequestRepoStub) ListMessages(ctx context.Context, requestID uint, limit, offset int) ([]models.HelpMessage, error) {
	return s.listMessagesFn(ctx, requestID, limit, offset)
}

func noopHelpRequestRepo() *helpRequestRepoStub {
	return &helpRequestRepoStub{
		createFn: func(context.Context, *models.HelpRequest) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.HelpRequest, error) {
			return &models.HelpRequest{ID: id, Status: models.HelpRequestStatusPending}, nil
		},
		listByRequesterFn: func(context.Context, uint, int, int) ([]models.HelpRequest, error) { return nil, nil },
		listByHelperFn:    func(context.Context, uint, int, int) ([]models.HelpRequest, error) { return nil, nil },
		listByStatusFn: func(context.Context, models.HelpRequestStatus, int, int) ([]models.HelpRequest, error) {
			return nil, nil
		},
		assignWhereFn:           func(context.Context, uint, uint) (bool, error) { return true, nil },
		acceptWhereFn:           func(context.Context, uint, uint, time.Time) (bool, error) { return true, nil },
		completeWhereFn:         func(context.Context, uint, uint, time.Time) (bool, error) { return true, nil },
		resetAssignedByHelperFn: func(context.Context, uint) (int64, error) { return 0, nil },
		createMessageFn:         func(context.Context, *models.HelpMessage) error { return nil },
		listMessagesFn:          func(context.Context, uint, int, int) ([]models.HelpMessage, error) { return nil, nil },
	}
}

type reportRepoStub struct {
	createFn            func(context.Context, *models.Report) error
	getByIDFn           func(context.Context, uint) (*models.Report, error)
	listPendingFn       func(context.Context) ([]models.Report, error)
	resolveAllPendingFn func(context.Context, uint, models.ReportStatus) (int64, error)
	resolveWhereFn      func(context.Context, uint, models.ReportStatus) (bool, error)
}

func (s *reportRepoStub) Create(ctx context.Context, r *models.Report) error {
	return s.createFn(ctx, r)
}
func (s *reportRepoStub) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	return s.getByIDFn(ctx, id)
}
func (s *reportRepoStub) ListPending(ctx context.Context) ([]models.Report, error) {
	return s.listPendingFn(ctx)
}
func (s *reportRepoStub) ResolveAllPending(ctx context.Context, postID uint, to models.ReportStatus) (int64, error) {
	return s.resolveAllPendingFn(ctx, postID, to)
}
func (s *reportRepoStub) ResolveWhere(ctx context.Context, id uint, to models.ReportStatus) (bool, error) {
	return s.resolveWhereFn(ctx, id, to)
}

func noopReportRepo() *reportRepoStub {
	return &reportRepoStub{
		createFn: func(context.Context, *models.Report) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Report, error) {
			return &models.Report{ID: id, Status: models.ReportStatusPending}, nil
		},
		listPendingFn:       func(context.Context) ([]models.Report, error) { return nil, nil },
		resolveAllPendingFn: func(context.Context, uint, models.ReportStatus) (int64, error) { return 0, nil },
		resolveWhereFn:      func(context.Context, uint, models.ReportStatus) (bool, error) { return true, nil },
	}
}

type postRepoStub struct {
	createFn         func(context.Context, *models.Post) error
	getByIDFn        func(context.Context, uint) (*models.Post, error)
	getByIDAnyFn     func(context.Context, uint) (*models.Post, error)
	listFn           func(context.Context, int, int) ([]*models.Post, error)
	setHiddenWhereFn func(context.Context, uint, bool) (bool, error)
}

func (s *postRepoStub) Create(ctx context.Context, p *models.Post) error {
	return s.createFn(ctx, p)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) GetByIDAny(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDAnyFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *postRepoStub) SetHiddenWhere(ctx context.Context, id uint, hidden bool) (bool, error) {
	return s.setHiddenWhereFn(ctx, id, hidden)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:         func(context.Context, *models.Post) error { return nil },
		getByIDFn:        func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		getByIDAnyFn:     func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listFn:           func(context.Context, int, int) ([]*models.Post, error) { return nil, nil },
		setHiddenWhereFn: func(context.Context, uint, bool) (bool, error) { return true, nil },
	}
}

// auditRepoStub records every appended entry so tests can assert on count
// and content.
type auditRepoStub struct {
	entries      []models.AuditLogEntry
	appendFn     func(context.Context, *models.AuditLogEntry) error
	listTargetFn func(context.Context, models.AuditTargetType, uint, int, int) ([]models.AuditLogEntry, error)
	listActorFn  func(context.Context, uint, int, int) ([]models.AuditLogEntry, error)
}

func (s *auditRepoStub) Append(ctx context.Context, e *models.AuditLogEntry) error {
	if s.appendFn != nil {
		return s.appendFn(ctx, e)
	}
	s.entries = append(s.entries, *e)
	return nil
}
func (s *auditRepoStub) ListByTarget(ctx context.Context, targetType models.AuditTargetType, targetID uint, limit, offset int) ([]models.AuditLogEntry, error) {
	if s.listTargetFn != nil {
		return s.listTargetFn(ctx, targetType, targetID, limit, offset)
	}
	return nil, nil
}
func (s *auditRepoStub) ListByActor(ctx context.Context, actorID uint, limit, offset int) ([]models.AuditLogEntry, error) {
	if s.listActorFn != nil {
		return s.listActorFn(ctx, actorID, limit, offset)
	}
	return nil, nil
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	appErr, ok := err.(*models.AppError)
	if !ok {
		t.Fatalf("expected *models.AppError, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, appErr.Code, appErr.Message)
	}
}
