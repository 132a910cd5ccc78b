package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"peerhaven/internal/config"
	"peerhaven/internal/database"
	"peerhaven/internal/models"
	"peerhaven/internal/repository"
	"peerhaven/internal/service"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// setupTestServer builds a Server over an in-memory SQLite database. The
// Prometheus middleware is left nil so repeated test setups do not fight
// over the default metrics registry.
func setupTestServer(t *testing.T) (*Server, *gorm.DB) {
	t.Helper()

	db, err := database.ConnectTest()
	if err != nil {
		t.Fatalf("connect test db: %v", err)
	}

	accountRepo := repository.NewAccountRepository(db)
	postRepo := repository.NewPostRepository(db)
	reportRepo := repository.NewReportRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	requestRepo := repository.NewHelpRequestRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	s := &Server{
		config:          &config.Config{JWTSecret: "test-secret", Env: "test"},
		db:              db,
		accountRepo:     accountRepo,
		postRepo:        postRepo,
		reportRepo:      reportRepo,
		applicationRepo: applicationRepo,
		requestRepo:     requestRepo,
		auditRepo:       auditRepo,
	}
	s.sanctionService = service.NewSanctionService(accountRepo, requestRepo, auditRepo)
	s.moderationService = service.NewModerationService(reportRepo, postRepo, accountRepo, auditRepo)
	s.roleService = service.NewRoleService(applicationRepo, accountRepo, requestRepo, auditRepo)
	s.helpRequestService = service.NewHelpRequestService(requestRepo, accountRepo, s.sanctionService)

	return s, db
}

// testApp wires the protected API routes with a stub auth middleware that
// reads the acting account ID from the X-Test-Account header.
func testApp(s *Server) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if raw := c.Get("X-Test-Account"); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
				c.Locals("accountID", uint(id))
			}
		}
		return c.Next()
	})

	api := app.Group("/api")
	api.Post("/auth/signup", s.Signup)
	api.Post("/auth/login", s.Login)
	api.Post("/auth/refresh", s.Refresh)
	api.Post("/posts", s.CreatePost)
	api.Get("/posts", s.GetPosts)
	api.Get("/posts/:id", s.GetPost)
	api.Post("/posts/:id/report", s.ReportPost)
	api.Get("/accounts/me", s.GetMyAccount)
	api.Get("/accounts", s.GetAccounts)
	api.Get("/moderation/queue", s.GetModerationQueue)
	api.Post("/moderation/posts/:id/hide", s.HidePost)
	api.Post("/moderation/posts/:id/ignore", s.IgnoreReports)
	api.Post("/moderation/reports/:id/dismiss", s.DismissReport)
	api.Get("/moderation/audit/:targetType/:id", s.GetAuditTrail)
	api.Post("/sanctions/:id/ban", s.BanAccount)
	api.Post("/sanctions/:id/unban", s.UnbanAccount)
	api.Post("/applications", s.CreateApplication)
	api.Get("/applications/me", s.GetMyApplications)
	api.Get("/applications", s.GetPendingApplications)
	api.Post("/applications/:id/approve", s.ApproveApplication)
	api.Post("/applications/:id/reject", s.RejectApplication)
	api.Post("/applications/helpers/:id/revoke", s.RevokeHelper)
	api.Post("/help-requests", s.CreateHelpRequest)
	api.Get("/help-requests/pool", s.GetHelpRequestPool)
	api.Get("/help-requests/me", s.GetMyHelpRequests)
	api.Get("/help-requests/:id", s.GetHelpRequest)
	api.Post("/help-requests/:id/assign", s.AssignHelpRequest)
	api.Post("/help-requests/:id/accept", s.AcceptHelpRequest)
	api.Post("/help-requests/:id/complete", s.CompleteHelpRequest)
	api.Get("/help-requests/:id/messages", s.GetHelpMessages)
	api.Post("/help-requests/:id/messages", s.PostHelpMessage)
	return app
}

func mustCreateAccount(t *testing.T, db *gorm.DB, username string, role models.Role) models.Account {
	t.Helper()
	account := models.Account{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
		Role:     role,
		Status:   models.StatusActive,
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("create account %s: %v", username, err)
	}
	return account
}

func mustCreatePost(t *testing.T, db *gorm.DB, authorID uint, title string) models.Post {
	t.Helper()
	post := models.Post{Title: title, Content: "content", AccountID: authorID}
	if err := db.Create(&post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func doJSON(t *testing.T, app *fiber.App, method, path string, actorID uint, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actorID != 0 {
		req.Header.Set("X-Test-Account", strconv.FormatUint(uint64(actorID), 10))
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test %s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}
