package server

import (
	"net/http"
	"testing"

	"peerhaven/internal/models"
)

func TestHelpRequestHandlers_FullLifecycle(t *testing.T) {
	t.Parallel()

	s, db := setupTestServer(t)
	app := testApp(s)

	requester := mustCreateAccount(t, db, "member", models.RoleUser)
	helper := mustCreateAccount(t, db, "helper", models.RolePeerHelper)
	counselor := mustCreateAccount(t, db, "counselor", models.RoleCounselor)

	t.Run("create requires a title", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/help-requests", requester.ID,
			CreateHelpRequestRequest{Description: "no title"})
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("create lands in the pending pool", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/help-requests", requester.ID,
			CreateHelpRequestRequest{Title: "need someone to talk to", Description: "rough week"})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
		created := decodeBody[models.HelpRequest](t, resp)
		if created.Status != models.HelpRequestStatusPending {
			t.Fatalf("expected pending, got %s", created.Status)
		}

		resp = doJSON(t, app, http.MethodGet, "/api/help-requests/pool", counselor.ID, nil)
		pool := decodeBody[[]models.HelpRequest](t, resp)
		if len(pool) != 1 {
			t.Fatalf("expected one pooled request, got %d", len(pool))
		}
	})

	t.Run("requester cannot browse the pool", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/help-requests/pool", requester.ID, nil)
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", resp.StatusCode)
		}
	})

	t.Run("chat closed before acceptance", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/help-requests/1/assign", counselor.ID,
			AssignHelpRequestRequest{HelperID: helper.ID})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("assign: expected 200, got %d", resp.StatusCode)
		}
		_ = resp.Body.Close()

		for _, party := range []uint{requester.ID, helper.ID} {
			resp := doJSON(t, app, http.MethodPost, "/api/help-requests/1/messages", party,
				PostHelpMessageRequest{Body: "hello?"})
			if resp.StatusCode != http.StatusForbidden {
				t.Fatalf("chat must stay closed while assigned, got %d for account %d", resp.StatusCode, party)
			}
			_ = resp.Body.Close()
		}
	})

	t.Run("only the assigned helper may accept", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/help-requests/1/accept", requester.ID, nil)
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", resp.StatusCode)
		}
	})

	t.Run("accept opens chat for both parties", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/help-requests/1/accept", helper.ID, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("accept: expected 200, got %d", resp.StatusCode)
		}
		_ = resp.Body.Close()

		for _, msg := range []struct {
			sender uint
			body   string
		}{
			{helper.ID, "hey, I'm here to listen"},
			{requester.ID, "thanks for picking this up"},
		} {
			resp := doJSON(t, app, http.MethodPost, "/api/help-requests/1/messages", msg.sender,
				PostHelpMessageRequest{Body: msg.body})
			if resp.StatusCode != http.StatusCreated {
				t.Fatalf("post message: expected 201, got %d", resp.StatusCode)
			}
			_ = resp.Body.Close()
		}

		resp = doJSON(t, app, http.MethodGet, "/api/help-requests/1/messages", requester.ID, nil)
		messages := decodeBody[[]models.HelpMessage](t, resp)
		if len(messages) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(messages))
		}
	})

	t.Run("outsider cannot read the conversation", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/help-requests/1/messages", counselor.ID, nil)
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", resp.StatusCode)
		}
	})

	t.Run("complete closes chat again", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/help-requests/1/complete", helper.ID, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("complete: expected 200, got %d", resp.StatusCode)
		}
		_ = resp.Body.Close()

		var done models.HelpRequest
		if err := db.First(&done, 1).Error; err != nil {
			t.Fatalf("reload request: %v", err)
		}
		if done.Status != models.HelpRequestStatusCompleted {
			t.Fatalf("expected completed, got %s", done.Status)
		}
		if done.CompletedAt == nil {
			t.Fatal("completion timestamp missing")
		}

		resp = doJSON(t, app, http.MethodPost, "/api/help-requests/1/messages", requester.ID,
			PostHelpMessageRequest{Body: "one more thing"})
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("chat must close on completion, got %d", resp.StatusCode)
		}
	})

	t.Run("repeat complete is benign", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/help-requests/1/complete", helper.ID, nil)
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 on repeat complete, got %d", resp.StatusCode)
		}
	})

	t.Run("my requests lists both sides", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/help-requests/me", helper.ID, nil)
		mine := decodeBody[[]models.HelpRequest](t, resp)
		if len(mine) != 1 {
			t.Fatalf("helper should see the request they worked, got %d", len(mine))
		}
	})
}

func TestHelpRequestHandlers_BannedRequesterCannotCreate(t *testing.T) {
	t.Parallel()

	s, db := setupTestServer(t)
	app := testApp(s)

	banned := mustCreateAccount(t, db, "banned_member", models.RoleUser)
	if err := db.Model(&models.Account{}).Where("id = ?", banned.ID).
		Update("status", models.StatusBanned).Error; err != nil {
		t.Fatalf("ban account: %v", err)
	}

	resp := doJSON(t, app, http.MethodPost, "/api/help-requests", banned.ID,
		CreateHelpRequestRequest{Title: "please", Description: "help"})
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	var count int64
	if err := db.Model(&models.HelpRequest{}).Count(&count).Error; err != nil {
		t.Fatalf("count requests: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no request rows, got %d", count)
	}
}

func TestHelpRequestHandlers_AssignPreconditions(t *testing.T) {
	t.Parallel()

	s, db := setupTestServer(t)
	app := testApp(s)

	requester := mustCreateAccount(t, db, "member", models.RoleUser)
	mustCreateAccount(t, db, "not_helper", models.RoleUser)
	counselor := mustCreateAccount(t, db, "counselor", models.RoleCounselor)

	req := models.HelpRequest{RequesterID: requester.ID, Title: "x", Status: models.HelpRequestStatusPending}
	if err := db.Create(&req).Error; err != nil {
		t.Fatalf("create request: %v", err)
	}

	t.Run("non-helper target refused", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/help-requests/1/assign", counselor.ID,
			AssignHelpRequestRequest{HelperID: 2})
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("expected 409, got %d", resp.StatusCode)
		}
	})

	t.Run("banned helper refused", func(t *testing.T) {
		banned := mustCreateAccount(t, db, "banned_helper", models.RolePeerHelper)
		if err := db.Model(&models.Account{}).Where("id = ?", banned.ID).
			Update("status", models.StatusBanned).Error; err != nil {
			t.Fatalf("ban helper: %v", err)
		}

		resp := doJSON(t, app, http.MethodPost, "/api/help-requests/1/assign", counselor.ID,
			AssignHelpRequestRequest{HelperID: banned.ID})
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("expected 409, got %d", resp.StatusCode)
		}
	})

	t.Run("missing helper id rejected", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/help-requests/1/assign", counselor.ID,
			AssignHelpRequestRequest{})
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	})
}
