package server

import (
	"peerhaven/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetMyAccount returns the authenticated account.  Expired bans are
// reconciled on read, so the caller always sees the effective status.
func (s *Server) GetMyAccount(c *fiber.Ctx) error {
	ctx := c.UserContext()

	account, err := s.accountRepo.GetByIDFresh(ctx, accountID(c))
	if err != nil {
		return respondServiceError(c, err)
	}

	reconciled := s.sanctionService.ReconcileExpired(ctx, []models.Account{*account})
	return c.JSON(reconciled[0])
}

// GetAccounts lists accounts for moderators and admins.
func (s *Server) GetAccounts(c *fiber.Ctx) error {
	ctx := c.UserContext()

	actor, err := s.accountRepo.GetByID(ctx, accountID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	if !actor.CanModerate() {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Moderator role required"))
	}

	p := parsePagination(c, 50)
	var accounts []models.Account
	if raw := c.Query("role"); raw != "" {
		accounts, err = s.accountRepo.ListByRole(ctx, models.ParseRole(raw), p.Limit, p.Offset)
	} else {
		accounts, err = s.accountRepo.List(ctx, p.Limit, p.Offset)
	}
	if err != nil {
		return respondServiceError(c, err)
	}

	// Lazy ban expiry sweep on the read path.
	accounts = s.sanctionService.ReconcileExpired(ctx, accounts)
	return c.JSON(accounts)
}
