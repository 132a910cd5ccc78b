package server

import (
	"time"

	"peerhaven/internal/models"
	"peerhaven/internal/service"

	"github.com/gofiber/fiber/v2"
)

// BanRequest is the payload for banning an account.
// DurationMinutes of zero means a permanent ban.
type BanRequest struct {
	Reason          string `json:"reason"`
	DurationMinutes int    `json:"duration_minutes"`
}

// BanAccount sanctions the target account.
func (s *Server) BanAccount(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actorID := accountID(c)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req BanRequest
	if bodyErr := c.BodyParser(&req); bodyErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.DurationMinutes < 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Duration must not be negative"))
	}

	banErr := s.sanctionService.Ban(ctx, service.BanInput{
		TargetID: targetID,
		Duration: time.Duration(req.DurationMinutes) * time.Minute,
		Reason:   req.Reason,
		ActorID:  actorID,
	})
	if banErr != nil {
		return respondServiceError(c, banErr)
	}
	return c.JSON(fiber.Map{"message": "Account banned"})
}

// UnbanAccount lifts a sanction on the target account.
func (s *Server) UnbanAccount(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actorID := accountID(c)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.sanctionService.Unban(ctx, targetID, actorID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Account unbanned"})
}
