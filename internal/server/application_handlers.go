package server

import (
	"peerhaven/internal/models"
	"peerhaven/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateApplicationRequest is the payload for a helper application.
type CreateApplicationRequest struct {
	Motivation string `json:"motivation"`
	Experience string `json:"experience"`
}

// CreateApplication submits a helper application for the current account.
func (s *Server) CreateApplication(c *fiber.Ctx) error {
	ctx := c.UserContext()
	applicantID := accountID(c)

	var req CreateApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	app, err := s.roleService.Apply(ctx, applicantID, req.Motivation, req.Experience)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(app)
}

// GetMyApplications returns the caller's applications.
func (s *Server) GetMyApplications(c *fiber.Ctx) error {
	ctx := c.UserContext()
	apps, err := s.roleService.ListMine(ctx, accountID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(apps)
}

// GetPendingApplications returns applications awaiting review.
func (s *Server) GetPendingApplications(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p := parsePagination(c, 50)

	apps, err := s.roleService.ListPending(ctx, accountID(c), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(apps)
}

// ApproveApplication approves the application and promotes the applicant.
func (s *Server) ApproveApplication(c *fiber.Ctx) error {
	ctx := c.UserContext()
	applicationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.roleService.Approve(ctx, applicationID, accountID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Application approved"})
}

// RejectApplicationRequest is the payload for rejecting an application.
type RejectApplicationRequest struct {
	Notes string `json:"notes"`
}

// RejectApplication rejects the application without touching the account.
func (s *Server) RejectApplication(c *fiber.Ctx) error {
	ctx := c.UserContext()
	applicationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req RejectApplicationRequest
	if bodyErr := c.BodyParser(&req); bodyErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.roleService.Reject(ctx, applicationID, accountID(c), req.Notes); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Application rejected"})
}

// RevokeHelperRequest is the payload for revoking the peer-helper role.
type RevokeHelperRequest struct {
	Reason string `json:"reason"`
}

// RevokeHelper strips the peer-helper role and reclaims unaccepted tasks.
func (s *Server) RevokeHelper(c *fiber.Ctx) error {
	ctx := c.UserContext()
	helperID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req RevokeHelperRequest
	if bodyErr := c.BodyParser(&req); bodyErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	revokeErr := s.roleService.Revoke(ctx, service.RevokeInput{
		AccountID: helperID,
		Reason:    req.Reason,
		ActorID:   accountID(c),
	})
	if revokeErr != nil {
		return respondServiceError(c, revokeErr)
	}
	return c.JSON(fiber.Map{"message": "Peer helper revoked"})
}
