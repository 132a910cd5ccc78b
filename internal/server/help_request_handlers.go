package server

import (
	"peerhaven/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreateHelpRequestRequest is the payload for opening a help request.
type CreateHelpRequestRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CreateHelpRequest opens a new help request for the current account.
func (s *Server) CreateHelpRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	requesterID := accountID(c)

	banned, err := s.sanctionService.IsEffectivelyBanned(ctx, requesterID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if banned {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Banned accounts cannot open help requests"))
	}

	var req CreateHelpRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	request, err := s.helpRequestService.Create(ctx, requesterID, req.Title, req.Description)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(request)
}

// GetHelpRequestPool lists unassigned help requests for coordinators.
func (s *Server) GetHelpRequestPool(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p := parsePagination(c, 50)

	requests, err := s.helpRequestService.ListPool(ctx, accountID(c), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(requests)
}

// GetMyHelpRequests lists requests the caller opened or is helping with.
func (s *Server) GetMyHelpRequests(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p := parsePagination(c, 50)

	requests, err := s.helpRequestService.ListMine(ctx, accountID(c), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(requests)
}

// GetHelpRequest returns a single help request by ID.
func (s *Server) GetHelpRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	requestID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	request, err := s.helpRequestService.Get(ctx, requestID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(request)
}

// AssignHelpRequestRequest is the payload for assigning a helper.
type AssignHelpRequestRequest struct {
	HelperID uint `json:"helper_id"`
}

// AssignHelpRequest assigns a peer helper to a pending request.
func (s *Server) AssignHelpRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	requestID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req AssignHelpRequestRequest
	if bodyErr := c.BodyParser(&req); bodyErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.HelperID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("helper_id is required"))
	}

	if err := s.helpRequestService.Assign(ctx, requestID, req.HelperID, accountID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Help request assigned"})
}

// AcceptHelpRequest moves an assigned request to in_progress.
// Only the assigned helper may accept.
func (s *Server) AcceptHelpRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	requestID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.helpRequestService.Accept(ctx, requestID, accountID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Help request accepted"})
}

// CompleteHelpRequest closes an in-progress request.
func (s *Server) CompleteHelpRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	requestID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.helpRequestService.Complete(ctx, requestID, accountID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Help request completed"})
}

// GetHelpMessages lists chat messages on a request the caller participates in.
func (s *Server) GetHelpMessages(c *fiber.Ctx) error {
	ctx := c.UserContext()
	requestID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c, 100)

	messages, err := s.helpRequestService.ListMessages(ctx, requestID, accountID(c), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(messages)
}

// PostHelpMessageRequest is the payload for sending a chat message.
type PostHelpMessageRequest struct {
	Body string `json:"body"`
}

// PostHelpMessage sends a chat message on an in-progress request.
func (s *Server) PostHelpMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	requestID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req PostHelpMessageRequest
	if bodyErr := c.BodyParser(&req); bodyErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	message, err := s.helpRequestService.PostMessage(ctx, requestID, accountID(c), req.Body)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}
