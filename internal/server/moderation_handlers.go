package server

import (
	"peerhaven/internal/models"
	"peerhaven/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetModerationQueue returns the grouped pending-report queue.
// Query parameters: sort (newest|oldest|most_reported), search.
func (s *Server) GetModerationQueue(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actorID := accountID(c)

	queue, err := s.moderationService.ListQueue(ctx, actorID, service.ListQueueInput{
		Sort:   c.Query("sort", service.QueueSortNewest),
		Search: c.Query("search"),
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(queue)
}

// HidePost hides the post and resolves all its pending reports.
func (s *Server) HidePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actorID := accountID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.moderationService.HidePost(ctx, actorID, postID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post hidden"})
}

// IgnoreReports resolves all pending reports on the post without hiding it.
func (s *Server) IgnoreReports(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actorID := accountID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.moderationService.IgnoreAll(ctx, actorID, postID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Reports ignored"})
}

// DismissReport dismisses a single report.
func (s *Server) DismissReport(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actorID := accountID(c)
	reportID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.moderationService.Dismiss(ctx, actorID, reportID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Report dismissed"})
}

// GetAuditTrail returns the audit entries recorded against one target.
func (s *Server) GetAuditTrail(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actorID := accountID(c)

	actor, err := s.accountRepo.GetByIDFresh(ctx, actorID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if !actor.CanModerate() {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Only moderators may read the audit log"))
	}

	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	targetType := models.AuditTargetType(c.Params("targetType"))
	switch targetType {
	case models.AuditTargetAccount, models.AuditTargetPost, models.AuditTargetReport,
		models.AuditTargetApplication, models.AuditTargetHelpRequest:
		// valid
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid audit target type"))
	}

	p := parsePagination(c, 50)
	entries, err := s.auditRepo.ListByTarget(ctx, targetType, targetID, p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(entries)
}
