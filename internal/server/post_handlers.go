package server

import (
	"strings"

	"peerhaven/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreatePostRequest is the payload for creating a post.
type CreatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreatePost creates a new post authored by the current account.
// Effectively banned accounts may not post.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	authorID := accountID(c)

	banned, err := s.sanctionService.IsEffectivelyBanned(ctx, authorID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if banned {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Banned accounts may not post"))
	}

	var req CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if strings.TrimSpace(req.Title) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Title is required"))
	}
	if strings.TrimSpace(req.Content) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Content is required"))
	}

	post := &models.Post{
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		AccountID: authorID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPosts lists visible posts, newest first.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p := parsePagination(c, 20)

	posts, err := s.postRepo.List(ctx, p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// GetPost returns a single post. Hidden posts are not served here.
func (s *Server) GetPost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if post.Hidden {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Post", postID))
	}
	return c.JSON(post)
}

// ReportPostRequest is the payload for filing a report.
type ReportPostRequest struct {
	Reason string `json:"reason"`
}

// ReportPost files a report against the target post.
func (s *Server) ReportPost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	reporterID := accountID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req ReportPostRequest
	if bodyErr := c.BodyParser(&req); bodyErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	report, createErr := s.moderationService.FileReport(ctx, reporterID, postID, req.Reason)
	if createErr != nil {
		return respondServiceError(c, createErr)
	}

	return c.Status(fiber.StatusCreated).JSON(report)
}
