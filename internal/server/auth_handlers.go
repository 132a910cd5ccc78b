package server

import (
	"strconv"
	"strings"
	"time"

	"peerhaven/internal/models"
	"peerhaven/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

// SignupRequest is the payload for account registration.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the issued token and the account it belongs to.
type AuthResponse struct {
	Token   string          `json:"token"`
	Account *models.Account `json:"account"`
}

// Signup registers a new account with the default user role.
func (s *Server) Signup(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Username == "" || req.Email == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username and email are required"))
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	account := &models.Account{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
		Role:     models.RoleUser,
		Status:   models.StatusActive,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return respondServiceError(c, err)
	}

	token, err := s.issueToken(account.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(AuthResponse{Token: token, Account: account})
}

// Login authenticates an account. Banned accounts may still log in; the
// sanction gate applies to what they can do, not whether they can see it.
func (s *Server) Login(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	account, err := s.accountRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid email or password"))
	}

	if bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(req.Password)) != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid email or password"))
	}

	// Correct a lapsed temporary ban on the way in.
	corrected := s.sanctionService.ReconcileExpired(ctx, []models.Account{*account})
	account = &corrected[0]

	token, err := s.issueToken(account.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	return c.JSON(AuthResponse{Token: token, Account: account})
}

// Refresh issues a fresh token for the authenticated account.
func (s *Server) Refresh(c *fiber.Ctx) error {
	ctx := c.UserContext()

	account, err := s.accountRepo.GetByIDFresh(ctx, accountID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	corrected := s.sanctionService.ReconcileExpired(ctx, []models.Account{*account})
	account = &corrected[0]

	token, err := s.issueToken(account.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(AuthResponse{Token: token, Account: account})
}

func (s *Server) issueToken(accountID uint) (string, error) {
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(accountID), 10),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}
