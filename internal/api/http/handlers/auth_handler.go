package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/nile-labs/registration-service/internal/api/dto"
	"github.com/nile-labs/registration-service/internal/auth"
	"github.com/nile-labs/registration-service/internal/service"
	apperrors "github.com/nile-labs/registration-service/pkg/util"
	"github.com/nile-labs/registration-service/pkg/validation"
)

// AuthHandler exposes login and current-user endpoints.
type AuthHandler struct {
	auth     *service.AuthService
	users    *service.UserService
	validate *validator.Validate
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, users *service.UserService, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{auth: authService, users: users, validate: validate}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", validation.ToDetails(err))
	}

	user, err := h.auth.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	token, err := h.auth.IssueToken(user)
	if err != nil {
		return err
	}

	return c.JSON(dto.TokenResponse{AccessToken: token})
}

// CurrentUser handles GET /auth/user for the authenticated caller.
func (h *AuthHandler) CurrentUser(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	user, err := h.users.GetByID(c.UserContext(), principal.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewUserResponse(user),
	})
}
