package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/nile-labs/registration-service/internal/api/dto"
	"github.com/nile-labs/registration-service/internal/service"
	apperrors "github.com/nile-labs/registration-service/pkg/util"
	"github.com/nile-labs/registration-service/pkg/validation"
)

// UsersHandler exposes registration and user read endpoints.
type UsersHandler struct {
	registration *service.RegistrationService
	users        *service.UserService
	validate     *validator.Validate
}

// NewUsersHandler constructs handler.
func NewUsersHandler(registration *service.RegistrationService, users *service.UserService, validate *validator.Validate) *UsersHandler {
	return &UsersHandler{registration: registration, users: users, validate: validate}
}

// Register handles POST /users/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", validation.ToDetails(err))
	}

	user, err := h.registration.Register(c.UserContext(), service.RegisterParams{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.NewUserResponse(user),
	})
}

// List handles GET /users (admin only).
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewUserResponses(users),
	})
}

// GetByID handles GET /users/:id.
func (h *UsersHandler) GetByID(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return apperrors.NewNotFound("user", map[string]any{"id": c.Params("id")})
	}

	user, err := h.users.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewUserResponse(user),
	})
}
