package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cheese-market/internal/api/dto"
	"github.com/spec-kit/cheese-market/internal/auth"
	"github.com/spec-kit/cheese-market/internal/service"
	apperrors "github.com/spec-kit/cheese-market/pkg/util"
)

// UsersHandler exposes login, registration and user reads.
type UsersHandler struct {
	auth     *service.AuthService
	listings *service.ListingService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, listingService *service.ListingService) *UsersHandler {
	return &UsersHandler{auth: authService, listings: listingService}
}

// Login handles POST /api/login_check. Unknown email yields 404; password
// mismatch yields 401; success returns the bearer token.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("validation failed", map[string]any{
			"email":    "email is required",
			"password": "password is required",
		})
	}

	token, _, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenResponse{Token: token})
}

// Register handles POST /users.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	details := map[string]any{}
	if strings.TrimSpace(req.Email) == "" {
		details["email"] = "email is required"
	}
	if req.Password == "" {
		details["password"] = "password is required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details)
	}

	user, err := h.auth.RegisterUser(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.UserView(user, nil, true),
	})
}

// GetUser handles GET /users/:id. Roles are visible to the user themselves
// and to administrators.
func (h *UsersHandler) GetUser(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	user, err := h.auth.GetUser(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}

	owned, _, err := h.listings.ListByOwner(c.Context(), user.ID, 1)
	if err != nil {
		return err
	}

	includeRoles := principal.User.ID == user.ID || principal.User.IsAdmin()
	return c.JSON(fiber.Map{"data": dto.UserView(user, owned, includeRoles)})
}
