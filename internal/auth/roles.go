package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/cheese-market/pkg/util"
)

// RequireAuthenticated ensures a user principal is present. Listing creation
// requires any authenticated user.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireRole ensures the principal carries the given role tag. Listing
// deletion is restricted to ROLE_ADMIN.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.User.HasRole(role) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
