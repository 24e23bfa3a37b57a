package auth

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RoleTechnician is the helpdesk role allowed to drive the console.
const RoleTechnician = "TECNICO"

// RequireRole ensures the principal carries one of the allowed roles.
// With no roles given any authenticated principal passes.
func RequireRole(allowed ...string) fiber.Handler {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[strings.ToUpper(role)] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[strings.ToUpper(principal.Role)]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}
