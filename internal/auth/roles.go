package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
	apperrors "github.com/abhidhakal/HReady-WebApp-sub001/pkg/util/errorutil"
)

// RequireRole ensures the principal holds one of the allowed roles.
// The message avoids session wording so clients do not mistake it for an expired login.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("unauthorized")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.User.Role]; !exists {
			return apperrors.NewForbidden("insufficient role for this resource")
		}
		return c.Next()
	}
}
