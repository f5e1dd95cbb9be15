package guard

import (
	"github.com/gofiber/fiber/v2"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
	apperrors "github.com/abhidhakal/HReady-WebApp-sub001/pkg/util/errorutil"
)

const decisionLocalKey = "guard_decision"

// Resolver returns the session of the browser behind a request.
type Resolver func(c *fiber.Ctx) (Session, error)

// Middleware guards a route. Denied requests end with 401 when there is no usable
// session and 403 on a role mismatch; the body carries the login prompt.
func Middleware(resolve Resolver, requiredRole domain.Role, opts Options) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := resolve(c)
		if err != nil {
			return err
		}

		d := New(session, requiredRole, opts).Mount(c.UserContext())
		c.Locals(decisionLocalKey, d)

		switch {
		case d.State == Granted:
			return c.Next()
		case d.Reason == ReasonRoleMismatch:
			return apperrors.NewForbidden(d.Prompt())
		default:
			return apperrors.NewUnauthorized(d.Prompt())
		}
	}
}

// DecisionFromContext returns the decision stored by Middleware.
func DecisionFromContext(c *fiber.Ctx) (Decision, bool) {
	d, ok := c.Locals(decisionLocalKey).(Decision)
	return d, ok
}
