package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/auth"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/service"
	apperrors "github.com/abhidhakal/HReady-WebApp-sub001/pkg/util/errorutil"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	auth *service.AuthService
}

// NewProfileHandler constructs handler.
func NewProfileHandler(authService *service.AuthService) *ProfileHandler {
	return &ProfileHandler{auth: authService}
}

// Me handles GET /admins/me and GET /employees/me.
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("unauthorized")
	}
	profile, err := h.auth.Profile(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}
