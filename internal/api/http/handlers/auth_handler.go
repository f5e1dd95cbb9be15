package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/api/dto"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/auth"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/service"
	apperrors "github.com/abhidhakal/HReady-WebApp-sub001/pkg/util/errorutil"
)

// AuthHandler exposes the login and logout endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, token, _, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.LoginResponse{
		Token: token,
		ID:    user.ID,
		Role:  user.Role,
		Name:  user.Name,
	})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	if err := h.auth.Logout(c.UserContext(), principal); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Logged out"})
}
