package portal

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/api/dto"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/guard"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/session"
	apperrors "github.com/abhidhakal/HReady-WebApp-sub001/pkg/util/errorutil"
)

type sessionView struct {
	Status   domain.SessionStatus `json:"status"`
	Role     domain.Role          `json:"role,omitempty"`
	UserID   string               `json:"user_id,omitempty"`
	Name     string               `json:"name,omitempty"`
	Redirect string               `json:"redirect,omitempty"`
	Message  string               `json:"message,omitempty"`
}

func viewOf(state domain.SessionState) sessionView {
	return sessionView{
		Status: state.Status,
		Role:   state.Role,
		UserID: state.SubjectID,
		Name:   state.DisplayName,
	}
}

// loginPage handles GET /login.
func (s *Server) loginPage(c *fiber.Ctx) error {
	b := browserFrom(c)
	state := b.manager.State()
	if state.IsAuthenticated() {
		return c.Redirect(homeFor(state.Role), fiber.StatusFound)
	}
	view := viewOf(state)
	view.Message = guard.Decision{State: guard.Denied, Reason: guard.ReasonNoSession}.Prompt()
	return c.JSON(view)
}

// login handles POST /login with a form or JSON body.
func (s *Server) login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	state, err := browserFrom(c).manager.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return loginError(err)
	}
	view := viewOf(state)
	view.Redirect = homeFor(state.Role)
	return c.JSON(view)
}

// loginError keeps the backend status for credential failures so the form can show it.
func loginError(err error) error {
	domainErr := apperrors.ToDomainError(err)
	switch domainErr.Code {
	case apperrors.CodeAuthRejected, apperrors.CodeAuthIrrelevant:
		return apperrors.NewUnauthorized(domainErr.Message)
	case apperrors.CodeDecodeFailed:
		return apperrors.NewDomainError(apperrors.CodeDecodeFailed, "backend returned an unusable token", fiber.StatusBadGateway, nil)
	default:
		return err
	}
}

// logout handles POST /logout. The local session is cleared even when the backend
// call fails.
func (s *Server) logout(c *fiber.Ctx) error {
	b := browserFrom(c)
	_ = b.manager.Logout(c.UserContext(),
		session.OnLogoutFailure(func(err error) {
			s.logger.Warn("portal logout: backend call failed", zap.String("browser", b.id), zap.Error(err))
		}),
	)
	return c.Redirect(s.cfg.LoginPath, fiber.StatusSeeOther)
}

func (s *Server) dashboard(view string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, _ := guard.DecisionFromContext(c)
		return c.JSON(fiber.Map{
			"view":    view,
			"profile": d.Profile,
		})
	}
}

// healthz handles GET /healthz by probing the backend with the health timeout.
func (s *Server) healthz(c *fiber.Ctx) error {
	if err := s.client.Health(c.UserContext()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":  "degraded",
			"backend": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ok", "backend": "ok"})
}
