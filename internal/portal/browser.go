package portal

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/session"
)

const browserLocalKey = "portal_browser"

// browser is the per-request view of one browser session.
type browser struct {
	id      string
	manager *session.Manager
	nav     *navigator
}

// navigator records a forced logout so the portal can answer with a redirect to the
// login page once the handler returns.
type navigator struct {
	path string

	mu         sync.Mutex
	redirected bool
}

func (n *navigator) CurrentPath() string {
	return n.path
}

func (n *navigator) RedirectToLogin(context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirected = true
}

func (n *navigator) Redirected() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.redirected
}

// browserSession binds a session manager to the browser cookie, creating the cookie on
// first visit.
func (s *Server) browserSession(c *fiber.Ctx) error {
	id := c.Cookies(s.cfg.CookieName)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     s.cfg.CookieName,
			Value:    id,
			Path:     "/",
			HTTPOnly: true,
			Secure:   s.cfg.CookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}

	store := s.keyspace.For(id)
	nav := &navigator{path: c.Path()}
	client := s.client.With(store, nav)
	manager := session.NewManager(c.UserContext(), client, store, session.Options{
		Logger:     s.logger,
		Dispatcher: s.dispatcher,
		Now:        s.now,
	})
	c.Locals(browserLocalKey, &browser{id: id, manager: manager, nav: nav})

	err := c.Next()
	if nav.Redirected() {
		c.Response().ResetBody()
		return c.Redirect(s.cfg.LoginPath, fiber.StatusFound)
	}
	return err
}

func browserFrom(c *fiber.Ctx) *browser {
	b, _ := c.Locals(browserLocalKey).(*browser)
	return b
}
