// Package guard decides whether a protected view may render. The decision always comes
// from a live profile fetched from the backend, never from the locally stored role.
package guard

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/observability"
)

// State is the guard state machine: Checking -> Granted | Denied.
type State string

const (
	Checking State = "checking"
	Granted  State = "granted"
	Denied   State = "denied"
)

// Reason explains a Denied decision.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonNoSession     Reason = "no_session"
	ReasonProfileFailed Reason = "profile_failed"
	ReasonRoleMismatch  Reason = "role_mismatch"
)

// Session is what the guard needs from the auth session manager.
type Session interface {
	HasToken(ctx context.Context) bool
	FetchLiveProfile(ctx context.Context) (*domain.Profile, error)
}

// Decision is the outcome of one guard check.
type Decision struct {
	State        State
	Reason       Reason
	RequiredRole domain.Role
	CurrentRole  domain.Role
	Profile      *domain.Profile
	Err          error
}

// Prompt is the text shown in place of the protected view.
func (d Decision) Prompt() string {
	switch {
	case d.State == Granted, d.State == Checking:
		return ""
	case d.Reason == ReasonRoleMismatch:
		return fmt.Sprintf("This page requires the %s role; you are signed in as %s.", d.RequiredRole, d.CurrentRole)
	default:
		return "Please log in to continue."
	}
}

// Options tunes a Guard.
type Options struct {
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// Guard gates one protected view.
type Guard struct {
	session Session
	logger  *zap.Logger
	metrics *observability.Metrics

	mu       sync.Mutex
	required domain.Role
	decision Decision
}

// New builds a guard for views that need requiredRole; an empty role admits any
// authenticated user.
func New(session Session, requiredRole domain.Role, opts Options) *Guard {
	g := &Guard{
		session:  session,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		required: requiredRole,
		decision: Decision{State: Checking, RequiredRole: requiredRole},
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	return g
}

// Mount runs the check and returns the decision.
func (g *Guard) Mount(ctx context.Context) Decision {
	g.mu.Lock()
	required := g.required
	g.decision = Decision{State: Checking, RequiredRole: required}
	g.mu.Unlock()

	d := g.check(ctx, required)

	g.mu.Lock()
	defer g.mu.Unlock()
	// a role change during the fetch invalidates this result
	if g.required != required {
		return g.decision
	}
	g.decision = d
	g.metrics.RecordGuardDecision(string(d.State))
	return d
}

// SetRequiredRole changes the required role and re-runs the check when it differs.
func (g *Guard) SetRequiredRole(ctx context.Context, role domain.Role) Decision {
	g.mu.Lock()
	if g.required == role {
		d := g.decision
		g.mu.Unlock()
		return d
	}
	g.required = role
	g.mu.Unlock()
	return g.Mount(ctx)
}

// Decision returns the latest decision.
func (g *Guard) Decision() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

func (g *Guard) check(ctx context.Context, required domain.Role) Decision {
	if !g.session.HasToken(ctx) {
		return Decision{State: Denied, Reason: ReasonNoSession, RequiredRole: required}
	}

	profile, err := g.session.FetchLiveProfile(ctx)
	if err != nil {
		g.logger.Info("guard denied: live profile unavailable", zap.Error(err))
		return Decision{State: Denied, Reason: ReasonProfileFailed, RequiredRole: required, Err: err}
	}

	if required != "" && profile.Role != required {
		return Decision{
			State:        Denied,
			Reason:       ReasonRoleMismatch,
			RequiredRole: required,
			CurrentRole:  profile.Role,
			Profile:      profile,
		}
	}
	return Decision{State: Granted, RequiredRole: required, CurrentRole: profile.Role, Profile: profile}
}
