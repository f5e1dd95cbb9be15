// Package session owns the client-side authentication lifecycle: it derives the session
// state from the token store, and performs login, logout and live profile fetches.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/api/dto"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/auth"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/events"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/tokenstore"
	apperrors "github.com/abhidhakal/HReady-WebApp-sub001/pkg/util/errorutil"
)

// API is the subset of the backend client the manager calls.
type API interface {
	Login(ctx context.Context, email, password string) (*dto.LoginResponse, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context, role domain.Role) (*domain.Profile, error)
}

// Options tunes a Manager.
type Options struct {
	Logger     *zap.Logger
	Dispatcher events.Dispatcher
	Now        func() time.Time
}

// Manager is the auth session state machine: unknown -> authenticated | unauthenticated.
type Manager struct {
	api        API
	store      tokenstore.Store
	logger     *zap.Logger
	dispatcher events.Dispatcher
	now        func() time.Time

	// ops serializes hydrate, login and logout; mu guards state.
	ops   sync.Mutex
	mu    sync.RWMutex
	state domain.SessionState
}

// NewManager builds a Manager and hydrates it from the store once.
func NewManager(ctx context.Context, api API, store tokenstore.Store, opts Options) *Manager {
	m := &Manager{
		api:        api,
		store:      store,
		logger:     opts.Logger,
		dispatcher: opts.Dispatcher,
		now:        opts.Now,
		state:      domain.SessionState{Status: domain.SessionUnknown, Loading: true},
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.Hydrate(ctx)
	return m
}

// Hydrate re-derives the session from the persisted record. Partial, undecodable and
// expired records are cleared. A failed read leaves the store alone and reports the
// session as unauthenticated for this pass only.
func (m *Manager) Hydrate(ctx context.Context) domain.SessionState {
	m.ops.Lock()
	defer m.ops.Unlock()

	m.setLoading(true)

	rec, err := m.store.Read(ctx)
	if err != nil {
		m.logger.Warn("session record unavailable", zap.Error(err))
		return m.setState(domain.SessionState{Status: domain.SessionUnauthenticated})
	}
	if rec.Empty() {
		return m.setState(domain.SessionState{Status: domain.SessionUnauthenticated})
	}
	if !rec.Complete() {
		return m.discard(ctx, events.EventSessionCorrupted, rec, "partial record")
	}

	claims, err := auth.DecodeToken(rec.Token)
	if err != nil {
		m.logger.Info("discarding undecodable session token", zap.Error(err))
		return m.discard(ctx, events.EventSessionCorrupted, rec, "undecodable token")
	}
	if claims.Expired(m.now()) {
		return m.discard(ctx, events.EventSessionExpired, rec, "token expired")
	}

	return m.setState(domain.SessionState{
		Status:      domain.SessionAuthenticated,
		Role:        claims.Role,
		SubjectID:   claims.SubjectID,
		DisplayName: rec.UserName,
	})
}

func (m *Manager) discard(ctx context.Context, eventType events.EventType, rec domain.Record, reason string) domain.SessionState {
	if err := m.store.Clear(context.WithoutCancel(ctx)); err != nil {
		m.logger.Error("clear session record", zap.Error(err))
	}
	m.publish(ctx, events.NewEvent(eventType, rec.UserID, domain.Role(rec.Role), reason))
	return m.setState(domain.SessionState{Status: domain.SessionUnauthenticated})
}

// Login authenticates against the backend and persists the session. A failed login
// never writes the store. The previous state survives only while its record is still
// stored; the client clears it when the backend rejects the session outright.
func (m *Manager) Login(ctx context.Context, email, password string) (domain.SessionState, error) {
	m.ops.Lock()
	defer m.ops.Unlock()

	prev := m.State()
	m.setLoading(true)

	rec, claims, err := m.authenticate(ctx, email, password)
	if err != nil {
		return m.afterFailedLogin(ctx, prev), err
	}

	state := m.setState(domain.SessionState{
		Status:      domain.SessionAuthenticated,
		Role:        claims.Role,
		SubjectID:   claims.SubjectID,
		DisplayName: rec.UserName,
	})
	m.logger.Info("logged in", zap.String("user_id", rec.UserID), zap.String("role", rec.Role))
	m.publish(ctx, events.NewEvent(events.EventLoggedIn, rec.UserID, claims.Role, ""))
	return state, nil
}

func (m *Manager) authenticate(ctx context.Context, email, password string) (domain.Record, *domain.Claims, error) {
	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		return domain.Record{}, nil, err
	}

	claims, err := auth.DecodeToken(resp.Token)
	if err != nil {
		return domain.Record{}, nil, err
	}
	if claims.Expired(m.now()) {
		return domain.Record{}, nil, apperrors.NewDecodeError(errors.New("issued token already expired"))
	}

	rec := domain.Record{
		Token:    resp.Token,
		Role:     string(resp.Role),
		UserID:   resp.ID,
		UserName: resp.Name,
	}
	if !resp.Role.Valid() {
		rec.Role = string(claims.Role)
	}
	if rec.UserID == "" {
		rec.UserID = claims.SubjectID
	}
	if rec.UserName == "" {
		rec.UserName = claims.Name
	}
	if err := m.store.Save(ctx, rec); err != nil {
		return domain.Record{}, nil, err
	}
	return rec, claims, nil
}

func (m *Manager) afterFailedLogin(ctx context.Context, prev domain.SessionState) domain.SessionState {
	if prev.IsAuthenticated() {
		if rec, err := m.store.Read(ctx); err == nil && rec.Complete() {
			prev.Loading = false
			return m.setState(prev)
		}
		m.logger.Info("session record gone after failed login", zap.String("user_id", prev.SubjectID))
	}
	return m.setState(domain.SessionState{Status: domain.SessionUnauthenticated})
}

// LogoutOption observes the outcome of the backend logout call.
type LogoutOption func(*logoutConfig)

type logoutConfig struct {
	onSuccess func()
	onFailure func(error)
}

// OnLogoutSuccess runs fn when the backend acknowledged the logout.
func OnLogoutSuccess(fn func()) LogoutOption {
	return func(c *logoutConfig) { c.onSuccess = fn }
}

// OnLogoutFailure runs fn with the backend error. The local session is cleared regardless.
func OnLogoutFailure(fn func(error)) LogoutOption {
	return func(c *logoutConfig) { c.onFailure = fn }
}

// Logout notifies the backend, then always clears the local session.
func (m *Manager) Logout(ctx context.Context, opts ...LogoutOption) error {
	var cfg logoutConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	m.ops.Lock()
	defer m.ops.Unlock()

	prev := m.State()
	m.setLoading(true)

	serverErr := m.api.Logout(ctx)
	if serverErr != nil {
		m.logger.Warn("backend logout failed", zap.Error(serverErr))
	}
	if err := m.store.Clear(context.WithoutCancel(ctx)); err != nil {
		m.logger.Error("clear session record", zap.Error(err))
	}
	m.setState(domain.SessionState{Status: domain.SessionUnauthenticated})

	reason := ""
	if serverErr != nil {
		reason = "backend logout failed"
	}
	m.publish(ctx, events.NewEvent(events.EventLoggedOut, prev.SubjectID, prev.Role, reason))

	if serverErr != nil {
		if cfg.onFailure != nil {
			cfg.onFailure(serverErr)
		}
		return serverErr
	}
	if cfg.onSuccess != nil {
		cfg.onSuccess()
	}
	return nil
}

// ErrNoSession is returned by calls that need a stored token when there is none.
var ErrNoSession = apperrors.NewUnauthorized("no active session")

// HasToken reports whether the store currently holds a token.
func (m *Manager) HasToken(ctx context.Context) bool {
	rec, err := m.store.Read(ctx)
	return err == nil && rec.Token != ""
}

// FetchLiveProfile asks the backend who the stored token belongs to. The endpoint is
// chosen by the stored role; the state machine is not touched.
func (m *Manager) FetchLiveProfile(ctx context.Context) (*domain.Profile, error) {
	rec, err := m.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	if rec.Token == "" {
		return nil, ErrNoSession
	}
	role, ok := domain.ParseRole(rec.Role)
	if !ok {
		role = domain.RoleEmployee
	}
	return m.api.Profile(ctx, role)
}

// State returns a snapshot of the session state.
func (m *Manager) State() domain.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsAuthenticated reports whether the last derivation found a valid session.
func (m *Manager) IsAuthenticated() bool {
	return m.State().IsAuthenticated()
}

// HasRole reports whether the session is authenticated with role.
func (m *Manager) HasRole(role domain.Role) bool {
	s := m.State()
	return s.IsAuthenticated() && s.Role == role
}

func (m *Manager) IsAdmin() bool    { return m.HasRole(domain.RoleAdmin) }
func (m *Manager) IsEmployee() bool { return m.HasRole(domain.RoleEmployee) }

func (m *Manager) setState(s domain.SessionState) domain.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	return s
}

func (m *Manager) setLoading(loading bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Loading = loading
}

func (m *Manager) publish(ctx context.Context, event events.Event) {
	if m.dispatcher == nil {
		return
	}
	if err := m.dispatcher.Publish(ctx, event); err != nil {
		m.logger.Warn("publish session event", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
