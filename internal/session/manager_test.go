package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/api/dto"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/apiclient"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/events"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/tokenstore"
	apperrors "github.com/abhidhakal/HReady-WebApp-sub001/pkg/util/errorutil"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func makeTestJWT(t *testing.T, subject string, role domain.Role, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": string(role),
		"name": "Test User",
		"exp":  exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

type fakeAPI struct {
	mu           sync.Mutex
	loginResp    *dto.LoginResponse
	loginErr     error
	logoutErr    error
	logoutCalls  int
	profile      *domain.Profile
	profileErr   error
	profileRoles []domain.Role
}

func (f *fakeAPI) Login(context.Context, string, string) (*dto.LoginResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeAPI) Profile(_ context.Context, role domain.Role) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileRoles = append(f.profileRoles, role)
	return f.profile, f.profileErr
}

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) types() []events.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]events.EventType, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	api   *fakeAPI
	keys  *tokenstore.MemoryKeyspace
	store tokenstore.Store
	log   *eventLog
	disp  events.Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	keys := tokenstore.NewMemory()
	f := &fixture{
		api:   &fakeAPI{},
		keys:  keys,
		store: keys.For("browser-1"),
		log:   &eventLog{},
		disp:  events.NewBusDispatcher(nil),
	}
	for _, et := range events.AllSessionEvents {
		require.NoError(t, f.disp.Subscribe(et, func(_ context.Context, e events.Event) error {
			f.log.mu.Lock()
			defer f.log.mu.Unlock()
			f.log.events = append(f.log.events, e)
			return nil
		}))
	}
	return f
}

func (f *fixture) manager() *Manager {
	return NewManager(context.Background(), f.api, f.store, Options{
		Dispatcher: f.disp,
		Now:        func() time.Time { return fixedNow },
	})
}

func (f *fixture) read(t *testing.T) domain.Record {
	t.Helper()
	rec, err := f.store.Read(context.Background())
	require.NoError(t, err)
	return rec
}

func validRecord(t *testing.T, role domain.Role) domain.Record {
	return domain.Record{
		Token:    makeTestJWT(t, "u1", role, fixedNow.Add(time.Hour)),
		Role:     string(role),
		UserID:   "u1",
		UserName: "Sita Sharma",
	}
}

func TestHydrateValidRecord(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save(context.Background(), validRecord(t, domain.RoleAdmin)))

	m := f.manager()
	state := m.State()

	assert.Equal(t, domain.SessionAuthenticated, state.Status)
	assert.Equal(t, domain.RoleAdmin, state.Role)
	assert.Equal(t, "u1", state.SubjectID)
	assert.Equal(t, "Sita Sharma", state.DisplayName)
	assert.False(t, state.Loading)
	assert.True(t, m.IsAdmin())
	assert.False(t, m.IsEmployee())
	assert.Empty(t, f.log.types())
}

func TestHydrateEmptyStore(t *testing.T) {
	f := newFixture(t)
	m := f.manager()

	assert.Equal(t, domain.SessionUnauthenticated, m.State().Status)
	assert.False(t, m.IsAuthenticated())
	assert.Empty(t, f.log.types())
}

func TestHydrateClearsInvalidRecords(t *testing.T) {
	tests := []struct {
		name  string
		rec   func(t *testing.T) domain.Record
		event events.EventType
	}{
		{
			name: "expired",
			rec: func(t *testing.T) domain.Record {
				rec := validRecord(t, domain.RoleEmployee)
				rec.Token = makeTestJWT(t, "u1", domain.RoleEmployee, fixedNow.Add(-time.Minute))
				return rec
			},
			event: events.EventSessionExpired,
		},
		{
			name: "expires exactly now",
			rec: func(t *testing.T) domain.Record {
				rec := validRecord(t, domain.RoleEmployee)
				rec.Token = makeTestJWT(t, "u1", domain.RoleEmployee, fixedNow)
				return rec
			},
			event: events.EventSessionExpired,
		},
		{
			name: "malformed token",
			rec: func(t *testing.T) domain.Record {
				rec := validRecord(t, domain.RoleEmployee)
				rec.Token = "not-a-jwt"
				return rec
			},
			event: events.EventSessionCorrupted,
		},
		{
			name: "partial record",
			rec: func(t *testing.T) domain.Record {
				rec := validRecord(t, domain.RoleEmployee)
				rec.UserName = ""
				return rec
			},
			event: events.EventSessionCorrupted,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.keys.Put("browser-1", tt.rec(t))

			m := f.manager()

			assert.Equal(t, domain.SessionUnauthenticated, m.State().Status)
			assert.True(t, f.read(t).Empty(), "store must be cleared")
			assert.Equal(t, []events.EventType{tt.event}, f.log.types())
		})
	}
}

type brokenStore struct{ cleared bool }

func (s *brokenStore) Save(context.Context, domain.Record) error { return nil }
func (s *brokenStore) Read(context.Context) (domain.Record, error) {
	return domain.Record{}, errors.New("disk on fire")
}
func (s *brokenStore) Clear(context.Context) error {
	s.cleared = true
	return nil
}

func TestHydrateUnreadableStore(t *testing.T) {
	store := &brokenStore{}
	f := newFixture(t)
	m := NewManager(context.Background(), &fakeAPI{}, store, Options{Dispatcher: f.disp})

	assert.Equal(t, domain.SessionUnauthenticated, m.State().Status)
	assert.False(t, m.State().Loading)
	assert.False(t, store.cleared, "a failed read must not clear the store")
	assert.Empty(t, f.log.types())
}

func TestHydrateCancelledContextKeepsRecord(t *testing.T) {
	f := newFixture(t)
	rec := validRecord(t, domain.RoleEmployee)
	require.NoError(t, f.store.Save(context.Background(), rec))
	m := f.manager()
	require.True(t, m.IsAuthenticated())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	state := m.Hydrate(ctx)

	assert.Equal(t, domain.SessionUnauthenticated, state.Status)
	assert.Equal(t, rec, f.read(t), "record survives a cancelled read")
	assert.Empty(t, f.log.types())

	assert.True(t, m.Hydrate(context.Background()).IsAuthenticated())
}

func TestHydrateRederivesEachCall(t *testing.T) {
	f := newFixture(t)
	m := f.manager()
	require.False(t, m.IsAuthenticated())

	require.NoError(t, f.store.Save(context.Background(), validRecord(t, domain.RoleEmployee)))
	assert.True(t, m.Hydrate(context.Background()).IsAuthenticated())

	require.NoError(t, f.store.Clear(context.Background()))
	assert.False(t, m.Hydrate(context.Background()).IsAuthenticated())
}

func TestLoginPersistsFullRecord(t *testing.T) {
	f := newFixture(t)
	token := makeTestJWT(t, "e7", domain.RoleEmployee, fixedNow.Add(time.Hour))
	f.api.loginResp = &dto.LoginResponse{Token: token, ID: "e7", Role: domain.RoleEmployee, Name: "Ram"}

	m := f.manager()
	state, err := m.Login(context.Background(), "ram@example.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, domain.SessionAuthenticated, state.Status)
	assert.Equal(t, domain.RoleEmployee, state.Role)
	assert.Equal(t, "Ram", state.DisplayName)
	assert.True(t, m.IsEmployee())
	assert.Equal(t, domain.Record{Token: token, Role: "employee", UserID: "e7", UserName: "Ram"}, f.read(t))
	assert.Equal(t, []events.EventType{events.EventLoggedIn}, f.log.types())
}

func TestLoginFailureLeavesStoreUntouched(t *testing.T) {
	f := newFixture(t)
	existing := validRecord(t, domain.RoleAdmin)
	require.NoError(t, f.store.Save(context.Background(), existing))
	f.api.loginErr = apperrors.NewAuthRejected(http.StatusUnauthorized, "Invalid credentials", "/auth/login")

	m := f.manager()
	state, err := m.Login(context.Background(), "sita@example.com", "wrong")

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeAuthRejected))
	assert.Equal(t, domain.SessionAuthenticated, state.Status, "previous session survives")
	assert.False(t, state.Loading)
	assert.Equal(t, existing, f.read(t))
}

type pageNavigator struct {
	path      string
	redirects int
}

func (n *pageNavigator) CurrentPath() string             { return n.path }
func (n *pageNavigator) RedirectToLogin(context.Context) { n.redirects++ }

func TestLoginRejectedOffLoginPageEndsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
	}))
	defer srv.Close()

	f := newFixture(t)
	require.NoError(t, f.store.Save(context.Background(), validRecord(t, domain.RoleAdmin)))
	nav := &pageNavigator{path: "/admin/dashboard"}
	client, err := apiclient.New(apiclient.Options{BaseURL: srv.URL, Store: f.store, Navigator: nav})
	require.NoError(t, err)

	m := NewManager(context.Background(), client, f.store, Options{
		Dispatcher: f.disp,
		Now:        func() time.Time { return fixedNow },
	})
	require.True(t, m.IsAdmin())

	state, err := m.Login(context.Background(), "sita@example.com", "wrong")

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeAuthRejected))
	assert.Equal(t, 1, nav.redirects)
	assert.True(t, f.read(t).Empty())
	assert.Equal(t, domain.SessionUnauthenticated, state.Status)
	assert.False(t, m.IsAuthenticated(), "no stored token, no authenticated session")
}

func TestLoginRejectsUndecodableToken(t *testing.T) {
	f := newFixture(t)
	f.api.loginResp = &dto.LoginResponse{Token: "garbage", ID: "e7", Role: domain.RoleEmployee, Name: "Ram"}

	m := f.manager()
	_, err := m.Login(context.Background(), "ram@example.com", "secret")

	assert.True(t, apperrors.IsCode(err, apperrors.CodeDecodeFailed))
	assert.True(t, f.read(t).Empty())
	assert.False(t, m.IsAuthenticated())
}

func TestLoginFillsMissingFieldsFromToken(t *testing.T) {
	f := newFixture(t)
	token := makeTestJWT(t, "a1", domain.RoleAdmin, fixedNow.Add(time.Hour))
	f.api.loginResp = &dto.LoginResponse{Token: token}

	m := f.manager()
	_, err := m.Login(context.Background(), "admin@example.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, domain.Record{Token: token, Role: "admin", UserID: "a1", UserName: "Test User"}, f.read(t))
}

func TestLogoutClearsEvenWhenServerFails(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save(context.Background(), validRecord(t, domain.RoleEmployee)))
	f.api.logoutErr = apperrors.NewTransientNetworkError("/auth/logout", 2, errors.New("connection refused"))

	m := f.manager()
	var failed error
	succeeded := false
	err := m.Logout(context.Background(),
		OnLogoutSuccess(func() { succeeded = true }),
		OnLogoutFailure(func(err error) { failed = err }),
	)

	require.Error(t, err)
	assert.Equal(t, err, failed)
	assert.False(t, succeeded)
	assert.True(t, f.read(t).Empty())
	assert.Equal(t, domain.SessionUnauthenticated, m.State().Status)
	assert.Equal(t, []events.EventType{events.EventLoggedOut}, f.log.types())
}

func TestLogoutSuccessCallback(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save(context.Background(), validRecord(t, domain.RoleEmployee)))

	m := f.manager()
	succeeded := false
	require.NoError(t, m.Logout(context.Background(), OnLogoutSuccess(func() { succeeded = true })))

	assert.True(t, succeeded)
	assert.Equal(t, 1, f.api.logoutCalls)
	assert.True(t, f.read(t).Empty())
}

func TestFetchLiveProfileUsesStoredRole(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save(context.Background(), validRecord(t, domain.RoleAdmin)))
	f.api.profile = &domain.Profile{ID: "u1", Name: "Sita Sharma", Role: domain.RoleAdmin}

	m := f.manager()
	profile, err := m.FetchLiveProfile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.RoleAdmin, profile.Role)
	assert.Equal(t, []domain.Role{domain.RoleAdmin}, f.api.profileRoles)
	assert.Equal(t, domain.SessionAuthenticated, m.State().Status)
}

func TestFetchLiveProfileWithoutToken(t *testing.T) {
	f := newFixture(t)
	m := f.manager()

	_, err := m.FetchLiveProfile(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Empty(t, f.api.profileRoles)
	assert.False(t, m.HasToken(context.Background()))
}
