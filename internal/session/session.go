// Package session tracks who is logged in and owns the lifecycle of the
// session token: restoring it at startup, storing it on login and
// discarding it on logout, expiry or a failed restore.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-client/internal/client"
	"github.com/adanyl0v/go-todo-client/internal/forms"
	"github.com/adanyl0v/go-todo-client/internal/models"
)

var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrClosed          = errors.New("session closed")
)

type State int

const (
	StateLoading State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

type Route string

const (
	RouteEntry  Route = "/"
	RouteSignUp Route = "/signup"
	RouteTasks  Route = "/tasks"
)

type Navigator interface {
	Navigate(route Route)
}

type NavigatorFunc func(route Route)

func (f NavigatorFunc) Navigate(route Route) {
	f(route)
}

type Option func(*Manager)

// WithClock overrides the time source used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager is the session context. One Manager is created per application
// mount with NewManager, started with Init and torn down with Close.
type Manager struct {
	logger zerolog.Logger
	auth   client.AuthService
	store  TokenStore
	nav    Navigator
	now    func() time.Time

	initOnce sync.Once

	mu      sync.RWMutex
	state   State
	user    *models.User
	loading bool
	closed  bool
}

func NewManager(
	logger zerolog.Logger,
	auth client.AuthService,
	store TokenStore,
	nav Navigator,
	opts ...Option,
) *Manager {
	if nav == nil {
		nav = NavigatorFunc(func(Route) {})
	}

	m := &Manager{
		logger:  logger,
		auth:    auth,
		store:   store,
		nav:     nav,
		now:     time.Now,
		state:   StateLoading,
		loading: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init restores the session from the stored token. Only the first call
// does any work. Problems with the stored token are not returned: they
// end in the unauthenticated state with the token discarded.
func (m *Manager) Init(ctx context.Context) {
	m.initOnce.Do(func() {
		user := m.restore(ctx)

		m.mu.Lock()
		defer m.mu.Unlock()
		if user != nil {
			m.user = user
			m.state = StateAuthenticated
		} else if m.state == StateLoading {
			m.state = StateUnauthenticated
		}
		m.loading = false
	})
}

func (m *Manager) restore(ctx context.Context) *models.User {
	token, ok, err := m.store.Get()
	if err != nil {
		m.logger.Error().
			Err(err).
			Msg("failed to read session token")
		m.discardToken()
		return nil
	}
	if !ok {
		m.logger.Debug().Msg("no session token stored")
		return nil
	}

	expiresAt, err := TokenExpiry(token)
	switch {
	case errors.Is(err, ErrNoExpiry):
		// Let the API decide.
		m.logger.Debug().Msg("session token has no expiry claim")
	case err != nil:
		m.logger.Warn().
			Err(err).
			Msg("discarding undecodable session token")
		m.discardToken()
		return nil
	case !expiresAt.After(m.now()):
		m.logger.Info().
			Time("expires_at", expiresAt).
			Msg("session token expired")
		m.discardToken()
		return nil
	}

	user, err := m.auth.CurrentUser(ctx)
	if err != nil {
		m.logger.Warn().
			Err(err).
			Msg("failed to restore session")
		m.discardToken()
		return nil
	}

	m.logger.Info().
		Str("user_id", user.ID).
		Msg("restored session")
	return user
}

// Login authenticates with the API, stores the issued token, loads the
// profile and navigates to the task list. On any failure the error is
// returned and the session stays as it was.
func (m *Manager) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	if m.isClosed() {
		return nil, ErrClosed
	}

	err := forms.ValidateLogin(req)
	if err != nil {
		return nil, err
	}

	resp, err := m.auth.Login(ctx, req)
	if err != nil {
		m.logger.Error().
			Err(err).
			Str("email", req.Email).
			Msg("failed to login")
		return nil, err
	}

	previous, hadPrevious, err := m.store.Get()
	if err != nil {
		m.logger.Warn().
			Err(err).
			Msg("failed to read previous session token")
		hadPrevious = false
	}

	err = m.store.Set(resp.AccessToken)
	if err != nil {
		m.logger.Error().
			Err(err).
			Msg("failed to store session token")
		return nil, err
	}

	user, err := m.auth.CurrentUser(ctx)
	if err != nil {
		m.logger.Error().
			Err(err).
			Msg("failed to fetch current user")
		m.restoreToken(previous, hadPrevious)
		return nil, err
	}

	m.mu.Lock()
	m.user = user
	m.state = StateAuthenticated
	m.mu.Unlock()

	m.logger.Info().
		Str("user_id", user.ID).
		Msg("logged in")
	m.nav.Navigate(RouteTasks)
	return cloneUser(user), nil
}

// SignUp registers an account and sends the user to the login page. It
// does not log in.
func (m *Manager) SignUp(ctx context.Context, req models.SignUpRequest) (*models.User, error) {
	if m.isClosed() {
		return nil, ErrClosed
	}

	err := forms.ValidateSignUp(req)
	if err != nil {
		return nil, err
	}

	user, err := m.auth.SignUp(ctx, req)
	if err != nil {
		m.logger.Error().
			Err(err).
			Str("email", req.Email).
			Msg("failed to sign up")
		return nil, err
	}

	m.logger.Info().
		Str("user_id", user.ID).
		Msg("signed up")
	m.nav.Navigate(RouteEntry)
	return user, nil
}

func (m *Manager) Logout() error {
	if m.isClosed() {
		return ErrClosed
	}

	err := m.store.Delete()

	m.mu.Lock()
	userID := ""
	if m.user != nil {
		userID = m.user.ID
	}
	m.user = nil
	m.state = StateUnauthenticated
	m.loading = false
	m.mu.Unlock()

	if err != nil {
		m.logger.Error().
			Err(err).
			Msg("failed to delete session token")
		return err
	}

	m.logger.Info().
		Str("user_id", userID).
		Msg("logged out")
	m.nav.Navigate(RouteEntry)
	return nil
}

// Close tears the session down. The stored token is left in place so the
// next mount can restore it.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.user = nil
	return nil
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

func (m *Manager) IsAuthenticated() bool {
	return m.State() == StateAuthenticated
}

// User returns a copy of the current user or nil.
func (m *Manager) User() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneUser(m.user)
}

// RequireUser guards authenticated views. It returns ErrUnauthenticated
// when nobody is logged in.
func (m *Manager) RequireUser() (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	if m.state != StateAuthenticated || m.user == nil {
		return nil, ErrUnauthenticated
	}
	return cloneUser(m.user), nil
}

func (m *Manager) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// restoreToken puts back the token that was stored before a failed login
// so the session it belongs to keeps working. Without one the slot is
// emptied and the session reset.
func (m *Manager) restoreToken(previous string, ok bool) {
	m.mu.RLock()
	authenticated := m.state == StateAuthenticated
	m.mu.RUnlock()

	if ok && authenticated {
		err := m.store.Set(previous)
		if err == nil {
			return
		}
		m.logger.Error().
			Err(err).
			Msg("failed to restore previous session token")
	}

	m.discardToken()
	m.mu.Lock()
	m.user = nil
	m.state = StateUnauthenticated
	m.mu.Unlock()
}

func (m *Manager) discardToken() {
	err := m.store.Delete()
	if err != nil {
		m.logger.Error().
			Err(err).
			Msg("failed to delete session token")
	}
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
