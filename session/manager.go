package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Manager owns the live session state. It fronts a Store with an in-memory
// copy of the credentials so synchronous interception points (the HTTP
// transport) can read the current token without an async storage round trip,
// publishes token changes to watchers, and broadcasts session expiry.
//
// All runtime mutation of the session goes through the Manager; the Store is
// never written to directly by other components.
type Manager struct {
	store Store
	log   zerolog.Logger

	mu         sync.RWMutex
	creds      Credentials
	user       User
	generation uint64

	subMu    sync.Mutex
	watchers map[chan string]struct{}
	expiry   map[chan struct{}]struct{}
}

// ManagerOption modifies a Manager during construction.
type ManagerOption func(*Manager)

// WithLogger sets the logger used for session lifecycle events.
func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager creates a Manager backed by the given store and primes the
// in-memory state from whatever the store already holds, so an app restart
// resumes the previous session without a network round trip.
func NewManager(ctx context.Context, store Store, options ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, errors.New("[NewManager] store is required")
	}

	m := &Manager{
		store:    store,
		log:      zerolog.Nop(),
		watchers: make(map[chan string]struct{}),
		expiry:   make(map[chan struct{}]struct{}),
	}

	for _, opt := range options {
		opt(m)
	}

	creds, err := store.Credentials(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[NewManager] store.Credentials")
	}
	user, err := store.User(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[NewManager] store.User")
	}

	m.creds = creds
	m.user = user
	return m, nil
}

// AccessToken returns the current access token, or "" when logged out.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.AccessToken
}

// RefreshToken returns the current refresh token, or "" when logged out.
func (m *Manager) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.RefreshToken
}

// CurrentUser returns the identity persisted with the session.
func (m *Manager) CurrentUser() User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// LoggedIn reports whether a session is currently held.
func (m *Manager) LoggedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.creds.Empty()
}

// Generation returns the token generation counter. It increments on every
// token change (login, refresh, clear) and keys the single-flight refresh so
// that late retries for an already-replaced token don't refresh again.
func (m *Manager) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// SetSession persists a freshly issued token pair and identity. Both tokens
// must be present; they are only ever stored as a pair.
func (m *Manager) SetSession(ctx context.Context, creds Credentials, user User) error {
	if creds.AccessToken == "" || creds.RefreshToken == "" {
		return errors.New("[SetSession] both access and refresh tokens are required")
	}

	if err := m.store.SaveSession(ctx, creds, user); err != nil {
		return errors.Wrap(err, "[SetSession] store.SaveSession")
	}

	m.mu.Lock()
	m.creds = creds
	m.user = user
	m.generation++
	m.mu.Unlock()

	m.log.Debug().Str("username", user.Username).Msg("session established")
	m.publish(creds.AccessToken)
	return nil
}

// UpdateAccessToken replaces the access token after a successful refresh,
// leaving the refresh token untouched.
func (m *Manager) UpdateAccessToken(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return errors.New("[UpdateAccessToken] access token is required")
	}

	if err := m.store.UpdateAccessToken(ctx, accessToken); err != nil {
		return errors.Wrap(err, "[UpdateAccessToken] store.UpdateAccessToken")
	}

	m.mu.Lock()
	m.creds.AccessToken = accessToken
	m.generation++
	m.mu.Unlock()

	m.log.Debug().Msg("access token refreshed")
	m.publish(accessToken)
	return nil
}

// Logout clears the session. It emits on the same expired stream as an
// involuntary expiry so a single downstream handler serves both paths.
func (m *Manager) Logout(ctx context.Context) error {
	return errors.Wrap(m.clear(ctx), "[Logout]")
}

// Expire tears the session down after an unrecoverable refresh failure and
// notifies expiry listeners. Calling Expire with no session held is a no-op,
// so a wave of failing requests produces at most one broadcast.
func (m *Manager) Expire(ctx context.Context) error {
	return errors.Wrap(m.clear(ctx), "[Expire]")
}

func (m *Manager) clear(ctx context.Context) error {
	m.mu.Lock()
	hadSession := !m.creds.Empty()
	m.mu.Unlock()

	if !hadSession {
		return nil
	}

	if err := m.store.ClearAll(ctx); err != nil {
		return errors.Wrap(err, "store.ClearAll")
	}

	m.mu.Lock()
	m.creds = Credentials{}
	m.user = User{}
	m.generation++
	m.mu.Unlock()

	m.log.Info().Msg("session cleared")
	m.publish("")
	m.broadcastExpired()
	return nil
}

// WatchAccessToken subscribes to access token changes. The channel re-emits
// whenever the token changes ("" on clear); slow consumers only see the
// latest value. The returned func cancels the subscription.
func (m *Manager) WatchAccessToken() (<-chan string, func()) {
	ch := make(chan string, 1)

	m.subMu.Lock()
	m.watchers[ch] = struct{}{}
	m.subMu.Unlock()

	cancel := func() {
		m.subMu.Lock()
		delete(m.watchers, ch)
		m.subMu.Unlock()
	}
	return ch, cancel
}

// Expired subscribes to session-expiry notifications. One value arrives per
// transition to the expired state (or per logout). The returned func cancels
// the subscription.
func (m *Manager) Expired() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	m.subMu.Lock()
	m.expiry[ch] = struct{}{}
	m.subMu.Unlock()

	cancel := func() {
		m.subMu.Lock()
		delete(m.expiry, ch)
		m.subMu.Unlock()
	}
	return ch, cancel
}

func (m *Manager) publish(token string) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for ch := range m.watchers {
		// Latest-wins: drop any unread value so slow watchers never block us.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- token:
		default:
		}
	}
}

func (m *Manager) broadcastExpired() {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for ch := range m.expiry {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
