// Package authn hosts the login/logout use cases: the only two places where
// a whole session is created or destroyed.
package authn

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/olimpo-dev/arca-go/session"
)

// API is the slice of the backend client the service needs.
type API interface {
	Login(ctx context.Context, username, password string) (session.Credentials, session.User, error)
}

// Caches is anything holding per-user snapshots that must not survive a
// session change.
type Caches interface {
	Invalidate() error
}

type Service struct {
	api      API
	sessions *session.Manager
	caches   Caches
	log      zerolog.Logger
}

// Option modifies the Service during construction.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// WithCaches registers caches to invalidate on login and logout.
func WithCaches(caches Caches) Option {
	return func(s *Service) {
		s.caches = caches
	}
}

// New creates the auth service.
func New(apiClient API, sessions *session.Manager, options ...Option) (*Service, error) {
	if apiClient == nil {
		return nil, errors.New("[New] api client is required")
	}
	if sessions == nil {
		return nil, errors.New("[New] session manager is required")
	}

	s := &Service{api: apiClient, sessions: sessions, log: zerolog.Nop()}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login authenticates against the backend and persists tokens and identity
// together. Any cached snapshots from a previous session are dropped so they
// can't leak across users.
func (s *Service) Login(ctx context.Context, username, password string) (session.User, error) {
	creds, user, err := s.api.Login(ctx, username, password)
	if err != nil {
		return session.User{}, errors.Wrap(err, "[Login]")
	}

	if err := s.sessions.SetSession(ctx, creds, user); err != nil {
		return session.User{}, errors.Wrap(err, "[Login] persist session")
	}

	s.invalidateCaches()
	s.log.Info().Str("username", user.Username).Str("role", user.Role).Msg("logged in")
	return user, nil
}

// Logout clears the stored session and cached snapshots. The session manager
// broadcasts on the expired stream, so the same handler that reacts to an
// involuntary expiry also reacts to logout.
func (s *Service) Logout(ctx context.Context) error {
	s.invalidateCaches()
	return errors.Wrap(s.sessions.Logout(ctx), "[Logout]")
}

// CurrentUser returns the identity held by the session, zero when logged out.
func (s *Service) CurrentUser() session.User {
	return s.sessions.CurrentUser()
}

// LoggedIn reports whether a session is held.
func (s *Service) LoggedIn() bool {
	return s.sessions.LoggedIn()
}

func (s *Service) invalidateCaches() {
	if s.caches == nil {
		return
	}
	if err := s.caches.Invalidate(); err != nil {
		s.log.Warn().Err(err).Msg("invalidating caches")
	}
}
