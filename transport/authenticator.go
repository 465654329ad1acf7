// Package transport implements the authenticated HTTP client pipeline: a
// bearer-token authenticator and a refresh coordinator that retries a request
// once after renewing the access token.
package transport

import (
	"context"
	"net/http"
)

// Session is the slice of the session manager the transport layer needs.
type Session interface {
	AccessToken() string
	RefreshToken() string
	Generation() uint64
	UpdateAccessToken(ctx context.Context, accessToken string) error
	Expire(ctx context.Context) error
}

// Authenticator is an http.RoundTripper that attaches the current access
// token as a bearer credential. Requests go out unmodified when no token is
// held.
type Authenticator struct {
	next    http.RoundTripper
	session Session
}

// NewAuthenticator wraps next (http.DefaultTransport when nil).
func NewAuthenticator(next http.RoundTripper, sess Session) *Authenticator {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Authenticator{next: next, session: sess}
}

func (a *Authenticator) RoundTrip(req *http.Request) (*http.Response, error) {
	token := a.session.AccessToken()
	if token == "" {
		return a.next.RoundTrip(req)
	}

	// RoundTrippers must not mutate the caller's request.
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return a.next.RoundTrip(clone)
}
