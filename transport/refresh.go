package transport

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// RefresherFunc adapts a function to the Refresher interface.
type RefresherFunc func(ctx context.Context, refreshToken string) (string, error)

func (f RefresherFunc) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return f(ctx, refreshToken)
}

// RefreshTransport coordinates token renewal around an authenticated
// transport. On a 401 it refreshes the access token exactly once per token
// generation — concurrent failures collapse into a single exchange — and
// retries the original request once with the new token. If the refresh
// itself fails the session is expired and the original 401 is surfaced.
type RefreshTransport struct {
	next      http.RoundTripper
	session   Session
	refresher Refresher
	group     singleflight.Group
	nowTime   func() time.Time
	log       zerolog.Logger
}

// RefreshOption modifies a RefreshTransport during construction.
type RefreshOption func(*RefreshTransport)

// WithLogger sets the logger for refresh events.
func WithLogger(log zerolog.Logger) RefreshOption {
	return func(t *RefreshTransport) {
		t.log = log
	}
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) RefreshOption {
	return func(t *RefreshTransport) {
		t.nowTime = nowFunc
	}
}

// NewRefreshTransport wraps next, which is expected to already attach the
// bearer token (see Authenticator).
func NewRefreshTransport(next http.RoundTripper, sess Session, refresher Refresher, options ...RefreshOption) *RefreshTransport {
	t := &RefreshTransport{
		next:      next,
		session:   sess,
		refresher: refresher,
		nowTime:   time.Now,
		log:       zerolog.Nop(),
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

func (t *RefreshTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	generation := t.session.Generation()

	// An access token already past its exp claim is guaranteed a rejection;
	// renew up front and save the round trip.
	if token := t.session.AccessToken(); token != "" && tokenExpired(token, t.nowTime()) {
		if err := t.refresh(req.Context(), generation); err != nil {
			t.log.Debug().Err(err).Msg("proactive refresh failed")
		}
		generation = t.session.Generation()
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	if t.session.AccessToken() == "" {
		// Not an expired-token failure; there is no session to renew.
		return resp, nil
	}
	if req.Body != nil && req.GetBody == nil {
		// Body already consumed and not replayable.
		return resp, nil
	}

	if err := t.refresh(req.Context(), generation); err != nil {
		// Surface the original 401 to the caller; the session teardown and
		// expiry broadcast have already happened inside refresh.
		return resp, nil
	}

	// At most one retry per original request, whatever its outcome.
	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, bodyErr := req.GetBody()
		if bodyErr != nil {
			return resp, nil
		}
		retry.Body = body
	}
	resp.Body.Close()

	t.log.Debug().Str("path", req.URL.Path).Msg("retrying request with refreshed token")
	return t.next.RoundTrip(retry)
}

// refresh performs a single-flight token exchange keyed by the generation the
// failing request was sent under. Late arrivals for a generation that has
// already been replaced return immediately without spending the refresh
// token again.
func (t *RefreshTransport) refresh(ctx context.Context, generation uint64) error {
	key := strconv.FormatUint(generation, 10)
	_, err, _ := t.group.Do(key, func() (any, error) {
		if t.session.Generation() != generation {
			return nil, nil
		}

		refreshToken := t.session.RefreshToken()
		if refreshToken == "" {
			return nil, errors.New("no refresh token held")
		}

		accessToken, err := t.refresher.Refresh(ctx, refreshToken)
		if err != nil {
			t.log.Warn().Err(err).Msg("token refresh failed, session expired")
			if clearErr := t.session.Expire(ctx); clearErr != nil {
				t.log.Error().Err(clearErr).Msg("clearing expired session")
			}
			return nil, errors.Wrap(err, "refresher.Refresh")
		}
		return nil, t.session.UpdateAccessToken(ctx, accessToken)
	})
	return errors.Wrap(err, "[refresh]")
}
