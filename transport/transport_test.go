package transport_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/olimpo-dev/arca-go/session"
	"github.com/olimpo-dev/arca-go/session/storefake"
	"github.com/olimpo-dev/arca-go/transport"
)

const (
	staleToken   = "stale-token"
	freshToken   = "fresh-token"
	refreshToken = "refresh-1"
)

type fixture struct {
	sessions     *session.Manager
	client       *http.Client
	refreshCalls atomic.Int32
	refreshErr   error
	refreshDelay time.Duration
}

// newFixture builds the authenticator/refresh chain around an in-memory
// session holding staleToken/refreshToken.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	sessions, err := session.NewManager(context.Background(), storefake.NewFakeStore())
	require.NoError(t, err)

	f := &fixture{sessions: sessions}

	refresher := transport.RefresherFunc(func(ctx context.Context, got string) (string, error) {
		f.refreshCalls.Add(1)
		if f.refreshDelay > 0 {
			time.Sleep(f.refreshDelay)
		}
		if f.refreshErr != nil {
			return "", f.refreshErr
		}
		if got != refreshToken {
			return "", errors.New("unknown refresh token")
		}
		return freshToken, nil
	})

	authenticator := transport.NewAuthenticator(nil, sessions)
	f.client = &http.Client{
		Transport: transport.NewRefreshTransport(authenticator, sessions, refresher),
	}
	return f
}

func (f *fixture) login(t *testing.T, accessToken string) {
	t.Helper()
	creds := session.Credentials{AccessToken: accessToken, RefreshToken: refreshToken}
	require.NoError(t, f.sessions.SetSession(context.Background(), creds, session.User{ID: "u1"}))
}

// newBackend serves 200 only to the fresh token and 401 to everything else,
// recording what it saw.
func newBackend(t *testing.T) (*httptest.Server, *atomic.Int32, *atomic.Int32) {
	t.Helper()
	var staleHits, freshHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer "+freshToken {
			freshHits.Add(1)
			w.WriteHeader(http.StatusOK)
			return
		}
		staleHits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)
	return srv, &staleHits, &freshHits
}

func TestRefreshThenRetry(t *testing.T) {
	f := newFixture(t)
	f.login(t, staleToken)
	srv, staleHits, freshHits := newBackend(t)

	resp, err := f.client.Get(srv.URL + "/products")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(1), f.refreshCalls.Load(), "exactly one refresh per failure")
	require.Equal(t, int32(1), staleHits.Load())
	require.Equal(t, int32(1), freshHits.Load(), "exactly one retry")
	require.Equal(t, freshToken, f.sessions.AccessToken())
	require.Equal(t, refreshToken, f.sessions.RefreshToken(), "refresh token is untouched")
}

func TestRefreshFailureExpiresSession(t *testing.T) {
	f := newFixture(t)
	f.refreshErr = errors.New("refresh token revoked")
	f.login(t, staleToken)
	srv, staleHits, _ := newBackend(t)

	expired, cancel := f.sessions.Expired()
	defer cancel()

	resp, err := f.client.Get(srv.URL + "/products")
	require.NoError(t, err)
	defer resp.Body.Close()

	// The original failure is surfaced, not retried indefinitely.
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, int32(1), staleHits.Load())
	require.Equal(t, int32(1), f.refreshCalls.Load())

	<-expired
	select {
	case <-expired:
		t.Fatal("expected exactly one expiry event")
	default:
	}
	require.False(t, f.sessions.LoggedIn(), "token store is cleared on expiry")
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	f := newFixture(t)
	f.refreshDelay = 50 * time.Millisecond
	f.login(t, staleToken)
	srv, _, _ := newBackend(t)

	const workers = 8
	var wg sync.WaitGroup
	statuses := make([]int, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.client.Get(srv.URL + "/products")
			if err != nil {
				errs[i] = err
				return
			}
			defer resp.Body.Close()
			statuses[i] = resp.StatusCode
		}()
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, http.StatusOK, statuses[i])
	}
	require.Equal(t, int32(1), f.refreshCalls.Load(), "concurrent failures must converge on one refresh")
}

func TestProactiveRefreshOnExpiredClaim(t *testing.T) {
	f := newFixture(t)
	f.login(t, expiredJWT(t))
	srv, staleHits, freshHits := newBackend(t)

	resp, err := f.client.Get(srv.URL + "/products")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(1), f.refreshCalls.Load())
	require.Equal(t, int32(0), staleHits.Load(), "the doomed request is never sent")
	require.Equal(t, int32(1), freshHits.Load())
}

func TestNoSessionPassesThrough(t *testing.T) {
	f := newFixture(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("expected no authorization header")
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	resp, err := f.client.Get(srv.URL + "/products")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, int32(0), f.refreshCalls.Load(), "nothing to refresh without a session")
}

func TestNonReplayableBodyIsNotRetried(t *testing.T) {
	f := newFixture(t)
	f.login(t, staleToken)
	srv, staleHits, _ := newBackend(t)

	// A bare io.Reader leaves GetBody nil, so the request can't be replayed.
	body := struct{ *strings.Reader }{strings.NewReader(`{"name":"mate"}`)}
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/products", body)
	require.NoError(t, err)
	require.Nil(t, req.GetBody)

	resp, err := f.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, int32(1), staleHits.Load())
	require.Equal(t, int32(0), f.refreshCalls.Load())
}

func TestReplayablePostIsRetriedWithBody(t *testing.T) {
	f := newFixture(t)
	f.login(t, staleToken)

	var bodies []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(data))
		mu.Unlock()
		if r.Header.Get("Authorization") == "Bearer "+freshToken {
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	resp, err := f.client.Post(srv.URL+"/products", "application/json", strings.NewReader(`{"name":"mate"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, []string{`{"name":"mate"}`, `{"name":"mate"}`}, bodies, "the retry carries the same body")
}

// expiredJWT returns a syntactically valid JWT whose exp claim is in the
// past. The signature doesn't matter; only the claim is read.
func expiredJWT(t *testing.T) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}
