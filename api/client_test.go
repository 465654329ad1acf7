package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/olimpo-dev/arca-go/api"
	"github.com/olimpo-dev/arca-go/session"
	"github.com/olimpo-dev/arca-go/session/storefake"
)

func newSessions(t *testing.T) *session.Manager {
	t.Helper()
	sessions, err := session.NewManager(context.Background(), storefake.NewFakeStore())
	require.NoError(t, err)
	return sessions
}

func newClient(t *testing.T, handler http.Handler) (*api.Client, *session.Manager) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sessions := newSessions(t)
	client, err := api.New(srv.URL, sessions)
	require.NoError(t, err)
	return client, sessions
}

func TestLogin(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/login", r.URL.Path)

		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "bob", body.Username)
		require.Equal(t, "secret", body.Password)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":         map[string]string{"id": "u1", "username": "bob", "role": "COORD"},
			"accessToken":  "A1",
			"refreshToken": "R1",
		})
	}))

	creds, user, err := client.Login(context.Background(), "bob", "secret")
	require.NoError(t, err)
	require.Equal(t, session.Credentials{AccessToken: "A1", RefreshToken: "R1"}, creds)
	require.Equal(t, session.User{ID: "u1", Username: "bob", Role: "COORD"}, user)
}

func TestLoginRejectedIsUnauthorized(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, _, err := client.Login(context.Background(), "bob", "wrong")
	require.Error(t, err)
	require.True(t, api.IsUnauthorized(err))
	require.False(t, api.IsServer(err))
	require.False(t, api.IsNetwork(err))
}

func TestServerErrorTaxonomy(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.Products(context.Background())
	require.Error(t, err)
	require.True(t, api.IsServer(err))

	var se *api.ServerError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadGateway, se.Status)
}

func TestNetworkErrorTaxonomy(t *testing.T) {
	sessions := newSessions(t)
	// Nothing listens on port 1.
	client, err := api.New("http://127.0.0.1:1", sessions, api.WithTimeout(time.Second))
	require.NoError(t, err)

	_, _, err = client.Login(context.Background(), "bob", "secret")
	require.Error(t, err)
	require.True(t, api.IsNetwork(err))
	require.False(t, api.IsUnauthorized(err))
}

func TestUnknownStatusKeepsOriginalMessage(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("workshop already exists"))
	}))

	_, err := client.Workshops(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected status 409")
	require.Contains(t, err.Error(), "workshop already exists")
}

func TestRequestCarriesRequestID(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := uuid.Parse(r.Header.Get("X-Request-Id"))
		require.NoError(t, err)
		_, _ = w.Write([]byte("[]"))
	}))

	_, err := client.Supplies(context.Background())
	require.NoError(t, err)
}

func TestAuthenticatedRequestRefreshesOn401(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/refresh", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "R1", body.RefreshToken)
		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "fresh"})
	})
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]string{{"id": "p1", "name": "Mate kit"}})
	})

	client, sessions := newClient(t, mux)
	creds := session.Credentials{AccessToken: "stale", RefreshToken: "R1"}
	require.NoError(t, sessions.SetSession(context.Background(), creds, session.User{ID: "u1"}))

	products, err := client.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "p1", products[0].ID)
	require.Equal(t, "fresh", sessions.AccessToken())
}

func TestTokenSource(t *testing.T) {
	sessions := newSessions(t)
	source := api.TokenSource(sessions)

	_, err := source.Token()
	require.Error(t, err, "no token while logged out")

	creds := session.Credentials{AccessToken: "A1", RefreshToken: "R1"}
	require.NoError(t, sessions.SetSession(context.Background(), creds, session.User{}))

	token, err := source.Token()
	require.NoError(t, err)
	require.Equal(t, "A1", token.AccessToken)
	require.Equal(t, "Bearer", token.TokenType)
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := api.New("", newSessions(t))
	require.Error(t, err)

	_, err = api.New("http://localhost", nil)
	require.Error(t, err)
}
