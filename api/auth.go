package api

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/olimpo-dev/arca-go/session"
)

const (
	loginPath   = "/login"
	refreshPath = "/refresh"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type loginResponse struct {
	User         userPayload `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// Login exchanges credentials for a token pair and the user's identity. A
// 401 here surfaces as ErrUnauthorized (invalid credentials); it never
// triggers the refresh flow.
func (c *Client) Login(ctx context.Context, username, password string) (session.Credentials, session.User, error) {
	var resp loginResponse
	err := c.do(ctx, c.public, http.MethodPost, loginPath, loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return session.Credentials{}, session.User{}, errors.Wrap(err, "[Login]")
	}

	creds := session.Credentials{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	user := session.User{ID: resp.User.ID, Username: resp.User.Username, Role: resp.User.Role}
	return creds, user, nil
}

// RefreshAccessToken exchanges the refresh token for a new access token. It
// deliberately uses the public client: routing it through the authenticated
// chain would recurse into the refresh coordinator.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	var resp refreshResponse
	err := c.do(ctx, c.public, http.MethodPost, refreshPath, refreshRequest{RefreshToken: refreshToken}, &resp)
	if err != nil {
		return "", errors.Wrap(err, "[RefreshAccessToken]")
	}
	if resp.AccessToken == "" {
		return "", errors.New("[RefreshAccessToken] backend returned an empty access token")
	}
	return resp.AccessToken, nil
}
