// Package api is the HTTP client for the Arca backend. It owns the wire
// contract (login, refresh, resource endpoints) and translates failures into
// the package's error taxonomy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/olimpo-dev/arca-go/transport"
)

const defaultTimeout = 30 * time.Second

// Client issues requests against the backend. Authenticated calls go through
// the bearer/refresh transport chain; login and refresh go through a plain
// client, since a 401 there means bad credentials rather than a renewable
// token.
type Client struct {
	baseURL string
	authed  *http.Client
	public  *http.Client

	base    http.RoundTripper
	timeout time.Duration
	log     zerolog.Logger
}

// Option modifies a Client during construction.
type Option func(*Client)

// WithLogger sets the request logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithTimeout sets the per-request timeout for both clients.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithBaseTransport replaces the underlying RoundTripper (primarily for
// testing).
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.base = rt
	}
}

// New creates a Client for the given base URL, wiring the authenticator and
// refresh coordinator around sess. The client itself serves as the refresher
// via its public refresh endpoint call.
func New(baseURL string, sess transport.Session, options ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[New] baseURL is required")
	}
	if sess == nil {
		return nil, errors.New("[New] session is required")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		base:    http.DefaultTransport,
		timeout: defaultTimeout,
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}

	c.public = &http.Client{Timeout: c.timeout, Transport: c.base}

	authenticator := transport.NewAuthenticator(c.base, sess)
	refresher := transport.RefresherFunc(c.RefreshAccessToken)
	c.authed = &http.Client{
		Timeout:   c.timeout,
		Transport: transport.NewRefreshTransport(authenticator, sess, refresher, transport.WithLogger(c.log)),
	}
	return c, nil
}

// do issues one JSON request and decodes the response into out (skipped when
// out is nil). Failures come back as taxonomy errors.
func (c *Client) do(ctx context.Context, client *http.Client, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "[do] marshal body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "[do] new request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", uuid.New().String())

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	if err := statusError(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "[do] decode response")
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, c.authed, http.MethodGet, path, nil, out)
}
