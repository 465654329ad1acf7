package api

import (
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/olimpo-dev/arca-go/transport"
)

// TokenSource exposes the session's current access token as an
// oauth2.TokenSource, so arca credentials compose with oauth2-aware HTTP
// tooling. Renewal stays with the refresh coordinator; this source only
// reports what the session currently holds.
func TokenSource(sess transport.Session) oauth2.TokenSource {
	return tokenSource{sess: sess}
}

type tokenSource struct {
	sess transport.Session
}

func (t tokenSource) Token() (*oauth2.Token, error) {
	access := t.sess.AccessToken()
	if access == "" {
		return nil, errors.New("[TokenSource] no session held")
	}
	return &oauth2.Token{AccessToken: access, TokenType: "Bearer"}, nil
}
