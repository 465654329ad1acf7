package session

import "context"

// Store is durable storage for the session's credentials and identity.
// Implementations serialize concurrent access internally; composite
// read-then-decide-then-write flows (refresh coordination) are the Manager's
// job, not the Store's.
//
// Reads of absent values return zero values, not errors. Errors are reserved
// for real storage failures and always propagate to the caller.
type Store interface {
	Credentials(ctx context.Context) (Credentials, error)
	User(ctx context.Context) (User, error)

	// SaveSession writes both tokens and the identity atomically. Called once
	// after a successful login; the tokens are only ever written as a pair.
	SaveSession(ctx context.Context, creds Credentials, user User) error

	// UpdateAccessToken overwrites the access token after a successful
	// refresh, leaving the refresh token and identity untouched.
	UpdateAccessToken(ctx context.Context, accessToken string) error

	// ClearAll wipes every stored value. Called on logout and on
	// unrecoverable session expiry.
	ClearAll(ctx context.Context) error
}
