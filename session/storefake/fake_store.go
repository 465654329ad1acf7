package storefake

import (
	"context"
	"sync"

	"github.com/olimpo-dev/arca-go/session"
)

var _ session.Store = (*FakeStore)(nil)

// FakeStore is an in-memory session.Store for tests. Setting FailWith makes
// every call return that error, to exercise storage failure propagation.
type FakeStore struct {
	mu       sync.RWMutex
	creds    session.Credentials
	user     session.User
	FailWith error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (f *FakeStore) Credentials(ctx context.Context) (session.Credentials, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.FailWith != nil {
		return session.Credentials{}, f.FailWith
	}
	return f.creds, nil
}

func (f *FakeStore) User(ctx context.Context) (session.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.FailWith != nil {
		return session.User{}, f.FailWith
	}
	return f.user, nil
}

func (f *FakeStore) SaveSession(ctx context.Context, creds session.Credentials, user session.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWith != nil {
		return f.FailWith
	}
	f.creds = creds
	f.user = user
	return nil
}

func (f *FakeStore) UpdateAccessToken(ctx context.Context, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWith != nil {
		return f.FailWith
	}
	f.creds.AccessToken = accessToken
	return nil
}

func (f *FakeStore) ClearAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWith != nil {
		return f.FailWith
	}
	f.creds = session.Credentials{}
	f.user = session.User{}
	return nil
}
