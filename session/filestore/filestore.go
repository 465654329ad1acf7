// Package filestore persists the session as a single JSON document on disk,
// the moral equivalent of the mobile app's preference store.
package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/olimpo-dev/arca-go/session"
)

const fileName = "session.json"

var _ session.Store = (*Store)(nil)

// Store writes the whole session document atomically (temp file + rename), so
// readers never observe a torn write and the access/refresh tokens always
// change together or not at all.
type Store struct {
	path string
	mu   sync.Mutex
}

type document struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	Username     string `json:"username,omitempty"`
	UserRole     string `json:"user_role,omitempty"`
}

// New creates a Store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{path: filepath.Join(dir, fileName)}
}

func (s *Store) Credentials(ctx context.Context) (session.Credentials, error) {
	doc, err := s.load()
	if err != nil {
		return session.Credentials{}, errors.Wrap(err, "[Credentials]")
	}
	return session.Credentials{AccessToken: doc.AccessToken, RefreshToken: doc.RefreshToken}, nil
}

func (s *Store) User(ctx context.Context) (session.User, error) {
	doc, err := s.load()
	if err != nil {
		return session.User{}, errors.Wrap(err, "[User]")
	}
	return session.User{ID: doc.UserID, Username: doc.Username, Role: doc.UserRole}, nil
}

func (s *Store) SaveSession(ctx context.Context, creds session.Credentials, user session.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := document{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		UserID:       user.ID,
		Username:     user.Username,
		UserRole:     user.Role,
	}
	return errors.Wrap(s.write(doc), "[SaveSession]")
}

func (s *Store) UpdateAccessToken(ctx context.Context, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return errors.Wrap(err, "[UpdateAccessToken]")
	}
	doc.AccessToken = accessToken
	return errors.Wrap(s.write(doc), "[UpdateAccessToken]")
}

func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[ClearAll] remove")
	}
	return nil
}

func (s *Store) load() (document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) read() (document, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return document{}, nil
	}
	if err != nil {
		return document{}, errors.Wrap(err, "read")
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		// A corrupt file reads as an empty session rather than wedging login.
		return document{}, nil
	}
	return doc, nil
}

func (s *Store) write(doc document) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "mkdir")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "marshal")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "write temp")
	}
	return errors.Wrap(os.Rename(tmp, s.path), "rename")
}
