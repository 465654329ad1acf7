// Package cachefile stores one cache entry per resource as a small JSON file,
// mirroring the original one-preference-store-per-resource layout: a payload
// string plus a last_update timestamp in milliseconds since epoch.
package cachefile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/olimpo-dev/arca-go/cache"
)

var _ cache.Backend = (*Backend)(nil)

// Backend persists a single cache.Entry under <dir>/<name>.json.
type Backend struct {
	path string
	mu   sync.Mutex
}

type document struct {
	Payload    string `json:"payload"`
	LastUpdate int64  `json:"last_update"`
}

// New creates a Backend for the named resource rooted at dir.
func New(dir, name string) *Backend {
	return &Backend{path: filepath.Join(dir, name+".json")}
}

func (b *Backend) Load() (cache.Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return cache.Entry{}, nil
	}
	if err != nil {
		return cache.Entry{}, errors.Wrap(err, "[Load] read")
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		// Treat a corrupt cache file as empty; the caller will refetch.
		return cache.Entry{}, nil
	}

	entry := cache.Entry{Payload: []byte(doc.Payload)}
	if doc.LastUpdate > 0 {
		entry.LastUpdate = time.UnixMilli(doc.LastUpdate)
	}
	return entry, nil
}

func (b *Backend) Store(entry cache.Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(b.path), 0o700); err != nil {
		return errors.Wrap(err, "[Store] mkdir")
	}

	doc := document{
		Payload:    string(entry.Payload),
		LastUpdate: entry.LastUpdate.UnixMilli(),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "[Store] marshal")
	}

	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "[Store] write temp")
	}
	return errors.Wrap(os.Rename(tmp, b.path), "[Store] rename")
}

func (b *Backend) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[Clear] remove")
	}
	return nil
}
