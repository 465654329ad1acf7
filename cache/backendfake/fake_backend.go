package backendfake

import (
	"sync"

	"github.com/olimpo-dev/arca-go/cache"
)

var _ cache.Backend = (*FakeBackend)(nil)

// FakeBackend is an in-memory cache.Backend for tests. Setting FailWith makes
// every call return that error.
type FakeBackend struct {
	mu       sync.Mutex
	entry    cache.Entry
	stored   bool
	FailWith error
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{}
}

func (f *FakeBackend) Load() (cache.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWith != nil {
		return cache.Entry{}, f.FailWith
	}
	if !f.stored {
		return cache.Entry{}, nil
	}
	return f.entry, nil
}

func (f *FakeBackend) Store(entry cache.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWith != nil {
		return f.FailWith
	}
	f.entry = entry
	f.stored = true
	return nil
}

func (f *FakeBackend) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWith != nil {
		return f.FailWith
	}
	f.entry = cache.Entry{}
	f.stored = false
	return nil
}

// Seed places an entry directly, bypassing Store, for staleness scenarios.
func (f *FakeBackend) Seed(entry cache.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entry = entry
	f.stored = true
}
