// Package cache implements the time-bounded snapshot cache used for
// read-mostly catalog data. An entry is a serialized snapshot plus its
// last-write time; staleness is advisory — Read still returns expired bytes
// and callers are expected to consult Valid first.
package cache

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Validity is the window within which a stored snapshot is considered fresh.
// It is fixed across every cache instance.
const Validity = 5 * time.Minute

// Entry is a stored snapshot: the serialized payload and the time it was
// written. A zero LastUpdate or empty payload means "nothing usable stored".
type Entry struct {
	Payload    []byte
	LastUpdate time.Time
}

// Missing reports whether the entry holds nothing usable.
func (e Entry) Missing() bool {
	return len(e.Payload) == 0 || e.LastUpdate.IsZero()
}

// Backend is durable storage for a single cache entry. Load returns a zero
// Entry (not an error) when nothing is stored; errors are real storage
// failures and propagate.
type Backend interface {
	Load() (Entry, error)
	Store(Entry) error
	Clear() error
}

// Cache serves a recent snapshot of T from a Backend. Each Save replaces the
// whole snapshot; there are no partial updates.
type Cache[T any] struct {
	backend Backend
	nowTime func() time.Time
}

// Option modifies a Cache during construction.
type Option[T any] func(*Cache[T])

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime[T any](nowFunc func() time.Time) Option[T] {
	return func(c *Cache[T]) {
		c.nowTime = nowFunc
	}
}

// New creates a Cache over the given backend.
func New[T any](backend Backend, options ...Option[T]) *Cache[T] {
	c := &Cache[T]{
		backend: backend,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Save serializes v and unconditionally overwrites any prior entry, stamping
// it with the current time.
func (c *Cache[T]) Save(v T) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "[Save] marshal")
	}
	entry := Entry{Payload: payload, LastUpdate: c.nowTime()}
	return errors.Wrap(c.backend.Store(entry), "[Save] backend.Store")
}

// Read returns the stored snapshot. A missing, blank, or malformed payload
// reads as absent (ok=false), never as a usable entry. Read does not check
// freshness; pair it with Valid.
func (c *Cache[T]) Read() (T, bool, error) {
	var zero T

	entry, err := c.backend.Load()
	if err != nil {
		return zero, false, errors.Wrap(err, "[Read] backend.Load")
	}
	if entry.Missing() {
		return zero, false, nil
	}

	var v T
	if err := json.Unmarshal(entry.Payload, &v); err != nil {
		// Malformed bytes are indistinguishable from no cache at all.
		return zero, false, nil
	}
	return v, true, nil
}

// Valid reports whether a usable entry exists and was written within the
// validity window. Absence of an entry or timestamp is always invalid.
func (c *Cache[T]) Valid() bool {
	entry, err := c.backend.Load()
	if err != nil || entry.Missing() {
		return false
	}
	return c.nowTime().Sub(entry.LastUpdate) < Validity
}

// Clear deletes the stored entry. Used on logout and forced refresh.
func (c *Cache[T]) Clear() error {
	return errors.Wrap(c.backend.Clear(), "[Clear] backend.Clear")
}
