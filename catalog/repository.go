// Package catalog serves products, supplies, and their batches with a
// cache-first read policy: a snapshot younger than the validity window is
// served locally, anything else is refetched and the snapshot replaced.
package catalog

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/olimpo-dev/arca-go/api"
	"github.com/olimpo-dev/arca-go/cache"
	"github.com/olimpo-dev/arca-go/cache/cachefile"
)

// API is the slice of the backend client the repository needs.
type API interface {
	Products(ctx context.Context) ([]api.Product, error)
	ProductBatches(ctx context.Context) ([]api.ProductBatch, error)
	Supplies(ctx context.Context) ([]api.Supply, error)
	SupplyBatches(ctx context.Context) ([]api.SupplyBatch, error)
}

// Repository owns one time-bounded cache per catalog resource.
type Repository struct {
	api API
	log zerolog.Logger

	products       *cache.Cache[[]api.Product]
	productBatches *cache.Cache[[]api.ProductBatch]
	supplies       *cache.Cache[[]api.Supply]
	supplyBatches  *cache.Cache[[]api.SupplyBatch]
}

type settings struct {
	log      zerolog.Logger
	nowTime  func() time.Time
	backends func(name string) cache.Backend
}

// Option modifies the Repository during construction.
type Option func(*settings)

// WithLogger sets the repository logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *settings) {
		s.log = log
	}
}

// WithNowTime sets the now time function used for cache validity (primarily
// for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *settings) {
		s.nowTime = nowFunc
	}
}

// WithBackends replaces the per-resource backend factory (primarily for
// testing).
func WithBackends(factory func(name string) cache.Backend) Option {
	return func(s *settings) {
		s.backends = factory
	}
}

// New creates a Repository whose caches live as one file per resource under
// dir, matching the one-store-per-resource layout of the original app.
func New(client API, dir string, options ...Option) *Repository {
	s := settings{
		log:     zerolog.Nop(),
		nowTime: time.Now,
		backends: func(name string) cache.Backend {
			return cachefile.New(dir, name)
		},
	}
	for _, opt := range options {
		opt(&s)
	}

	return &Repository{
		api:            client,
		log:            s.log,
		products:       cache.New(s.backends("products"), cache.WithNowTime[[]api.Product](s.nowTime)),
		productBatches: cache.New(s.backends("product_batches"), cache.WithNowTime[[]api.ProductBatch](s.nowTime)),
		supplies:       cache.New(s.backends("supplies"), cache.WithNowTime[[]api.Supply](s.nowTime)),
		supplyBatches:  cache.New(s.backends("supply_batches"), cache.WithNowTime[[]api.SupplyBatch](s.nowTime)),
	}
}

func (r *Repository) Products(ctx context.Context) ([]api.Product, error) {
	return cachedFetch(ctx, r.products, r.api.Products, r.log, "products")
}

func (r *Repository) ProductBatches(ctx context.Context) ([]api.ProductBatch, error) {
	return cachedFetch(ctx, r.productBatches, r.api.ProductBatches, r.log, "product_batches")
}

func (r *Repository) Supplies(ctx context.Context) ([]api.Supply, error) {
	return cachedFetch(ctx, r.supplies, r.api.Supplies, r.log, "supplies")
}

func (r *Repository) SupplyBatches(ctx context.Context) ([]api.SupplyBatch, error) {
	return cachedFetch(ctx, r.supplyBatches, r.api.SupplyBatches, r.log, "supply_batches")
}

// Invalidate drops every cached snapshot, forcing the next read to hit the
// backend. Called on logout and on user-forced refresh.
func (r *Repository) Invalidate() error {
	for name, drop := range map[string]func() error{
		"products":        r.products.Clear,
		"product_batches": r.productBatches.Clear,
		"supplies":        r.supplies.Clear,
		"supply_batches":  r.supplyBatches.Clear,
	} {
		if err := drop(); err != nil {
			return errors.Wrapf(err, "[Invalidate] %s", name)
		}
	}
	return nil
}

// cachedFetch is the shared cache-first read: a fresh snapshot short-circuits
// the network; otherwise the remote result replaces the snapshot. A failed
// cache write is logged, not fatal — the remote data is still good.
func cachedFetch[T any](ctx context.Context, c *cache.Cache[T], remote func(context.Context) (T, error), log zerolog.Logger, name string) (T, error) {
	if c.Valid() {
		if v, ok, err := c.Read(); err == nil && ok {
			log.Debug().Str("resource", name).Msg("serving cached snapshot")
			return v, nil
		}
	}

	v, err := remote(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := c.Save(v); err != nil {
		log.Warn().Err(err).Str("resource", name).Msg("saving cache snapshot")
	}
	return v, nil
}
