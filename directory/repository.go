// Package directory serves workshops, beneficiaries, and external
// collaborators. These change more often than the catalog, so reads always go
// to the backend.
package directory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/olimpo-dev/arca-go/api"
)

// API is the slice of the backend client the repository needs.
type API interface {
	Workshops(ctx context.Context) ([]api.Workshop, error)
	Workshop(ctx context.Context, id string) (api.Workshop, error)
	Beneficiaries(ctx context.Context) ([]api.Beneficiary, error)
	Collaborators(ctx context.Context) ([]api.Collaborator, error)
}

type Repository struct {
	api API
	log zerolog.Logger
}

// Option modifies the Repository during construction.
type Option func(*Repository)

// WithLogger sets the repository logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Repository) {
		r.log = log
	}
}

func New(client API, options ...Option) *Repository {
	r := &Repository{api: client, log: zerolog.Nop()}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *Repository) Workshops(ctx context.Context) ([]api.Workshop, error) {
	return r.api.Workshops(ctx)
}

func (r *Repository) Workshop(ctx context.Context, id string) (api.Workshop, error) {
	return r.api.Workshop(ctx, id)
}

func (r *Repository) Beneficiaries(ctx context.Context) ([]api.Beneficiary, error) {
	return r.api.Beneficiaries(ctx)
}

func (r *Repository) Collaborators(ctx context.Context) ([]api.Collaborator, error) {
	return r.api.Collaborators(ctx)
}
