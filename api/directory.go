package api

import (
	"context"

	"github.com/pkg/errors"
)

// Directory resources: workshops and the people around them. These change
// more often than the catalog and are always fetched live.

type Workshop struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	StartsAt    string `json:"startsAt"`
	EndsAt      string `json:"endsAt"`
}

type Beneficiary struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Document  string `json:"document"`
	Phone     string `json:"phone"`
}

type Collaborator struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Email        string `json:"email"`
}

func (c *Client) Workshops(ctx context.Context) ([]Workshop, error) {
	var out []Workshop
	if err := c.get(ctx, "/workshops", &out); err != nil {
		return nil, errors.Wrap(err, "[Workshops]")
	}
	return out, nil
}

func (c *Client) Workshop(ctx context.Context, id string) (Workshop, error) {
	var out Workshop
	if err := c.get(ctx, "/workshops/"+id, &out); err != nil {
		return Workshop{}, errors.Wrap(err, "[Workshop]")
	}
	return out, nil
}

func (c *Client) Beneficiaries(ctx context.Context) ([]Beneficiary, error) {
	var out []Beneficiary
	if err := c.get(ctx, "/beneficiaries", &out); err != nil {
		return nil, errors.Wrap(err, "[Beneficiaries]")
	}
	return out, nil
}

func (c *Client) Collaborators(ctx context.Context) ([]Collaborator, error) {
	var out []Collaborator
	if err := c.get(ctx, "/collaborators", &out); err != nil {
		return nil, errors.Wrap(err, "[Collaborators]")
	}
	return out, nil
}
