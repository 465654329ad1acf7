package api

import (
	"context"

	"github.com/pkg/errors"
)

// Catalog resources: products and supplies, plus the batches they arrive in.
// All read-mostly; these are the four resources the repositories cache.

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Stock       int    `json:"stock"`
}

type ProductBatch struct {
	ID         string `json:"id"`
	ProductID  string `json:"productId"`
	Quantity   int    `json:"quantity"`
	ReceivedAt string `json:"receivedAt"`
}

type Supply struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
	Stock       int    `json:"stock"`
}

type SupplyBatch struct {
	ID         string `json:"id"`
	SupplyID   string `json:"supplyId"`
	Quantity   int    `json:"quantity"`
	ReceivedAt string `json:"receivedAt"`
}

func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := c.get(ctx, "/products", &out); err != nil {
		return nil, errors.Wrap(err, "[Products]")
	}
	return out, nil
}

func (c *Client) Product(ctx context.Context, id string) (Product, error) {
	var out Product
	if err := c.get(ctx, "/products/"+id, &out); err != nil {
		return Product{}, errors.Wrap(err, "[Product]")
	}
	return out, nil
}

func (c *Client) ProductBatches(ctx context.Context) ([]ProductBatch, error) {
	var out []ProductBatch
	if err := c.get(ctx, "/product-batches", &out); err != nil {
		return nil, errors.Wrap(err, "[ProductBatches]")
	}
	return out, nil
}

func (c *Client) Supplies(ctx context.Context) ([]Supply, error) {
	var out []Supply
	if err := c.get(ctx, "/supplies", &out); err != nil {
		return nil, errors.Wrap(err, "[Supplies]")
	}
	return out, nil
}

func (c *Client) Supply(ctx context.Context, id string) (Supply, error) {
	var out Supply
	if err := c.get(ctx, "/supplies/"+id, &out); err != nil {
		return Supply{}, errors.Wrap(err, "[Supply]")
	}
	return out, nil
}

func (c *Client) SupplyBatches(ctx context.Context) ([]SupplyBatch, error) {
	var out []SupplyBatch
	if err := c.get(ctx, "/supply-batches", &out); err != nil {
		return nil, errors.Wrap(err, "[SupplyBatches]")
	}
	return out, nil
}
