package catalog

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a catalog item as published by the storefront backend. Stock is
// the available quantity and arrives on the wire as "quantity".
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"quantity"`
	Description string          `json:"description,omitempty"`
	ImageURL    *string         `json:"image_url,omitempty"`
}

type productWire struct {
	MongoID     string          `json:"_id"`
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"quantity"`
	Description string          `json:"description"`
	ImageURL    *string         `json:"image_url"`
}

// UnmarshalJSON accepts both the backend "_id" key and the plain "id" key.
func (p *Product) UnmarshalJSON(data []byte) error {
	var wire productWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	id := strings.TrimSpace(wire.MongoID)
	if id == "" {
		id = strings.TrimSpace(wire.ID)
	}
	stock := wire.Stock
	if stock < 0 {
		stock = 0
	}
	*p = Product{
		ID:          id,
		Name:        wire.Name,
		Category:    wire.Category,
		Price:       wire.Price,
		Stock:       stock,
		Description: wire.Description,
		ImageURL:    wire.ImageURL,
	}
	return nil
}

// Equal compares every field, using decimal equality for the price.
func (p Product) Equal(other Product) bool {
	if p.ID != other.ID ||
		p.Name != other.Name ||
		p.Category != other.Category ||
		p.Stock != other.Stock ||
		p.Description != other.Description {
		return false
	}
	if !p.Price.Equal(other.Price) {
		return false
	}
	switch {
	case p.ImageURL == nil && other.ImageURL == nil:
		return true
	case p.ImageURL == nil || other.ImageURL == nil:
		return false
	default:
		return *p.ImageURL == *other.ImageURL
	}
}

// Clone returns a copy that shares no pointers with p.
func (p Product) Clone() Product {
	if p.ImageURL != nil {
		url := *p.ImageURL
		p.ImageURL = &url
	}
	return p
}
