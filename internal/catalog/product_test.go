package catalog

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestProductUnmarshalMapsMongoID(t *testing.T) {
	payload := `{"_id":"665f","name":"Fudge","category":"chocolate","price":2.5,"quantity":7,"image_url":"http://img/fudge.png"}`

	var p Product
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.ID != "665f" {
		t.Fatalf("expected id 665f, got %q", p.ID)
	}
	if p.Stock != 7 {
		t.Fatalf("expected stock 7, got %d", p.Stock)
	}
	if !p.Price.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("unexpected price %s", p.Price)
	}
	if p.ImageURL == nil || *p.ImageURL != "http://img/fudge.png" {
		t.Fatalf("image url not decoded")
	}
}

func TestProductUnmarshalFallsBackToID(t *testing.T) {
	var p Product
	if err := json.Unmarshal([]byte(`{"id":"p1","name":"Toffee","price":"1.10","quantity":-3}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.ID != "p1" {
		t.Fatalf("expected id p1, got %q", p.ID)
	}
	if p.Stock != 0 {
		t.Fatalf("negative stock should clamp to 0, got %d", p.Stock)
	}
}

func TestProductEqual(t *testing.T) {
	url := "a.png"
	other := "a.png"
	base := Product{ID: "p1", Name: "Fudge", Price: decimal.RequireFromString("2.50"), Stock: 3, ImageURL: &url}

	same := Product{ID: "p1", Name: "Fudge", Price: decimal.RequireFromString("2.5"), Stock: 3, ImageURL: &other}
	if !base.Equal(same) {
		t.Fatalf("expected products to be equal")
	}

	changed := same
	changed.Stock = 2
	if base.Equal(changed) {
		t.Fatalf("stock change should break equality")
	}

	noImage := same
	noImage.ImageURL = nil
	if base.Equal(noImage) {
		t.Fatalf("image change should break equality")
	}
}

func TestProductCloneDetachesImageURL(t *testing.T) {
	url := "a.png"
	p := Product{ID: "p1", ImageURL: &url}
	clone := p.Clone()
	*clone.ImageURL = "b.png"
	if *p.ImageURL != "a.png" {
		t.Fatalf("clone shares image url pointer")
	}
}
