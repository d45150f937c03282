package push

import (
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/storefront-cart/internal/catalog"
)

// Frames of any other type, such as NEW_ORDER, are ignored.
const frameTypeStockUpdate = "STOCK_UPDATE"

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type deletionMarker struct {
	Deleted bool `json:"deleted"`
}

// DecodeFrame parses a push frame. The boolean is false for frames that do
// not carry a stock update and must be ignored.
func DecodeFrame(raw []byte) (catalog.Event, bool, error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return catalog.Event{}, false, fmt.Errorf("decode frame: %w", err)
	}
	if f.Type != frameTypeStockUpdate {
		return catalog.Event{}, false, nil
	}
	if len(f.Data) == 0 {
		return catalog.Event{}, false, fmt.Errorf("stock update without data")
	}

	var product catalog.Product
	if err := json.Unmarshal(f.Data, &product); err != nil {
		return catalog.Event{}, false, fmt.Errorf("decode stock update: %w", err)
	}
	if product.ID == "" {
		return catalog.Event{}, false, fmt.Errorf("stock update without product id")
	}
	var marker deletionMarker
	if err := json.Unmarshal(f.Data, &marker); err != nil {
		return catalog.Event{}, false, fmt.Errorf("decode stock update: %w", err)
	}
	if marker.Deleted {
		product = catalog.Product{ID: product.ID}
	}

	return catalog.Event{
		Kind:    catalog.EventKindStockUpdate,
		Product: product,
		Deleted: marker.Deleted,
	}, true, nil
}
