package push

import (
	"encoding/json"
	"testing"

	"github.com/angelmondragon/storefront-cart/internal/catalog"
	"github.com/shopspring/decimal"
)

func TestDecodeFrameStockUpdate(t *testing.T) {
	raw := []byte(`{"type":"STOCK_UPDATE","data":{"_id":"a1","name":"Fudge","category":"chocolate","price":2.5,"quantity":4}}`)

	event, ok, err := DecodeFrame(raw)
	if err != nil || !ok {
		t.Fatalf("expected stock update, ok=%v err=%v", ok, err)
	}
	if event.Kind != catalog.EventKindStockUpdate || event.Deleted {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.Product.ID != "a1" || event.Product.Stock != 4 {
		t.Fatalf("unexpected product %+v", event.Product)
	}
}

func TestDecodeFrameDeletion(t *testing.T) {
	event, ok, err := DecodeFrame([]byte(`{"type":"STOCK_UPDATE","data":{"_id":"a1","deleted":true}}`))
	if err != nil || !ok {
		t.Fatalf("expected deletion, ok=%v err=%v", ok, err)
	}
	if !event.Deleted || event.Product.ID != "a1" {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestDecodeFrameIgnoresOtherTypes(t *testing.T) {
	_, ok, err := DecodeFrame([]byte(`{"type":"NEW_ORDER","data":{"_id":"o1"}}`))
	if err != nil || ok {
		t.Fatalf("expected NEW_ORDER to be ignored, ok=%v err=%v", ok, err)
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	cases := map[string]string{
		"not json":   `{`,
		"no data":    `{"type":"STOCK_UPDATE"}`,
		"no id":      `{"type":"STOCK_UPDATE","data":{"name":"x"}}`,
		"bad fields": `{"type":"STOCK_UPDATE","data":{"_id":"a","quantity":"lots"}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := DecodeFrame([]byte(raw)); err == nil || ok {
				t.Fatalf("expected error, ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestFrameRoundTrip(t *testing.T) {
	product := catalog.Product{ID: "a1", Name: "Fudge", Price: decimal.RequireFromString("1.25"), Stock: 3}
	for _, event := range []catalog.Event{
		{Kind: catalog.EventKindStockUpdate, Product: product},
		{Kind: catalog.EventKindStockUpdate, Product: catalog.Product{ID: "a1"}, Deleted: true},
	} {
		raw, err := encodeFrame(event)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		decoded, ok, err := DecodeFrame(raw)
		if err != nil || !ok {
			t.Fatalf("decode: ok=%v err=%v", ok, err)
		}
		if decoded.Deleted != event.Deleted || !decoded.Product.Equal(event.Product) {
			t.Fatalf("round trip mismatch: %+v vs %+v", decoded, event)
		}
	}
}

// encodeFrame renders an event the way the storefront backend broadcasts it.
func encodeFrame(event catalog.Event) ([]byte, error) {
	var data any = event.Product
	if event.Deleted {
		data = map[string]any{"_id": event.Product.ID, "deleted": true}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(frame{Type: frameTypeStockUpdate, Data: payload})
}
