package cart

import (
	"encoding/json"
	"strings"

	"github.com/angelmondragon/storefront-cart/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
)

// storedLine is the persisted shape of a line. The "sweet" key keeps
// snapshots written by the browser client readable.
type storedLine struct {
	Product  catalog.Product `json:"sweet"`
	Quantity int             `json:"quantity"`
}

func encodeCart(c Cart) (string, error) {
	stored := make([]storedLine, 0, len(c.Lines))
	for _, line := range c.Lines {
		stored = append(stored, storedLine{Product: line.Product, Quantity: line.Quantity})
	}
	payload, err := json.Marshal(stored)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart snapshot")
	}
	return string(payload), nil
}

// decodeCart parses a snapshot. Malformed data returns an empty cart together
// with the error so callers can log it and carry on.
func decodeCart(payload string) (Cart, error) {
	if strings.TrimSpace(payload) == "" {
		return Cart{Lines: []Line{}}, nil
	}
	var stored []storedLine
	if err := json.Unmarshal([]byte(payload), &stored); err != nil {
		return Cart{Lines: []Line{}}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "malformed cart snapshot")
	}
	lines := make([]Line, 0, len(stored))
	for _, s := range stored {
		lines = append(lines, Line{Product: s.Product, Quantity: s.Quantity})
	}
	return normalize(Cart{Lines: lines}), nil
}
