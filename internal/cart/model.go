package cart

import (
	"github.com/angelmondragon/storefront-cart/internal/catalog"
	"github.com/shopspring/decimal"
)

// Line pairs a product snapshot with the desired quantity.
type Line struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Subtotal returns price times quantity for the line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds lines unique by product ID in insertion order.
type Cart struct {
	Lines []Line `json:"lines"`
}

// Outcome reports how a cart operation affected the cart.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeRejected  Outcome = "rejected"
	OutcomeUnchanged Outcome = "unchanged"
)

func (c Cart) Clone() Cart {
	if c.Lines == nil {
		return Cart{Lines: []Line{}}
	}
	lines := make([]Line, len(c.Lines))
	for i, line := range c.Lines {
		lines[i] = Line{Product: line.Product.Clone(), Quantity: line.Quantity}
	}
	return Cart{Lines: lines}
}

// Equal compares lines in order, including every product snapshot field.
func (c Cart) Equal(other Cart) bool {
	if len(c.Lines) != len(other.Lines) {
		return false
	}
	for i := range c.Lines {
		if c.Lines[i].Quantity != other.Lines[i].Quantity {
			return false
		}
		if !c.Lines[i].Product.Equal(other.Lines[i].Product) {
			return false
		}
	}
	return true
}

func (c Cart) indexOf(productID string) int {
	for i, line := range c.Lines {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}

// Find returns the line for productID, if present.
func (c Cart) Find(productID string) (Line, bool) {
	idx := c.indexOf(productID)
	if idx < 0 {
		return Line{}, false
	}
	return c.Lines[idx], true
}

// TotalPrice sums price times quantity over all lines.
func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// TotalItemCount sums quantities over all lines.
func (c Cart) TotalItemCount() int {
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

// normalize drops lines without a product ID or a positive quantity and keeps
// the first line seen for each product.
func normalize(c Cart) Cart {
	seen := make(map[string]struct{}, len(c.Lines))
	lines := make([]Line, 0, len(c.Lines))
	for _, line := range c.Lines {
		if line.Product.ID == "" || line.Quantity <= 0 {
			continue
		}
		if _, dup := seen[line.Product.ID]; dup {
			continue
		}
		seen[line.Product.ID] = struct{}{}
		lines = append(lines, line)
	}
	return Cart{Lines: lines}
}
