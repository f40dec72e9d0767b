package cart

import (
	"context"

	"github.com/shopspring/decimal"
)

// Item is a single cart line. Name, price, unit and image are captured from
// the catalog when the item is first added. Quantity is always >= 1; a
// mutation that would drive it to zero removes the line instead.
type Item struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Unit      string
	Image     string
	Quantity  int
}

// Slot is the persisted storage for one session's cart. Load returns an
// empty list when nothing is stored; Clear removes the stored value outright
// rather than saving an empty one.
type Slot interface {
	Load(ctx context.Context) ([]Item, error)
	Save(ctx context.Context, items []Item) error
	Clear(ctx context.Context) error
}

// Subtotal computes sum(price * quantity) over items. It is recomputed from
// the items on every call and never cached across mutations.
func Subtotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		qty := decimal.NewFromInt(int64(it.Quantity))
		total = total.Add(it.Price.Mul(qty))
	}
	return total
}

// ItemCount returns sum(quantity) over items, which is distinct from the
// number of lines.
func ItemCount(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// FinalTotal returns subtotal minus discount, floored at zero and rounded
// to 2 decimal places.
func FinalTotal(subtotal, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return total.Round(2)
}
