package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. Price and unit
// are the catalog's current values; the cart captures its own snapshot of
// them at add time.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Unit  string
	Image string
}

// Service is the external product catalog. Listing and lookup are
// authoritative reads; the Record* notifications are best-effort analytics
// and callers are expected to swallow their errors.
type Service interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	RecordAddToCart(ctx context.Context, id string) error
	RecordView(ctx context.Context, id string) error
}
