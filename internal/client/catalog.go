package client

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/freshmart/cart-engine/internal/domain/catalog"
)

var _ catalog.Service = (*Catalog)(nil)

// Catalog talks to the external product catalog service.
type Catalog struct {
	base string
	http *http.Client
}

// NewCatalog creates a catalog client for the service at baseURL.
func NewCatalog(baseURL string, timeout time.Duration) *Catalog {
	return &Catalog{base: baseURL, http: newHTTPClient(timeout)}
}

type productPayload struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Unit  string          `json:"unit"`
	Image string          `json:"image"`
}

func (p productPayload) toDomain() catalog.Product {
	return catalog.Product{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price,
		Unit:  p.Unit,
		Image: p.Image,
	}
}

// List fetches the full product listing.
func (c *Catalog) List(ctx context.Context) ([]catalog.Product, error) {
	var payload []productPayload
	if err := doJSON(ctx, c.http, http.MethodGet, joinURL(c.base, "products"), nil, &payload); err != nil {
		return nil, errors.Wrap(err, "list products")
	}

	out := make([]catalog.Product, len(payload))
	for i, p := range payload {
		out[i] = p.toDomain()
	}
	return out, nil
}

// Get fetches a single product. A 404 maps to catalog.ErrNotFound.
func (c *Catalog) Get(ctx context.Context, id string) (*catalog.Product, error) {
	var payload productPayload
	err := doJSON(ctx, c.http, http.MethodGet, joinURL(c.base, "products", id), nil, &payload)
	if err != nil {
		var se *ServiceError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrap(err, "get product")
	}

	p := payload.toDomain()
	return &p, nil
}

// RecordAddToCart posts the add-to-cart notification. Best-effort; callers
// swallow the error.
func (c *Catalog) RecordAddToCart(ctx context.Context, id string) error {
	return doJSON(ctx, c.http, http.MethodPost, joinURL(c.base, "products", id, "stats", "add-to-cart"), nil, nil)
}

// RecordView posts the product view notification. Best-effort.
func (c *Catalog) RecordView(ctx context.Context, id string) error {
	return doJSON(ctx, c.http, http.MethodPost, joinURL(c.base, "products", id, "stats", "view"), nil, nil)
}
