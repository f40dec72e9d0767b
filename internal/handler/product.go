package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/freshmart/cart-engine/internal/domain/catalog"
)

type productView struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Unit  string          `json:"unit,omitempty"`
	Image string          `json:"image,omitempty"`
}

func toProductView(p catalog.Product) productView {
	return productView{ID: p.ID, Name: p.Name, Price: p.Price, Unit: p.Unit, Image: p.Image}
}

// ListProducts proxies the catalog listing for add-product lookups.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	views := make([]productView, len(products))
	for i, p := range products {
		views[i] = toProductView(p)
	}
	writeJSON(w, http.StatusOK, views)
}

// GetProduct proxies a single catalog lookup and fires the view
// notification best-effort.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")

	p, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	go func(ctx context.Context) {
		if err := h.catalog.RecordView(ctx, id); err != nil {
			zctx.From(ctx).Debug("Product view notification dropped",
				zap.String("product_id", id), zap.Error(err))
		}
	}(context.WithoutCancel(r.Context()))

	writeJSON(w, http.StatusOK, toProductView(*p))
}
