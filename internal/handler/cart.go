package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/freshmart/cart-engine/internal/domain/cart"
	"github.com/freshmart/cart-engine/internal/domain/promo"
	"github.com/freshmart/cart-engine/pkg/httpmiddleware"
)

type cartItemView struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Unit      string          `json:"unit,omitempty"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
}

type promoView struct {
	Code        string          `json:"code"`
	Discount    decimal.Decimal `json:"discount"`
	Description string          `json:"description,omitempty"`
}

type cartView struct {
	Items     []cartItemView  `json:"items"`
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
	Promo     *promoView      `json:"promo,omitempty"`
	// AlreadyApplied flags the informational no-op of re-applying the
	// current promo code.
	AlreadyApplied bool `json:"alreadyApplied,omitempty"`
}

func itemViews(items []cart.Item) []cartItemView {
	views := make([]cartItemView, len(items))
	for i, it := range items {
		views[i] = cartItemView{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Unit:      it.Unit,
			Image:     it.Image,
			Quantity:  it.Quantity,
		}
	}
	return views
}

func buildCartView(items []cart.Item, applied *promo.Applied) cartView {
	subtotal := cart.Subtotal(items).Round(2)

	discount := decimal.Zero
	var pv *promoView
	if applied != nil {
		discount = applied.Discount.Round(2)
		pv = &promoView{
			Code:        applied.Code,
			Discount:    discount,
			Description: applied.Description,
		}
	}

	return cartView{
		Items:     itemViews(items),
		ItemCount: cart.ItemCount(items),
		Subtotal:  subtotal,
		Discount:  discount,
		Total:     cart.FinalTotal(subtotal, discount),
		Promo:     pv,
	}
}

func sessionID(r *http.Request) string {
	return httpmiddleware.SessionIDFromContext(r.Context())
}

func (h *Handler) cartStore(ctx context.Context, sid string) *cart.Store {
	return cart.NewStore(ctx, h.sessions.Cart(sid), h.catalog)
}

func (h *Handler) appliedPromo(ctx context.Context, sid string) *promo.Applied {
	applied, err := h.sessions.Promo(sid).Load(ctx)
	if err != nil {
		return nil
	}
	return applied
}

// revalidatePromo fires the stamped fire-and-forget revalidation after a
// subtotal-changing mutation. The mutation has already succeeded; the run
// commits only if the stamp still matches the live subtotal at arrival.
func (h *Handler) revalidatePromo(ctx context.Context, sid string, stamp decimal.Decimal) {
	applied := h.appliedPromo(ctx, sid)
	if applied == nil {
		return
	}

	slot := h.sessions.Promo(sid)
	if stamp.IsZero() {
		// Nothing left in the cart; a discount has nothing to apply to.
		_ = slot.Clear(ctx)
		return
	}

	rv := promo.NewRevalidator(h.promos, slot)
	rv.RunAsync(ctx, applied, stamp, func(ctx context.Context) (decimal.Decimal, error) {
		items, err := h.sessions.Cart(sid).Load(ctx)
		if err != nil {
			return decimal.Zero, err
		}
		return cart.Subtotal(items), nil
	})
}

// GetCart returns the session's cart with freshly computed totals.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	store := h.cartStore(r.Context(), sid)
	writeJSON(w, http.StatusOK, buildCartView(store.Items(), h.appliedPromo(r.Context(), sid)))
}

type addItemRequest struct {
	ProductID string `json:"productId"`
}

// AddCartItem adds one unit of a product, capturing its current catalog
// snapshot on first add.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	product, err := h.catalog.Get(r.Context(), req.ProductID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	sid := sessionID(r)
	store := h.cartStore(r.Context(), sid)
	store.AddItem(r.Context(), *product)
	h.revalidatePromo(r.Context(), sid, store.Subtotal())

	writeJSON(w, http.StatusOK, buildCartView(store.Items(), h.appliedPromo(r.Context(), sid)))
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// SetCartItemQuantity overwrites a line's quantity; zero or less removes it.
func (h *Handler) SetCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	sid := sessionID(r)
	store := h.cartStore(r.Context(), sid)
	store.SetQuantity(r.Context(), chi.URLParam(r, "productID"), req.Quantity)
	h.revalidatePromo(r.Context(), sid, store.Subtotal())

	writeJSON(w, http.StatusOK, buildCartView(store.Items(), h.appliedPromo(r.Context(), sid)))
}

// RemoveCartItem drops a line from the cart.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	store := h.cartStore(r.Context(), sid)
	store.RemoveItem(r.Context(), chi.URLParam(r, "productID"))
	h.revalidatePromo(r.Context(), sid, store.Subtotal())

	writeJSON(w, http.StatusOK, buildCartView(store.Items(), h.appliedPromo(r.Context(), sid)))
}

// ClearCart empties the cart and removes the cart and promo slots.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	store := h.cartStore(r.Context(), sid)
	store.Clear(r.Context())
	_ = h.sessions.Promo(sid).Clear(r.Context())

	writeJSON(w, http.StatusOK, buildCartView(nil, nil))
}

type applyPromoRequest struct {
	Code string `json:"code"`
}

// ApplyPromo validates a promo code against the current subtotal and
// persists the applied discount.
func (h *Handler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	var req applyPromoRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	sid := sessionID(r)
	store := h.cartStore(r.Context(), sid)
	current := h.appliedPromo(r.Context(), sid)

	result, err := h.promos.Apply(r.Context(), req.Code, store.Subtotal(), current)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if !result.AlreadyApplied {
		if err := h.sessions.Promo(sid).Save(r.Context(), result.Promo); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	view := buildCartView(store.Items(), result.Promo)
	view.AlreadyApplied = result.AlreadyApplied
	writeJSON(w, http.StatusOK, view)
}

// RemovePromo clears the applied promo.
func (h *Handler) RemovePromo(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	_ = h.sessions.Promo(sid).Clear(r.Context())

	store := h.cartStore(r.Context(), sid)
	writeJSON(w, http.StatusOK, buildCartView(store.Items(), nil))
}
