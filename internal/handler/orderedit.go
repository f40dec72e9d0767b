package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/freshmart/cart-engine/internal/domain/cart"
	"github.com/freshmart/cart-engine/internal/domain/orderedit"
	"github.com/freshmart/cart-engine/internal/domain/promo"
)

type editView struct {
	OrderID     string          `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	Items       []cartItemView  `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
	Promo       *promoView      `json:"promo,omitempty"`
	// Notice reports a promo cleared during revalidation. The edit
	// itself succeeded.
	Notice string `json:"notice,omitempty"`
}

func buildEditView(st *orderedit.State, notice *promo.Rejection) editView {
	subtotal := cart.Subtotal(st.Items).Round(2)

	discount := decimal.Zero
	var pv *promoView
	if st.Promo != nil {
		discount = st.Promo.Discount.Round(2)
		pv = &promoView{
			Code:        st.Promo.Code,
			Discount:    discount,
			Description: st.Promo.Description,
		}
	}

	view := editView{
		OrderID:     st.OrderID,
		OrderNumber: st.OrderNumber,
		Items:       itemViews(st.Items),
		Subtotal:    subtotal,
		Discount:    discount,
		Total:       cart.FinalTotal(subtotal, discount),
		Promo:       pv,
	}
	if notice != nil {
		view.Notice = notice.Error()
	}
	return view
}

func (h *Handler) editor(r *http.Request) (*orderedit.Editor, error) {
	orderID := chi.URLParam(r, "orderID")
	return orderedit.Load(
		r.Context(),
		orderID,
		h.orders,
		h.catalog,
		h.promos,
		h.sessions.OrderEdit(orderID),
	)
}

// GetOrderEdit opens (or resumes) the edit session for a pending order.
func (h *Handler) GetOrderEdit(w http.ResponseWriter, r *http.Request) {
	e, err := h.editor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buildEditView(e.State(), nil))
}

// DiscardOrderEdit abandons the in-progress edit session, leaving the
// order untouched.
func (h *Handler) DiscardOrderEdit(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	_ = h.sessions.OrderEdit(orderID).Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// AddOrderEditItem adds a product to the edited order at the catalog's
// current price, or bumps an existing line.
func (h *Handler) AddOrderEditItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	e, err := h.editor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	notice, err := e.AddProduct(r.Context(), req.ProductID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buildEditView(e.State(), notice))
}

type changeQuantityRequest struct {
	Delta int `json:"delta"`
}

// ChangeOrderEditQuantity adjusts a line's quantity by a delta; dropping
// to zero removes the line.
func (h *Handler) ChangeOrderEditQuantity(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.writeError(w, r, orderedit.ErrIndexOutOfRange)
		return
	}

	var req changeQuantityRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	e, err := h.editor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	notice, err := e.ChangeQuantity(r.Context(), index, req.Delta)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buildEditView(e.State(), notice))
}

type updateResponse struct {
	OrderNumber string `json:"orderNumber"`
}

// SubmitOrderEdit validates the delivery form and resubmits the edited
// order as a full replacement update.
func (h *Handler) SubmitOrderEdit(w http.ResponseWriter, r *http.Request) {
	var payload formPayload
	if err := decode(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}

	e, err := h.editor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := e.Save(r.Context(), payload.toDomain())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updateResponse{OrderNumber: updated.Number})
}
