package handler

import (
	"net/http"

	"github.com/freshmart/cart-engine/internal/domain/checkout"
	"github.com/freshmart/cart-engine/internal/domain/order"
)

type formPayload struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	DeliveryType string `json:"deliveryType"`
	Address      string `json:"address,omitempty"`
}

func (p formPayload) toDomain() checkout.Form {
	return checkout.Form{
		Name:         p.Name,
		Phone:        p.Phone,
		DeliveryType: order.DeliveryType(p.DeliveryType),
		Address:      p.Address,
	}
}

func toFormPayload(f *checkout.Form) formPayload {
	if f == nil {
		return formPayload{DeliveryType: string(order.DeliveryCourier)}
	}
	return formPayload{
		Name:         f.Name,
		Phone:        f.Phone,
		DeliveryType: string(f.DeliveryType),
		Address:      f.Address,
	}
}

// GetCheckoutForm returns the form persisted for this session, or the
// default empty form.
func (h *Handler) GetCheckoutForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.sessions.Form(sessionID(r)).Load(r.Context())
	if err != nil {
		form = nil
	}
	writeJSON(w, http.StatusOK, toFormPayload(form))
}

// SaveCheckoutForm persists the form as the user fills it in. No
// validation happens here; incomplete forms are resumable state, not
// errors.
func (h *Handler) SaveCheckoutForm(w http.ResponseWriter, r *http.Request) {
	var payload formPayload
	if err := decode(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}

	form := payload.toDomain()
	if err := h.sessions.Form(sessionID(r)).Save(r.Context(), &form); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFormPayload(&form))
}

type submitResponse struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

// SubmitOrder validates the form, submits the order snapshot, and clears
// the session's cart, form and promo slots once the order service has
// confirmed.
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var payload formPayload
	if err := decode(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}

	sid := sessionID(r)
	store := h.cartStore(r.Context(), sid)
	applied := h.appliedPromo(r.Context(), sid)

	result, err := h.checkout.Submit(
		r.Context(),
		store.Items(),
		payload.toDomain(),
		applied,
		h.sessions.Cart(sid),
		h.sessions.Form(sid),
		h.sessions.Promo(sid),
	)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, submitResponse{
		OrderID:     result.OrderID,
		OrderNumber: result.OrderNumber,
	})
}
