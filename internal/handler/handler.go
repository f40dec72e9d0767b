// Package handler exposes the cart engine over HTTP. Handlers decode the
// request, delegate to the domain and map typed outcomes back to JSON; no
// business rules live here.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/freshmart/cart-engine/internal/domain/catalog"
	"github.com/freshmart/cart-engine/internal/domain/checkout"
	"github.com/freshmart/cart-engine/internal/domain/order"
	"github.com/freshmart/cart-engine/internal/domain/promo"
	"github.com/freshmart/cart-engine/internal/storage/redis"
)

// Handler carries the domain dependencies of the HTTP surface.
type Handler struct {
	catalog  catalog.Service
	promos   *promo.Validator
	orders   order.Service
	checkout *checkout.Orchestrator
	sessions *redis.Sessions
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cat catalog.Service,
	promos *promo.Validator,
	orders order.Service,
	co *checkout.Orchestrator,
	sessions *redis.Sessions,
) *Handler {
	return &Handler{
		catalog:  cat,
		promos:   promos,
		orders:   orders,
		checkout: co,
		sessions: sessions,
	}
}

// Routes builds the API router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/products", h.ListProducts)
	r.Get("/products/{productID}", h.GetProduct)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddCartItem)
		r.Put("/items/{productID}", h.SetCartItemQuantity)
		r.Delete("/items/{productID}", h.RemoveCartItem)
		r.Post("/promo", h.ApplyPromo)
		r.Delete("/promo", h.RemovePromo)
	})

	r.Get("/checkout/form", h.GetCheckoutForm)
	r.Put("/checkout/form", h.SaveCheckoutForm)
	r.Post("/checkout", h.SubmitOrder)

	r.Route("/orders/{orderID}/edit", func(r chi.Router) {
		r.Get("/", h.GetOrderEdit)
		r.Delete("/", h.DiscardOrderEdit)
		r.Post("/items", h.AddOrderEditItem)
		r.Patch("/items/{index}", h.ChangeOrderEditQuantity)
		r.Post("/submit", h.SubmitOrderEdit)
	})

	return r
}
