package client

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/freshmart/cart-engine/internal/domain/order"
)

var _ order.Service = (*Order)(nil)

// Order talks to the external order service.
type Order struct {
	base string
	http *http.Client
}

// NewOrder creates an order client for the service at baseURL.
func NewOrder(baseURL string, timeout time.Duration) *Order {
	return &Order{base: baseURL, http: newHTTPClient(timeout)}
}

type orderItemPayload struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type orderRequestPayload struct {
	Items          []orderItemPayload `json:"items"`
	TotalAmount    decimal.Decimal    `json:"totalAmount"`
	OriginalAmount decimal.Decimal    `json:"originalAmount"`
	DiscountAmount decimal.Decimal    `json:"discountAmount"`
	PromoCode      string             `json:"promoCode,omitempty"`
	DeliveryType   string             `json:"deliveryType"`
	Phone          string             `json:"phone"`
	CustomerName   string             `json:"customerName"`
	Address        string             `json:"address,omitempty"`
}

type orderPayload struct {
	orderRequestPayload
	ID          string `json:"id"`
	OrderNumber string `json:"orderNumber"`
	Status      string `json:"status"`
}

type createdPayload struct {
	ID          string `json:"id"`
	OrderNumber string `json:"orderNumber"`
}

type updatedPayload struct {
	OrderNumber string `json:"orderNumber"`
}

func requestPayload(req order.Request) orderRequestPayload {
	items := make([]orderItemPayload, len(req.Items))
	for i, it := range req.Items {
		items[i] = orderItemPayload{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		}
	}
	return orderRequestPayload{
		Items:          items,
		TotalAmount:    req.TotalAmount,
		OriginalAmount: req.OriginalAmount,
		DiscountAmount: req.DiscountAmount,
		PromoCode:      req.PromoCode,
		DeliveryType:   string(req.DeliveryType),
		Phone:          req.Phone,
		CustomerName:   req.CustomerName,
		Address:        req.Address,
	}
}

// Create submits a new order.
func (c *Order) Create(ctx context.Context, req order.Request) (*order.Created, error) {
	var payload createdPayload
	err := doJSON(ctx, c.http, http.MethodPost, joinURL(c.base, "orders"), requestPayload(req), &payload)
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return &order.Created{ID: payload.ID, Number: payload.OrderNumber}, nil
}

// Get fetches an order record.
func (c *Order) Get(ctx context.Context, orderID string) (*order.Order, error) {
	var payload orderPayload
	err := doJSON(ctx, c.http, http.MethodGet, joinURL(c.base, "orders", orderID), nil, &payload)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}

	items := make([]order.Item, len(payload.Items))
	for i, it := range payload.Items {
		items[i] = order.Item{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		}
	}
	return &order.Order{
		ID:     payload.ID,
		Number: payload.OrderNumber,
		Status: order.Status(payload.Status),
		Request: order.Request{
			Items:          items,
			TotalAmount:    payload.TotalAmount,
			OriginalAmount: payload.OriginalAmount,
			DiscountAmount: payload.DiscountAmount,
			PromoCode:      payload.PromoCode,
			DeliveryType:   order.DeliveryType(payload.DeliveryType),
			Phone:          payload.Phone,
			CustomerName:   payload.CustomerName,
			Address:        payload.Address,
		},
	}, nil
}

// Update replaces a pending order's items and fields.
func (c *Order) Update(ctx context.Context, orderID string, req order.Request) (*order.Updated, error) {
	var payload updatedPayload
	err := doJSON(ctx, c.http, http.MethodPut, joinURL(c.base, "orders", orderID), requestPayload(req), &payload)
	if err != nil {
		return nil, errors.Wrap(err, "update order")
	}
	return &order.Updated{Number: payload.OrderNumber}, nil
}
