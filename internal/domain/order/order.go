package order

import (
	"context"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order at the order service.
type Status string

const (
	// StatusPending still permits item and field edits.
	StatusPending Status = "pending"
	// StatusProcessing means fulfillment has begun; the order is read-only.
	StatusProcessing Status = "processing"
	// StatusCompleted is a fulfilled order.
	StatusCompleted Status = "completed"
	// StatusCancelled is a cancelled order.
	StatusCancelled Status = "cancelled"
)

// DeliveryType selects how the order reaches the customer.
type DeliveryType string

const (
	DeliveryCourier DeliveryType = "delivery"
	DeliveryPickup  DeliveryType = "pickup"
)

// Item is an order line as submitted to the order service. Price is the
// per-unit price captured at submission time; it is never re-read from the
// catalog afterwards.
type Item struct {
	ProductID string
	Quantity  int
	Price     decimal.Decimal
}

// Request is the snapshot submitted to the order service on create and
// update. An order is immutable once created except through the explicit
// edit flow.
type Request struct {
	Items          []Item
	TotalAmount    decimal.Decimal
	OriginalAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	PromoCode      string
	DeliveryType   DeliveryType
	Phone          string
	CustomerName   string
	Address        string
}

// Created identifies a freshly created order for confirmation display.
type Created struct {
	ID     string
	Number string
}

// Updated confirms an order update.
type Updated struct {
	Number string
}

// Order is an order record read back from the order service.
type Order struct {
	ID     string
	Number string
	Status Status
	Request
}

// Service is the external order service. Only orders in StatusPending may
// be updated; the service enforces this on its side as well.
type Service interface {
	Create(ctx context.Context, req Request) (*Created, error)
	Get(ctx context.Context, orderID string) (*Order, error)
	Update(ctx context.Context, orderID string, req Request) (*Updated, error)
}
