package checkout

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/freshmart/cart-engine/internal/domain/cart"
	"github.com/freshmart/cart-engine/internal/domain/order"
	"github.com/freshmart/cart-engine/internal/domain/promo"
)

// ErrEmptyCart blocks submission of an order with no items.
var ErrEmptyCart = errors.New("cart is empty")

// Clearer removes one persisted session slot. The cart, form and promo
// slots all satisfy it.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Result identifies the created order for confirmation display.
type Result struct {
	OrderID     string
	OrderNumber string
}

// Orchestrator validates the checkout form, assembles the order snapshot
// and submits it to the order service. On confirmed success it clears the
// session's cart, form and promo slots; on any failure all state is left
// untouched so the user can retry.
type Orchestrator struct {
	orders order.Service
}

// NewOrchestrator creates an Orchestrator submitting through orders.
func NewOrchestrator(orders order.Service) *Orchestrator {
	return &Orchestrator{orders: orders}
}

// Submit places an order built from the given cart items, form and applied
// promo. Validation failures come back as *FieldError or ErrEmptyCart;
// order service failures are returned as-is with state preserved.
func (o *Orchestrator) Submit(
	ctx context.Context,
	items []cart.Item,
	form Form,
	applied *promo.Applied,
	clear ...Clearer,
) (*Result, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	req := BuildRequest(items, form, applied)

	created, err := o.orders.Create(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	// Only after the service confirmed the order does session state go away.
	// Clear failures are best-effort: the order exists, stale slots expire.
	g, clearCtx := errgroup.WithContext(ctx)
	for _, c := range clear {
		g.Go(func() error { return c.Clear(clearCtx) })
	}
	if err := g.Wait(); err != nil {
		zctx.From(ctx).Warn("Session slot clear after order failed",
			zap.String("order_id", created.ID), zap.Error(err))
	}

	return &Result{OrderID: created.ID, OrderNumber: created.Number}, nil
}

// BuildRequest assembles the order snapshot: per-line product, quantity and
// captured price, subtotal as the original amount, the promo discount, and
// the floored final total.
func BuildRequest(items []cart.Item, form Form, applied *promo.Applied) order.Request {
	original := cart.Subtotal(items).Round(2)

	discount := decimal.Zero
	code := ""
	if applied != nil {
		discount = applied.Discount.Round(2)
		code = applied.Code
	}

	lines := make([]order.Item, len(items))
	for i, it := range items {
		lines[i] = order.Item{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		}
	}

	return order.Request{
		Items:          lines,
		TotalAmount:    cart.FinalTotal(original, discount),
		OriginalAmount: original,
		DiscountAmount: discount,
		PromoCode:      code,
		DeliveryType:   form.DeliveryType,
		Phone:          form.Phone,
		CustomerName:   form.Name,
		Address:        form.Address,
	}
}
