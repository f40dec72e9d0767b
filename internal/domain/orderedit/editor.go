package orderedit

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/freshmart/cart-engine/internal/domain/cart"
	"github.com/freshmart/cart-engine/internal/domain/catalog"
	"github.com/freshmart/cart-engine/internal/domain/checkout"
	"github.com/freshmart/cart-engine/internal/domain/order"
	"github.com/freshmart/cart-engine/internal/domain/promo"
)

// ErrIndexOutOfRange is returned for a quantity change on a line that does
// not exist.
var ErrIndexOutOfRange = errors.New("item index out of range")

// NotEditableError refuses edit mode for an order that is no longer
// pending. Callers should fall back to a read-only view.
type NotEditableError struct {
	OrderID string
	Status  order.Status
}

func (e *NotEditableError) Error() string {
	return fmt.Sprintf("order %s is %s and cannot be edited", e.OrderID, e.Status)
}

// State is the editable reconstruction of a pending order. It is persisted
// in its own slot between edit requests so an edit session survives page
// loads without touching the order itself.
type State struct {
	OrderID     string
	OrderNumber string
	Items       []cart.Item
	Promo       *promo.Applied
}

// Slot is the persisted storage for one order's edit state. Load returns
// nil when no edit session is in progress.
type Slot interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, st *State) error
	Clear(ctx context.Context) error
}

// Editor mutates one pending order's reconstructed item list and promo
// state, reusing the cart's quantity-floor and totals rules, then resubmits
// the whole replacement snapshot through the order service.
type Editor struct {
	state   *State
	slot    Slot
	catalog catalog.Service
	promos  *promo.Validator
	orders  order.Service
}

// Load opens an edit session for orderID. The order's live status is
// checked first on every load, resumed or not, since it may have moved on
// since the edit state was persisted; a non-pending order is refused with
// *NotEditableError and its stale edit slot discarded. An in-progress
// session is then resumed from the slot; otherwise the order's snapshot is
// reconstructed. Line prices stay as captured in the order; names, units
// and images are rehydrated from the live catalog best-effort.
func Load(
	ctx context.Context,
	orderID string,
	orders order.Service,
	cat catalog.Service,
	promos *promo.Validator,
	slot Slot,
) (*Editor, error) {
	e := &Editor{slot: slot, catalog: cat, promos: promos, orders: orders}

	o, err := orders.Get(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	if o.Status != order.StatusPending {
		if err := slot.Clear(ctx); err != nil {
			zctx.From(ctx).Warn("Stale edit slot clear failed",
				zap.String("order_id", orderID), zap.Error(err))
		}
		return nil, &NotEditableError{OrderID: orderID, Status: o.Status}
	}

	if st, err := slot.Load(ctx); err == nil && st != nil && st.OrderID == orderID {
		e.state = st
		return e, nil
	}

	st := &State{
		OrderID:     o.ID,
		OrderNumber: o.Number,
		Items:       make([]cart.Item, 0, len(o.Items)),
	}
	for _, line := range o.Items {
		it := cart.Item{
			ProductID: line.ProductID,
			Price:     line.Price,
			Quantity:  line.Quantity,
		}
		if p, err := cat.Get(ctx, line.ProductID); err == nil {
			it.Name = p.Name
			it.Unit = p.Unit
			it.Image = p.Image
		} else {
			zctx.From(ctx).Debug("Catalog lookup failed during order reconstruction",
				zap.String("product_id", line.ProductID), zap.Error(err))
		}
		st.Items = append(st.Items, it)
	}
	if o.PromoCode != "" {
		st.Promo = &promo.Applied{Code: o.PromoCode, Discount: o.DiscountAmount}
	}

	e.state = st
	e.persist(ctx)
	return e, nil
}

// State returns the current edit state.
func (e *Editor) State() *State { return e.state }

// Subtotal returns the freshly computed subtotal of the edited items.
func (e *Editor) Subtotal() decimal.Decimal {
	return cart.Subtotal(e.state.Items)
}

// ChangeQuantity adjusts the line at index by delta, removing it when the
// result is zero or less. An applied promo is revalidated against the new
// subtotal while items remain, and cleared outright when none do. The
// returned rejection is a non-blocking notice; the mutation itself has
// succeeded.
func (e *Editor) ChangeQuantity(ctx context.Context, index, delta int) (*promo.Rejection, error) {
	if index < 0 || index >= len(e.state.Items) {
		return nil, ErrIndexOutOfRange
	}

	e.state.Items[index].Quantity += delta
	if e.state.Items[index].Quantity <= 0 {
		e.state.Items = append(e.state.Items[:index], e.state.Items[index+1:]...)
	}
	e.persist(ctx)

	return e.revalidatePromo(ctx), nil
}

// AddProduct appends the product at quantity 1 with the catalog's current
// price, or bumps the existing line by one. Any applied promo is
// revalidated afterwards.
func (e *Editor) AddProduct(ctx context.Context, productID string) (*promo.Rejection, error) {
	for i := range e.state.Items {
		if e.state.Items[i].ProductID == productID {
			return e.ChangeQuantity(ctx, i, +1)
		}
	}

	p, err := e.catalog.Get(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}
	e.state.Items = append(e.state.Items, cart.Item{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Unit:      p.Unit,
		Image:     p.Image,
		Quantity:  1,
	})
	e.persist(ctx)

	return e.revalidatePromo(ctx), nil
}

// Save validates the delivery form, recomputes totals and issues an update
// with the full replacement item list. The edit slot is cleared only after
// the service confirms.
func (e *Editor) Save(ctx context.Context, form checkout.Form) (*order.Updated, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	if len(e.state.Items) == 0 {
		return nil, checkout.ErrEmptyCart
	}

	req := checkout.BuildRequest(e.state.Items, form, e.state.Promo)

	updated, err := e.orders.Update(ctx, e.state.OrderID, req)
	if err != nil {
		return nil, errors.Wrap(err, "update order")
	}

	if err := e.slot.Clear(ctx); err != nil {
		zctx.From(ctx).Warn("Edit slot clear failed",
			zap.String("order_id", e.state.OrderID), zap.Error(err))
	}
	return updated, nil
}

// revalidatePromo re-checks the applied promo after a subtotal change.
// A rejection clears the promo and is returned as a notice; a service
// failure keeps the promo and is only logged.
func (e *Editor) revalidatePromo(ctx context.Context) *promo.Rejection {
	if e.state.Promo == nil {
		return nil
	}
	if len(e.state.Items) == 0 {
		e.state.Promo = nil
		e.persist(ctx)
		return nil
	}

	refreshed, err := e.promos.Revalidate(ctx, e.state.Promo, e.Subtotal())
	if err != nil {
		var rej *promo.Rejection
		if !errors.As(err, &rej) {
			zctx.From(ctx).Warn("Promo revalidation failed, promo kept",
				zap.String("code", e.state.Promo.Code), zap.Error(err))
			return nil
		}
		e.state.Promo = nil
		e.persist(ctx)
		return rej
	}

	e.state.Promo = refreshed
	e.persist(ctx)
	return nil
}

func (e *Editor) persist(ctx context.Context) {
	if err := e.slot.Save(ctx, e.state); err != nil {
		zctx.From(ctx).Warn("Edit state persist failed",
			zap.String("order_id", e.state.OrderID), zap.Error(err))
	}
}
