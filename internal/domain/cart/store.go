package cart

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/freshmart/cart-engine/internal/domain/catalog"
)

// AddToCartRecorder receives best-effort add-to-cart notifications.
// catalog.Service satisfies it.
type AddToCartRecorder interface {
	RecordAddToCart(ctx context.Context, id string) error
}

// Store owns one session's cart lines. It is loaded from its Slot on
// construction and writes through on every mutation, so in-memory and
// persisted state never diverge. A Store serves a single logical session
// and is not safe for concurrent use.
type Store struct {
	slot      Slot
	analytics AddToCartRecorder
	items     []Item
}

// NewStore restores the cart persisted in slot. A load failure degrades to
// an empty cart; the storage layer has already logged it.
func NewStore(ctx context.Context, slot Slot, analytics AddToCartRecorder) *Store {
	items, err := slot.Load(ctx)
	if err != nil {
		zctx.From(ctx).Warn("Cart restore failed, starting empty", zap.Error(err))
		items = nil
	}
	return &Store{slot: slot, analytics: analytics, items: items}
}

// Items returns the cart lines in insertion order. The returned slice is
// owned by the Store.
func (s *Store) Items() []Item {
	return s.items
}

// AddItem increments the quantity of an existing line for the product or
// appends a new line at quantity 1, capturing the product's current name,
// price, unit and image. The add-to-cart notification is fire-and-forget.
func (s *Store) AddItem(ctx context.Context, p catalog.Product) {
	found := false
	for i := range s.items {
		if s.items[i].ProductID == p.ID {
			s.items[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		s.items = append(s.items, Item{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Unit:      p.Unit,
			Image:     p.Image,
			Quantity:  1,
		})
	}
	s.persist(ctx)

	if s.analytics != nil {
		go func(ctx context.Context, id string) {
			if err := s.analytics.RecordAddToCart(ctx, id); err != nil {
				zctx.From(ctx).Debug("Add-to-cart notification dropped",
					zap.String("product_id", id), zap.Error(err))
			}
		}(context.WithoutCancel(ctx), p.ID)
	}
}

// RemoveItem drops the line for productID. Absent products are a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID string) {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.persist(ctx)
			return
		}
	}
}

// SetQuantity overwrites the quantity of the line for productID. A quantity
// of zero or less removes the line entirely.
func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(ctx, productID)
		return
	}
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i].Quantity = quantity
			s.persist(ctx)
			return
		}
	}
}

// Clear empties the cart and deletes its persisted slot, so a later restore
// starts from the default empty cart.
func (s *Store) Clear(ctx context.Context) {
	s.items = nil
	if err := s.slot.Clear(ctx); err != nil {
		zctx.From(ctx).Warn("Cart slot clear failed", zap.Error(err))
	}
}

// Subtotal returns sum(price * quantity), freshly computed.
func (s *Store) Subtotal() decimal.Decimal {
	return Subtotal(s.items)
}

// ItemCount returns sum(quantity) across all lines.
func (s *Store) ItemCount() int {
	return ItemCount(s.items)
}

func (s *Store) persist(ctx context.Context) {
	if err := s.slot.Save(ctx, s.items); err != nil {
		zctx.From(ctx).Warn("Cart persist failed", zap.Error(err))
	}
}
