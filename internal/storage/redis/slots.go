package redis

import (
	"context"

	"github.com/freshmart/cart-engine/internal/domain/cart"
	"github.com/freshmart/cart-engine/internal/domain/checkout"
	"github.com/freshmart/cart-engine/internal/domain/orderedit"
	"github.com/freshmart/cart-engine/internal/domain/promo"
)

var (
	_ cart.Slot      = (*CartSlot)(nil)
	_ checkout.Slot  = (*FormSlot)(nil)
	_ promo.Slot     = (*PromoSlot)(nil)
	_ orderedit.Slot = (*EditSlot)(nil)
)

// Cart returns the cart slot for sessionID.
func (s *Sessions) Cart(sessionID string) *CartSlot {
	return &CartSlot{s: s, key: sessionKey(sessionID, "cart")}
}

// Form returns the checkout form slot for sessionID.
func (s *Sessions) Form(sessionID string) *FormSlot {
	return &FormSlot{s: s, key: sessionKey(sessionID, "form")}
}

// Promo returns the applied promo slot for sessionID.
func (s *Sessions) Promo(sessionID string) *PromoSlot {
	return &PromoSlot{s: s, key: sessionKey(sessionID, "promo")}
}

// OrderEdit returns the edit state slot for orderID.
func (s *Sessions) OrderEdit(orderID string) *EditSlot {
	return &EditSlot{s: s, key: editKey(orderID)}
}

// CartSlot persists one session's cart lines.
type CartSlot struct {
	s   *Sessions
	key string
}

func (c *CartSlot) Load(ctx context.Context) ([]cart.Item, error) {
	data, ok := c.s.load(ctx, c.key)
	if !ok {
		return nil, nil
	}
	items, err := decodeCartItems(data)
	if err != nil {
		decodeWarn(ctx, c.key, err)
		return nil, nil
	}
	return items, nil
}

func (c *CartSlot) Save(ctx context.Context, items []cart.Item) error {
	c.s.save(ctx, c.key, encodeCartItems(items))
	return nil
}

func (c *CartSlot) Clear(ctx context.Context) error {
	c.s.clear(ctx, c.key)
	return nil
}

// FormSlot persists one session's checkout form.
type FormSlot struct {
	s   *Sessions
	key string
}

func (f *FormSlot) Load(ctx context.Context) (*checkout.Form, error) {
	data, ok := f.s.load(ctx, f.key)
	if !ok {
		return nil, nil
	}
	form, err := decodeForm(data)
	if err != nil {
		decodeWarn(ctx, f.key, err)
		return nil, nil
	}
	return form, nil
}

func (f *FormSlot) Save(ctx context.Context, form *checkout.Form) error {
	if form == nil {
		return f.Clear(ctx)
	}
	f.s.save(ctx, f.key, encodeForm(form))
	return nil
}

func (f *FormSlot) Clear(ctx context.Context) error {
	f.s.clear(ctx, f.key)
	return nil
}

// PromoSlot persists one session's applied promo.
type PromoSlot struct {
	s   *Sessions
	key string
}

func (p *PromoSlot) Load(ctx context.Context) (*promo.Applied, error) {
	data, ok := p.s.load(ctx, p.key)
	if !ok {
		return nil, nil
	}
	applied, err := decodePromo(data)
	if err != nil {
		decodeWarn(ctx, p.key, err)
		return nil, nil
	}
	return applied, nil
}

func (p *PromoSlot) Save(ctx context.Context, applied *promo.Applied) error {
	if applied == nil {
		return p.Clear(ctx)
	}
	p.s.save(ctx, p.key, encodePromo(applied))
	return nil
}

func (p *PromoSlot) Clear(ctx context.Context) error {
	p.s.clear(ctx, p.key)
	return nil
}

// EditSlot persists one order's in-progress edit state.
type EditSlot struct {
	s   *Sessions
	key string
}

func (e *EditSlot) Load(ctx context.Context) (*orderedit.State, error) {
	data, ok := e.s.load(ctx, e.key)
	if !ok {
		return nil, nil
	}
	st, err := decodeEditState(data)
	if err != nil {
		decodeWarn(ctx, e.key, err)
		return nil, nil
	}
	return st, nil
}

func (e *EditSlot) Save(ctx context.Context, st *orderedit.State) error {
	if st == nil {
		return e.Clear(ctx)
	}
	e.s.save(ctx, e.key, encodeEditState(st))
	return nil
}

func (e *EditSlot) Clear(ctx context.Context) error {
	e.s.clear(ctx, e.key)
	return nil
}
