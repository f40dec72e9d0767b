package orderedit

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshmart/cart-engine/internal/domain/cart"
	"github.com/freshmart/cart-engine/internal/domain/catalog"
	"github.com/freshmart/cart-engine/internal/domain/checkout"
	"github.com/freshmart/cart-engine/internal/domain/order"
	"github.com/freshmart/cart-engine/internal/domain/promo"
)

// --- Mock implementations ---

type mockOrderService struct {
	order     *order.Order
	getErr    error
	updated   *order.Updated
	updateErr error
	lastReq   order.Request
}

func (m *mockOrderService) Create(_ context.Context, _ order.Request) (*order.Created, error) {
	return nil, errors.New("not implemented")
}

func (m *mockOrderService) Get(_ context.Context, _ string) (*order.Order, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.order, nil
}

func (m *mockOrderService) Update(_ context.Context, _ string, req order.Request) (*order.Updated, error) {
	m.lastReq = req
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return m.updated, nil
}

type mockCatalog struct {
	byID map[string]*catalog.Product
}

func (m *mockCatalog) List(_ context.Context) ([]catalog.Product, error) { return nil, nil }

func (m *mockCatalog) Get(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

func (m *mockCatalog) RecordAddToCart(_ context.Context, _ string) error { return nil }
func (m *mockCatalog) RecordView(_ context.Context, _ string) error      { return nil }

type mockPromoService struct {
	applied *promo.Applied
	err     error
}

func (m *mockPromoService) Validate(_ context.Context, _ string, _ decimal.Decimal) (*promo.Applied, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.applied, nil
}

type mockEditSlot struct {
	stored  *State
	cleared bool
}

func (m *mockEditSlot) Load(_ context.Context) (*State, error) { return m.stored, nil }

func (m *mockEditSlot) Save(_ context.Context, st *State) error {
	m.stored = st
	return nil
}

func (m *mockEditSlot) Clear(_ context.Context) error {
	m.stored = nil
	m.cleared = true
	return nil
}

// --- Helpers ---

func pendingOrder() *order.Order {
	return &order.Order{
		ID:     "ord-1",
		Number: "FM-1042",
		Status: order.StatusPending,
		Request: order.Request{
			Items: []order.Item{
				{ProductID: "p1", Quantity: 2, Price: decimal.RequireFromString("10.00")},
				{ProductID: "p2", Quantity: 1, Price: decimal.RequireFromString("5.00")},
			},
			PromoCode:      "SAVE5",
			DiscountAmount: decimal.RequireFromString("5.00"),
		},
	}
}

func testCatalog() *mockCatalog {
	return &mockCatalog{byID: map[string]*catalog.Product{
		"p1": {ID: "p1", Name: "Apples", Price: decimal.RequireFromString("11.00"), Unit: "kg"},
		"p2": {ID: "p2", Name: "Bread", Price: decimal.RequireFromString("5.00"), Unit: "pc"},
		"p3": {ID: "p3", Name: "Milk", Price: decimal.RequireFromString("2.50"), Unit: "l"},
	}}
}

func validForm() checkout.Form {
	return checkout.Form{
		Name:         "Alice",
		Phone:        "+15550100",
		DeliveryType: order.DeliveryPickup,
	}
}

func loadEditor(t *testing.T, orders order.Service, promos promo.Service, slot Slot) *Editor {
	t.Helper()
	e, err := Load(context.Background(), "ord-1", orders, testCatalog(), promo.NewValidator(promos, nil), slot)
	require.NoError(t, err)
	return e
}

// --- Tests ---

func TestLoad_ReconstructsPendingOrder(t *testing.T) {
	orders := &mockOrderService{order: pendingOrder()}
	slot := &mockEditSlot{}

	e := loadEditor(t, orders, &mockPromoService{}, slot)

	st := e.State()
	assert.Equal(t, "ord-1", st.OrderID)
	assert.Equal(t, "FM-1042", st.OrderNumber)
	require.Len(t, st.Items, 2)
	// Prices stay as captured in the order, not the catalog's newer ones.
	assert.True(t, decimal.RequireFromString("10.00").Equal(st.Items[0].Price))
	// Names and units come from the live catalog.
	assert.Equal(t, "Apples", st.Items[0].Name)
	assert.Equal(t, "kg", st.Items[0].Unit)
	require.NotNil(t, st.Promo)
	assert.Equal(t, "SAVE5", st.Promo.Code)
	assert.True(t, decimal.RequireFromString("5.00").Equal(st.Promo.Discount))
	assert.NotNil(t, slot.stored, "reconstructed state is persisted")
}

func TestLoad_RefusesNonPendingOrder(t *testing.T) {
	o := pendingOrder()
	o.Status = order.StatusProcessing
	orders := &mockOrderService{order: o}

	_, err := Load(context.Background(), "ord-1", orders, testCatalog(),
		promo.NewValidator(&mockPromoService{}, nil), &mockEditSlot{})

	var ne *NotEditableError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, order.StatusProcessing, ne.Status)
}

func TestLoad_ResumesPersistedSession(t *testing.T) {
	orders := &mockOrderService{order: pendingOrder()}
	slot := &mockEditSlot{stored: &State{
		OrderID:     "ord-1",
		OrderNumber: "FM-1042",
		Items: []cart.Item{
			{ProductID: "p1", Price: decimal.RequireFromString("10.00"), Quantity: 3},
		},
	}}

	e := loadEditor(t, orders, &mockPromoService{}, slot)

	// In-progress edits win over the order snapshot.
	require.Len(t, e.State().Items, 1)
	assert.Equal(t, 3, e.State().Items[0].Quantity)
}

func TestLoad_ResumedSessionRechecksOrderStatus(t *testing.T) {
	o := pendingOrder()
	o.Status = order.StatusCancelled
	orders := &mockOrderService{order: o}
	slot := &mockEditSlot{stored: &State{
		OrderID:     "ord-1",
		OrderNumber: "FM-1042",
		Items: []cart.Item{
			{ProductID: "p1", Price: decimal.RequireFromString("10.00"), Quantity: 3},
		},
	}}

	_, err := Load(context.Background(), "ord-1", orders, testCatalog(),
		promo.NewValidator(&mockPromoService{}, nil), slot)

	// The session was persisted while the order was still pending; the
	// live status decides, not the slot.
	var ne *NotEditableError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, order.StatusCancelled, ne.Status)
	assert.True(t, slot.cleared, "stale edit slot is discarded")
}

func TestLoad_StaleSlotForOtherOrderIsIgnored(t *testing.T) {
	orders := &mockOrderService{order: pendingOrder()}
	slot := &mockEditSlot{stored: &State{OrderID: "ord-other"}}

	e := loadEditor(t, orders, &mockPromoService{}, slot)

	assert.Equal(t, "ord-1", e.State().OrderID)
	require.Len(t, e.State().Items, 2)
}

func TestChangeQuantity_IndexOutOfRange(t *testing.T) {
	orders := &mockOrderService{order: pendingOrder()}
	e := loadEditor(t, orders, &mockPromoService{applied: &promo.Applied{Code: "SAVE5"}}, &mockEditSlot{})

	_, err := e.ChangeQuantity(context.Background(), 5, 1)
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = e.ChangeQuantity(context.Background(), -1, 1)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestChangeQuantity_ZeroRemovesLine(t *testing.T) {
	orders := &mockOrderService{order: pendingOrder()}
	promos := &mockPromoService{applied: &promo.Applied{Code: "SAVE5", Discount: decimal.RequireFromString("5.00")}}
	e := loadEditor(t, orders, promos, &mockEditSlot{})

	notice, err := e.ChangeQuantity(context.Background(), 1, -1)

	require.NoError(t, err)
	assert.Nil(t, notice)
	require.Len(t, e.State().Items, 1)
	assert.Equal(t, "p1", e.State().Items[0].ProductID)
}

func TestChangeQuantity_RejectionClearsPromoAsNotice(t *testing.T) {
	orders := &mockOrderService{order: pendingOrder()}
	promos := &mockPromoService{err: &promo.Rejection{
		Kind:    promo.RejectMinimumNotMet,
		Message: "minimum order amount is $20",
	}}
	e := loadEditor(t, orders, promos, &mockEditSlot{})

	notice, err := e.ChangeQuantity(context.Background(), 0, -1)

	require.NoError(t, err, "the mutation itself succeeds")
	require.NotNil(t, notice)
	assert.Equal(t, promo.RejectMinimumNotMet, notice.Kind)
	assert.Nil(t, e.State().Promo)
	assert.Equal(t, 1, e.State().Items[0].Quantity)
}

func TestChangeQuantity_ServiceFailureKeepsPromo(t *testing.T) {
	orders := &mockOrderService{order: pendingOrder()}
	promos := &mockPromoService{err: errors.New("promo service unavailable")}
	e := loadEditor(t, orders, promos, &mockEditSlot{})

	notice, err := e.ChangeQuantity(context.Background(), 0, 1)

	require.NoError(t, err)
	assert.Nil(t, notice)
	require.NotNil(t, e.State().Promo)
	assert.Equal(t, "SAVE5", e.State().Promo.Code)
}

func TestChangeQuantity_LastLineRemovedClearsPromo(t *testing.T) {
	o := pendingOrder()
	o.Items = o.Items[:1]
	orders := &mockOrderService{order: o}
	promos := &mockPromoService{err: errors.New("must not be called")}
	e := loadEditor(t, orders, promos, &mockEditSlot{})

	notice, err := e.ChangeQuantity(context.Background(), 0, -2)

	require.NoError(t, err)
	assert.Nil(t, notice)
	assert.Empty(t, e.State().Items)
	assert.Nil(t, e.State().Promo, "an empty order cannot carry a discount")
}

func TestAddProduct_NewLineUsesCatalogPrice(t *testing.T) {
	orders := &mockOrderService{order: pendingOrder()}
	promos := &mockPromoService{applied: &promo.Applied{Code: "SAVE5", Discount: decimal.RequireFromString("5.00")}}
	e := loadEditor(t, orders, promos, &mockEditSlot{})

	_, err := e.AddProduct(context.Background(), "p3")

	require.NoError(t, err)
	require.Len(t, e.State().Items, 3)
	added := e.State().Items[2]
	assert.Equal(t, "Milk", added.Name)
	assert.True(t, decimal.RequireFromString("2.50").Equal(added.Price))
	assert.Equal(t, 1, added.Quantity)
}

func TestAddProduct_ExistingLineBumpsQuantity(t *testing.T) {
	orders := &mockOrderService{order: pendingOrder()}
	promos := &mockPromoService{applied: &promo.Applied{Code: "SAVE5", Discount: decimal.RequireFromString("5.00")}}
	e := loadEditor(t, orders, promos, &mockEditSlot{})

	_, err := e.AddProduct(context.Background(), "p1")

	require.NoError(t, err)
	require.Len(t, e.State().Items, 2)
	assert.Equal(t, 3, e.State().Items[0].Quantity)
}

func TestAddProduct_UnknownProduct(t *testing.T) {
	orders := &mockOrderService{order: pendingOrder()}
	e := loadEditor(t, orders, &mockPromoService{}, &mockEditSlot{})

	_, err := e.AddProduct(context.Background(), "missing")

	require.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Len(t, e.State().Items, 2)
}

func TestSave_SubmitsReplacementSnapshot(t *testing.T) {
	orders := &mockOrderService{
		order:   pendingOrder(),
		updated: &order.Updated{Number: "FM-1042"},
	}
	slot := &mockEditSlot{}
	e := loadEditor(t, orders, &mockPromoService{}, slot)

	updated, err := e.Save(context.Background(), validForm())

	require.NoError(t, err)
	assert.Equal(t, "FM-1042", updated.Number)
	require.Len(t, orders.lastReq.Items, 2)
	assert.True(t, decimal.RequireFromString("25.00").Equal(orders.lastReq.OriginalAmount))
	assert.True(t, decimal.RequireFromString("20.00").Equal(orders.lastReq.TotalAmount))
	assert.Equal(t, "SAVE5", orders.lastReq.PromoCode)
	assert.True(t, slot.cleared, "edit session ends on confirmed save")
}

func TestSave_InvalidForm(t *testing.T) {
	orders := &mockOrderService{order: pendingOrder()}
	e := loadEditor(t, orders, &mockPromoService{}, &mockEditSlot{})

	_, err := e.Save(context.Background(), checkout.Form{})

	var fe *checkout.FieldError
	require.ErrorAs(t, err, &fe)
}

func TestSave_UpdateFailureKeepsSession(t *testing.T) {
	orders := &mockOrderService{
		order:     pendingOrder(),
		updateErr: errors.New("order service unavailable"),
	}
	slot := &mockEditSlot{}
	e := loadEditor(t, orders, &mockPromoService{}, slot)

	_, err := e.Save(context.Background(), validForm())

	require.Error(t, err)
	assert.False(t, slot.cleared, "edit state must survive a failed save")
}
