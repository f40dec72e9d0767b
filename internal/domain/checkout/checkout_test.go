package checkout

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshmart/cart-engine/internal/domain/cart"
	"github.com/freshmart/cart-engine/internal/domain/order"
	"github.com/freshmart/cart-engine/internal/domain/promo"
)

// --- Mock implementations ---

type mockOrderService struct {
	created *order.Created
	lastReq order.Request
	err     error
	calls   int
}

func (m *mockOrderService) Create(_ context.Context, req order.Request) (*order.Created, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.created, nil
}

func (m *mockOrderService) Get(_ context.Context, _ string) (*order.Order, error) {
	return nil, errors.New("not implemented")
}

func (m *mockOrderService) Update(_ context.Context, _ string, _ order.Request) (*order.Updated, error) {
	return nil, errors.New("not implemented")
}

type mockClearer struct {
	cleared bool
	err     error
}

func (m *mockClearer) Clear(_ context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.cleared = true
	return nil
}

// --- Helpers ---

func validForm() Form {
	return Form{
		Name:         "Alice",
		Phone:        "+15550100",
		DeliveryType: order.DeliveryCourier,
		Address:      "1 Main St",
	}
}

func testItems() []cart.Item {
	return []cart.Item{
		{ProductID: "p1", Name: "Apples", Price: decimal.RequireFromString("10.00"), Quantity: 2},
		{ProductID: "p2", Name: "Bread", Price: decimal.RequireFromString("5.00"), Quantity: 1},
	}
}

// --- Tests ---

func TestFormValidate(t *testing.T) {
	tests := []struct {
		name       string
		form       Form
		wantField  string
		wantReason string
	}{
		{
			name:      "missing name checked first",
			form:      Form{Phone: "+15550100", DeliveryType: order.DeliveryPickup},
			wantField: "name",
		},
		{
			name:      "missing phone",
			form:      Form{Name: "Alice", DeliveryType: order.DeliveryPickup},
			wantField: "phone",
		},
		{
			name:      "whitespace name rejected",
			form:      Form{Name: "   ", Phone: "+15550100", DeliveryType: order.DeliveryPickup},
			wantField: "name",
		},
		{
			name:      "courier requires address",
			form:      Form{Name: "Alice", Phone: "+15550100", DeliveryType: order.DeliveryCourier},
			wantField: "address",
		},
		{
			name:      "unknown delivery type",
			form:      Form{Name: "Alice", Phone: "+15550100", DeliveryType: "drone"},
			wantField: "deliveryType",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate()
			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.wantField, fe.Field)
		})
	}
}

func TestFormValidate_PickupNeedsNoAddress(t *testing.T) {
	form := Form{Name: "Alice", Phone: "+15550100", DeliveryType: order.DeliveryPickup}
	require.NoError(t, form.Validate())
}

func TestSubmit_InvalidFormBlocksOrder(t *testing.T) {
	svc := &mockOrderService{}
	o := NewOrchestrator(svc)

	_, err := o.Submit(context.Background(), testItems(), Form{}, nil)

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Zero(t, svc.calls)
}

func TestSubmit_EmptyCart(t *testing.T) {
	svc := &mockOrderService{}
	o := NewOrchestrator(svc)

	_, err := o.Submit(context.Background(), nil, validForm(), nil)

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, svc.calls)
}

func TestSubmit_Success(t *testing.T) {
	svc := &mockOrderService{created: &order.Created{ID: "ord-1", Number: "FM-1042"}}
	o := NewOrchestrator(svc)
	cartSlot := &mockClearer{}
	formSlot := &mockClearer{}
	promoSlot := &mockClearer{}

	res, err := o.Submit(context.Background(), testItems(), validForm(), nil,
		cartSlot, formSlot, promoSlot)

	require.NoError(t, err)
	assert.Equal(t, "ord-1", res.OrderID)
	assert.Equal(t, "FM-1042", res.OrderNumber)
	assert.True(t, cartSlot.cleared)
	assert.True(t, formSlot.cleared)
	assert.True(t, promoSlot.cleared)
}

func TestSubmit_ServiceFailurePreservesState(t *testing.T) {
	svc := &mockOrderService{err: errors.New("order service unavailable")}
	o := NewOrchestrator(svc)
	cartSlot := &mockClearer{}

	_, err := o.Submit(context.Background(), testItems(), validForm(), nil, cartSlot)

	require.Error(t, err)
	assert.False(t, cartSlot.cleared, "session state must survive a failed submission")
}

func TestSubmit_ClearFailureDoesNotFailOrder(t *testing.T) {
	svc := &mockOrderService{created: &order.Created{ID: "ord-1", Number: "FM-1042"}}
	o := NewOrchestrator(svc)
	broken := &mockClearer{err: errors.New("redis down")}
	ok := &mockClearer{}

	res, err := o.Submit(context.Background(), testItems(), validForm(), nil, broken, ok)

	require.NoError(t, err)
	assert.Equal(t, "FM-1042", res.OrderNumber)
}

func TestBuildRequest_NoPromo(t *testing.T) {
	req := BuildRequest(testItems(), validForm(), nil)

	assert.True(t, decimal.RequireFromString("25.00").Equal(req.OriginalAmount))
	assert.True(t, decimal.Zero.Equal(req.DiscountAmount))
	assert.True(t, decimal.RequireFromString("25.00").Equal(req.TotalAmount))
	assert.Empty(t, req.PromoCode)
	require.Len(t, req.Items, 2)
	assert.Equal(t, "p1", req.Items[0].ProductID)
	assert.Equal(t, 2, req.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("10.00").Equal(req.Items[0].Price))
	assert.Equal(t, order.DeliveryCourier, req.DeliveryType)
	assert.Equal(t, "Alice", req.CustomerName)
}

func TestBuildRequest_WithPromo(t *testing.T) {
	applied := &promo.Applied{Code: "SAVE5", Discount: decimal.RequireFromString("5.00")}

	req := BuildRequest(testItems(), validForm(), applied)

	assert.True(t, decimal.RequireFromString("25.00").Equal(req.OriginalAmount))
	assert.True(t, decimal.RequireFromString("5.00").Equal(req.DiscountAmount))
	assert.True(t, decimal.RequireFromString("20.00").Equal(req.TotalAmount))
	assert.Equal(t, "SAVE5", req.PromoCode)
}

func TestBuildRequest_DiscountFlooredAtZero(t *testing.T) {
	items := []cart.Item{
		{ProductID: "p1", Price: decimal.RequireFromString("3.00"), Quantity: 1},
	}
	applied := &promo.Applied{Code: "HUGE", Discount: decimal.RequireFromString("999.00")}

	req := BuildRequest(items, validForm(), applied)

	assert.True(t, decimal.Zero.Equal(req.TotalAmount))
	assert.True(t, decimal.RequireFromString("999.00").Equal(req.DiscountAmount))
}
