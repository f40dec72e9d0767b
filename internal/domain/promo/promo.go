package promo

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrEmptyCode is returned when a candidate code is empty after
// normalization. It is rejected locally, without a service call.
var ErrEmptyCode = errors.New("promo code is empty")

// RejectionKind classifies why the promo service refused a code.
type RejectionKind string

const (
	// RejectNotFound means the code does not exist.
	RejectNotFound RejectionKind = "not_found"
	// RejectExpired means the code exists but is outside its validity window.
	RejectExpired RejectionKind = "expired"
	// RejectMinimumNotMet means the subtotal is below the code's minimum.
	RejectMinimumNotMet RejectionKind = "minimum_not_met"
	// RejectAlreadyApplied means the code matches the currently applied one.
	RejectAlreadyApplied RejectionKind = "already_applied"
)

// Rejection is a refused promo code. It never blocks the cart mutation that
// triggered the check; it only prevents or clears the discount.
type Rejection struct {
	Kind      RejectionKind
	Message   string
	MinAmount decimal.Decimal
}

func (r *Rejection) Error() string {
	if r.Message != "" {
		return r.Message
	}
	return fmt.Sprintf("promo code rejected: %s", r.Kind)
}

// Applied is a validated promo code. Its discount is only meaningful paired
// with the subtotal it was validated against; any subtotal-changing mutation
// must revalidate before the discount is trusted again.
type Applied struct {
	Code        string
	Discount    decimal.Decimal
	Description string
}

// Service is the external promo validation service. Validate returns the
// applied discount for the code at the given subtotal, a *Rejection error
// when the service refuses the code, or another error on service failure.
type Service interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*Applied, error)
}

// Slot is the persisted storage for one session's applied promo. Load
// returns nil when nothing is stored.
type Slot interface {
	Load(ctx context.Context) (*Applied, error)
	Save(ctx context.Context, p *Applied) error
	Clear(ctx context.Context) error
}
