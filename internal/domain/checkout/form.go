package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/freshmart/cart-engine/internal/domain/order"
)

// Form holds the delivery details collected at checkout. Address is only
// meaningful (and only required) for courier delivery.
type Form struct {
	Name         string
	Phone        string
	DeliveryType order.DeliveryType
	Address      string
}

// FieldError reports the first checkout field that failed validation.
// Validation is local and synchronous; it blocks submission.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate checks the required fields in order and returns a *FieldError
// for the first failing rule, or nil when the form is complete.
func (f Form) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return &FieldError{Field: "name", Reason: "required"}
	}
	if strings.TrimSpace(f.Phone) == "" {
		return &FieldError{Field: "phone", Reason: "required"}
	}
	switch f.DeliveryType {
	case order.DeliveryCourier:
		if strings.TrimSpace(f.Address) == "" {
			return &FieldError{Field: "address", Reason: "required for delivery"}
		}
	case order.DeliveryPickup:
	default:
		return &FieldError{Field: "deliveryType", Reason: "must be delivery or pickup"}
	}
	return nil
}

// Slot is the persisted storage for one session's checkout form. Load
// returns nil when nothing is stored.
type Slot interface {
	Load(ctx context.Context) (*Form, error)
	Save(ctx context.Context, f *Form) error
	Clear(ctx context.Context) error
}
