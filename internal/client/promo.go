package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/freshmart/cart-engine/internal/domain/promo"
)

var _ promo.Service = (*Promo)(nil)

// Promo talks to the external promo validation service.
type Promo struct {
	base string
	http *http.Client
}

// NewPromo creates a promo client for the service at baseURL.
func NewPromo(baseURL string, timeout time.Duration) *Promo {
	return &Promo{base: baseURL, http: newHTTPClient(timeout)}
}

type validateRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type validateResponse struct {
	Code        string          `json:"code"`
	Discount    decimal.Decimal `json:"discount"`
	Description string          `json:"description"`
}

// rejectionPayload is the service's refusal body. Reason values line up
// with promo.RejectionKind.
type rejectionPayload struct {
	Reason    string          `json:"reason"`
	Message   string          `json:"message"`
	MinAmount decimal.Decimal `json:"minAmount"`
}

// Validate checks code against subtotal. A refusal comes back as a
// *promo.Rejection; anything else non-2xx as *ServiceError.
func (c *Promo) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*promo.Applied, error) {
	body, err := json.Marshal(validateRequest{Code: code, Subtotal: subtotal})
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		joinURL(c.base, "promo", "validate"), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var payload validateResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, errors.Wrap(err, "decode response")
		}
		return &promo.Applied{
			Code:        payload.Code,
			Discount:    payload.Discount,
			Description: payload.Description,
		}, nil

	case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusNotFound:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		var rp rejectionPayload
		if err := json.Unmarshal(data, &rp); err != nil || rp.Reason == "" {
			return nil, &ServiceError{Status: resp.StatusCode}
		}
		return nil, &promo.Rejection{
			Kind:      rejectionKind(rp.Reason),
			Message:   rp.Message,
			MinAmount: rp.MinAmount,
		}

	default:
		return nil, serviceError(resp)
	}
}

func rejectionKind(reason string) promo.RejectionKind {
	switch promo.RejectionKind(reason) {
	case promo.RejectExpired:
		return promo.RejectExpired
	case promo.RejectMinimumNotMet:
		return promo.RejectMinimumNotMet
	case promo.RejectAlreadyApplied:
		return promo.RejectAlreadyApplied
	default:
		return promo.RejectNotFound
	}
}
