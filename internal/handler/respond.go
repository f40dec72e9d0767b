package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/freshmart/cart-engine/internal/client"
	"github.com/freshmart/cart-engine/internal/domain/catalog"
	"github.com/freshmart/cart-engine/internal/domain/checkout"
	"github.com/freshmart/cart-engine/internal/domain/orderedit"
	"github.com/freshmart/cart-engine/internal/domain/promo"
)

// errorResponse is the JSON body of every error reply.
type errorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	Reason    string `json:"reason,omitempty"`
	MinAmount string `json:"minAmount,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy to HTTP statuses: validation errors to
// 400, promo rejections to 422, not-editable conflicts to 409, missing
// resources to 404, external service failures to 502, the rest to 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErr *checkout.FieldError
	if errors.As(err, &fieldErr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: fieldErr.Error(),
			Field:   fieldErr.Field,
		})
		return
	}

	var rejection *promo.Rejection
	if errors.As(err, &rejection) {
		resp := errorResponse{
			Code:    http.StatusUnprocessableEntity,
			Message: rejection.Error(),
			Reason:  string(rejection.Kind),
		}
		if rejection.MinAmount.IsPositive() {
			resp.MinAmount = rejection.MinAmount.String()
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	var notEditable *orderedit.NotEditableError
	if errors.As(err, &notEditable) {
		writeJSON(w, http.StatusConflict, errorResponse{
			Code:    http.StatusConflict,
			Message: notEditable.Error(),
		})
		return
	}

	switch {
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, promo.ErrEmptyCode),
		errors.Is(err, orderedit.ErrIndexOutOfRange):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		})
		return

	case errors.Is(err, catalog.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Code:    http.StatusNotFound,
			Message: err.Error(),
		})
		return
	}

	var svcErr *client.ServiceError
	if errors.As(err, &svcErr) {
		if svcErr.Status == http.StatusNotFound {
			writeJSON(w, http.StatusNotFound, errorResponse{
				Code:    http.StatusNotFound,
				Message: svcErr.Error(),
			})
			return
		}
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Code:    http.StatusBadGateway,
			Message: svcErr.Error(),
		})
		return
	}

	zctx.From(r.Context()).Error("Unhandled error", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Code:    http.StatusInternalServerError,
		Message: "internal error",
	})
}

// decode reads a JSON request body into v.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &checkout.FieldError{Field: "body", Reason: "malformed JSON"}
	}
	return nil
}
