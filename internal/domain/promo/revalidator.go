package promo

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SubtotalFunc reports the subtotal currently in effect for the session.
// The revalidator calls it when a service response arrives, to decide
// whether the response may still be committed.
type SubtotalFunc func(ctx context.Context) (decimal.Decimal, error)

// Outcome describes what a revalidation run did to the applied promo.
type Outcome struct {
	// Committed is set when the stamped subtotal still matched the live one
	// and the result was written to the promo slot.
	Committed bool
	// Cleared is set when the service rejected the code and the promo was
	// removed. The triggering cart mutation has already succeeded.
	Cleared bool
	// Promo is the refreshed promo when it was kept.
	Promo *Applied
	// Rejection carries the rejection that caused a clear.
	Rejection *Rejection
}

// Revalidator re-checks an applied promo after a subtotal-changing mutation
// and commits the result through the session's promo slot. Each run is
// stamped with the subtotal it was issued against; rapid successive
// mutations are allowed to race, and only the run whose stamp matches the
// subtotal live at arrival time commits anything. The rest are discarded.
type Revalidator struct {
	validator *Validator
	slot      Slot
}

// NewRevalidator creates a Revalidator committing through slot.
func NewRevalidator(v *Validator, slot Slot) *Revalidator {
	return &Revalidator{validator: v, slot: slot}
}

// Run revalidates applied against stamp and commits the outcome when the
// live subtotal still equals the stamp. A service failure keeps the promo
// untouched; a rejection clears it. Both degrade gracefully: the mutation
// that triggered the run has already completed.
func (r *Revalidator) Run(ctx context.Context, applied *Applied, stamp decimal.Decimal, current SubtotalFunc) (Outcome, error) {
	refreshed, err := r.validator.Revalidate(ctx, applied, stamp)

	var rejection *Rejection
	if err != nil {
		if !errors.As(err, &rejection) {
			return Outcome{}, errors.Wrap(err, "revalidate promo")
		}
	}

	live, err := current(ctx)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "read live subtotal")
	}
	if !live.Equal(stamp) {
		// Superseded by a later mutation; that mutation's own run decides.
		return Outcome{}, nil
	}

	if rejection != nil {
		if err := r.slot.Clear(ctx); err != nil {
			return Outcome{}, errors.Wrap(err, "clear promo slot")
		}
		return Outcome{Committed: true, Cleared: true, Rejection: rejection}, nil
	}

	if err := r.slot.Save(ctx, refreshed); err != nil {
		return Outcome{}, errors.Wrap(err, "save promo slot")
	}
	return Outcome{Committed: true, Promo: refreshed}, nil
}

// RunAsync fires Run as a fire-and-forget follow-up to a cart mutation.
// The run outlives the request context; outcomes are only logged.
func (r *Revalidator) RunAsync(ctx context.Context, applied *Applied, stamp decimal.Decimal, current SubtotalFunc) {
	bg := context.WithoutCancel(ctx)
	go func() {
		out, err := r.Run(bg, applied, stamp, current)
		lg := zctx.From(bg)
		switch {
		case err != nil:
			lg.Warn("Promo revalidation failed, promo kept", zap.Error(err))
		case out.Cleared:
			lg.Info("Promo cleared on revalidation",
				zap.String("code", applied.Code),
				zap.String("reason", string(out.Rejection.Kind)))
		case !out.Committed:
			lg.Debug("Promo revalidation superseded",
				zap.String("code", applied.Code),
				zap.String("stamp", stamp.String()))
		}
	}()
}
