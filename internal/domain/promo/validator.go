package promo

import (
	"context"
	"os"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Normalize canonicalizes a candidate promo code: surrounding whitespace is
// trimmed and the code is uppercased.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ApplyResult is the outcome of a successful Apply call.
type ApplyResult struct {
	Promo *Applied
	// AlreadyApplied is set when the candidate matched the promo that was
	// already applied. Informational, not an error.
	AlreadyApplied bool
}

// Validator wraps the external promo service with local normalization, the
// already-applied short-circuit, and an optional bloom prefilter that
// answers "definitely not a code" without a network call. The prefilter is
// built offline by promo-prewarm from the storefront's code dumps; bloom
// filters have no false negatives, so a miss is a certain NotFound.
type Validator struct {
	svc       Service
	prefilter *bloom.BloomFilter
}

// NewValidator creates a Validator. prefilter may be nil, in which case
// every non-trivial candidate goes to the service.
func NewValidator(svc Service, prefilter *bloom.BloomFilter) *Validator {
	return &Validator{svc: svc, prefilter: prefilter}
}

// Apply validates a candidate code against the given subtotal. current is
// the promo already applied to the session, if any; re-applying the same
// code is a no-op informational result. Rejections come back as *Rejection
// errors, service failures as plain errors.
func (v *Validator) Apply(ctx context.Context, code string, subtotal decimal.Decimal, current *Applied) (ApplyResult, error) {
	code = Normalize(code)
	if code == "" {
		return ApplyResult{}, ErrEmptyCode
	}

	if current != nil && current.Code == code {
		return ApplyResult{Promo: current, AlreadyApplied: true}, nil
	}

	if v.prefilter != nil && !v.prefilter.TestString(code) {
		return ApplyResult{}, &Rejection{
			Kind:    RejectNotFound,
			Message: "promo code not found",
		}
	}

	applied, err := v.svc.Validate(ctx, code, subtotal)
	if err != nil {
		return ApplyResult{}, err
	}
	return ApplyResult{Promo: applied}, nil
}

// Revalidate re-issues the validation call for an already-applied promo
// against a changed subtotal. The prefilter is skipped: the code was real
// when it was applied.
func (v *Validator) Revalidate(ctx context.Context, applied *Applied, subtotal decimal.Decimal) (*Applied, error) {
	return v.svc.Validate(ctx, applied.Code, subtotal)
}

// LoadPrefilter reads a bloom filter written by promo-prewarm.
func LoadPrefilter(path string) (*bloom.BloomFilter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open prefilter")
	}
	defer f.Close()

	var filter bloom.BloomFilter
	if _, err := filter.ReadFrom(f); err != nil {
		return nil, errors.Wrap(err, "read prefilter")
	}
	return &filter, nil
}
