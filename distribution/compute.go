// Package distribution computes airdrop payout plans over a holder snapshot.
package distribution

import (
	"fmt"

	"github.com/bitfsorg/tokendrop/holder"
	"github.com/shopspring/decimal"
)

const (
	// DefaultPrecision is the number of decimal places payout amounts are rounded to.
	DefaultPrecision int32 = 2

	// MaxPrecision bounds WithPrecision.
	MaxPrecision int32 = 8
)

// Option configures Compute.
type Option func(*options)

type options struct {
	precision int32
}

// WithPrecision sets the rounding precision of Entry.Amount.
func WithPrecision(places int32) Option {
	return func(o *options) { o.precision = places }
}

// Eligible filters holders in order: self (when excluded), then balances
// below MinBalance. Holders without a positive balance are never eligible.
func Eligible(holders []holder.Holder, policy Policy) []holder.Holder {
	eligible := make([]holder.Holder, 0, len(holders))
	for _, h := range holders {
		if policy.ExcludeSelf && h.Identity == policy.Self {
			continue
		}
		if h.BalanceFormatted.LessThan(policy.MinBalance) {
			continue
		}
		if !h.BalanceFormatted.IsPositive() {
			continue
		}
		eligible = append(eligible, h)
	}
	return eligible
}

// Compute builds a fresh, valid plan for the given holders and policy.
//
// Every share is computed over eligible holders only. With no eligible
// holders the plan is empty with HolderCount 0.
func Compute(holders []holder.Holder, policy Policy, opts ...Option) (*Plan, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	o := options{precision: DefaultPrecision}
	for _, opt := range opts {
		opt(&o)
	}
	if o.precision < 0 || o.precision > MaxPrecision {
		return nil, fmt.Errorf("%w: %d (must be 0..%d)", ErrInvalidPrecision, o.precision, MaxPrecision)
	}

	eligible := Eligible(holders, policy)
	plan := &Plan{
		Entries:     make([]Entry, 0, len(eligible)),
		HolderCount: len(eligible),
		Policy:      policy,
		Precision:   o.precision,
	}

	if len(eligible) > 0 {
		switch policy.Mode {
		case ModeEqual:
			share := policy.Total.Div(decimal.NewFromInt(int64(len(eligible))))
			for _, h := range eligible {
				plan.Entries = append(plan.Entries, newEntry(h, share, o.precision))
			}
		case ModeProRata:
			sum := decimal.Zero
			for _, h := range eligible {
				sum = sum.Add(h.BalanceFormatted)
			}
			for _, h := range eligible {
				exact := policy.Total.Mul(h.BalanceFormatted).Div(sum)
				plan.Entries = append(plan.Entries, newEntry(h, exact, o.precision))
			}
		}
	}

	plan.Valid = true
	return plan, nil
}

func newEntry(h holder.Holder, exact decimal.Decimal, precision int32) Entry {
	return Entry{
		Holder: h,
		Exact:  exact,
		Amount: exact.Round(precision),
	}
}
