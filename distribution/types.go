package distribution

import (
	"fmt"
	"strings"

	"github.com/bitfsorg/tokendrop/holder"
	"github.com/shopspring/decimal"
)

// Mode selects how the total is split across eligible holders.
type Mode string

const (
	// ModeEqual pays every eligible holder the same amount.
	ModeEqual Mode = "equal"
	// ModeProRata pays each eligible holder in proportion to its balance.
	ModeProRata Mode = "pro-rata"
)

// ParseMode accepts "equal" and "pro-rata" (also "prorata", "pro_rata"), case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "equal":
		return ModeEqual, nil
	case "pro-rata", "prorata", "pro_rata":
		return ModeProRata, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Policy is the parameter snapshot a plan is computed with.
type Policy struct {
	Mode        Mode
	Total       decimal.Decimal // Fee currency, must be > 0
	MinBalance  decimal.Decimal // Formatted token balance, must be >= 0
	ExcludeSelf bool
	Self        string // Identity dropped when ExcludeSelf is set
}

// Equal reports whether two policies would produce the same plan.
func (p Policy) Equal(o Policy) bool {
	return p.Mode == o.Mode &&
		p.Total.Equal(o.Total) &&
		p.MinBalance.Equal(o.MinBalance) &&
		p.ExcludeSelf == o.ExcludeSelf &&
		p.Self == o.Self
}

// Entry is one holder's line in a plan.
type Entry struct {
	Holder holder.Holder
	Exact  decimal.Decimal // Unrounded payout
	Amount decimal.Decimal // Payout rounded to the plan precision
}

// Payout is an (identity, amount) pair handed to the payout executor.
type Payout struct {
	Identity string
	Script   []byte // Holder locking script, if known
	Amount   decimal.Decimal
}

// Plan is the per-holder payout plan for one policy and holder set.
//
// The sum of rounded amounts may differ from Policy.Total by at most
// MaxDrift(); the difference is reported by Drift() and left unassigned.
type Plan struct {
	Entries     []Entry
	HolderCount int // Eligible holders
	Policy      Policy
	Precision   int32
	Valid       bool
}

// Invalidate marks the plan stale. Nothing sets Valid again except a new
// Compute call.
func (p *Plan) Invalidate() {
	p.Valid = false
}

// Sum returns the sum of rounded amounts.
func (p *Plan) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range p.Entries {
		sum = sum.Add(e.Amount)
	}
	return sum
}

// ExactSum returns the sum of unrounded amounts.
func (p *Plan) ExactSum() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range p.Entries {
		sum = sum.Add(e.Exact)
	}
	return sum
}

// Drift returns Sum() - Policy.Total. Zero for an empty plan.
func (p *Plan) Drift() decimal.Decimal {
	if len(p.Entries) == 0 {
		return decimal.Zero
	}
	return p.Sum().Sub(p.Policy.Total)
}

// MaxDrift is the rounding bound: half a display unit per entry.
func (p *Plan) MaxDrift() decimal.Decimal {
	half := decimal.New(5, -(p.Precision + 1))
	return half.Mul(decimal.NewFromInt(int64(len(p.Entries))))
}

// Find returns the entry for identity, or nil.
func (p *Plan) Find(identity string) *Entry {
	for i := range p.Entries {
		if p.Entries[i].Holder.Identity == identity {
			return &p.Entries[i]
		}
	}
	return nil
}

// Payouts returns the executor pairs, omitting entries that round to zero.
func (p *Plan) Payouts() []Payout {
	payouts := make([]Payout, 0, len(p.Entries))
	for _, e := range p.Entries {
		if !e.Amount.IsPositive() {
			continue
		}
		payouts = append(payouts, Payout{
			Identity: e.Holder.Identity,
			Script:   e.Holder.Script,
			Amount:   e.Amount,
		})
	}
	return payouts
}
