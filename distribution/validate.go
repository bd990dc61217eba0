package distribution

import (
	"fmt"

	"github.com/bitfsorg/tokendrop/holder"
)

// Validate rejects policies the planner must not silently repair.
func (p Policy) Validate() error {
	switch p.Mode {
	case ModeEqual, ModeProRata:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, p.Mode)
	}
	if !p.Total.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidTotal, p.Total)
	}
	if p.MinBalance.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegativeMinBalance, p.MinBalance)
	}
	if p.ExcludeSelf && p.Self == "" {
		return ErrMissingSelf
	}
	return nil
}

// VerifyPlan checks that plan was computed with policy and still matches a
// recomputation over holders.
func VerifyPlan(plan *Plan, holders []holder.Holder, policy Policy) error {
	if plan == nil {
		return fmt.Errorf("%w: nil plan", ErrPlanMismatch)
	}
	if !plan.Policy.Equal(policy) {
		return ErrPolicyMismatch
	}

	expected, err := Compute(holders, policy, WithPrecision(plan.Precision))
	if err != nil {
		return err
	}

	if len(plan.Entries) != len(expected.Entries) {
		return fmt.Errorf("%w: entry count %d != expected %d", ErrPlanMismatch, len(plan.Entries), len(expected.Entries))
	}
	for i := range plan.Entries {
		if plan.Entries[i].Holder.Identity != expected.Entries[i].Holder.Identity {
			return fmt.Errorf("%w: entry %d: identity mismatch", ErrPlanMismatch, i)
		}
		if !plan.Entries[i].Amount.Equal(expected.Entries[i].Amount) {
			return fmt.Errorf("%w: entry %d: amount %s != expected %s",
				ErrPlanMismatch, i, plan.Entries[i].Amount, expected.Entries[i].Amount)
		}
	}
	return nil
}
