package distribution

import "errors"

var (
	// ErrInvalidMode indicates the distribution mode is not recognized.
	ErrInvalidMode = errors.New("distribution: invalid mode (must be \"equal\" or \"pro-rata\")")

	// ErrInvalidTotal indicates the payout total is zero or negative.
	ErrInvalidTotal = errors.New("distribution: total amount must be positive")

	// ErrNegativeMinBalance indicates the eligibility threshold is negative.
	ErrNegativeMinBalance = errors.New("distribution: minimum eligible balance must not be negative")

	// ErrMissingSelf indicates self-exclusion was requested without a self identity.
	ErrMissingSelf = errors.New("distribution: self identity required when excluding self")

	// ErrInvalidPrecision indicates the display precision is out of range.
	ErrInvalidPrecision = errors.New("distribution: invalid precision")

	// ErrPolicyMismatch indicates a plan was computed with a different policy.
	ErrPolicyMismatch = errors.New("distribution: plan policy does not match current policy")

	// ErrPlanMismatch indicates a plan's entries differ from a recomputation.
	ErrPlanMismatch = errors.New("distribution: plan entries do not match recomputation")
)
