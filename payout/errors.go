package payout

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("payout: required parameter is nil")

	// ErrNoPayouts indicates ExecutePayout was called with nothing to pay.
	ErrNoPayouts = errors.New("payout: no payouts")

	// ErrInvalidAmount indicates an amount is not positive or has more
	// decimal places than the fee currency.
	ErrInvalidAmount = errors.New("payout: invalid amount")

	// ErrDustOutput indicates a payout below the dust limit.
	ErrDustOutput = errors.New("payout: output below dust limit")

	// ErrInvalidUTXO indicates the indexer returned an unusable payer output.
	ErrInvalidUTXO = errors.New("payout: invalid payer utxo")
)
