package ledger

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("ledger: required parameter is nil")

	// ErrInvalidRecord indicates a record is missing its txid or token id.
	ErrInvalidRecord = errors.New("ledger: invalid payout record")

	// ErrDuplicatePayout indicates a payout with this txid is already recorded.
	ErrDuplicatePayout = errors.New("ledger: duplicate payout")

	// ErrPayoutNotFound indicates no payout is recorded under the txid.
	ErrPayoutNotFound = errors.New("ledger: payout not found")
)
