// Package holder aggregates unspent token outputs into a deduplicated set of
// token holders.
//
// Raw balances are accumulated as unsigned big integers; the decimal view
// (BalanceFormatted) is derived once per holder after accumulation.
package holder

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Option configures Aggregate.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	mainnet bool
}

// WithLogger sets the logger used to report skipped outputs.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMainnet selects the address encoding for P2PKH identities (default mainnet).
func WithMainnet(mainnet bool) Option {
	return func(o *options) { o.mainnet = mainnet }
}

// Aggregate folds raw token outputs into one Holder per identity.
//
// Mint-authority outputs are counted and otherwise ignored. Outputs whose
// script cannot be turned into an identity, or whose amount is negative, are
// skipped, logged, and returned in Snapshot.Skipped; they never abort the
// scan. The only error is an out-of-range decimal scale.
func Aggregate(outputs []RawOutput, decimals int, opts ...Option) (*Snapshot, error) {
	if decimals < 0 || decimals > MaxDecimals {
		return nil, fmt.Errorf("%w: %d (must be 0..%d)", ErrInvalidDecimals, decimals, MaxDecimals)
	}

	o := options{logger: zap.NewNop(), mainnet: true}
	for _, opt := range opts {
		opt(&o)
	}

	snap := &Snapshot{
		Decimals: decimals,
		Total:    new(big.Int),
	}
	index := make(map[string]int, len(outputs))

	skip := func(out RawOutput, err error) {
		snap.Skipped = append(snap.Skipped, SkippedOutput{Output: out, Err: err})
		o.logger.Warn("skipping token output",
			zap.String("op", "holder.Aggregate"),
			zap.String("outpoint", out.Outpoint()),
			zap.Error(err),
		)
	}

	for _, out := range outputs {
		if out.MintBaton {
			snap.MintBatons++
			continue
		}

		amount := out.Amount
		if amount == nil {
			amount = new(big.Int)
		}
		if amount.Sign() < 0 {
			skip(out, fmt.Errorf("%w: %s", ErrNegativeAmount, amount))
			continue
		}

		id, err := IdentityFromScript(out.Script, o.mainnet)
		if err != nil {
			skip(out, err)
			continue
		}

		i, ok := index[id]
		if !ok {
			snap.Holders = append(snap.Holders, Holder{
				Identity: id,
				Script:   append([]byte(nil), out.Script...),
				Balance:  new(big.Int),
			})
			i = len(snap.Holders) - 1
			index[id] = i
		}

		h := &snap.Holders[i]
		h.Balance.Add(h.Balance, amount)
		h.Outputs++
		snap.Total.Add(snap.Total, amount)
	}

	for i := range snap.Holders {
		snap.Holders[i].BalanceFormatted = FormatBalance(snap.Holders[i].Balance, decimals)
	}

	if len(snap.Skipped) > 0 {
		o.logger.Warn("holder snapshot is partial",
			zap.String("op", "holder.Aggregate"),
			zap.Int("skipped", len(snap.Skipped)),
			zap.Int("holders", len(snap.Holders)),
		)
	}

	return snap, nil
}

// FormatBalance scales base units down by 10^decimals.
func FormatBalance(balance *big.Int, decimals int) decimal.Decimal {
	if balance == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(balance, -int32(decimals))
}
