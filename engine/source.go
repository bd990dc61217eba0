package engine

import (
	"context"

	"github.com/bitfsorg/tokendrop/distribution"
	"github.com/bitfsorg/tokendrop/holder"
	"github.com/bitfsorg/tokendrop/ledger"
	"github.com/shopspring/decimal"
)

// UTXOSource returns the raw unspent outputs of a token.
type UTXOSource interface {
	TokenUTXOs(ctx context.Context, tokenID string) ([]holder.RawOutput, error)
}

// BalanceSource returns the fee-currency balance available for a payout.
type BalanceSource interface {
	FeeBalance(ctx context.Context) (decimal.Decimal, error)
}

// SpendableSource is a BalanceSource that also reports what is left of the
// balance after the fee of a payout to outputs with the given locking script
// lengths.
type SpendableSource interface {
	BalanceSource
	SpendableBalance(ctx context.Context, scriptLens []int) (decimal.Decimal, error)
}

// PayoutExecutor broadcasts a single payout transaction and returns its txid.
type PayoutExecutor interface {
	ExecutePayout(ctx context.Context, payouts []distribution.Payout) (string, error)
}

// Recorder persists executed payouts. *ledger.Store satisfies it.
type Recorder interface {
	Record(rec *ledger.Record) error
}

// UTXOSourceFunc adapts a function to UTXOSource.
type UTXOSourceFunc func(ctx context.Context, tokenID string) ([]holder.RawOutput, error)

func (f UTXOSourceFunc) TokenUTXOs(ctx context.Context, tokenID string) ([]holder.RawOutput, error) {
	return f(ctx, tokenID)
}

// BalanceSourceFunc adapts a function to BalanceSource.
type BalanceSourceFunc func(ctx context.Context) (decimal.Decimal, error)

func (f BalanceSourceFunc) FeeBalance(ctx context.Context) (decimal.Decimal, error) {
	return f(ctx)
}

// PayoutExecutorFunc adapts a function to PayoutExecutor.
type PayoutExecutorFunc func(ctx context.Context, payouts []distribution.Payout) (string, error)

func (f PayoutExecutorFunc) ExecutePayout(ctx context.Context, payouts []distribution.Payout) (string, error) {
	return f(ctx, payouts)
}

var (
	_ UTXOSource     = UTXOSourceFunc(nil)
	_ BalanceSource  = BalanceSourceFunc(nil)
	_ PayoutExecutor = PayoutExecutorFunc(nil)
	_ Recorder       = (*ledger.Store)(nil)
)
