// Package payout builds, signs and broadcasts airdrop payout transactions
// funded by the wallet's payer key.
package payout

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/bitfsorg/tokendrop/distribution"
	"github.com/bitfsorg/tokendrop/engine"
	"github.com/bitfsorg/tokendrop/network"
	"github.com/bitfsorg/tokendrop/tx"
	"github.com/bitfsorg/tokendrop/wallet"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultFeeDecimals is the number of decimal places of the fee currency
// unit: amounts are multiplied by 10^FeeDecimals to get base units.
const DefaultFeeDecimals int32 = 2

var (
	_ engine.PayoutExecutor  = (*Executor)(nil)
	_ engine.BalanceSource   = (*Executor)(nil)
	_ engine.SpendableSource = (*Executor)(nil)
)

// Option configures an Executor.
type Option func(*Executor)

// WithFeeDecimals sets the fee currency decimal scale.
func WithFeeDecimals(d int32) Option {
	return func(e *Executor) { e.feeDecimals = d }
}

// WithFeeRate sets the fee rate in sat/KB.
func WithFeeRate(rate uint64) Option {
	return func(e *Executor) { e.feeRate = rate }
}

// WithNetwork selects the payer address encoding.
func WithNetwork(n *wallet.NetworkConfig) Option {
	return func(e *Executor) {
		if n != nil {
			e.network = n
		}
	}
}

// WithLogger sets the executor logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Executor pays airdrops from a single payer key.
type Executor struct {
	indexer     network.TokenIndexer
	payer       *wallet.KeyPair
	network     *wallet.NetworkConfig
	feeDecimals int32
	feeRate     uint64
	logger      *zap.Logger

	payerAddr   string
	payerScript []byte
}

// NewExecutor creates an executor paying from payer.
func NewExecutor(indexer network.TokenIndexer, payer *wallet.KeyPair, opts ...Option) (*Executor, error) {
	if indexer == nil {
		return nil, fmt.Errorf("%w: indexer", ErrNilParam)
	}
	if payer == nil || payer.PrivateKey == nil || payer.PublicKey == nil {
		return nil, fmt.Errorf("%w: payer key", ErrNilParam)
	}
	e := &Executor{
		indexer:     indexer,
		payer:       payer,
		network:     &wallet.MainNet,
		feeDecimals: DefaultFeeDecimals,
		feeRate:     tx.DefaultFeeRate,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	addr, err := payer.Address(e.network)
	if err != nil {
		return nil, err
	}
	lock, err := tx.BuildP2PKHScript(payer.PublicKey)
	if err != nil {
		return nil, err
	}
	e.payerAddr = addr
	e.payerScript = lock
	return e, nil
}

// PayerAddress returns the address funds are spent from and change returns to.
func (e *Executor) PayerAddress() string { return e.payerAddr }

// ToBaseUnits converts a fee-currency amount to base units. Amounts with
// more places than the fee currency are rejected, not rounded.
func (e *Executor) ToBaseUnits(amount decimal.Decimal) (uint64, error) {
	if !amount.IsPositive() {
		return 0, fmt.Errorf("%w: %s is not positive", ErrInvalidAmount, amount)
	}
	base := amount.Shift(e.feeDecimals)
	if !base.IsInteger() {
		return 0, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, amount, e.feeDecimals)
	}
	bi := base.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("%w: %s overflows", ErrInvalidAmount, amount)
	}
	return bi.Uint64(), nil
}

// FromBaseUnits converts base units to a fee-currency amount.
func (e *Executor) FromBaseUnits(units uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -e.feeDecimals)
}

// FeeBalance returns the payer's spendable balance in the fee currency.
func (e *Executor) FeeBalance(ctx context.Context) (decimal.Decimal, error) {
	utxos, err := e.indexer.ListUnspent(ctx, e.payerAddr)
	if err != nil {
		return decimal.Zero, err
	}
	var total uint64
	for _, u := range utxos {
		total += u.Amount
	}
	return e.FromBaseUnits(total), nil
}

// SpendableBalance returns the fee balance left after the fee of a
// transaction spending every payer output to outputs with the given locking
// script lengths plus change. Lengths of zero count as P2PKH.
func (e *Executor) SpendableBalance(ctx context.Context, scriptLens []int) (decimal.Decimal, error) {
	utxos, err := e.indexer.ListUnspent(ctx, e.payerAddr)
	if err != nil {
		return decimal.Zero, err
	}
	var total uint64
	inputs := 0
	for _, u := range utxos {
		if u.Amount == 0 {
			continue
		}
		total += u.Amount
		inputs++
	}

	lens := make([]int, 0, len(scriptLens)+1)
	for _, n := range scriptLens {
		if n <= 0 {
			n = tx.P2PKHScriptLen
		}
		lens = append(lens, n)
	}
	lens = append(lens, len(e.payerScript))

	fee := tx.EstimateFee(tx.EstimateTxSize(inputs, lens), e.feeRate)
	if total <= fee {
		return decimal.Zero, nil
	}
	return e.FromBaseUnits(total - fee), nil
}

// ExecutePayout pays every entry in one transaction and returns its txid.
// Outputs follow the order of payouts; change returns to the payer.
func (e *Executor) ExecutePayout(ctx context.Context, payouts []distribution.Payout) (string, error) {
	if len(payouts) == 0 {
		return "", ErrNoPayouts
	}
	log := e.logger.With(zap.String("op", "payout.ExecutePayout"), zap.String("payer", e.payerAddr))

	outputs, err := e.outputs(payouts)
	if err != nil {
		return "", err
	}

	utxos, err := e.payerUTXOs(ctx)
	if err != nil {
		return "", err
	}
	inputs, err := tx.SelectUTXOs(utxos, outputs, e.feeRate)
	if err != nil {
		return "", err
	}

	ptx, err := tx.BuildPayoutTx(&tx.PayoutParams{
		Outputs:      outputs,
		Inputs:       inputs,
		ChangeScript: e.payerScript,
		FeeRate:      e.feeRate,
	})
	if err != nil {
		return "", err
	}
	signedHex, err := tx.SignPayoutTx(ptx)
	if err != nil {
		return "", err
	}

	log.Debug("broadcasting payout",
		zap.String("txid", ptx.TxID),
		zap.Int("outputs", len(outputs)),
		zap.Int("inputs", len(inputs)),
		zap.Uint64("fee", ptx.Fee))

	txid, err := e.indexer.BroadcastTx(ctx, signedHex)
	if err != nil {
		return "", err
	}
	if txid == "" {
		txid = ptx.TxID
	}
	return txid, nil
}

func (e *Executor) outputs(payouts []distribution.Payout) ([]tx.PayoutOutput, error) {
	outputs := make([]tx.PayoutOutput, 0, len(payouts))
	for _, p := range payouts {
		units, err := e.ToBaseUnits(p.Amount)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Identity, err)
		}
		if units < tx.DustLimit {
			return nil, fmt.Errorf("%w: %s gets %d units, minimum %d", ErrDustOutput, p.Identity, units, tx.DustLimit)
		}
		lock := p.Script
		if len(lock) == 0 {
			if lock, err = tx.LockingScriptForAddress(p.Identity); err != nil {
				return nil, err
			}
		}
		outputs = append(outputs, tx.PayoutOutput{Script: lock, Amount: units})
	}
	return outputs, nil
}

func (e *Executor) payerUTXOs(ctx context.Context) ([]*tx.UTXO, error) {
	listed, err := e.indexer.ListUnspent(ctx, e.payerAddr)
	if err != nil {
		return nil, err
	}
	utxos := make([]*tx.UTXO, 0, len(listed))
	for _, u := range listed {
		hash, err := chainhash.NewHashFromHex(u.TxID)
		if err != nil {
			return nil, fmt.Errorf("%w: txid %q: %w", ErrInvalidUTXO, u.TxID, err)
		}
		lock := e.payerScript
		if u.ScriptPubKey != "" {
			if lock, err = hex.DecodeString(u.ScriptPubKey); err != nil {
				return nil, fmt.Errorf("%w: %s:%d script: %w", ErrInvalidUTXO, u.TxID, u.Vout, err)
			}
		}
		utxos = append(utxos, &tx.UTXO{
			TxID:         hash.CloneBytes(),
			Vout:         u.Vout,
			Amount:       u.Amount,
			ScriptPubKey: lock,
			PrivateKey:   e.payer.PrivateKey,
		})
	}
	return utxos, nil
}
