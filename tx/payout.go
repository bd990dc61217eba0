package tx

import (
	"fmt"
	"sort"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// PayoutParams describes a payout transaction.
type PayoutParams struct {
	Outputs      []PayoutOutput
	Inputs       []*UTXO
	ChangeScript []byte // Locking script for change
	FeeRate      uint64 // sat/KB, DefaultFeeRate when zero
}

func (p *PayoutParams) validate() error {
	if len(p.Outputs) == 0 {
		return fmt.Errorf("%w: no payout outputs", ErrInvalidParams)
	}
	for i, o := range p.Outputs {
		if len(o.Script) == 0 {
			return fmt.Errorf("%w: output[%d] has empty script", ErrScriptBuild, i)
		}
		if o.Amount < DustLimit {
			return fmt.Errorf("%w: output[%d] is %d sat", ErrDustOutput, i, o.Amount)
		}
	}
	if len(p.Inputs) == 0 {
		return fmt.Errorf("%w: inputs", ErrNilParam)
	}
	for i, in := range p.Inputs {
		if in == nil {
			return fmt.Errorf("%w: input[%d]", ErrNilParam, i)
		}
		if len(in.TxID) != TxIDLen {
			return fmt.Errorf("%w: input[%d] TxID length %d", ErrInvalidParams, i, len(in.TxID))
		}
	}
	if len(p.ChangeScript) == 0 {
		return fmt.Errorf("%w: change script", ErrNilParam)
	}
	return nil
}

func payoutSum(outputs []PayoutOutput) uint64 {
	var sum uint64
	for _, o := range outputs {
		sum += o.Amount
	}
	return sum
}

// payoutFee is the fee for numInputs inputs paying outputs plus a change output.
func payoutFee(numInputs int, outputs []PayoutOutput, changeLen int, feeRate uint64) uint64 {
	lens := make([]int, 0, len(outputs)+1)
	for _, o := range outputs {
		lens = append(lens, len(o.Script))
	}
	lens = append(lens, changeLen)
	return EstimateFee(EstimateTxSize(numInputs, lens), feeRate)
}

// BuildPayoutTx constructs an unsigned transaction with one output per
// payout, in order, followed by a change output when change exceeds
// DustLimit. Change below that is left to the miner.
func BuildPayoutTx(p *PayoutParams) (*PayoutTx, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: payout params", ErrNilParam)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	var available uint64
	for _, in := range p.Inputs {
		available += in.Amount
	}
	sum := payoutSum(p.Outputs)
	fee := payoutFee(len(p.Inputs), p.Outputs, len(p.ChangeScript), p.FeeRate)
	if available < sum+fee {
		return nil, fmt.Errorf("%w: need %d sat, have %d sat", ErrInsufficientFunds, sum+fee, available)
	}

	sdkTx := transaction.NewTransaction()
	for _, in := range p.Inputs {
		hash, err := chainhash.NewHash(in.TxID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid UTXO TxID: %w", ErrScriptBuild, err)
		}
		sdkTx.AddInput(&transaction.TransactionInput{
			SourceTXID:       hash,
			SourceTxOutIndex: in.Vout,
			SequenceNumber:   transaction.DefaultSequenceNumber,
		})
	}

	for _, o := range p.Outputs {
		sdkTx.AddOutput(&transaction.TransactionOutput{
			Satoshis:      o.Amount,
			LockingScript: script.NewFromBytes(o.Script),
		})
	}

	result := &PayoutTx{Inputs: p.Inputs, Fee: fee}
	change := available - sum - fee
	if change > DustLimit {
		sdkTx.AddOutput(&transaction.TransactionOutput{
			Satoshis:      change,
			LockingScript: script.NewFromBytes(p.ChangeScript),
		})
		result.Change = &UTXO{
			Vout:         uint32(len(p.Outputs)),
			Amount:       change,
			ScriptPubKey: p.ChangeScript,
		}
	} else {
		result.Fee += change
	}

	result.RawTx = sdkTx.Bytes()
	return result, nil
}

// SelectUTXOs picks the largest outputs first until they cover the payouts
// and the fee of a transaction spending them.
func SelectUTXOs(available []*UTXO, outputs []PayoutOutput, feeRate uint64) ([]*UTXO, error) {
	sorted := make([]*UTXO, 0, len(available))
	for _, u := range available {
		if u != nil && u.Amount > 0 {
			sorted = append(sorted, u)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Amount > sorted[j].Amount })

	sum := payoutSum(outputs)
	var total uint64
	for i, u := range sorted {
		total += u.Amount
		need := sum + payoutFee(i+1, outputs, P2PKHScriptLen, feeRate)
		if total >= need {
			return sorted[:i+1], nil
		}
	}
	need := sum + payoutFee(len(sorted), outputs, P2PKHScriptLen, feeRate)
	return nil, fmt.Errorf("%w: need %d sat, have %d sat", ErrInsufficientFunds, need, total)
}
