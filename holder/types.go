package holder

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// MaxDecimals is the largest token decimal scale accepted by Aggregate.
const MaxDecimals = 9

// RawOutput is an unspent token output as reported by the indexer.
type RawOutput struct {
	TxID      string   // Funding transaction (hex), informational
	Vout      uint32   // Output index, informational
	Script    []byte   // Holder locking script
	Amount    *big.Int // Token base units; nil counts as zero
	MintBaton bool     // Mint-authority marker, never a holding
}

// Outpoint returns "txid:vout" for logging.
func (o RawOutput) Outpoint() string {
	return fmt.Sprintf("%s:%d", o.TxID, o.Vout)
}

// Holder is one deduplicated token holder.
type Holder struct {
	Identity         string          // Address or script-derived identifier
	Script           []byte          // Locking script of the first contributing output
	Balance          *big.Int        // Sum of token base units
	BalanceFormatted decimal.Decimal // Balance / 10^decimals
	Outputs          int             // Number of contributing outputs
}

// SkippedOutput records a raw output that could not be attributed to a holder.
type SkippedOutput struct {
	Output RawOutput
	Err    error
}

// Snapshot is the result of aggregating one scan of token outputs.
type Snapshot struct {
	Decimals   int
	Holders    []Holder // First-appearance order
	Skipped    []SkippedOutput
	MintBatons int      // Mint-authority outputs excluded from the set
	Total      *big.Int // Sum of all holder balances
}

// Find returns the holder with the given identity, or nil.
func (s *Snapshot) Find(identity string) *Holder {
	for i := range s.Holders {
		if s.Holders[i].Identity == identity {
			return &s.Holders[i]
		}
	}
	return nil
}

// Partial reports whether some outputs were skipped during aggregation.
func (s *Snapshot) Partial() bool {
	return len(s.Skipped) > 0
}
