package tx

import (
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// UTXO represents a fee-currency output the payer can spend.
type UTXO struct {
	TxID         []byte         `json:"txid"`          // 32 bytes, internal byte order
	Vout         uint32         `json:"vout"`
	Amount       uint64         `json:"amount"`        // satoshis
	ScriptPubKey []byte         `json:"script_pubkey"` // locking script bytes
	PrivateKey   *ec.PrivateKey `json:"-"`             // signing key (not serialized)
}

// PayoutOutput is one recipient of a payout transaction.
type PayoutOutput struct {
	Script []byte // Locking script
	Amount uint64 // satoshis
}

// PayoutTx is a built payout transaction.
type PayoutTx struct {
	RawTx  []byte  // Serialized transaction bytes (unsigned until SignPayoutTx)
	TxID   string  // Display-order hex, set by SignPayoutTx
	Inputs []*UTXO // Spent outputs, in input order
	Fee    uint64  // satoshis
	Change *UTXO   // Change output (nil if it would be dust)
}
