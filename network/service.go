package network

import (
	"context"
	"encoding/json"
)

// TokenIndexer is the chain view the airdrop tooling needs: token outputs,
// fee-currency outputs, token metadata and broadcast.
type TokenIndexer interface {
	// ListTokenUnspent returns every unspent output of the token, including
	// mint-authority outputs.
	ListTokenUnspent(ctx context.Context, tokenID string) ([]*TokenOutput, error)

	// ListUnspent returns the fee-currency outputs of address.
	ListUnspent(ctx context.Context, address string) ([]*UTXO, error)

	// GetTokenInfo returns token metadata. Unknown tokens yield ErrTokenNotFound.
	GetTokenInfo(ctx context.Context, tokenID string) (*TokenInfo, error)

	// BroadcastTx submits a raw transaction hex and returns the txid.
	BroadcastTx(ctx context.Context, rawTxHex string) (string, error)
}

// UTXO is a fee-currency unspent output. Amount is in base units.
type UTXO struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Amount        uint64 `json:"amount"`
	ScriptPubKey  string `json:"script_pubkey"`
	Address       string `json:"address"`
	Confirmations int64  `json:"confirmations"`
}

// TokenOutput is an unspent token output as reported by the indexer.
// Amount is in token base units and may exceed 64 bits.
type TokenOutput struct {
	TxID         string      `json:"txid"`
	Vout         uint32      `json:"vout"`
	ScriptPubKey string      `json:"scriptPubKey"`
	Amount       json.Number `json:"amount"`
	MintBaton    bool        `json:"mintBaton"`
}

// TokenInfo is token metadata.
type TokenInfo struct {
	TokenID  string `json:"tokenId"`
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
}
