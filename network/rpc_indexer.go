package network

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Compile-time interface check.
var _ TokenIndexer = (*RPCClient)(nil)

// toBaseUnits converts a coin float64 amount (as returned by the RPC node)
// to base units.
func (c *RPCClient) toBaseUnits(amount float64) uint64 {
	return uint64(math.Round(amount * c.unitScale))
}

func isNotFound(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == rpcCodeNotFound
}

// ListTokenUnspent calls `listtokenunspent "tokenid"`.
func (c *RPCClient) ListTokenUnspent(ctx context.Context, tokenID string) ([]*TokenOutput, error) {
	var outputs []*TokenOutput
	if err := c.Call(ctx, "listtokenunspent", []interface{}{tokenID}, &outputs); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, tokenID)
		}
		return nil, err
	}
	for i, o := range outputs {
		if o == nil {
			return nil, fmt.Errorf("%w: null token output at index %d", ErrInvalidResponse, i)
		}
	}
	return outputs, nil
}

type listUnspentResult struct {
	TxID          string  `json:"txid"`
	Vout          uint32  `json:"vout"`
	Amount        float64 `json:"amount"`
	ScriptPubKey  string  `json:"scriptPubKey"`
	Address       string  `json:"address"`
	Confirmations int64   `json:"confirmations"`
}

// ListUnspent calls `listunspent 0 9999999 ["address"]` and converts coin
// amounts to base units.
func (c *RPCClient) ListUnspent(ctx context.Context, address string) ([]*UTXO, error) {
	params := []interface{}{0, 9999999, []string{address}}
	var results []listUnspentResult
	if err := c.Call(ctx, "listunspent", params, &results); err != nil {
		return nil, err
	}

	utxos := make([]*UTXO, len(results))
	for i, r := range results {
		utxos[i] = &UTXO{
			TxID:          r.TxID,
			Vout:          r.Vout,
			Amount:        c.toBaseUnits(r.Amount),
			ScriptPubKey:  r.ScriptPubKey,
			Address:       r.Address,
			Confirmations: r.Confirmations,
		}
	}
	return utxos, nil
}

// GetTokenInfo calls `gettokeninfo "tokenid"`.
func (c *RPCClient) GetTokenInfo(ctx context.Context, tokenID string) (*TokenInfo, error) {
	var info *TokenInfo
	if err := c.Call(ctx, "gettokeninfo", []interface{}{tokenID}, &info); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, tokenID)
		}
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, tokenID)
	}
	if info.TokenID == "" {
		info.TokenID = tokenID
	}
	return info, nil
}

// BroadcastTx calls `sendrawtransaction "hex"`. Node errors wrap
// ErrBroadcastRejected.
func (c *RPCClient) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	var txid string
	if err := c.Call(ctx, "sendrawtransaction", []interface{}{rawTxHex}, &txid); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBroadcastRejected, err)
	}
	return txid, nil
}
