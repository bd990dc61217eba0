package network

import "context"

// MockTokenIndexer is a test double for TokenIndexer.
// All function fields must be set before the corresponding method is called.
type MockTokenIndexer struct {
	ListTokenUnspentFn func(ctx context.Context, tokenID string) ([]*TokenOutput, error)
	ListUnspentFn      func(ctx context.Context, address string) ([]*UTXO, error)
	GetTokenInfoFn     func(ctx context.Context, tokenID string) (*TokenInfo, error)
	BroadcastTxFn      func(ctx context.Context, rawTxHex string) (string, error)
}

var _ TokenIndexer = (*MockTokenIndexer)(nil)

func (m *MockTokenIndexer) ListTokenUnspent(ctx context.Context, tokenID string) ([]*TokenOutput, error) {
	return m.ListTokenUnspentFn(ctx, tokenID)
}
func (m *MockTokenIndexer) ListUnspent(ctx context.Context, address string) ([]*UTXO, error) {
	return m.ListUnspentFn(ctx, address)
}
func (m *MockTokenIndexer) GetTokenInfo(ctx context.Context, tokenID string) (*TokenInfo, error) {
	return m.GetTokenInfoFn(ctx, tokenID)
}
func (m *MockTokenIndexer) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	return m.BroadcastTxFn(ctx, rawTxHex)
}
