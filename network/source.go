package network

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/bitfsorg/tokendrop/holder"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
)

// UTXOSource returns the raw unspent outputs of a token.
type UTXOSource interface {
	TokenUTXOs(ctx context.Context, tokenID string) ([]holder.RawOutput, error)
}

// TokenSource turns indexer token outputs into holder.RawOutput values.
type TokenSource struct {
	indexer TokenIndexer
}

var _ UTXOSource = (*TokenSource)(nil)

// NewTokenSource wraps indexer.
func NewTokenSource(indexer TokenIndexer) *TokenSource {
	return &TokenSource{indexer: indexer}
}

// TokenUTXOs fetches and decodes the token's outputs. Bad hex or a
// non-integer amount means the indexer is broken and fails the whole fetch;
// scripts that decode but cannot be parsed are left to the aggregator.
func (s *TokenSource) TokenUTXOs(ctx context.Context, tokenID string) ([]holder.RawOutput, error) {
	outputs, err := s.indexer.ListTokenUnspent(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	raw := make([]holder.RawOutput, 0, len(outputs))
	for _, o := range outputs {
		script, err := hex.DecodeString(o.ScriptPubKey)
		if err != nil {
			return nil, fmt.Errorf("%w: output %s:%d: script hex: %w", ErrInvalidResponse, o.TxID, o.Vout, err)
		}
		amount, ok := new(big.Int).SetString(o.Amount.String(), 10)
		if !ok {
			return nil, fmt.Errorf("%w: output %s:%d: amount %q is not an integer", ErrInvalidResponse, o.TxID, o.Vout, o.Amount)
		}
		raw = append(raw, holder.RawOutput{
			TxID:      o.TxID,
			Vout:      o.Vout,
			Script:    script,
			Amount:    amount,
			MintBaton: o.MintBaton,
		})
	}
	return raw, nil
}

// CachedSource caches a source's results per token for a fixed TTL.
type CachedSource struct {
	source UTXOSource
	cache  *ttlcache.Cache[string, []holder.RawOutput]
	logger *zap.Logger
}

var _ UTXOSource = (*CachedSource)(nil)

// NewCachedSource wraps source. The cache runs a cleanup goroutine until Stop.
func NewCachedSource(source UTXOSource, ttl time.Duration, logger *zap.Logger) *CachedSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &CachedSource{
		source: source,
		cache: ttlcache.New[string, []holder.RawOutput](
			ttlcache.WithTTL[string, []holder.RawOutput](ttl),
			ttlcache.WithDisableTouchOnHit[string, []holder.RawOutput](),
		),
		logger: logger,
	}
	go c.cache.Start()
	return c
}

// TokenUTXOs returns cached outputs for tokenID or fetches them. Errors are
// not cached.
func (c *CachedSource) TokenUTXOs(ctx context.Context, tokenID string) ([]holder.RawOutput, error) {
	if item := c.cache.Get(tokenID); item != nil {
		c.logger.Debug("token outputs served from cache",
			zap.String("op", "network.CachedSource.TokenUTXOs"),
			zap.String("token", tokenID))
		return item.Value(), nil
	}

	outputs, err := c.source.TokenUTXOs(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	c.cache.Set(tokenID, outputs, ttlcache.DefaultTTL)
	return outputs, nil
}

// Invalidate drops the cached outputs of tokenID, e.g. after a payout.
func (c *CachedSource) Invalidate(tokenID string) {
	c.cache.Delete(tokenID)
}

// Stop halts the cleanup goroutine.
func (c *CachedSource) Stop() {
	c.cache.Stop()
}
