package network

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bitfsorg/tokendrop/holder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexerWith(outputs []*TokenOutput, err error) *MockTokenIndexer {
	return &MockTokenIndexer{
		ListTokenUnspentFn: func(context.Context, string) ([]*TokenOutput, error) {
			return outputs, err
		},
	}
}

func TestTokenSource_Decodes(t *testing.T) {
	src := NewTokenSource(indexerWith([]*TokenOutput{
		{TxID: "aa", Vout: 1, ScriptPubKey: "51", Amount: json.Number("18446744073709551617")},
		{TxID: "bb", Vout: 0, ScriptPubKey: "", Amount: json.Number("5"), MintBaton: true},
	}, nil))

	raw, err := src.TokenUTXOs(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, raw, 2)
	assert.Equal(t, []byte{0x51}, raw[0].Script)
	assert.Equal(t, "18446744073709551617", raw[0].Amount.String())
	assert.Equal(t, "aa:1", raw[0].Outpoint())
	assert.True(t, raw[1].MintBaton)
	assert.Empty(t, raw[1].Script)
}

func TestTokenSource_Errors(t *testing.T) {
	tests := []struct {
		name   string
		output *TokenOutput
	}{
		{"bad hex", &TokenOutput{TxID: "aa", ScriptPubKey: "zz", Amount: json.Number("1")}},
		{"fractional amount", &TokenOutput{TxID: "aa", ScriptPubKey: "51", Amount: json.Number("1.5")}},
		{"empty amount", &TokenOutput{TxID: "aa", ScriptPubKey: "51"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewTokenSource(indexerWith([]*TokenOutput{tt.output}, nil))
			_, err := src.TokenUTXOs(context.Background(), "tok")
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestTokenSource_PropagatesIndexerError(t *testing.T) {
	src := NewTokenSource(indexerWith(nil, ErrConnectionFailed))
	_, err := src.TokenUTXOs(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

type countingSource struct {
	calls atomic.Int32
	err   error
}

func (c *countingSource) TokenUTXOs(_ context.Context, tokenID string) ([]holder.RawOutput, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return []holder.RawOutput{{TxID: tokenID}}, nil
}

func TestCachedSource_HitsWithinTTL(t *testing.T) {
	inner := &countingSource{}
	cached := NewCachedSource(inner, time.Minute, nil)
	defer cached.Stop()

	for i := 0; i < 3; i++ {
		raw, err := cached.TokenUTXOs(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, "tok", raw[0].TxID)
	}
	assert.Equal(t, int32(1), inner.calls.Load())

	_, err := cached.TokenUTXOs(context.Background(), "other")
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestCachedSource_Invalidate(t *testing.T) {
	inner := &countingSource{}
	cached := NewCachedSource(inner, time.Minute, nil)
	defer cached.Stop()

	_, err := cached.TokenUTXOs(context.Background(), "tok")
	require.NoError(t, err)
	cached.Invalidate("tok")
	_, err = cached.TokenUTXOs(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestCachedSource_Expires(t *testing.T) {
	inner := &countingSource{}
	cached := NewCachedSource(inner, 20*time.Millisecond, nil)
	defer cached.Stop()

	_, err := cached.TokenUTXOs(context.Background(), "tok")
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	_, err = cached.TokenUTXOs(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestCachedSource_ErrorsNotCached(t *testing.T) {
	fail := errors.New("down")
	inner := &countingSource{err: fail}
	cached := NewCachedSource(inner, time.Minute, nil)
	defer cached.Stop()

	_, err := cached.TokenUTXOs(context.Background(), "tok")
	assert.ErrorIs(t, err, fail)
	_, err = cached.TokenUTXOs(context.Background(), "tok")
	assert.ErrorIs(t, err, fail)
	assert.Equal(t, int32(2), inner.calls.Load())
}
