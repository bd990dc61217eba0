package engine

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/bitfsorg/tokendrop/distribution"
	"github.com/bitfsorg/tokendrop/holder"
	"github.com/bitfsorg/tokendrop/ledger"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func p2pkhScript(seed byte) []byte {
	s := []byte{script.OpDUP, script.OpHASH160, 0x14}
	s = append(s, bytes.Repeat([]byte{seed}, 20)...)
	return append(s, script.OpEQUALVERIFY, script.OpCHECKSIG)
}

func identity(t *testing.T, seed byte) string {
	t.Helper()
	id, err := holder.IdentityFromScript(p2pkhScript(seed), true)
	require.NoError(t, err)
	return id
}

// twoHolders is A=100, B=300 with decimals 0.
func twoHolders() []holder.RawOutput {
	return []holder.RawOutput{
		{TxID: "01", Vout: 0, Script: p2pkhScript(0x0a), Amount: big.NewInt(100)},
		{TxID: "02", Vout: 0, Script: p2pkhScript(0x0b), Amount: big.NewInt(120)},
		{TxID: "03", Vout: 1, Script: p2pkhScript(0x0b), Amount: big.NewInt(180)},
	}
}

func staticSource(outputs []holder.RawOutput) UTXOSource {
	return UTXOSourceFunc(func(context.Context, string) ([]holder.RawOutput, error) {
		return outputs, nil
	})
}

type recordingExecutor struct {
	calls   int
	payouts []distribution.Payout
	err     error
}

func (r *recordingExecutor) ExecutePayout(_ context.Context, payouts []distribution.Payout) (string, error) {
	r.calls++
	r.payouts = payouts
	if r.err != nil {
		return "", r.err
	}
	return "txid-1", nil
}

func proRata(total int64) distribution.Policy {
	return distribution.Policy{Mode: distribution.ModeProRata, Total: decimal.NewFromInt(total)}
}

func newEngine(t *testing.T, src UTXOSource, exec PayoutExecutor, opts ...Option) *Engine {
	t.Helper()
	e, err := New(src, exec, opts...)
	require.NoError(t, err)
	require.NoError(t, e.SetToken("tok", 0))
	return e
}

func amounts(t *testing.T, plan *distribution.Plan) map[string]string {
	t.Helper()
	require.NotNil(t, plan)
	m := make(map[string]string, len(plan.Entries))
	for _, en := range plan.Entries {
		m[en.Holder.Identity] = en.Amount.StringFixed(plan.Precision)
	}
	return m
}

func TestNew_NilParams(t *testing.T) {
	_, err := New(nil, &recordingExecutor{})
	assert.ErrorIs(t, err, ErrNilParam)
	_, err = New(staticSource(nil), nil)
	assert.ErrorIs(t, err, ErrNilParam)
}

func TestEngine_InitialState(t *testing.T) {
	e, err := New(staticSource(nil), &recordingExecutor{})
	require.NoError(t, err)
	st := e.Status()
	assert.Equal(t, StateUncalculated, st.State)
	assert.Nil(t, st.Plan)
	assert.ErrorIs(t, e.Scan(context.Background()), ErrNoToken)
}

func TestEngine_SetTokenInvalidDecimals(t *testing.T) {
	e, err := New(staticSource(nil), &recordingExecutor{})
	require.NoError(t, err)
	assert.ErrorIs(t, e.SetToken("tok", 10), holder.ErrInvalidDecimals)
}

func TestEngine_ScanComputesPlan(t *testing.T) {
	e := newEngine(t, staticSource(twoHolders()), &recordingExecutor{}, WithPolicy(proRata(40)))

	require.NoError(t, e.Scan(context.Background()))

	st := e.Status()
	assert.Equal(t, StateCalculated, st.State)
	require.NotNil(t, st.Snapshot)
	assert.Len(t, st.Snapshot.Holders, 2)
	assert.True(t, st.Plan.Valid)
	assert.Equal(t, map[string]string{
		identity(t, 0x0a): "10.00",
		identity(t, 0x0b): "30.00",
	}, amounts(t, st.Plan))
}

func TestEngine_Scenarios(t *testing.T) {
	a, b := identity(t, 0x0a), identity(t, 0x0b)

	t.Run("equal", func(t *testing.T) {
		e := newEngine(t, staticSource(twoHolders()), &recordingExecutor{}, WithPolicy(proRata(40)))
		require.NoError(t, e.Scan(context.Background()))
		require.NoError(t, e.SetMode(distribution.ModeEqual))
		plan, err := e.Calculate()
		require.NoError(t, err)
		assert.Equal(t, map[string]string{a: "20.00", b: "20.00"}, amounts(t, plan))
	})

	t.Run("min balance", func(t *testing.T) {
		e := newEngine(t, staticSource(twoHolders()), &recordingExecutor{}, WithPolicy(proRata(40)))
		require.NoError(t, e.Scan(context.Background()))
		require.NoError(t, e.SetMinBalance(decimal.NewFromInt(200)))
		plan, err := e.Calculate()
		require.NoError(t, err)
		assert.Equal(t, 1, plan.HolderCount)
		assert.Equal(t, map[string]string{b: "40.00"}, amounts(t, plan))
	})

	t.Run("exclude self", func(t *testing.T) {
		e := newEngine(t, staticSource(twoHolders()), &recordingExecutor{}, WithPolicy(proRata(40)))
		require.NoError(t, e.Scan(context.Background()))
		require.NoError(t, e.SetSelf(a))
		require.NoError(t, e.SetExcludeSelf(true))
		plan, err := e.Calculate()
		require.NoError(t, err)
		assert.Nil(t, plan.Find(a))
		assert.Equal(t, map[string]string{b: "40.00"}, amounts(t, plan))
	})
}

func TestEngine_SettersInvalidate(t *testing.T) {
	setters := map[string]func(e *Engine) error{
		"mode":         func(e *Engine) error { return e.SetMode(distribution.ModeProRata) },
		"total":        func(e *Engine) error { return e.SetTotal(decimal.NewFromInt(40)) },
		"min balance":  func(e *Engine) error { return e.SetMinBalance(decimal.Zero) },
		"exclude self": func(e *Engine) error { return e.SetExcludeSelf(false) },
		"self":         func(e *Engine) error { return e.SetSelf("") },
		"policy":       func(e *Engine) error { return e.SetPolicy(proRata(40)) },
	}

	for name, set := range setters {
		t.Run(name, func(t *testing.T) {
			e := newEngine(t, staticSource(twoHolders()), &recordingExecutor{}, WithPolicy(proRata(40)))
			require.NoError(t, e.Scan(context.Background()))
			require.True(t, e.Status().Plan.Valid)

			// Same value as before: still invalidates.
			require.NoError(t, set(e))

			st := e.Status()
			assert.Equal(t, StateStale, st.State)
			assert.False(t, st.Plan.Valid)

			_, err := e.Execute(context.Background())
			assert.ErrorIs(t, err, ErrPlanNotExecutable)
		})
	}
}

func TestEngine_CalculateRevalidates(t *testing.T) {
	exec := &recordingExecutor{}
	e := newEngine(t, staticSource(twoHolders()), exec, WithPolicy(proRata(40)))
	require.NoError(t, e.Scan(context.Background()))
	require.NoError(t, e.SetTotal(decimal.NewFromInt(80)))

	plan, err := e.Calculate()
	require.NoError(t, err)
	assert.True(t, plan.Valid)
	assert.Equal(t, StateCalculated, e.Status().State)

	txid, err := e.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "txid-1", txid)
	require.Len(t, exec.payouts, 2)
	assert.Equal(t, "20", exec.payouts[0].Amount.String())
	assert.Equal(t, "60", exec.payouts[1].Amount.String())
}

func TestEngine_CalculateRejectsInvalidPolicy(t *testing.T) {
	e := newEngine(t, staticSource(twoHolders()), &recordingExecutor{}, WithPolicy(proRata(40)))
	require.NoError(t, e.Scan(context.Background()))

	require.NoError(t, e.SetTotal(decimal.Zero))
	_, err := e.Calculate()
	assert.ErrorIs(t, err, distribution.ErrInvalidTotal)
	assert.Equal(t, StateStale, e.Status().State)

	require.NoError(t, e.SetMinBalance(decimal.NewFromInt(-1)))
	_, err = e.Calculate()
	assert.ErrorIs(t, err, distribution.ErrInvalidTotal)

	require.NoError(t, e.SetTotal(decimal.NewFromInt(1)))
	_, err = e.Calculate()
	assert.ErrorIs(t, err, distribution.ErrNegativeMinBalance)
}

func TestEngine_CalculateBeforeScan(t *testing.T) {
	e := newEngine(t, staticSource(twoHolders()), &recordingExecutor{}, WithPolicy(proRata(40)))
	_, err := e.Calculate()
	assert.ErrorIs(t, err, ErrNotScanned)
	_, err = e.Preview()
	assert.ErrorIs(t, err, ErrNotScanned)
}

func TestEngine_ScanWithInvalidPolicyKeepsSnapshot(t *testing.T) {
	e := newEngine(t, staticSource(twoHolders()), &recordingExecutor{})

	err := e.Scan(context.Background())
	assert.ErrorIs(t, err, distribution.ErrInvalidTotal)

	st := e.Status()
	assert.Equal(t, StateStale, st.State)
	require.NotNil(t, st.Snapshot)
	assert.Len(t, st.Snapshot.Holders, 2)
	assert.Nil(t, st.Plan)

	require.NoError(t, e.SetTotal(decimal.NewFromInt(40)))
	plan, err := e.Calculate()
	require.NoError(t, err)
	assert.True(t, plan.Valid)
}

func TestEngine_ScanFailureRestoresState(t *testing.T) {
	fail := errors.New("indexer down")
	calls := 0
	src := UTXOSourceFunc(func(context.Context, string) ([]holder.RawOutput, error) {
		calls++
		if calls > 1 {
			return nil, fail
		}
		return twoHolders(), nil
	})
	e := newEngine(t, src, &recordingExecutor{}, WithPolicy(proRata(40)))

	t.Run("from uncalculated", func(t *testing.T) {
		e2 := newEngine(t, UTXOSourceFunc(func(context.Context, string) ([]holder.RawOutput, error) {
			return nil, fail
		}), &recordingExecutor{})
		err := e2.Scan(context.Background())
		assert.ErrorIs(t, err, ErrScanFailed)
		assert.ErrorIs(t, err, fail)
		assert.Equal(t, StateUncalculated, e2.Status().State)
	})

	require.NoError(t, e.Scan(context.Background()))
	before := e.Status()

	err := e.Scan(context.Background())
	assert.ErrorIs(t, err, ErrScanFailed)
	assert.ErrorIs(t, err, fail)

	after := e.Status()
	assert.Equal(t, StateCalculated, after.State)
	assert.True(t, after.Plan.Valid)
	assert.Same(t, before.Snapshot, after.Snapshot)
	assert.ErrorIs(t, after.LastErr, ErrScanFailed)
}

func TestEngine_ScanInProgress(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	src := UTXOSourceFunc(func(context.Context, string) ([]holder.RawOutput, error) {
		close(entered)
		<-release
		return twoHolders(), nil
	})
	e := newEngine(t, src, &recordingExecutor{}, WithPolicy(proRata(40)))

	done := make(chan error, 1)
	go func() { done <- e.Scan(context.Background()) }()
	<-entered

	assert.Equal(t, StateScanning, e.Status().State)
	assert.ErrorIs(t, e.Scan(context.Background()), ErrScanInProgress)
	_, err := e.Calculate()
	assert.ErrorIs(t, err, ErrScanInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateCalculated, e.Status().State)
}

func TestEngine_TokenChangeDiscardsScan(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	src := UTXOSourceFunc(func(context.Context, string) ([]holder.RawOutput, error) {
		close(entered)
		<-release
		return twoHolders(), nil
	})
	e := newEngine(t, src, &recordingExecutor{}, WithPolicy(proRata(40)))

	done := make(chan error, 1)
	go func() { done <- e.Scan(context.Background()) }()
	<-entered

	require.NoError(t, e.SetToken("other", 2))
	close(release)

	assert.ErrorIs(t, <-done, ErrScanDiscarded)
	st := e.Status()
	assert.Equal(t, StateUncalculated, st.State)
	assert.Equal(t, "other", st.TokenID)
	assert.Nil(t, st.Snapshot)
	assert.Nil(t, st.Plan)
}

func TestEngine_SetterDuringScanThenFailure(t *testing.T) {
	first := true
	entered := make(chan struct{})
	release := make(chan struct{})
	src := UTXOSourceFunc(func(context.Context, string) ([]holder.RawOutput, error) {
		if first {
			first = false
			return twoHolders(), nil
		}
		close(entered)
		<-release
		return nil, errors.New("timeout")
	})
	e := newEngine(t, src, &recordingExecutor{}, WithPolicy(proRata(40)))
	require.NoError(t, e.Scan(context.Background()))

	done := make(chan error, 1)
	go func() { done <- e.Scan(context.Background()) }()
	<-entered
	require.NoError(t, e.SetTotal(decimal.NewFromInt(50)))
	close(release)

	assert.ErrorIs(t, <-done, ErrScanFailed)
	st := e.Status()
	assert.Equal(t, StateStale, st.State)
	assert.False(t, st.Plan.Valid)
}

func TestEngine_ExecuteSuccessRecordsLedger(t *testing.T) {
	store, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	exec := &recordingExecutor{}
	e := newEngine(t, staticSource(twoHolders()), exec, WithPolicy(proRata(40)), WithLedger(store))
	require.NoError(t, e.Scan(context.Background()))

	txid, err := e.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "txid-1", txid)
	assert.Equal(t, 1, exec.calls)

	st := e.Status()
	assert.Equal(t, StateExecuted, st.State)
	assert.Equal(t, "txid-1", st.LastTxID)
	assert.False(t, st.Plan.Valid)

	rec, err := store.Get("txid-1")
	require.NoError(t, err)
	assert.Equal(t, "tok", rec.TokenID)
	assert.Equal(t, "pro-rata", rec.Mode)
	assert.Equal(t, "40", rec.Total)
	require.Len(t, rec.Entries, 2)
	assert.Equal(t, identity(t, 0x0a), rec.Entries[0].Identity)
	assert.Equal(t, "10.00", rec.Entries[0].Amount)

	// Executed plans cannot be executed or recalculated without a rescan.
	_, err = e.Execute(context.Background())
	assert.ErrorIs(t, err, ErrPlanNotExecutable)
	_, err = e.Calculate()
	assert.ErrorIs(t, err, ErrRescanRequired)

	require.NoError(t, e.Scan(context.Background()))
	assert.Equal(t, StateCalculated, e.Status().State)
}

func TestEngine_ExecuteFailureRetainsPlan(t *testing.T) {
	broadcast := errors.New("broadcast rejected")
	exec := &recordingExecutor{err: broadcast}
	e := newEngine(t, staticSource(twoHolders()), exec, WithPolicy(proRata(40)))
	require.NoError(t, e.Scan(context.Background()))

	_, err := e.Execute(context.Background())
	assert.ErrorIs(t, err, ErrExecutionFailed)
	assert.ErrorIs(t, err, broadcast)

	st := e.Status()
	assert.Equal(t, StateFailed, st.State)
	assert.True(t, st.Plan.Valid)
	assert.ErrorIs(t, st.LastErr, ErrExecutionFailed)

	// Retry without recomputation.
	exec.err = nil
	txid, err := e.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "txid-1", txid)
	assert.Equal(t, 2, exec.calls)
	assert.Equal(t, StateExecuted, e.Status().State)
}

func TestEngine_FailedThenPolicyChange(t *testing.T) {
	exec := &recordingExecutor{err: errors.New("boom")}
	e := newEngine(t, staticSource(twoHolders()), exec, WithPolicy(proRata(40)))
	require.NoError(t, e.Scan(context.Background()))
	_, err := e.Execute(context.Background())
	require.Error(t, err)

	require.NoError(t, e.SetMode(distribution.ModeEqual))
	assert.Equal(t, StateStale, e.Status().State)
	_, err = e.Execute(context.Background())
	assert.ErrorIs(t, err, ErrPlanNotExecutable)
}

func TestEngine_ExecuteEmptyPlan(t *testing.T) {
	exec := &recordingExecutor{}
	e := newEngine(t, staticSource(twoHolders()), exec, WithPolicy(proRata(40)))
	require.NoError(t, e.Scan(context.Background()))
	require.NoError(t, e.SetMinBalance(decimal.NewFromInt(1000)))

	plan, err := e.Calculate()
	require.NoError(t, err)
	assert.Equal(t, 0, plan.HolderCount)
	assert.Empty(t, plan.Entries)

	_, err = e.Execute(context.Background())
	assert.ErrorIs(t, err, ErrEmptyPlan)
	assert.Equal(t, 0, exec.calls)
	assert.Equal(t, StateCalculated, e.Status().State)
}

func TestEngine_ExecuteBeforeScan(t *testing.T) {
	e := newEngine(t, staticSource(twoHolders()), &recordingExecutor{}, WithPolicy(proRata(40)))
	_, err := e.Execute(context.Background())
	assert.ErrorIs(t, err, ErrPlanNotExecutable)
}

func TestEngine_ExecutingRejectsChanges(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	exec := PayoutExecutorFunc(func(context.Context, []distribution.Payout) (string, error) {
		close(entered)
		<-release
		return "txid-2", nil
	})
	e := newEngine(t, staticSource(twoHolders()), exec, WithPolicy(proRata(40)))
	require.NoError(t, e.Scan(context.Background()))

	done := make(chan error, 1)
	go func() {
		_, err := e.Execute(context.Background())
		done <- err
	}()
	<-entered

	assert.Equal(t, StateExecuting, e.Status().State)
	assert.ErrorIs(t, e.SetTotal(decimal.NewFromInt(1)), ErrExecutionInProgress)
	assert.ErrorIs(t, e.SetToken("other", 0), ErrExecutionInProgress)
	assert.ErrorIs(t, e.Scan(context.Background()), ErrExecutionInProgress)
	_, err := e.Execute(context.Background())
	assert.ErrorIs(t, err, ErrExecutionInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateExecuted, e.Status().State)
	assert.Equal(t, "40", e.Status().Policy.Total.String())
}

type failingRecorder struct{}

func (failingRecorder) Record(*ledger.Record) error { return errors.New("disk full") }

func TestEngine_LedgerFailureKeepsExecuted(t *testing.T) {
	e := newEngine(t, staticSource(twoHolders()), &recordingExecutor{},
		WithPolicy(proRata(40)), WithLedger(failingRecorder{}))
	require.NoError(t, e.Scan(context.Background()))

	txid, err := e.Execute(context.Background())
	assert.ErrorIs(t, err, ErrLedgerWrite)
	assert.Equal(t, "txid-1", txid)
	assert.Equal(t, StateExecuted, e.Status().State)
}

func TestEngine_Preview(t *testing.T) {
	e := newEngine(t, staticSource(twoHolders()), &recordingExecutor{}, WithPolicy(proRata(40)))
	require.NoError(t, e.Scan(context.Background()))
	require.NoError(t, e.SetMode(distribution.ModeEqual))

	plan, err := e.Preview()
	require.NoError(t, err)
	assert.False(t, plan.Valid)
	assert.Equal(t, "20", plan.Entries[0].Amount.String())
	assert.Equal(t, StateStale, e.Status().State)
}

func TestEngine_MaxTotal(t *testing.T) {
	e := newEngine(t, staticSource(twoHolders()), &recordingExecutor{})
	_, err := e.MaxTotal(context.Background())
	assert.ErrorIs(t, err, ErrNoBalanceSource)

	bal := decimal.RequireFromString("12.5")
	e = newEngine(t, staticSource(twoHolders()), &recordingExecutor{},
		WithPolicy(proRata(40)),
		WithBalanceSource(BalanceSourceFunc(func(context.Context) (decimal.Decimal, error) {
			return bal, nil
		})))
	require.NoError(t, e.Scan(context.Background()))

	got, err := e.UseMaxTotal(context.Background())
	require.NoError(t, err)
	assert.True(t, bal.Equal(got))

	st := e.Status()
	assert.True(t, bal.Equal(st.Policy.Total))
	assert.Equal(t, StateStale, st.State)
}

// spendableBalance reports a fixed gross balance and charges fee per output.
type spendableBalance struct {
	gross  decimal.Decimal
	fee    decimal.Decimal
	gotLen []int
}

func (s *spendableBalance) FeeBalance(context.Context) (decimal.Decimal, error) {
	return s.gross, nil
}

func (s *spendableBalance) SpendableBalance(_ context.Context, scriptLens []int) (decimal.Decimal, error) {
	s.gotLen = scriptLens
	return s.gross.Sub(s.fee.Mul(decimal.NewFromInt(int64(len(scriptLens))))), nil
}

func TestEngine_MaxTotalDeductsFee(t *testing.T) {
	bal := &spendableBalance{
		gross: decimal.RequireFromString("1000"),
		fee:   decimal.RequireFromString("1.3"),
	}
	e := newEngine(t, staticSource(twoHolders()), &recordingExecutor{},
		WithPolicy(distribution.Policy{Mode: distribution.ModeEqual, Total: decimal.NewFromInt(1)}),
		WithBalanceSource(bal))

	// Before a scan the eligible outputs are unknown.
	got, err := e.MaxTotal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1000", got.String())

	require.NoError(t, e.Scan(context.Background()))
	got, err = e.UseMaxTotal(context.Background())
	require.NoError(t, err)
	// 1000 - 2*1.3 = 997.4, less the 0.01 rounding bound for two payouts.
	assert.Equal(t, "997.39", got.String())
	assert.Equal(t, []int{25, 25}, bal.gotLen)

	plan, err := e.Calculate()
	require.NoError(t, err)
	assert.True(t, plan.Sum().LessThanOrEqual(decimal.RequireFromString("997.4")))
	assert.Equal(t, "997.40", plan.Sum().StringFixed(2))
}

func TestEngine_MaxTotalFeeExceedsBalance(t *testing.T) {
	bal := &spendableBalance{gross: decimal.RequireFromString("0.02"), fee: decimal.RequireFromString("0.01")}
	e := newEngine(t, staticSource(twoHolders()), &recordingExecutor{},
		WithPolicy(distribution.Policy{Mode: distribution.ModeEqual, Total: decimal.NewFromInt(1)}),
		WithBalanceSource(bal))
	require.NoError(t, e.Scan(context.Background()))

	got, err := e.MaxTotal(context.Background())
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = e.UseMaxTotal(context.Background())
	assert.ErrorIs(t, err, distribution.ErrInvalidTotal)
}

func TestEngine_UseMaxTotalZeroBalance(t *testing.T) {
	e := newEngine(t, staticSource(twoHolders()), &recordingExecutor{},
		WithPolicy(proRata(40)),
		WithBalanceSource(BalanceSourceFunc(func(context.Context) (decimal.Decimal, error) {
			return decimal.Zero, nil
		})))
	_, err := e.UseMaxTotal(context.Background())
	assert.ErrorIs(t, err, distribution.ErrInvalidTotal)
	assert.Equal(t, "40", e.Status().Policy.Total.String())
}

func TestEngine_MintBatonNeverPaid(t *testing.T) {
	outputs := append(twoHolders(), holder.RawOutput{
		TxID: "04", Script: p2pkhScript(0x0a), Amount: big.NewInt(500), MintBaton: true,
	})
	exec := &recordingExecutor{}
	e := newEngine(t, staticSource(outputs), exec, WithPolicy(proRata(40)))
	require.NoError(t, e.Scan(context.Background()))

	st := e.Status()
	assert.Equal(t, 1, st.Snapshot.MintBatons)
	assert.Equal(t, "100", st.Snapshot.Find(identity(t, 0x0a)).Balance.String())
	assert.Equal(t, "10.00", amounts(t, st.Plan)[identity(t, 0x0a)])
}
