// Package engine owns a token's holder snapshot and payout plan and gates
// execution of the plan behind an explicit state machine.
//
// A plan is executable only in Calculated (or Failed, for a retry) and only
// while it is valid for the current policy. Any policy change invalidates the
// plan before the setter returns; only Calculate or a fresh Scan makes it
// valid again.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bitfsorg/tokendrop/distribution"
	"github.com/bitfsorg/tokendrop/holder"
	"github.com/bitfsorg/tokendrop/ledger"
	"github.com/looplab/fsm"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithBalanceSource enables MaxTotal and UseMaxTotal.
func WithBalanceSource(src BalanceSource) Option {
	return func(e *Engine) { e.balance = src }
}

// WithLedger records every executed payout.
func WithLedger(rec Recorder) Option {
	return func(e *Engine) { e.recorder = rec }
}

// WithMainnet selects the address encoding of holder identities.
func WithMainnet(mainnet bool) Option {
	return func(e *Engine) { e.mainnet = mainnet }
}

// WithPrecision sets the payout rounding precision.
func WithPrecision(places int32) Option {
	return func(e *Engine) { e.precision = places }
}

// WithPolicy sets the initial distribution policy.
func WithPolicy(p distribution.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// Engine holds the state of one token view.
type Engine struct {
	source   UTXOSource
	executor PayoutExecutor
	balance  BalanceSource
	recorder Recorder
	logger   *zap.Logger

	mainnet   bool
	precision int32

	mu         sync.Mutex
	gate       *fsm.FSM
	tokenID    string
	decimals   int
	generation uint64
	policy     distribution.Policy
	snapshot   *holder.Snapshot
	plan       *distribution.Plan
	lastTxID   string
	lastErr    error
}

// New creates an engine in the Uncalculated state.
func New(source UTXOSource, executor PayoutExecutor, opts ...Option) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: utxo source", ErrNilParam)
	}
	if executor == nil {
		return nil, fmt.Errorf("%w: payout executor", ErrNilParam)
	}
	e := &Engine{
		source:    source,
		executor:  executor,
		logger:    zap.NewNop(),
		mainnet:   true,
		precision: distribution.DefaultPrecision,
		gate:      newGate(),
		policy:    distribution.Policy{Mode: distribution.ModeEqual},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) state() State { return State(e.gate.Current()) }

// SetToken switches the engine to another token. The snapshot and plan are
// dropped and any scan still in flight is discarded when it returns.
func (e *Engine) SetToken(tokenID string, decimals int) error {
	if decimals < 0 || decimals > holder.MaxDecimals {
		return fmt.Errorf("%w: %d", holder.ErrInvalidDecimals, decimals)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state() == StateExecuting {
		return ErrExecutionInProgress
	}
	if err := fire(e.gate, eventReset); err != nil {
		return err
	}
	e.generation++
	e.tokenID = tokenID
	e.decimals = decimals
	e.snapshot = nil
	e.plan = nil
	e.lastTxID = ""
	e.lastErr = nil

	e.logger.Debug("token selected",
		zap.String("op", "engine.SetToken"),
		zap.String("token", tokenID),
		zap.Int("decimals", decimals))
	return nil
}

// Scan fetches the token's unspent outputs, aggregates holders and computes a
// plan with the current policy.
//
// A second Scan while one is running returns ErrScanInProgress. On a fetch
// error the previous state and plan are kept. If the policy is invalid the
// snapshot is kept, the state becomes Stale and the validation error is
// returned.
func (e *Engine) Scan(ctx context.Context) error {
	e.mu.Lock()
	switch e.state() {
	case StateScanning:
		e.mu.Unlock()
		return ErrScanInProgress
	case StateExecuting:
		e.mu.Unlock()
		return ErrExecutionInProgress
	}
	if e.tokenID == "" {
		e.mu.Unlock()
		return ErrNoToken
	}
	prev := e.state()
	if err := fire(e.gate, eventScan); err != nil {
		e.mu.Unlock()
		return err
	}
	gen := e.generation
	tokenID, decimals := e.tokenID, e.decimals
	e.mu.Unlock()

	log := e.logger.With(zap.String("op", "engine.Scan"), zap.String("token", tokenID))
	log.Debug("scanning token outputs")

	raw, err := e.source.TokenUTXOs(ctx, tokenID)

	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.generation {
		log.Info("discarding scan result for replaced token")
		return ErrScanDiscarded
	}

	if err == nil {
		var snap *holder.Snapshot
		snap, err = holder.Aggregate(raw, decimals,
			holder.WithLogger(e.logger), holder.WithMainnet(e.mainnet))
		if err == nil {
			return e.applySnapshot(snap, log)
		}
	}

	e.restoreAfterScan(prev)
	e.lastErr = fmt.Errorf("%w: %w", ErrScanFailed, err)
	log.Warn("scan failed", zap.Error(err))
	return e.lastErr
}

func (e *Engine) applySnapshot(snap *holder.Snapshot, log *zap.Logger) error {
	e.snapshot = snap
	log = log.With(zap.Int("holders", len(snap.Holders)), zap.Int("skipped", len(snap.Skipped)))

	plan, err := distribution.Compute(snap.Holders, e.policy, distribution.WithPrecision(e.precision))
	if err != nil {
		e.plan = nil
		e.gate.SetState(string(StateStale))
		e.lastErr = err
		log.Info("holders scanned, policy rejected", zap.Error(err))
		return err
	}

	e.plan = plan
	e.lastErr = nil
	if err := fire(e.gate, eventScanned); err != nil {
		return err
	}
	log.Info("holders scanned", zap.Int("eligible", plan.HolderCount))
	return nil
}

// restoreAfterScan puts the gate back to where it was before a failed scan.
// A plan invalidated while the scan ran cannot go back to Calculated.
func (e *Engine) restoreAfterScan(prev State) {
	if (prev == StateCalculated || prev == StateFailed) && (e.plan == nil || !e.plan.Valid) {
		prev = StateStale
	}
	e.gate.SetState(string(prev))
}

// SetMode changes the distribution mode and invalidates the plan.
func (e *Engine) SetMode(mode distribution.Mode) error {
	return e.updatePolicy(func(p *distribution.Policy) { p.Mode = mode })
}

// SetTotal changes the payout total and invalidates the plan.
func (e *Engine) SetTotal(total decimal.Decimal) error {
	return e.updatePolicy(func(p *distribution.Policy) { p.Total = total })
}

// SetMinBalance changes the eligibility threshold and invalidates the plan.
func (e *Engine) SetMinBalance(threshold decimal.Decimal) error {
	return e.updatePolicy(func(p *distribution.Policy) { p.MinBalance = threshold })
}

// SetExcludeSelf toggles self-exclusion and invalidates the plan.
func (e *Engine) SetExcludeSelf(exclude bool) error {
	return e.updatePolicy(func(p *distribution.Policy) { p.ExcludeSelf = exclude })
}

// SetSelf sets the identity dropped by self-exclusion and invalidates the plan.
func (e *Engine) SetSelf(identity string) error {
	return e.updatePolicy(func(p *distribution.Policy) { p.Self = identity })
}

// SetPolicy replaces the whole policy and invalidates the plan.
func (e *Engine) SetPolicy(policy distribution.Policy) error {
	return e.updatePolicy(func(p *distribution.Policy) { *p = policy })
}

// updatePolicy stores the change unvalidated; Scan and Calculate validate.
func (e *Engine) updatePolicy(apply func(*distribution.Policy)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state() == StateExecuting {
		return ErrExecutionInProgress
	}
	apply(&e.policy)
	return e.invalidateLocked()
}

func (e *Engine) invalidateLocked() error {
	if e.plan != nil {
		e.plan.Invalidate()
	}
	if e.gate.Can(eventInvalidate) {
		return fire(e.gate, eventInvalidate)
	}
	return nil
}

// Calculate recomputes the plan from the retained snapshot with the current
// policy. It does not fetch.
func (e *Engine) Calculate() (*distribution.Plan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state() {
	case StateScanning:
		return nil, ErrScanInProgress
	case StateExecuting:
		return nil, ErrExecutionInProgress
	case StateExecuted:
		return nil, ErrRescanRequired
	}
	if e.snapshot == nil {
		return nil, ErrNotScanned
	}

	plan, err := distribution.Compute(e.snapshot.Holders, e.policy, distribution.WithPrecision(e.precision))
	if err != nil {
		if ierr := e.invalidateLocked(); ierr != nil {
			return nil, ierr
		}
		e.lastErr = err
		return nil, err
	}
	if err := fire(e.gate, eventCalculate); err != nil {
		return nil, err
	}
	e.plan = plan
	e.lastErr = nil

	e.logger.Debug("plan calculated",
		zap.String("op", "engine.Calculate"),
		zap.String("token", e.tokenID),
		zap.Int("eligible", plan.HolderCount),
		zap.String("drift", plan.Drift().String()))
	return copyPlan(plan), nil
}

// Preview computes a plan with the current policy for display only. The
// engine state is unchanged and the returned plan is never valid.
func (e *Engine) Preview() (*distribution.Plan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.snapshot == nil {
		return nil, ErrNotScanned
	}
	plan, err := distribution.Compute(e.snapshot.Holders, e.policy, distribution.WithPrecision(e.precision))
	if err != nil {
		return nil, err
	}
	plan.Invalidate()
	return plan, nil
}

// Execute broadcasts the current plan. On success the state is Executed and
// the txid is returned; the plan stays inspectable but is no longer valid.
// On failure the state is Failed and the plan is kept for a retry.
//
// If the payout is broadcast but the ledger write fails, the txid is
// returned together with ErrLedgerWrite.
func (e *Engine) Execute(ctx context.Context) (string, error) {
	e.mu.Lock()
	switch e.state() {
	case StateExecuting:
		e.mu.Unlock()
		return "", ErrExecutionInProgress
	case StateCalculated, StateFailed:
	default:
		st := e.state()
		e.mu.Unlock()
		return "", fmt.Errorf("%w: state %s", ErrPlanNotExecutable, st)
	}
	if e.plan == nil || !e.plan.Valid || e.snapshot == nil {
		e.mu.Unlock()
		return "", fmt.Errorf("%w: plan is stale", ErrPlanNotExecutable)
	}
	if err := distribution.VerifyPlan(e.plan, e.snapshot.Holders, e.policy); err != nil {
		e.mu.Unlock()
		return "", fmt.Errorf("%w: %w", ErrPlanNotExecutable, err)
	}
	payouts := e.plan.Payouts()
	if len(payouts) == 0 {
		e.mu.Unlock()
		return "", ErrEmptyPlan
	}
	if err := fire(e.gate, eventExecute); err != nil {
		e.mu.Unlock()
		return "", err
	}
	plan := e.plan
	tokenID := e.tokenID
	e.mu.Unlock()

	log := e.logger.With(zap.String("op", "engine.Execute"), zap.String("token", tokenID))
	log.Info("executing payout", zap.Int("payouts", len(payouts)), zap.String("total", plan.Sum().String()))

	txid, err := e.executor.ExecutePayout(ctx, payouts)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		e.lastErr = fmt.Errorf("%w: %w", ErrExecutionFailed, err)
		if ferr := fire(e.gate, eventFail); ferr != nil {
			return "", ferr
		}
		log.Warn("payout failed", zap.Error(err))
		return "", e.lastErr
	}

	if ferr := fire(e.gate, eventExecuted); ferr != nil {
		return txid, ferr
	}
	plan.Invalidate()
	e.lastTxID = txid
	e.lastErr = nil
	log.Info("payout broadcast", zap.String("txid", txid))

	if e.recorder != nil {
		if err := e.recorder.Record(newRecord(txid, tokenID, plan, payouts)); err != nil {
			log.Error("recording payout", zap.String("txid", txid), zap.Error(err))
			return txid, fmt.Errorf("%w: %w", ErrLedgerWrite, err)
		}
	}
	return txid, nil
}

func newRecord(txid, tokenID string, plan *distribution.Plan, payouts []distribution.Payout) *ledger.Record {
	rec := &ledger.Record{
		TxID:        txid,
		TokenID:     tokenID,
		Mode:        string(plan.Policy.Mode),
		Total:       plan.Policy.Total.String(),
		HolderCount: plan.HolderCount,
		Entries:     make([]ledger.RecordEntry, 0, len(payouts)),
		At:          time.Now().UTC(),
	}
	for _, p := range payouts {
		rec.Entries = append(rec.Entries, ledger.RecordEntry{
			Identity: p.Identity,
			Amount:   p.Amount.StringFixed(plan.Precision),
		})
	}
	return rec
}

// MaxTotal returns the largest total the balance source can fund.
//
// Once holders are scanned and the source is a SpendableSource, the fee of
// paying every eligible holder and the rounding bound of the plan are taken
// off, so a plan for the returned total can be paid. Before a scan, or with
// a plain BalanceSource, it is the gross fee-currency balance.
func (e *Engine) MaxTotal(ctx context.Context) (decimal.Decimal, error) {
	if e.balance == nil {
		return decimal.Zero, ErrNoBalanceSource
	}
	spendable, ok := e.balance.(SpendableSource)
	if !ok {
		return e.balance.FeeBalance(ctx)
	}

	e.mu.Lock()
	var lens []int
	if e.snapshot != nil {
		for _, h := range distribution.Eligible(e.snapshot.Holders, e.policy) {
			lens = append(lens, len(h.Script))
		}
	}
	precision := e.precision
	e.mu.Unlock()

	if len(lens) == 0 {
		return e.balance.FeeBalance(ctx)
	}
	avail, err := spendable.SpendableBalance(ctx, lens)
	if err != nil {
		return decimal.Zero, err
	}
	// Rounded payouts exceed the total by at most half a unit each.
	bound := decimal.New(5, -(precision + 1)).Mul(decimal.NewFromInt(int64(len(lens))))
	total := avail.Sub(bound).RoundFloor(precision)
	if total.IsNegative() {
		return decimal.Zero, nil
	}
	return total, nil
}

// UseMaxTotal sets the payout total to MaxTotal.
func (e *Engine) UseMaxTotal(ctx context.Context) (decimal.Decimal, error) {
	bal, err := e.MaxTotal(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if !bal.IsPositive() {
		return bal, fmt.Errorf("%w: fee balance is %s", distribution.ErrInvalidTotal, bal)
	}
	return bal, e.SetTotal(bal)
}

// Status is a point-in-time view of the engine.
type Status struct {
	State    State
	TokenID  string
	Decimals int
	Policy   distribution.Policy
	Snapshot *holder.Snapshot   // nil until scanned
	Plan     *distribution.Plan // Copy; nil until calculated
	LastTxID string
	LastErr  error
}

// Status returns the current view. The plan is a copy.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Status{
		State:    e.state(),
		TokenID:  e.tokenID,
		Decimals: e.decimals,
		Policy:   e.policy,
		Snapshot: e.snapshot,
		Plan:     copyPlan(e.plan),
		LastTxID: e.lastTxID,
		LastErr:  e.lastErr,
	}
}

func copyPlan(p *distribution.Plan) *distribution.Plan {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Entries = append([]distribution.Entry(nil), p.Entries...)
	return &cp
}
