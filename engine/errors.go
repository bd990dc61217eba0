package engine

import "errors"

var (
	// ErrNilParam indicates a required collaborator is nil.
	ErrNilParam = errors.New("engine: required parameter is nil")

	// ErrNoToken indicates no token has been selected.
	ErrNoToken = errors.New("engine: no token selected")

	// ErrScanInProgress indicates a scan is already running for the token.
	ErrScanInProgress = errors.New("engine: scan already in progress")

	// ErrScanDiscarded indicates the token changed while a scan was in flight
	// and its result was dropped.
	ErrScanDiscarded = errors.New("engine: scan result discarded")

	// ErrScanFailed indicates the unspent output fetch failed.
	ErrScanFailed = errors.New("engine: scan failed")

	// ErrNotScanned indicates no holder snapshot exists yet.
	ErrNotScanned = errors.New("engine: token not scanned")

	// ErrRescanRequired indicates the last plan was executed and holders must
	// be scanned again before a new plan is computed.
	ErrRescanRequired = errors.New("engine: rescan required after execution")

	// ErrExecutionInProgress indicates a payout is being executed.
	ErrExecutionInProgress = errors.New("engine: execution in progress")

	// ErrPlanNotExecutable indicates there is no valid, current plan.
	ErrPlanNotExecutable = errors.New("engine: plan is not executable")

	// ErrEmptyPlan indicates the plan has no positive payouts.
	ErrEmptyPlan = errors.New("engine: plan has no payouts")

	// ErrExecutionFailed wraps a payout executor error.
	ErrExecutionFailed = errors.New("engine: execution failed")

	// ErrLedgerWrite indicates the payout was broadcast but could not be recorded.
	ErrLedgerWrite = errors.New("engine: ledger write failed")

	// ErrNoBalanceSource indicates MaxTotal was called without a balance source.
	ErrNoBalanceSource = errors.New("engine: no balance source configured")
)
