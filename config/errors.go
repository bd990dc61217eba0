// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidNetwork indicates the network name is not recognized.
	ErrInvalidNetwork = errors.New("config: invalid network (must be \"mainnet\", \"testnet\", or \"regtest\")")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrInvalidLogFormat indicates the log format is not recognized.
	ErrInvalidLogFormat = errors.New("config: invalid log format (must be \"json\" or \"console\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrInvalidRPCURL indicates the indexer RPC endpoint is malformed.
	ErrInvalidRPCURL = errors.New("config: invalid RPC URL")

	// ErrInvalidCacheTTL indicates the indexer cache TTL is negative.
	ErrInvalidCacheTTL = errors.New("config: indexer cache TTL must not be negative")

	// ErrInvalidMode indicates the default distribution mode is not recognized.
	ErrInvalidMode = errors.New("config: invalid distribution mode")

	// ErrInvalidMinBalance indicates the default minimum balance is not a
	// non-negative decimal.
	ErrInvalidMinBalance = errors.New("config: invalid minimum balance")

	// ErrInvalidPrecision indicates the display precision is out of range.
	ErrInvalidPrecision = errors.New("config: invalid distribution precision")

	// ErrInvalidFeeDecimals indicates the fee currency scale is out of range.
	ErrInvalidFeeDecimals = errors.New("config: invalid fee decimals")

	// ErrInvalidFeeRate indicates the fee rate is zero.
	ErrInvalidFeeRate = errors.New("config: fee rate must be positive")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")
)
