// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/bitfsorg/tokendrop/distribution"
	"github.com/shopspring/decimal"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// maxFeeDecimals bounds the fee currency scale so 10^d fits in a uint64.
const maxFeeDecimals = 18

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if cfg.Network != "mainnet" && cfg.Network != "testnet" && cfg.Network != "regtest" {
		return ErrInvalidNetwork
	}

	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return ErrInvalidLogLevel
	}
	if f := strings.ToLower(cfg.Log.Format); f != "json" && f != "console" {
		return ErrInvalidLogFormat
	}

	// An empty URL defers to the network presets.
	if cfg.RPC.URL != "" {
		if err := validateURL(cfg.RPC.URL); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRPCURL, err)
		}
	}
	if cfg.Indexer.CacheTTL < 0 {
		return ErrInvalidCacheTTL
	}

	if _, err := distribution.ParseMode(cfg.Distribution.Mode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMode, err)
	}
	minBal, err := decimal.NewFromString(cfg.Distribution.MinBalance)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMinBalance, err)
	}
	if minBal.IsNegative() {
		return fmt.Errorf("%w: %s is negative", ErrInvalidMinBalance, minBal)
	}
	if cfg.Distribution.Precision < 0 || cfg.Distribution.Precision > distribution.MaxPrecision {
		return fmt.Errorf("%w: %d", ErrInvalidPrecision, cfg.Distribution.Precision)
	}

	if cfg.Payout.FeeDecimals < 0 || cfg.Payout.FeeDecimals > maxFeeDecimals {
		return fmt.Errorf("%w: %d", ErrInvalidFeeDecimals, cfg.Payout.FeeDecimals)
	}
	if cfg.Payout.FeeRate == 0 {
		return ErrInvalidFeeRate
	}

	return nil
}

// validateURL checks that raw is an absolute http(s) URL with a host.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
