// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads, saves and validates the tokendrop configuration.
//
// The file is YAML. Every key can be overridden from the environment with
// the TOKENDROP_ prefix, nested keys joined by underscores, e.g.
// TOKENDROP_RPC_PASSWORD or TOKENDROP_DISTRIBUTION_MODE.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes environment overrides.
	EnvPrefix = "TOKENDROP"

	// ConfigFileName is the file name inside the data directory.
	ConfigFileName = "config.yaml"
)

// Config is the top-level configuration.
type Config struct {
	DataDir      string             `mapstructure:"datadir"`
	Network      string             `mapstructure:"network"`
	Log          LogConfig          `mapstructure:"log"`
	RPC          RPCConfig          `mapstructure:"rpc"`
	Indexer      IndexerConfig      `mapstructure:"indexer"`
	Distribution DistributionConfig `mapstructure:"distribution"`
	Payout       PayoutConfig       `mapstructure:"payout"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	File   string `mapstructure:"file"`   // optional; stderr when empty
}

// RPCConfig points at the token indexer node.
type RPCConfig struct {
	URL      string `mapstructure:"url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// IndexerConfig tunes indexer access.
type IndexerConfig struct {
	CacheTTL time.Duration `mapstructure:"cachettl"` // 0 disables caching
}

// DistributionConfig holds the default payout policy.
type DistributionConfig struct {
	Mode        string `mapstructure:"mode"`
	MinBalance  string `mapstructure:"minbalance"`
	ExcludeSelf bool   `mapstructure:"excludeself"`
	Precision   int32  `mapstructure:"precision"`
}

// PayoutConfig configures transaction building.
type PayoutConfig struct {
	FeeDecimals int32  `mapstructure:"feedecimals"`
	FeeRate     uint64 `mapstructure:"feerate"` // sat/KB
}

// DefaultDataDir returns ~/.tokendrop, or .tokendrop when the home
// directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tokendrop"
	}
	return filepath.Join(home, ".tokendrop")
}

// ConfigPath returns the config file path inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFileName)
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		DataDir: DefaultDataDir(),
		Network: "mainnet",
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Indexer: IndexerConfig{
			CacheTTL: 30 * time.Second,
		},
		Distribution: DistributionConfig{
			Mode:        "equal",
			MinBalance:  "0",
			ExcludeSelf: true,
			Precision:   2,
		},
		Payout: PayoutConfig{
			FeeDecimals: 2,
			FeeRate:     1000,
		},
	}
}

// settings flattens cfg into viper keys.
func settings(cfg Config) map[string]any {
	return map[string]any{
		"datadir":                  cfg.DataDir,
		"network":                  cfg.Network,
		"log.level":                cfg.Log.Level,
		"log.format":               cfg.Log.Format,
		"log.file":                 cfg.Log.File,
		"rpc.url":                  cfg.RPC.URL,
		"rpc.user":                 cfg.RPC.User,
		"rpc.password":             cfg.RPC.Password,
		"indexer.cachettl":         cfg.Indexer.CacheTTL.String(),
		"distribution.mode":        cfg.Distribution.Mode,
		"distribution.minbalance":  cfg.Distribution.MinBalance,
		"distribution.excludeself": cfg.Distribution.ExcludeSelf,
		"distribution.precision":   cfg.Distribution.Precision,
		"payout.feedecimals":       cfg.Payout.FeeDecimals,
		"payout.feerate":           cfg.Payout.FeeRate,
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, val := range settings(DefaultConfig()) {
		v.SetDefault(k, val)
	}
	return v
}

// LoadConfig reads the YAML file at path. Keys missing from the file keep
// their DefaultConfig values; environment overrides win over both.
func LoadConfig(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return Config{}, fmt.Errorf("config: stat %s: %w", path, err)
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return unmarshal(v)
}

// LoadEnv returns DefaultConfig with environment overrides applied. It is
// used when no config file exists.
func LoadEnv() (Config, error) {
	return unmarshal(newViper())
}

func unmarshal(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.DataDir = ExpandHome(cfg.DataDir)
	cfg.Log.File = ExpandHome(cfg.Log.File)
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML, creating parent directories.
// The file may hold RPC credentials and is written with mode 0600.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigPermissions(0600)
	for k, val := range settings(cfg) {
		v.Set(k, val)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
