package network

import (
	"fmt"
	"time"
)

// RPCConfig holds the connection parameters for the indexer node.
type RPCConfig struct {
	URL      string        `json:"url"`
	User     string        `json:"user"`
	Password string        `json:"password"`
	Network  string        `json:"network"`
	Timeout  time.Duration `json:"timeout"`

	// AmountDecimals is the number of decimal places of coin amounts
	// reported by the node. 0 means 8.
	AmountDecimals int32 `json:"amount_decimals"`
}

// NetworkPresets contains default RPC configurations for known networks.
// Mainnet is intentionally omitted to require explicit configuration.
var NetworkPresets = map[string]RPCConfig{
	"regtest": {URL: "http://localhost:18332", User: "tokendrop", Password: "tokendrop"},
	"testnet": {URL: "http://localhost:18333", User: "tokendrop", Password: "tokendrop"},
}

// ResolveConfig merges RPC configuration from three sources with decreasing priority:
//  1. Explicit values (flags or config file)
//  2. Environment variables (TOKENDROP_RPC_URL, TOKENDROP_RPC_USER, TOKENDROP_RPC_PASSWORD)
//  3. Network presets (regtest/testnet only)
func ResolveConfig(explicit *RPCConfig, env map[string]string, network string) (*RPCConfig, error) {
	result := RPCConfig{Network: network}

	if preset, ok := NetworkPresets[network]; ok {
		result = preset
		result.Network = network
	}

	if env != nil {
		if v := env["TOKENDROP_RPC_URL"]; v != "" {
			result.URL = v
		}
		if v := env["TOKENDROP_RPC_USER"]; v != "" {
			result.User = v
		}
		if v := env["TOKENDROP_RPC_PASSWORD"]; v != "" {
			result.Password = v
		}
	}

	if explicit != nil {
		if explicit.URL != "" {
			result.URL = explicit.URL
		}
		if explicit.User != "" {
			result.User = explicit.User
		}
		if explicit.Password != "" {
			result.Password = explicit.Password
		}
		if explicit.Timeout > 0 {
			result.Timeout = explicit.Timeout
		}
		if explicit.AmountDecimals > 0 {
			result.AmountDecimals = explicit.AmountDecimals
		}
	}

	if result.URL == "" {
		return nil, fmt.Errorf("network: %s requires explicit RPC configuration (set rpc.url or TOKENDROP_RPC_URL)", network)
	}
	return &result, nil
}
