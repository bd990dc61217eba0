package wallet

import "fmt"

// NetworkConfig defines network parameters for a BSV network.
type NetworkConfig struct {
	Name           string `json:"name"`
	AddressVersion byte   `json:"address_version"`
	RPCPort        uint16 `json:"rpc_port"`
}

// IsMainNet reports whether addresses use the mainnet version byte.
func (n *NetworkConfig) IsMainNet() bool {
	return n != nil && n.AddressVersion == MainNet.AddressVersion
}

// Predefined network configurations.
var (
	MainNet = NetworkConfig{Name: "mainnet", AddressVersion: 0x00, RPCPort: 8332}
	TestNet = NetworkConfig{Name: "testnet", AddressVersion: 0x6f, RPCPort: 18332}
	RegTest = NetworkConfig{Name: "regtest", AddressVersion: 0x6f, RPCPort: 18443}
)

var predefined = map[string]*NetworkConfig{
	"mainnet": &MainNet,
	"testnet": &TestNet,
	"regtest": &RegTest,
}

// GetNetwork returns a predefined network by name.
func GetNetwork(name string) (*NetworkConfig, error) {
	if net, ok := predefined[name]; ok {
		return net, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidNetwork, name)
}
