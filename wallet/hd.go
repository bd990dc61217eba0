package wallet

import (
	"fmt"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"
)

const (
	// BIP44 path constants.
	PurposeBIP44  = 44
	CoinTypeBSV   = 236
	PayoutAccount = 0

	// Chain indices.
	ExternalChain = 0 // Receive addresses
	InternalChain = 1 // Change addresses

	// BIP32 hardened offset.
	Hardened = 0x80000000
)

// Wallet is the HD wallet that funds payouts.
type Wallet struct {
	masterKey *bip32.ExtendedKey
	network   *NetworkConfig
}

// KeyPair holds a derived public/private key pair.
type KeyPair struct {
	PrivateKey *ec.PrivateKey `json:"-"`
	PublicKey  *ec.PublicKey  `json:"public_key"`
	Path       string         `json:"path"` // Human-readable derivation path
}

// Address returns the P2PKH address of the key on network.
func (kp *KeyPair) Address(network *NetworkConfig) (string, error) {
	addr, err := script.NewAddressFromPublicKey(kp.PublicKey, network.IsMainNet())
	if err != nil {
		return "", fmt.Errorf("%w: address: %w", ErrDerivationFailed, err)
	}
	return addr.AddressString, nil
}

// NewWallet creates a new Wallet from a BIP39 seed.
func NewWallet(seed []byte, network *NetworkConfig) (*Wallet, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	if network == nil {
		network = &MainNet
	}

	net := &chaincfg.TestNet
	if network.IsMainNet() {
		net = &chaincfg.MainNet
	}

	masterKey, err := bip32.NewMaster(seed, net)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}

	return &Wallet{
		masterKey: masterKey,
		network:   network,
	}, nil
}

// Network returns the wallet's network configuration.
func (w *Wallet) Network() *NetworkConfig {
	return w.network
}

// DerivePayoutKey derives m/44'/236'/0'/chain/index.
func (w *Wallet) DerivePayoutKey(chain, index uint32) (*KeyPair, error) {
	if chain >= Hardened || index >= Hardened {
		return nil, fmt.Errorf("%w: chain %d index %d must be non-hardened", ErrDerivationFailed, chain, index)
	}

	key := w.masterKey
	for _, step := range []struct {
		name  string
		child uint32
	}{
		{"purpose", PurposeBIP44 + Hardened},
		{"coin type", CoinTypeBSV + Hardened},
		{"account", PayoutAccount + Hardened},
		{"chain", chain},
		{"index", index},
	} {
		next, err := key.Child(step.child)
		if err != nil {
			return nil, fmt.Errorf("%w: %s derivation: %w", ErrDerivationFailed, step.name, err)
		}
		key = next
	}

	return extKeyToKeyPair(key, fmt.Sprintf("m/%d'/%d'/%d'/%d/%d", PurposeBIP44, CoinTypeBSV, PayoutAccount, chain, index))
}

// PayerKey is the key that holds payout funds and receives change:
// the first external key of the payout account.
func (w *Wallet) PayerKey() (*KeyPair, error) {
	return w.DerivePayoutKey(ExternalChain, 0)
}

func extKeyToKeyPair(extKey *bip32.ExtendedKey, path string) (*KeyPair, error) {
	privKey, err := extKey.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to extract EC private key: %w", ErrDerivationFailed, err)
	}

	pubKey := privKey.PubKey()
	if pubKey == nil {
		return nil, fmt.Errorf("%w: failed to derive public key", ErrDerivationFailed)
	}

	return &KeyPair{
		PrivateKey: privKey,
		PublicKey:  pubKey,
		Path:       path,
	}, nil
}
