package wallet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// WalletFileName is the encrypted seed file inside the data directory.
const WalletFileName = "wallet.enc"

// CreateWalletFile encrypts seed with password and writes it to path with
// 0600 permissions. An existing file is never overwritten.
func CreateWalletFile(path string, seed []byte, password string) error {
	enc, err := EncryptSeed(seed, password)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("wallet: create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrWalletExists, path)
		}
		return fmt.Errorf("wallet: create wallet file: %w", err)
	}
	if _, err := f.Write(enc); err != nil {
		_ = f.Close()
		return fmt.Errorf("wallet: write wallet file: %w", err)
	}
	return f.Close()
}

// OpenWalletFile decrypts the seed at path and builds the wallet for network.
func OpenWalletFile(path, password string, network *NetworkConfig) (*Wallet, error) {
	enc, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, path)
		}
		return nil, fmt.Errorf("wallet: read wallet file: %w", err)
	}
	seed, err := DecryptSeed(enc, password)
	if err != nil {
		return nil, err
	}
	return NewWallet(seed, network)
}
