package holder

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/script"
)

// ScriptIdentityPrefix prefixes identities derived from non-P2PKH scripts.
const ScriptIdentityPrefix = "script:"

// IdentityFromScript derives a holder identity from a locking script.
//
// P2PKH scripts map to their base58 address for the given network. Any other
// spendable script maps to ScriptIdentityPrefix + hex(SHA256(script)), so the
// same script bytes always yield the same identity regardless of the order
// in which outputs are seen.
func IdentityFromScript(lockingScript []byte, mainnet bool) (string, error) {
	if len(lockingScript) == 0 {
		return "", fmt.Errorf("%w: empty script", ErrMalformedScript)
	}

	s := script.NewFromBytes(lockingScript)
	chunks, err := s.Chunks()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedScript, err)
	}
	if isDataCarrier(chunks) {
		return "", ErrUnspendableScript
	}

	if s.IsP2PKH() {
		pkh, err := s.PublicKeyHash()
		if err != nil {
			return "", fmt.Errorf("%w: public key hash: %w", ErrMalformedScript, err)
		}
		addr, err := script.NewAddressFromPublicKeyHash(pkh, mainnet)
		if err != nil {
			return "", fmt.Errorf("%w: address from hash: %w", ErrMalformedScript, err)
		}
		return addr.AddressString, nil
	}

	sum := sha256.Sum256(lockingScript)
	return ScriptIdentityPrefix + hex.EncodeToString(sum[:]), nil
}

// isDataCarrier reports whether the script is OP_RETURN or OP_FALSE OP_RETURN.
func isDataCarrier(chunks []*script.ScriptChunk) bool {
	if len(chunks) == 0 {
		return false
	}
	if chunks[0].Op == script.OpRETURN {
		return true
	}
	return len(chunks) > 1 && chunks[0].Op == script.OpFALSE && chunks[1].Op == script.OpRETURN
}
