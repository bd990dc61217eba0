package holder

import "errors"

var (
	// ErrInvalidDecimals indicates the token decimal scale is out of range.
	ErrInvalidDecimals = errors.New("holder: invalid token decimals")

	// ErrMalformedScript indicates a locking script is empty or cannot be parsed.
	ErrMalformedScript = errors.New("holder: malformed locking script")

	// ErrUnspendableScript indicates a locking script is an OP_RETURN data carrier.
	ErrUnspendableScript = errors.New("holder: unspendable locking script")

	// ErrNegativeAmount indicates a raw output carries a negative token amount.
	ErrNegativeAmount = errors.New("holder: negative token amount")
)
