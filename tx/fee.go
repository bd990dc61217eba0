package tx

const (
	// DustLimit is the minimum P2PKH output value in satoshis.
	DustLimit = uint64(546)

	// DefaultFeeRate is the default fee rate in sat/KB.
	DefaultFeeRate = uint64(1)

	// TxIDLen is the length of a transaction ID.
	TxIDLen = 32

	// P2PKHScriptLen is the length of a P2PKH locking script.
	P2PKHScriptLen = 25

	// p2pkhInputSize: prevhash(32) + previndex(4) + scriptlen(1) + sig+pubkey(~107) + sequence(4).
	p2pkhInputSize = 148
)

// EstimateFee estimates the transaction fee for a given size and fee rate.
// Returns ceil(txSizeBytes * feeRate / 1000).
func EstimateFee(txSizeBytes int, feeRate uint64) uint64 {
	if feeRate == 0 {
		feeRate = DefaultFeeRate
	}
	fee := uint64(txSizeBytes) * feeRate
	return (fee + 999) / 1000
}

// EstimateTxSize estimates the size of a transaction spending numInputs
// P2PKH inputs into outputs with the given locking script lengths.
func EstimateTxSize(numInputs int, outputScriptLens []int) int {
	// version(4) + locktime(4)
	size := 8 + varIntSize(uint64(numInputs)) + varIntSize(uint64(len(outputScriptLens)))
	size += numInputs * p2pkhInputSize
	for _, n := range outputScriptLens {
		size += 8 + varIntSize(uint64(n)) + n
	}
	return size
}

func varIntSize(n uint64) int {
	switch {
	case n < 0xfd:
		return 1
	case n <= 0xffff:
		return 3
	case n <= 0xffffffff:
		return 5
	default:
		return 9
	}
}
