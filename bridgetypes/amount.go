package bridgetypes

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ParseDecimalAmount converts a human-supplied decimal string (e.g. "1.5")
// at the given token precision into the wire-exact integer amount every
// BridgeAction carries. Amounts cross the identity/engine boundary as
// *big.Int because ABI encoding is integer-exact; decimal.Decimal exists
// only at this human-input boundary, never past it.
func ParseDecimalAmount(human string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(human)
	if err != nil {
		return nil, err
	}
	return d.Shift(decimals).BigInt(), nil
}
