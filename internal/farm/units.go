package farm

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// DefaultDecimals is assumed for tokens whose address is not configured.
const DefaultDecimals uint8 = 18

// ToDecimal converts a raw integer amount into token units.
func ToDecimal(value *big.Int, decimals uint8) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -int32(decimals))
}
