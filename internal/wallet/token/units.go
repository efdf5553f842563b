package token

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// NativeDecimals is the precision of the chain's native currency.
const NativeDecimals = 18

// ParseUnits converts a decimal amount such as "1.5" into base units. Amounts must be
// positive and must not carry more fractional digits than decimals.
func ParseUnits(amount string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid amount %q", amount)
	}
	if !d.IsPositive() {
		return nil, errors.Errorf("amount %q must be positive", amount)
	}

	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, errors.Errorf("amount %q has more than %d decimal places", amount, decimals)
	}

	return scaled.BigInt(), nil
}

// FormatUnits renders base units as a decimal string without trailing zeros.
func FormatUnits(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}

	return decimal.NewFromBigInt(value, -int32(decimals)).String()
}
