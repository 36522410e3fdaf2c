// Package usd converts asset amounts into USD-6, the fixed-point USD unit
// with six decimal places that bank totals and caps are kept in.
package usd

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Decimals is the precision of a USD-6 value.
const Decimals = 6

// maxExponent is the largest n with 10^n below 2^256.
const maxExponent = 77

var (
	ErrScaleUnderflow     = errors.New("asset and price decimals are below usd precision")
	ErrScaleOverflow      = errors.New("scaling exponent exceeds 256-bit range")
	ErrConversionOverflow = errors.New("usd value overflows 256 bits")
)

// Exponent returns assetDecimals + priceDecimals - Decimals, the power of ten
// a raw amount*price product is divided by.
func Exponent(assetDecimals, priceDecimals uint8) (uint64, error) {
	exp := int(assetDecimals) + int(priceDecimals) - Decimals
	if exp < 0 {
		return 0, fmt.Errorf("%w: %d + %d < %d", ErrScaleUnderflow, assetDecimals, priceDecimals, Decimals)
	}
	if exp > maxExponent {
		return 0, fmt.Errorf("%w: %d", ErrScaleOverflow, exp)
	}

	return uint64(exp), nil
}

// ValidateScale checks that an asset/feed pair can be converted.
func ValidateScale(assetDecimals, priceDecimals uint8) error {
	_, err := Exponent(assetDecimals, priceDecimals)
	return err
}

// Convert returns floor(amount * price / 10^(assetDecimals+priceDecimals-6)).
// The product is kept in 512 bits, so only a quotient wider than 256 bits fails.
func Convert(amount *uint256.Int, assetDecimals uint8, price *uint256.Int, priceDecimals uint8) (*uint256.Int, error) {
	exp, err := Exponent(assetDecimals, priceDecimals)
	if err != nil {
		return nil, err
	}

	divisor := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(exp)) //nolint:gomnd
	usd6, overflow := new(uint256.Int).MulDivOverflow(amount, price, divisor)
	if overflow {
		return nil, fmt.Errorf("%w: %s * %s / 10^%d", ErrConversionOverflow, amount.Dec(), price.Dec(), exp)
	}

	return usd6, nil
}

// Format renders a USD-6 value as a decimal string, e.g. 2000000 -> "2.000000".
func Format(usd6 *uint256.Int) string {
	return decimal.NewFromBigInt(usd6.ToBig(), -Decimals).StringFixed(Decimals)
}
