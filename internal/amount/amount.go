// Package amount converts operator-entered decimal quantities into integer
// minor units and back, for an asset with a fixed number of decimals.
package amount

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmountFormat is returned for anything that is not a plain
// non-negative decimal, or that carries more fractional digits than the
// asset supports.
var ErrInvalidAmountFormat = errors.New("invalid amount format")

// digits with an optional fraction: "12", "12.", "12.5", ".5"
var plainDecimal = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)$`)

// ToMinorUnits parses s into minor units for an asset with the given decimals.
// The conversion is exact; excess precision is an error, never truncated.
func ToMinorUnits(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if decimals < 0 {
		return nil, fmt.Errorf("%w: negative decimals %d", ErrInvalidAmountFormat, decimals)
	}
	if !plainDecimal.MatchString(s) {
		return nil, fmt.Errorf("%w: %q is not a non-negative decimal number", ErrInvalidAmountFormat, s)
	}
	if n := fractionDigits(s); n > decimals {
		return nil, fmt.Errorf("%w: %q has %d fractional digits, asset supports %d", ErrInvalidAmountFormat, s, n, decimals)
	}
	d, err := decimal.NewFromString(normalize(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmountFormat, err)
	}
	return d.Shift(int32(decimals)).BigInt(), nil
}

// Format renders minor units as a canonical decimal string: no trailing
// fractional zeros and no dangling point.
func Format(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	if decimals <= 0 {
		return v.String()
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}

// Canonical returns the canonical form of a valid decimal string, e.g.
// "007.500" -> "7.5".
func Canonical(s string) (string, error) {
	s = strings.TrimSpace(s)
	n := fractionDigits(s)
	v, err := ToMinorUnits(s, n)
	if err != nil {
		return "", err
	}
	return Format(v, n), nil
}

func fractionDigits(s string) int {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}

func normalize(s string) string {
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	return strings.TrimSuffix(s, ".")
}
