package services

import (
	"math/bits"

	domainerrors "tessera/contexts/settlement-core/settlement-engine/domain/errors"
)

// BasisPointsDenominator is the commission rate scale: rate 500 = 5%.
const BasisPointsDenominator = 10_000

// SumPrices accumulates the batch total with explicit overflow failure
// instead of wraparound.
func SumPrices(prices []uint64) (uint64, error) {
	var total uint64
	for _, price := range prices {
		sum, carry := bits.Add64(total, price, 0)
		if carry != 0 {
			return 0, domainerrors.ErrArithmeticOverflow
		}
		total = sum
	}
	return total, nil
}

// Commission computes floor(total * rateBps / 10000) in full 128-bit
// precision. For any rate below the denominator the quotient fits in
// 64 bits, so the division cannot trap.
func Commission(total uint64, rateBps uint64) (uint64, error) {
	if rateBps >= BasisPointsDenominator {
		return 0, domainerrors.ErrArithmeticOverflow
	}
	hi, lo := bits.Mul64(total, rateBps)
	quotient, _ := bits.Div64(hi, lo, BasisPointsDenominator)
	return quotient, nil
}
