package engine

import "math/bits"

// mulDiv computes floor(a * b / d) with a 128-bit intermediate so that
// pool-share products cannot overflow int64. All inputs must be
// non-negative and d must be positive.
func mulDiv(a, b, d int64) int64 {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	q, _ := bits.Div64(hi, lo, uint64(d))
	return int64(q)
}

// roundedPercent computes round(part * 100 / total) with half-up rounding.
// total must be positive.
func roundedPercent(part, total int64) int64 {
	hi, lo := bits.Mul64(uint64(part), 100)
	// Add total/2 before dividing for half-up rounding.
	half := uint64(total) / 2
	lo2, carry := bits.Add64(lo, half, 0)
	q, _ := bits.Div64(hi+carry, lo2, uint64(total))
	return int64(q)
}
