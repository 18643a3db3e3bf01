package fixedpoint

import (
	"math/big"
	"sync"
)

// fracBits is the number of fractional bits carried by the binary log/exp
// routines below.
const fracBits = 96

var (
	one      = new(big.Int).Lsh(big.NewInt(1), fracBits)
	two      = new(big.Int).Lsh(big.NewInt(2), fracBits)
	fracMask = new(big.Int).Sub(one, big.NewInt(1))
)

var (
	rootsOnce sync.Once
	roots     []*big.Int
)

// powerRoots returns roots[i] = 2^(2^-i) scaled by 2^fracBits, for
// i in [1, fracBits].
func powerRoots() []*big.Int {
	rootsOnce.Do(func() {
		roots = make([]*big.Int, fracBits+1)
		prev := new(big.Int).Sqrt(new(big.Int).Lsh(big.NewInt(2), 2*fracBits))
		roots[1] = prev
		for i := 2; i <= fracBits; i++ {
			prev = new(big.Int).Sqrt(new(big.Int).Lsh(prev, fracBits))
			roots[i] = prev
		}
	})
	return roots
}

// log2 returns log2(x) scaled by 2^fracBits for x >= 1.
func log2(x uint64) *big.Int {
	n := new(big.Int).SetUint64(x).BitLen() - 1
	y := new(big.Int).Lsh(new(big.Int).SetUint64(x), fracBits)
	y.Rsh(y, uint(n))

	result := new(big.Int).Lsh(big.NewInt(int64(n)), fracBits)
	for bit := fracBits - 1; bit >= 0; bit-- {
		y.Mul(y, y)
		y.Rsh(y, fracBits)
		if y.Cmp(two) >= 0 {
			y.Rsh(y, 1)
			result.SetBit(result, bit, 1)
		}
	}
	return result
}

// exp2 returns 2^e scaled by 2^fracBits for a non-negative e scaled by
// 2^fracBits.
func exp2(e *big.Int) *big.Int {
	whole := new(big.Int).Rsh(e, fracBits)
	frac := new(big.Int).And(e, fracMask)

	r := powerRoots()
	result := new(big.Int).Set(one)
	for i := 1; i <= fracBits; i++ {
		if frac.Bit(fracBits-i) == 1 {
			result.Mul(result, r[i])
			result.Rsh(result, fracBits)
		}
	}
	return result.Lsh(result, uint(whole.Uint64()))
}

// RatioPowBps returns floor(10000 * (num/den)^(powerBps/10000)) for
// 0 <= num <= den, using only integer arithmetic. num == 0 yields 0.
func RatioPowBps(num, den uint64, powerBps uint32) uint64 {
	if num == 0 || den == 0 {
		return 0
	}
	if num >= den || powerBps == 0 {
		return BasisPoints
	}

	// (num/den)^p = 1 / 2^(p * (log2(den) - log2(num)))
	e := new(big.Int).Sub(log2(den), log2(num))
	e.Mul(e, big.NewInt(int64(powerBps)))
	e.Quo(e, big.NewInt(BasisPoints))

	// 2^14 > 10000, so any larger divisor floors to zero.
	if new(big.Int).Rsh(e, fracBits).Cmp(big.NewInt(14)) >= 0 {
		return 0
	}

	denom := exp2(e)
	out := new(big.Int).Mul(big.NewInt(BasisPoints), one)
	out.Quo(out, denom)
	return out.Uint64()
}
