package fixedpoint

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// BasisPoints is the fixed-point scale of every rate and coefficient.
const BasisPoints = 10_000

// ErrOverflow reports an intermediate value that does not fit in 256 bits.
var ErrOverflow = errors.New("arithmetic overflow")

var bps = uint256.NewInt(BasisPoints)

// FromBig converts a non-negative big.Int into a 256-bit value. A nil input
// is read as zero.
func FromBig(value *big.Int) (*uint256.Int, error) {
	if value == nil {
		return new(uint256.Int), nil
	}
	if value.Sign() < 0 {
		return nil, errors.New("negative amount")
	}
	out, overflow := uint256.FromBig(value)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// Add returns a+b.
func Add(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return sum, nil
}

// Mul returns a*b.
func Mul(a, b *uint256.Int) (*uint256.Int, error) {
	product, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return product, nil
}

// MulDiv returns floor(a*b/d). The product must fit in 256 bits; d must be
// non-zero.
func MulDiv(a, b, d *uint256.Int) (*uint256.Int, error) {
	product, err := Mul(a, b)
	if err != nil {
		return nil, err
	}
	return product.Div(product, d), nil
}

// MulBps returns floor(a*coefficient/10000).
func MulBps(a *uint256.Int, coefficient uint64) (*uint256.Int, error) {
	return MulDiv(a, uint256.NewInt(coefficient), bps)
}

// SaturatingSub returns a-b, or zero when b > a.
func SaturatingSub(a, b *uint256.Int) *uint256.Int {
	if b.Gt(a) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(a, b)
}

// Min returns the smallest of the given values.
func Min(first *uint256.Int, rest ...*uint256.Int) *uint256.Int {
	out := first
	for _, v := range rest {
		if v.Lt(out) {
			out = v
		}
	}
	return new(uint256.Int).Set(out)
}

// Pow returns base^exp by square-and-multiply, failing on any overflow.
func Pow(base *uint256.Int, exp uint32) (*uint256.Int, error) {
	result := uint256.NewInt(1)
	if exp == 0 {
		return result, nil
	}
	if base.IsZero() || base.Eq(result) {
		return new(uint256.Int).Set(base), nil
	}

	acc := new(uint256.Int).Set(base)
	for {
		if exp&1 == 1 {
			var overflow bool
			result, overflow = new(uint256.Int).MulOverflow(result, acc)
			if overflow {
				return nil, ErrOverflow
			}
		}
		exp >>= 1
		if exp == 0 {
			return result, nil
		}
		var overflow bool
		acc, overflow = new(uint256.Int).MulOverflow(acc, acc)
		if overflow {
			return nil, ErrOverflow
		}
	}
}

// ScaleDecimals converts an amount between token precisions, multiplying by
// 10^(to-from) or truncating when scaling down.
func ScaleDecimals(value *uint256.Int, from, to uint8) (*uint256.Int, error) {
	if from == to {
		return new(uint256.Int).Set(value), nil
	}
	ten := uint256.NewInt(10)
	if to > from {
		factor, err := Pow(ten, uint32(to-from))
		if err != nil {
			return nil, err
		}
		return Mul(value, factor)
	}
	factor, err := Pow(ten, uint32(from-to))
	if err != nil {
		// 10^78 and above exceeds every 256-bit value.
		return new(uint256.Int), nil
	}
	return new(uint256.Int).Div(value, factor), nil
}
