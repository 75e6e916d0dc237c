package math

import (
	"math/big"

	"github.com/solpods/whirlpool-go/whirlpool/shared"
)

// Width-disciplined big.Int helpers. Intermediate products are computed at
// full precision and every narrowing back to a target width is checked, so
// a result that the on-chain program would reject as overflow fails here
// too instead of wrapping.

func Add(a, b *big.Int) *big.Int {
	return new(big.Int).Add(a, b)
}

func Sub(a, b *big.Int) (*big.Int, error) {
	if b.Cmp(a) > 0 {
		return nil, shared.ErrAmountRemainingOverflow
	}
	return new(big.Int).Sub(a, b), nil
}

// Mul multiplies and verifies the product fits in widthBits.
func Mul(a, b *big.Int, widthBits uint) (*big.Int, error) {
	prod := new(big.Int).Mul(a, b)
	if IsOverLimit(prod, widthBits) {
		return nil, shared.ErrMultiplicationOverflow
	}
	return prod, nil
}

// MulDiv computes a*b/denominator with the requested rounding, verifying
// the quotient fits in widthBits.
func MulDiv(a, b, denominator *big.Int, rounding shared.Rounding, widthBits uint) (*big.Int, error) {
	if denominator.Sign() == 0 {
		return nil, shared.ErrDivideByZero
	}
	prod := new(big.Int).Mul(a, b)
	var q *big.Int
	if rounding == shared.RoundingUp {
		q = divRoundUp(prod, denominator)
	} else {
		q = new(big.Int).Div(prod, denominator)
	}
	if IsOverLimit(q, widthBits) {
		return nil, shared.ErrMulDivOverflow
	}
	return q, nil
}

func MulDivRoundUp(a, b, denominator *big.Int, widthBits uint) (*big.Int, error) {
	return MulDiv(a, b, denominator, shared.RoundingUp, widthBits)
}

// MulShiftRight computes (a*b)>>ScaleOffset truncated to u128.
func MulShiftRight(a, b *big.Int) (*big.Int, error) {
	shifted := new(big.Int).Mul(a, b)
	shifted.Rsh(shifted, shared.ScaleOffset)
	if IsOverLimit(shifted, 128) {
		return nil, shared.ErrMultiplicationShiftRightOverflow
	}
	return shifted, nil
}

func DivRoundUp(num, denominator *big.Int) (*big.Int, error) {
	if denominator.Sign() == 0 {
		return nil, shared.ErrDivideByZero
	}
	return divRoundUp(num, denominator), nil
}

// DivRoundUpIf rounds the quotient up only when roundUp is set.
func DivRoundUpIf(num, denominator *big.Int, roundUp bool) (*big.Int, error) {
	if denominator.Sign() == 0 {
		return nil, shared.ErrDivideByZero
	}
	if roundUp {
		return divRoundUp(num, denominator), nil
	}
	return new(big.Int).Div(num, denominator), nil
}

// IsOverLimit reports whether value does not fit in widthBits as an
// unsigned integer.
func IsOverLimit(value *big.Int, widthBits uint) bool {
	return value.Sign() < 0 || uint(value.BitLen()) > widthBits
}

// CheckedU64 verifies value fits in a u64.
func CheckedU64(value *big.Int) (*big.Int, error) {
	if IsOverLimit(value, 64) {
		return nil, shared.ErrNumberDownCastError
	}
	return value, nil
}

func divRoundUp(num, denominator *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(num, denominator, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
