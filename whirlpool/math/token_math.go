package math

import (
	"math/big"

	"github.com/solpods/whirlpool-go/whirlpool/shared"
)

// AmountDelta carries a token delta that may exceed the u64 range. The
// overflow case is an expected, recoverable condition for the step
// computer (it switches to solving for an intermediate price), so it is a
// value, not an error.
type AmountDelta struct {
	Value      *big.Int
	ExceedsMax bool
}

// GetAmountDeltaA returns the token A amount between two sqrt prices for
// the given liquidity: L * (upper - lower) << 64 / (upper * lower).
func GetAmountDeltaA(sqrtPrice0, sqrtPrice1, liquidity *big.Int, rounding shared.Rounding) (AmountDelta, error) {
	lower, upper := orderSqrtPrices(sqrtPrice0, sqrtPrice1)
	if lower.Sign() <= 0 {
		return AmountDelta{}, shared.ErrSqrtPriceOutOfBounds
	}

	diff := new(big.Int).Sub(upper, lower)
	numerator := new(big.Int).Mul(liquidity, diff)
	numerator.Lsh(numerator, shared.ScaleOffset)
	denominator := new(big.Int).Mul(lower, upper)

	quotient, remainder := new(big.Int).QuoRem(numerator, denominator, new(big.Int))
	if rounding == shared.RoundingUp && remainder.Sign() != 0 {
		quotient.Add(quotient, big.NewInt(1))
	}
	if quotient.Cmp(shared.U64Max) > 0 {
		return AmountDelta{Value: quotient, ExceedsMax: true}, nil
	}
	return AmountDelta{Value: quotient}, nil
}

// GetAmountDeltaB returns the token B amount between two sqrt prices:
// L * (upper - lower) >> 64.
func GetAmountDeltaB(sqrtPrice0, sqrtPrice1, liquidity *big.Int, rounding shared.Rounding) (AmountDelta, error) {
	lower, upper := orderSqrtPrices(sqrtPrice0, sqrtPrice1)
	diff := new(big.Int).Sub(upper, lower)
	product := new(big.Int).Mul(liquidity, diff)

	quotient := new(big.Int).Rsh(product, shared.ScaleOffset)
	if rounding == shared.RoundingUp {
		lowBits := new(big.Int).And(product, shared.U64Max)
		if lowBits.Sign() != 0 {
			quotient.Add(quotient, big.NewInt(1))
		}
	}
	if quotient.Cmp(shared.U64Max) > 0 {
		return AmountDelta{Value: quotient, ExceedsMax: true}, nil
	}
	return AmountDelta{Value: quotient}, nil
}

// checkedAmountDelta narrows an AmountDelta back to the u64 range.
func checkedAmountDelta(d AmountDelta, err error) (*big.Int, error) {
	if err != nil {
		return nil, err
	}
	if d.ExceedsMax {
		return nil, shared.ErrAmountExceedsMax
	}
	return d.Value, nil
}

// GetNextSqrtPriceFromAInput solves the sqrt price after trading an
// amount of token A. Price moves down when A is added and up when A is
// removed; the result always rounds up.
func GetNextSqrtPriceFromAInput(sqrtPrice, liquidity *big.Int, amount *big.Int, amountSpecifiedIsInput bool) (*big.Int, error) {
	if amount.Sign() == 0 {
		return new(big.Int).Set(sqrtPrice), nil
	}
	if liquidity.Sign() == 0 {
		return nil, shared.ErrDivideByZero
	}

	liquidityShifted := new(big.Int).Lsh(liquidity, shared.ScaleOffset)
	amountPrice := new(big.Int).Mul(amount, sqrtPrice)

	denominator := new(big.Int)
	if amountSpecifiedIsInput {
		denominator.Add(liquidityShifted, amountPrice)
	} else {
		if liquidityShifted.Cmp(amountPrice) <= 0 {
			return nil, shared.ErrSqrtPriceOutOfBounds
		}
		denominator.Sub(liquidityShifted, amountPrice)
	}

	numerator := new(big.Int).Mul(liquidityShifted, sqrtPrice)
	price, err := DivRoundUp(numerator, denominator)
	if err != nil {
		return nil, err
	}
	if price.Cmp(shared.MinSqrtPrice) < 0 || price.Cmp(shared.MaxSqrtPrice) > 0 {
		return nil, shared.ErrSqrtPriceOutOfBounds
	}
	return price, nil
}

// GetNextSqrtPriceFromBInput solves the sqrt price after trading an
// amount of token B. Price moves up when B is added; the delta rounds
// down when B is the input and up when B is the output.
func GetNextSqrtPriceFromBInput(sqrtPrice, liquidity *big.Int, amount *big.Int, amountSpecifiedIsInput bool) (*big.Int, error) {
	if liquidity.Sign() == 0 {
		return nil, shared.ErrDivideByZero
	}
	amountShifted := new(big.Int).Lsh(amount, shared.ScaleOffset)
	delta, err := DivRoundUpIf(amountShifted, liquidity, !amountSpecifiedIsInput)
	if err != nil {
		return nil, err
	}

	price := new(big.Int)
	if amountSpecifiedIsInput {
		price.Add(sqrtPrice, delta)
	} else {
		if sqrtPrice.Cmp(delta) <= 0 {
			return nil, shared.ErrSqrtPriceOutOfBounds
		}
		price.Sub(sqrtPrice, delta)
	}
	if price.Cmp(shared.MinSqrtPrice) < 0 || price.Cmp(shared.MaxSqrtPrice) > 0 {
		return nil, shared.ErrSqrtPriceOutOfBounds
	}
	return price, nil
}

// GetNextSqrtPrice dispatches to the A or B solver based on which token
// the amount denominates for the given direction.
func GetNextSqrtPrice(sqrtPrice, liquidity, amount *big.Int, amountSpecifiedIsInput, aToB bool) (*big.Int, error) {
	if amountSpecifiedIsInput == aToB {
		return GetNextSqrtPriceFromAInput(sqrtPrice, liquidity, amount, amountSpecifiedIsInput)
	}
	return GetNextSqrtPriceFromBInput(sqrtPrice, liquidity, amount, amountSpecifiedIsInput)
}

// TokenAmountsFromLiquidity returns the token A and B amounts backing a
// liquidity position between two tick boundaries at the given current
// price. Used by withdrawal quotes and by tests that seed pool fixtures.
func TokenAmountsFromLiquidity(liquidity, currentSqrtPrice, lowerSqrtPrice, upperSqrtPrice *big.Int, rounding shared.Rounding) (*big.Int, *big.Int, error) {
	lower, upper := orderSqrtPrices(lowerSqrtPrice, upperSqrtPrice)

	switch {
	case currentSqrtPrice.Cmp(lower) < 0:
		// Position entirely above the current price: all token A.
		amountA, err := checkedAmountDelta(GetAmountDeltaA(lower, upper, liquidity, rounding))
		if err != nil {
			return nil, nil, err
		}
		return amountA, new(big.Int), nil
	case currentSqrtPrice.Cmp(upper) < 0:
		amountA, err := checkedAmountDelta(GetAmountDeltaA(currentSqrtPrice, upper, liquidity, rounding))
		if err != nil {
			return nil, nil, err
		}
		amountB, err := checkedAmountDelta(GetAmountDeltaB(lower, currentSqrtPrice, liquidity, rounding))
		if err != nil {
			return nil, nil, err
		}
		return amountA, amountB, nil
	default:
		// Position entirely below the current price: all token B.
		amountB, err := checkedAmountDelta(GetAmountDeltaB(lower, upper, liquidity, rounding))
		if err != nil {
			return nil, nil, err
		}
		return new(big.Int), amountB, nil
	}
}

func orderSqrtPrices(a, b *big.Int) (*big.Int, *big.Int) {
	if a.Cmp(b) > 0 {
		return b, a
	}
	return a, b
}
