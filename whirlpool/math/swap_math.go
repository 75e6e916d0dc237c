package math

import (
	"math/big"

	"github.com/solpods/whirlpool-go/whirlpool/shared"
)

// StepResult is the outcome of one bounded price movement.
type StepResult struct {
	AmountIn      *big.Int
	AmountOut     *big.Int
	NextSqrtPrice *big.Int
	FeeAmount     *big.Int
}

var (
	feeRateDenominator = big.NewInt(shared.FeeRateMulValue)
)

// ComputeSwapStep moves the price from currentSqrtPrice toward
// targetSqrtPrice until either the target is reached or amountRemaining
// is exhausted. The fixed token (the one amountRemaining denominates) is
// A when the trade direction and the specified side coincide, B
// otherwise; rounding biases always favor the pool.
func ComputeSwapStep(
	amountRemaining *big.Int,
	feeRate uint32,
	liquidity *big.Int,
	currentSqrtPrice *big.Int,
	targetSqrtPrice *big.Int,
	amountSpecifiedIsInput bool,
	aToB bool,
) (StepResult, error) {
	initialFixedDelta, err := getAmountFixedDelta(currentSqrtPrice, targetSqrtPrice, liquidity, amountSpecifiedIsInput, aToB)
	if err != nil {
		return StepResult{}, err
	}

	amountCalculated := amountRemaining
	if amountSpecifiedIsInput {
		feeComplement := big.NewInt(int64(shared.FeeRateMulValue - feeRate))
		amountCalculated, err = MulDiv(amountRemaining, feeComplement, feeRateDenominator, shared.RoundingDown, 64)
		if err != nil {
			return StepResult{}, err
		}
	}

	var nextSqrtPrice *big.Int
	if !initialFixedDelta.ExceedsMax && initialFixedDelta.Value.Cmp(amountCalculated) <= 0 {
		nextSqrtPrice = new(big.Int).Set(targetSqrtPrice)
	} else {
		nextSqrtPrice, err = GetNextSqrtPrice(currentSqrtPrice, liquidity, amountCalculated, amountSpecifiedIsInput, aToB)
		if err != nil {
			return StepResult{}, err
		}
	}
	isMaxSwap := nextSqrtPrice.Cmp(targetSqrtPrice) == 0

	amountUnfixedDelta, err := getAmountUnfixedDelta(currentSqrtPrice, nextSqrtPrice, liquidity, amountSpecifiedIsInput, aToB)
	if err != nil {
		return StepResult{}, err
	}

	// When the step stops short of the target (or the full-range fixed
	// delta overflowed), the fixed side must be recomputed against the
	// realized price.
	amountFixedDelta := initialFixedDelta.Value
	if !isMaxSwap || initialFixedDelta.ExceedsMax {
		d, err := getAmountFixedDelta(currentSqrtPrice, nextSqrtPrice, liquidity, amountSpecifiedIsInput, aToB)
		if err != nil {
			return StepResult{}, err
		}
		if d.ExceedsMax {
			return StepResult{}, shared.ErrAmountExceedsMax
		}
		amountFixedDelta = d.Value
	}

	var amountIn, amountOut *big.Int
	if amountSpecifiedIsInput {
		amountIn, amountOut = amountFixedDelta, amountUnfixedDelta
	} else {
		amountIn, amountOut = amountUnfixedDelta, amountFixedDelta
	}

	// The requested output is a hard cap.
	if !amountSpecifiedIsInput && amountOut.Cmp(amountRemaining) > 0 {
		amountOut = new(big.Int).Set(amountRemaining)
	}

	// An exact-in step that stops short of the target (or whose
	// full-range fixed delta overflowed) absorbs the whole remainder as
	// fee; otherwise the fee is derived from the consumed input.
	var feeAmount *big.Int
	if amountSpecifiedIsInput && (!isMaxSwap || initialFixedDelta.ExceedsMax) {
		feeAmount = new(big.Int).Sub(amountRemaining, amountIn)
	} else {
		feeComplement := big.NewInt(int64(shared.FeeRateMulValue - feeRate))
		feeAmount, err = MulDiv(amountIn, big.NewInt(int64(feeRate)), feeComplement, shared.RoundingUp, 64)
		if err != nil {
			return StepResult{}, err
		}
	}

	return StepResult{
		AmountIn:      amountIn,
		AmountOut:     amountOut,
		NextSqrtPrice: nextSqrtPrice,
		FeeAmount:     feeAmount,
	}, nil
}

// getAmountFixedDelta computes the delta of the token the remaining
// amount denominates. Inputs round up, outputs round down.
func getAmountFixedDelta(currentSqrtPrice, targetSqrtPrice, liquidity *big.Int, amountSpecifiedIsInput, aToB bool) (AmountDelta, error) {
	rounding := shared.RoundingDown
	if amountSpecifiedIsInput {
		rounding = shared.RoundingUp
	}
	if aToB == amountSpecifiedIsInput {
		return GetAmountDeltaA(currentSqrtPrice, targetSqrtPrice, liquidity, rounding)
	}
	return GetAmountDeltaB(currentSqrtPrice, targetSqrtPrice, liquidity, rounding)
}

// getAmountUnfixedDelta computes the delta of the opposite token, with
// the opposite rounding bias.
func getAmountUnfixedDelta(currentSqrtPrice, nextSqrtPrice, liquidity *big.Int, amountSpecifiedIsInput, aToB bool) (*big.Int, error) {
	rounding := shared.RoundingUp
	if amountSpecifiedIsInput {
		rounding = shared.RoundingDown
	}
	if aToB == amountSpecifiedIsInput {
		return checkedAmountDelta(GetAmountDeltaB(currentSqrtPrice, nextSqrtPrice, liquidity, rounding))
	}
	return checkedAmountDelta(GetAmountDeltaA(currentSqrtPrice, nextSqrtPrice, liquidity, rounding))
}
