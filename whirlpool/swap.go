package whirlpool

import (
	"math/big"

	"github.com/solpods/whirlpool-go/whirlpool/math"
	"github.com/solpods/whirlpool-go/whirlpool/math/pool_fees"
	"github.com/solpods/whirlpool-go/whirlpool/shared"
)

// ComputeSwap simulates a swap against a pool snapshot and a tick array
// sequence, reproducing the on-chain computation step for step: it walks
// initialized ticks in the trade direction, crossing liquidity at each
// one, and within each tick span steps at tick-group granularity when an
// adaptive fee is active.
//
// tokenAmount is the input amount when amountSpecifiedIsInput is true and
// the requested output amount otherwise. Pass adaptiveFeeInfo as nil for
// pools without an adaptive fee.
func ComputeSwap(
	pool *shared.PoolState,
	sequence *math.TickArraySequence,
	tokenAmount *big.Int,
	amountSpecifiedIsInput bool,
	aToB bool,
	sqrtPriceLimit *big.Int,
	timestamp uint64,
	adaptiveFeeInfo *pool_fees.AdaptiveFeeInfo,
) (*shared.SwapResult, error) {
	if tokenAmount.Sign() <= 0 {
		return nil, shared.ErrZeroTradableAmount
	}
	if sqrtPriceLimit.Cmp(shared.MinSqrtPrice) < 0 || sqrtPriceLimit.Cmp(shared.MaxSqrtPrice) > 0 {
		return nil, shared.ErrSqrtPriceOutOfBounds
	}
	if aToB && sqrtPriceLimit.Cmp(pool.SqrtPrice) >= 0 ||
		!aToB && sqrtPriceLimit.Cmp(pool.SqrtPrice) <= 0 {
		return nil, shared.ErrInvalidSqrtPriceLimitDirection
	}

	feeRateManager, err := pool_fees.NewFeeRateManager(
		aToB, pool.TickCurrentIndex, timestamp, pool.FeeRate, adaptiveFeeInfo)
	if err != nil {
		return nil, err
	}

	amountRemaining := new(big.Int).Set(tokenAmount)
	amountCalculated := new(big.Int)

	currentSqrtPrice := new(big.Int).Set(pool.SqrtPrice)
	currentTickIndex := pool.TickCurrentIndex
	currentLiquidity := new(big.Int).Set(pool.Liquidity)

	feeGrowthGlobal := new(big.Int)
	if aToB {
		feeGrowthGlobal.Set(pool.FeeGrowthGlobalA)
	} else {
		feeGrowthGlobal.Set(pool.FeeGrowthGlobalB)
	}

	totalFee := new(big.Int)
	protocolFee := new(big.Int)
	protocolFeeRate := big.NewInt(int64(pool.ProtocolFeeRate))

	appliedFeeRateMin := uint32(shared.FeeRateHardLimit)
	appliedFeeRateMax := uint32(0)

	for amountRemaining.Sign() > 0 && currentSqrtPrice.Cmp(sqrtPriceLimit) != 0 {
		nextTickIndex, _, err := sequence.FindNextInitializedTickIndex(currentTickIndex)
		if err != nil {
			return nil, err
		}
		nextTickSqrtPrice, err := math.SqrtPriceFromTickIndex(nextTickIndex)
		if err != nil {
			return nil, err
		}

		targetSqrtPrice := nextTickSqrtPrice
		if aToB && sqrtPriceLimit.Cmp(targetSqrtPrice) > 0 ||
			!aToB && sqrtPriceLimit.Cmp(targetSqrtPrice) < 0 {
			targetSqrtPrice = sqrtPriceLimit
		}

		for {
			feeRateManager.UpdateVolatilityAccumulator()

			feeRate := feeRateManager.TotalFeeRate()
			if feeRate < appliedFeeRateMin {
				appliedFeeRateMin = feeRate
			}
			if feeRate > appliedFeeRateMax {
				appliedFeeRateMax = feeRate
			}

			boundedSqrtPrice, skipped := feeRateManager.BoundedSqrtPriceTarget(targetSqrtPrice, currentLiquidity)

			step, err := math.ComputeSwapStep(
				amountRemaining, feeRate, currentLiquidity,
				currentSqrtPrice, boundedSqrtPrice,
				amountSpecifiedIsInput, aToB)
			if err != nil {
				return nil, err
			}

			if amountSpecifiedIsInput {
				consumed := new(big.Int).Add(step.AmountIn, step.FeeAmount)
				if consumed.Cmp(amountRemaining) > 0 {
					return nil, shared.ErrAmountRemainingOverflow
				}
				amountRemaining.Sub(amountRemaining, consumed)
				amountCalculated.Add(amountCalculated, step.AmountOut)
			} else {
				if step.AmountOut.Cmp(amountRemaining) > 0 {
					return nil, shared.ErrAmountRemainingOverflow
				}
				amountRemaining.Sub(amountRemaining, step.AmountOut)
				amountCalculated.Add(amountCalculated, new(big.Int).Add(step.AmountIn, step.FeeAmount))
			}
			if amountCalculated.Cmp(shared.U64Max) > 0 {
				return nil, shared.ErrAmountCalcOverflow
			}

			// Split the step fee between the protocol and the pool, and
			// fold the pool share into the per-unit-liquidity growth
			// counter exactly as the program does (wrapping at 2^128).
			stepProtocolFee := new(big.Int).Mul(step.FeeAmount, protocolFeeRate)
			stepProtocolFee.Div(stepProtocolFee, big.NewInt(shared.ProtocolFeeRateMulValue))
			protocolFee.Add(protocolFee, stepProtocolFee)
			totalFee.Add(totalFee, step.FeeAmount)
			if currentLiquidity.Sign() > 0 {
				poolFee := new(big.Int).Sub(step.FeeAmount, stepProtocolFee)
				poolFee.Lsh(poolFee, shared.ScaleOffset)
				poolFee.Div(poolFee, currentLiquidity)
				feeGrowthGlobal.Add(feeGrowthGlobal, poolFee)
				feeGrowthGlobal.And(feeGrowthGlobal, shared.MaxU128)
			}

			if step.NextSqrtPrice.Cmp(nextTickSqrtPrice) == 0 {
				tick, err := sequence.Tick(nextTickIndex)
				if err != nil {
					return nil, err
				}
				if tick.Initialized {
					liquidityNet := new(big.Int).Set(tick.LiquidityNet)
					if aToB {
						liquidityNet.Neg(liquidityNet)
					}
					currentLiquidity.Add(currentLiquidity, liquidityNet)
				}
				if aToB {
					currentTickIndex = nextTickIndex - 1
				} else {
					currentTickIndex = nextTickIndex
				}
			} else {
				currentTickIndex, err = math.TickIndexFromSqrtPrice(step.NextSqrtPrice)
				if err != nil {
					return nil, err
				}
			}
			currentSqrtPrice = step.NextSqrtPrice

			if !skipped {
				feeRateManager.AdvanceTickGroup()
			} else {
				err = feeRateManager.AdvanceTickGroupAfterSkip(currentSqrtPrice, nextTickSqrtPrice, nextTickIndex)
				if err != nil {
					return nil, err
				}
			}

			if amountRemaining.Sign() == 0 || currentSqrtPrice.Cmp(targetSqrtPrice) == 0 {
				break
			}
		}
	}

	traded := new(big.Int).Sub(tokenAmount, amountRemaining)
	var amountA, amountB *big.Int
	if aToB == amountSpecifiedIsInput {
		amountA, amountB = traded, amountCalculated
	} else {
		amountA, amountB = amountCalculated, traded
	}

	if err := feeRateManager.UpdateMajorSwapTimestamp(pool.SqrtPrice, currentSqrtPrice); err != nil {
		return nil, err
	}

	if appliedFeeRateMin > appliedFeeRateMax {
		// No step executed; report the static rate.
		appliedFeeRateMin = pool.FeeRate
		appliedFeeRateMax = pool.FeeRate
	}

	return &shared.SwapResult{
		AmountA:             amountA,
		AmountB:             amountB,
		NextSqrtPrice:       currentSqrtPrice,
		NextTickIndex:       currentTickIndex,
		NextLiquidity:       currentLiquidity,
		FeeAmount:           totalFee,
		ProtocolFee:         protocolFee,
		NextFeeGrowthGlobal: feeGrowthGlobal,
		AppliedFeeRateMin:   appliedFeeRateMin,
		AppliedFeeRateMax:   appliedFeeRateMax,
	}, nil
}

// NextAdaptiveFeeVariables runs ComputeSwap's fee rate manager state
// machine without a swap, returning the variables as they would stand at
// timestamp. Useful for previewing the decayed fee before quoting.
func NextAdaptiveFeeVariables(info *pool_fees.AdaptiveFeeInfo, currentTickIndex int32, timestamp uint64) (*pool_fees.AdaptiveFeeInfo, error) {
	manager, err := pool_fees.NewFeeRateManager(false, currentTickIndex, timestamp, 0, info)
	if err != nil {
		return nil, err
	}
	return manager.NextAdaptiveFeeInfo(), nil
}
