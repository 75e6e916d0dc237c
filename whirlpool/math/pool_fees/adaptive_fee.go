package pool_fees

import (
	"math/big"

	"github.com/solpods/whirlpool-go/whirlpool/math"
	"github.com/solpods/whirlpool-go/whirlpool/shared"
)

// AdaptiveFeeConstants is the immutable per-pool adaptive fee
// configuration.
type AdaptiveFeeConstants struct {
	FilterPeriod             uint16
	DecayPeriod              uint16
	ReductionFactor          uint16
	AdaptiveFeeControlFactor uint32
	MaxVolatilityAccumulator uint32
	TickGroupSize            uint16
	MajorSwapThresholdTicks  uint16
}

// AdaptiveFeeVariables is the mutable adaptive fee state, persisted on
// chain between swaps and threaded through the simulation as a value.
type AdaptiveFeeVariables struct {
	LastReferenceUpdateTimestamp uint64
	LastMajorSwapTimestamp       uint64
	VolatilityReference          uint32
	TickGroupIndexReference      int32
	VolatilityAccumulator        uint32
}

// AdaptiveFeeInfo bundles constants and variables as fetched from the
// pool's oracle account.
type AdaptiveFeeInfo struct {
	Constants AdaptiveFeeConstants
	Variables AdaptiveFeeVariables
}

func (c AdaptiveFeeConstants) validate() error {
	if c.TickGroupSize == 0 || c.FilterPeriod == 0 || c.DecayPeriod <= c.FilterPeriod {
		return shared.ErrInvalidAdaptiveFeeInfo
	}
	if uint64(c.ReductionFactor) > shared.ReductionFactorDenominator {
		return shared.ErrInvalidAdaptiveFeeInfo
	}
	// The accumulator-times-group-size product must fit in u32 or the
	// adaptive fee squaring would wrap.
	if uint64(c.MaxVolatilityAccumulator)*uint64(c.TickGroupSize) > (1<<32)-1 {
		return shared.ErrInvalidAdaptiveFeeInfo
	}
	return nil
}

// updateReference rolls the reference state forward to the swap
// timestamp. Within the filter period references are frozen so bursts of
// trades keep accumulating volatility; within the decay period the
// volatility reference decays by the reduction factor; beyond it, or
// beyond the maximum reference age, the reference resets.
func (v *AdaptiveFeeVariables) updateReference(tickGroupIndex int32, timestamp uint64, constants AdaptiveFeeConstants) error {
	maxTimestamp := v.LastReferenceUpdateTimestamp
	if v.LastMajorSwapTimestamp > maxTimestamp {
		maxTimestamp = v.LastMajorSwapTimestamp
	}
	if timestamp < maxTimestamp {
		return shared.ErrInvalidTimestamp
	}

	referenceAge := timestamp - v.LastReferenceUpdateTimestamp
	if referenceAge > shared.MaxReferenceAge {
		v.TickGroupIndexReference = tickGroupIndex
		v.VolatilityReference = 0
		v.LastReferenceUpdateTimestamp = timestamp
		return nil
	}

	elapsed := timestamp - maxTimestamp
	switch {
	case elapsed < uint64(constants.FilterPeriod):
		// High-frequency window: references stay put.
	case elapsed < uint64(constants.DecayPeriod):
		v.TickGroupIndexReference = tickGroupIndex
		v.VolatilityReference = uint32(uint64(v.VolatilityAccumulator) *
			uint64(constants.ReductionFactor) / shared.ReductionFactorDenominator)
		v.LastReferenceUpdateTimestamp = timestamp
	default:
		v.TickGroupIndexReference = tickGroupIndex
		v.VolatilityReference = 0
		v.LastReferenceUpdateTimestamp = timestamp
	}
	return nil
}

func (v *AdaptiveFeeVariables) updateVolatilityAccumulator(tickGroupIndex int32, constants AdaptiveFeeConstants) {
	indexDelta := tickGroupIndex - v.TickGroupIndexReference
	if indexDelta < 0 {
		indexDelta = -indexDelta
	}
	accumulator := uint64(v.VolatilityReference) +
		uint64(indexDelta)*shared.VolatilityAccumulatorScaleFactor
	if accumulator > uint64(constants.MaxVolatilityAccumulator) {
		accumulator = uint64(constants.MaxVolatilityAccumulator)
	}
	v.VolatilityAccumulator = uint32(accumulator)
}

// updateMajorSwapTimestamp records the timestamp when the realized price
// movement exceeds the major swap threshold.
func (v *AdaptiveFeeVariables) updateMajorSwapTimestamp(preSqrtPrice, postSqrtPrice *big.Int, timestamp uint64, constants AdaptiveFeeConstants) error {
	major, err := isMajorSwap(preSqrtPrice, postSqrtPrice, constants.MajorSwapThresholdTicks)
	if err != nil {
		return err
	}
	if major {
		v.LastMajorSwapTimestamp = timestamp
	}
	return nil
}

// isMajorSwap compares the pre/post sqrt price ratio against the sqrt
// price of the threshold tick count. The comparison is done on sqrt
// prices rather than tick indexes to avoid precision loss near group
// boundaries.
func isMajorSwap(preSqrtPrice, postSqrtPrice *big.Int, thresholdTicks uint16) (bool, error) {
	smaller, larger := preSqrtPrice, postSqrtPrice
	if smaller.Cmp(larger) > 0 {
		smaller, larger = larger, smaller
	}
	factor, err := math.SqrtPriceFromTickIndex(int32(thresholdTicks))
	if err != nil {
		return false, err
	}
	target, err := math.MulShiftRight(smaller, factor)
	if err != nil {
		return false, err
	}
	return larger.Cmp(target) >= 0, nil
}

// computeAdaptiveFeeRate evaluates
// ceil(controlFactor * (volatilityAccumulator * tickGroupSize)^2 / denom)
// in hundredths of a basis point, capped at the hard limit.
func computeAdaptiveFeeRate(constants AdaptiveFeeConstants, variables AdaptiveFeeVariables) uint32 {
	crossed := new(big.Int).SetUint64(
		uint64(variables.VolatilityAccumulator) * uint64(constants.TickGroupSize))
	squared := new(big.Int).Mul(crossed, crossed)
	numerator := squared.Mul(squared, new(big.Int).SetUint64(uint64(constants.AdaptiveFeeControlFactor)))
	denominator := new(big.Int).SetUint64(
		shared.AdaptiveFeeControlFactorDenominator *
			shared.VolatilityAccumulatorScaleFactor *
			shared.VolatilityAccumulatorScaleFactor)

	rate := new(big.Int).Add(numerator, new(big.Int).Sub(denominator, big.NewInt(1)))
	rate.Div(rate, denominator)
	if rate.Cmp(big.NewInt(shared.FeeRateHardLimit)) > 0 {
		return shared.FeeRateHardLimit
	}
	return uint32(rate.Uint64())
}

func floorDivInt32(a, b int32) int32 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func ceilDivU32(a, b uint32) uint32 {
	return (a + b - 1) / b
}
