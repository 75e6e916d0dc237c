package pool_fees

import (
	"math/big"

	"github.com/solpods/whirlpool-go/whirlpool/math"
	"github.com/solpods/whirlpool-go/whirlpool/shared"
)

// FeeRateManager computes the effective fee rate for each sub-step of a
// swap. The static variant returns a constant rate; the adaptive variant
// tracks tick-group crossings through a volatility accumulator and
// charges a quadratic surcharge on top of the base rate.
type FeeRateManager interface {
	// UpdateVolatilityAccumulator refreshes the accumulator for the
	// tick group the swap is currently traversing.
	UpdateVolatilityAccumulator()

	// TotalFeeRate returns the fee rate for the current sub-step, in
	// hundredths of a basis point, capped at the hard limit.
	TotalFeeRate() uint32

	// BoundedSqrtPriceTarget clamps the candidate target price to the
	// current tick group boundary so volatility updates happen at group
	// granularity. skipped reports that per-group stepping was
	// bypassed (zero control factor, zero liquidity, or outside the
	// core group range).
	BoundedSqrtPriceTarget(candidate *big.Int, liquidity *big.Int) (*big.Int, bool)

	// AdvanceTickGroup shifts the tracked tick group one step in the
	// trade direction.
	AdvanceTickGroup()

	// AdvanceTickGroupAfterSkip reconciles the tracked tick group with
	// the price movement realized during a skipped fast path.
	AdvanceTickGroupAfterSkip(currentSqrtPrice, nextTickSqrtPrice *big.Int, nextTickIndex int32) error

	// UpdateMajorSwapTimestamp records a major-swap timestamp when the
	// whole swap moved the price beyond the configured threshold.
	UpdateMajorSwapTimestamp(preSqrtPrice, postSqrtPrice *big.Int) error

	// NextAdaptiveFeeInfo returns the post-swap adaptive state for
	// oracle writeback, or nil for the static variant.
	NextAdaptiveFeeInfo() *AdaptiveFeeInfo
}

// NewFeeRateManager selects the variant: static when no adaptive fee
// info is supplied, adaptive otherwise.
func NewFeeRateManager(
	aToB bool,
	currentTickIndex int32,
	timestamp uint64,
	staticFeeRate uint32,
	adaptiveFeeInfo *AdaptiveFeeInfo,
) (FeeRateManager, error) {
	if adaptiveFeeInfo == nil {
		return &staticFeeRateManager{feeRate: staticFeeRate}, nil
	}
	constants := adaptiveFeeInfo.Constants
	if err := constants.validate(); err != nil {
		return nil, err
	}

	tickGroupIndex := floorDivInt32(currentTickIndex, int32(constants.TickGroupSize))
	variables := adaptiveFeeInfo.Variables
	if err := variables.updateReference(tickGroupIndex, timestamp, constants); err != nil {
		return nil, err
	}

	m := &adaptiveFeeRateManager{
		aToB:           aToB,
		tickGroupIndex: tickGroupIndex,
		staticFeeRate:  staticFeeRate,
		timestamp:      timestamp,
		constants:      constants,
		variables:      variables,
	}
	if err := m.computeCoreTickGroupRange(); err != nil {
		return nil, err
	}
	return m, nil
}

type staticFeeRateManager struct {
	feeRate uint32
}

func (m *staticFeeRateManager) UpdateVolatilityAccumulator() {}

func (m *staticFeeRateManager) TotalFeeRate() uint32 { return m.feeRate }

func (m *staticFeeRateManager) BoundedSqrtPriceTarget(candidate *big.Int, _ *big.Int) (*big.Int, bool) {
	return candidate, false
}

func (m *staticFeeRateManager) AdvanceTickGroup() {}

func (m *staticFeeRateManager) AdvanceTickGroupAfterSkip(_, _ *big.Int, _ int32) error { return nil }

func (m *staticFeeRateManager) UpdateMajorSwapTimestamp(_, _ *big.Int) error { return nil }

func (m *staticFeeRateManager) NextAdaptiveFeeInfo() *AdaptiveFeeInfo { return nil }

type tickGroupBound struct {
	tickGroupIndex int32
	sqrtPrice      *big.Int
}

type adaptiveFeeRateManager struct {
	aToB           bool
	tickGroupIndex int32
	staticFeeRate  uint32
	timestamp      uint64
	constants      AdaptiveFeeConstants
	variables      AdaptiveFeeVariables

	// Core tick group range: outside it the volatility accumulator is
	// pinned at its maximum, so per-group stepping can be skipped.
	coreRangeLowerBound *tickGroupBound
	coreRangeUpperBound *tickGroupBound
}

func (m *adaptiveFeeRateManager) computeCoreTickGroupRange() error {
	// An oracle whose volatility reference already exceeds the cap pins
	// the accumulator everywhere; the core range collapses to the
	// reference group.
	var delta uint32
	if m.variables.VolatilityReference < m.constants.MaxVolatilityAccumulator {
		delta = ceilDivU32(
			m.constants.MaxVolatilityAccumulator-m.variables.VolatilityReference,
			shared.VolatilityAccumulatorScaleFactor,
		)
	}
	lowerIndex := m.variables.TickGroupIndexReference - int32(delta)
	upperIndex := m.variables.TickGroupIndexReference + int32(delta)

	groupSize := int32(m.constants.TickGroupSize)
	lowerTick := lowerIndex * groupSize
	upperTick := upperIndex*groupSize + groupSize

	if lowerTick > shared.MinTickIndex {
		price, err := math.SqrtPriceFromTickIndex(lowerTick)
		if err != nil {
			return err
		}
		m.coreRangeLowerBound = &tickGroupBound{tickGroupIndex: lowerIndex, sqrtPrice: price}
	}
	if upperTick < shared.MaxTickIndex {
		price, err := math.SqrtPriceFromTickIndex(upperTick)
		if err != nil {
			return err
		}
		m.coreRangeUpperBound = &tickGroupBound{tickGroupIndex: upperIndex, sqrtPrice: price}
	}
	return nil
}

func (m *adaptiveFeeRateManager) UpdateVolatilityAccumulator() {
	m.variables.updateVolatilityAccumulator(m.tickGroupIndex, m.constants)
}

func (m *adaptiveFeeRateManager) TotalFeeRate() uint32 {
	total := uint64(m.staticFeeRate) + uint64(computeAdaptiveFeeRate(m.constants, m.variables))
	if total > shared.FeeRateHardLimit {
		return shared.FeeRateHardLimit
	}
	return uint32(total)
}

func (m *adaptiveFeeRateManager) BoundedSqrtPriceTarget(candidate *big.Int, liquidity *big.Int) (*big.Int, bool) {
	if m.constants.AdaptiveFeeControlFactor == 0 {
		return candidate, true
	}
	// With no liquidity the loop jumps straight to the next initialized
	// tick; there is nothing to meter per group.
	if liquidity.Sign() == 0 {
		return candidate, true
	}

	if bound := m.coreRangeLowerBound; bound != nil && m.tickGroupIndex < bound.tickGroupIndex {
		if m.aToB {
			return candidate, true
		}
		return minBig(candidate, bound.sqrtPrice), true
	}
	if bound := m.coreRangeUpperBound; bound != nil && m.tickGroupIndex > bound.tickGroupIndex {
		if !m.aToB {
			return candidate, true
		}
		return maxBig(candidate, bound.sqrtPrice), true
	}

	groupSize := int32(m.constants.TickGroupSize)
	var boundaryTick int32
	if m.aToB {
		boundaryTick = m.tickGroupIndex * groupSize
	} else {
		boundaryTick = m.tickGroupIndex*groupSize + groupSize
	}
	boundarySqrtPrice, err := math.SqrtPriceFromTickIndex(clampTick(boundaryTick))
	if err != nil {
		// The boundary tick is clamped into range, so this cannot fail.
		return candidate, true
	}
	if m.aToB {
		return maxBig(candidate, boundarySqrtPrice), false
	}
	return minBig(candidate, boundarySqrtPrice), false
}

func (m *adaptiveFeeRateManager) AdvanceTickGroup() {
	if m.aToB {
		m.tickGroupIndex--
	} else {
		m.tickGroupIndex++
	}
}

// AdvanceTickGroupAfterSkip derives the last tick group the skipped fast
// path actually traversed from the realized price, refreshes the
// accumulator if that differs from the tracked group, then advances.
func (m *adaptiveFeeRateManager) AdvanceTickGroupAfterSkip(currentSqrtPrice, nextTickSqrtPrice *big.Int, nextTickIndex int32) error {
	groupSize := int32(m.constants.TickGroupSize)

	var tickIndex int32
	var onGroupBoundary bool
	if currentSqrtPrice.Cmp(nextTickSqrtPrice) == 0 {
		// Landed exactly on the next initialized tick.
		tickIndex = nextTickIndex
		onGroupBoundary = tickIndex%groupSize == 0
	} else {
		var err error
		tickIndex, err = math.TickIndexFromSqrtPrice(currentSqrtPrice)
		if err != nil {
			return err
		}
		if tickIndex%groupSize == 0 {
			exact, err := math.SqrtPriceFromTickIndex(tickIndex)
			if err != nil {
				return err
			}
			onGroupBoundary = currentSqrtPrice.Cmp(exact) == 0
		}
	}

	var lastTraversed int32
	if onGroupBoundary && !m.aToB {
		// An up-swap stopping exactly on a group boundary never entered
		// the group above it.
		lastTraversed = tickIndex/groupSize - 1
	} else {
		lastTraversed = floorDivInt32(tickIndex, groupSize)
	}

	if lastTraversed != m.tickGroupIndex {
		m.tickGroupIndex = lastTraversed
		m.variables.updateVolatilityAccumulator(m.tickGroupIndex, m.constants)
	}
	m.AdvanceTickGroup()
	return nil
}

func (m *adaptiveFeeRateManager) UpdateMajorSwapTimestamp(preSqrtPrice, postSqrtPrice *big.Int) error {
	return m.variables.updateMajorSwapTimestamp(preSqrtPrice, postSqrtPrice, m.timestamp, m.constants)
}

func (m *adaptiveFeeRateManager) NextAdaptiveFeeInfo() *AdaptiveFeeInfo {
	return &AdaptiveFeeInfo{Constants: m.constants, Variables: m.variables}
}

func clampTick(tick int32) int32 {
	if tick < shared.MinTickIndex {
		return shared.MinTickIndex
	}
	if tick > shared.MaxTickIndex {
		return shared.MaxTickIndex
	}
	return tick
}

func minBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

func maxBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}
