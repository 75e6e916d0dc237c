package shared

import (
	"math/big"
)

// Enums and common types shared by math, pool_fees and the whirlpool client.
type Rounding uint8

const (
	RoundingUp   Rounding = 0
	RoundingDown Rounding = 1
)

type TradeDirection uint8

const (
	TradeDirectionAtoB TradeDirection = 0
	TradeDirectionBtoA TradeDirection = 1
)

func (d TradeDirection) AtoB() bool {
	return d == TradeDirectionAtoB
}

// TickData is the canonical in-memory tick. Both on-wire representations
// (fixed tick arrays and bitmap-compressed dynamic tick arrays) are
// normalized to this form at decode time, so the math core never branches
// on wire format.
type TickData struct {
	Initialized          bool
	LiquidityNet         *big.Int // signed
	LiquidityGross       *big.Int
	FeeGrowthOutsideA    *big.Int
	FeeGrowthOutsideB    *big.Int
	RewardGrowthsOutside [3]*big.Int
}

// ZeroTickData returns an uninitialized tick with zero deltas.
func ZeroTickData() TickData {
	return TickData{
		Initialized:       false,
		LiquidityNet:      new(big.Int),
		LiquidityGross:    new(big.Int),
		FeeGrowthOutsideA: new(big.Int),
		FeeGrowthOutsideB: new(big.Int),
		RewardGrowthsOutside: [3]*big.Int{
			new(big.Int), new(big.Int), new(big.Int),
		},
	}
}

// TickArrayData is a decoded tick array covering
// TickSpacing * TickArraySize tick indexes from StartTickIndex.
type TickArrayData struct {
	StartTickIndex int32
	Ticks          []TickData
}

// PoolState is the snapshot of pool fields the simulation consumes.
type PoolState struct {
	SqrtPrice        *big.Int // Q64.64
	Liquidity        *big.Int
	TickCurrentIndex int32
	TickSpacing      uint16
	FeeRate          uint32 // hundredths of a basis point
	ProtocolFeeRate  uint16 // basis points of the fee, denominator 10_000
	FeeGrowthGlobalA *big.Int
	FeeGrowthGlobalB *big.Int
}

// SwapResult is the outcome of one simulated swap.
type SwapResult struct {
	AmountA             *big.Int
	AmountB             *big.Int
	NextSqrtPrice       *big.Int
	NextTickIndex       int32
	NextLiquidity       *big.Int
	FeeAmount           *big.Int
	ProtocolFee         *big.Int
	NextFeeGrowthGlobal *big.Int
	AppliedFeeRateMin   uint32
	AppliedFeeRateMax   uint32
}

const (
	// TickArraySize is the tick slot count of one on-chain tick array.
	TickArraySize = 88

	// MaxSwapTickArrays bounds how many tick arrays one swap may touch.
	MaxSwapTickArrays = 3

	MinTickIndex = -443636
	MaxTickIndex = 443636

	// FeeRateMulValue is the fee rate denominator (rates are expressed in
	// hundredths of a basis point).
	FeeRateMulValue = 1_000_000

	// ProtocolFeeRateMulValue is the protocol fee rate denominator.
	ProtocolFeeRateMulValue = 10_000

	// FeeRateHardLimit caps the total (base + adaptive) fee rate at 10%.
	FeeRateHardLimit = 100_000

	VolatilityAccumulatorScaleFactor    = 10_000
	AdaptiveFeeControlFactorDenominator = 100_000
	ReductionFactorDenominator          = 10_000

	// MaxReferenceAge bounds how long an adaptive fee reference stays
	// valid without a reset, in seconds.
	MaxReferenceAge = 3600

	BasisPointMax = 10_000

	ScaleOffset = 64
)

var (
	OneQ64  = new(big.Int).Lsh(big.NewInt(1), ScaleOffset)
	U64Max  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 64), big.NewInt(1))
	MaxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

	// MinSqrtPrice and MaxSqrtPrice are the Q64.64 sqrt prices of
	// MinTickIndex and MaxTickIndex. They must match the on-chain
	// program's published values exactly.
	MinSqrtPrice = mustBig("4295048016")
	MaxSqrtPrice = mustBig("79226673515401279992447579055")
)

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("invalid big int literal: " + s)
	}
	return v
}
