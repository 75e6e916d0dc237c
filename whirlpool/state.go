package whirlpool

import (
	"errors"
	"fmt"
	"math/big"

	bin "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"

	"github.com/solpods/whirlpool-go/whirlpool/math/pool_fees"
	"github.com/solpods/whirlpool-go/whirlpool/shared"
)

// Account layouts of the whirlpool program, decoded with Borsh. Each
// account carries an 8-byte discriminator before the payload.
const accountDiscriminatorSize = 8

// WhirlpoolRewardInfo is one of a pool's three reward slots.
type WhirlpoolRewardInfo struct {
	Mint                  solanago.PublicKey
	Vault                 solanago.PublicKey
	Authority             solanago.PublicKey
	EmissionsPerSecondX64 bin.Uint128
	GrowthGlobalX64       bin.Uint128
}

// WhirlpoolAccount is the on-chain pool account.
type WhirlpoolAccount struct {
	WhirlpoolsConfig           solanago.PublicKey
	WhirlpoolBump              [1]uint8
	TickSpacing                uint16
	FeeTierIndexSeed           [2]uint8
	FeeRate                    uint16
	ProtocolFeeRate            uint16
	Liquidity                  bin.Uint128
	SqrtPrice                  bin.Uint128
	TickCurrentIndex           int32
	ProtocolFeeOwedA           uint64
	ProtocolFeeOwedB           uint64
	TokenMintA                 solanago.PublicKey
	TokenVaultA                solanago.PublicKey
	FeeGrowthGlobalA           bin.Uint128
	TokenMintB                 solanago.PublicKey
	TokenVaultB                solanago.PublicKey
	FeeGrowthGlobalB           bin.Uint128
	RewardLastUpdatedTimestamp uint64
	RewardInfos                [3]WhirlpoolRewardInfo
}

// DecodeWhirlpool parses a whirlpool account's raw data.
func DecodeWhirlpool(data []byte) (*WhirlpoolAccount, error) {
	if len(data) < accountDiscriminatorSize {
		return nil, errors.New("whirlpool account data too short")
	}
	acc := &WhirlpoolAccount{}
	if err := bin.NewBorshDecoder(data[accountDiscriminatorSize:]).Decode(acc); err != nil {
		return nil, fmt.Errorf("decode whirlpool account: %w", err)
	}
	return acc, nil
}

// PoolState projects the account onto the snapshot the simulation reads.
func (w *WhirlpoolAccount) PoolState() *shared.PoolState {
	return &shared.PoolState{
		SqrtPrice:        w.SqrtPrice.BigInt(),
		Liquidity:        w.Liquidity.BigInt(),
		TickCurrentIndex: w.TickCurrentIndex,
		TickSpacing:      w.TickSpacing,
		FeeRate:          uint32(w.FeeRate),
		ProtocolFeeRate:  w.ProtocolFeeRate,
		FeeGrowthGlobalA: w.FeeGrowthGlobalA.BigInt(),
		FeeGrowthGlobalB: w.FeeGrowthGlobalB.BigInt(),
	}
}

// FeeTierAccount holds the default fee rate for one tick spacing.
type FeeTierAccount struct {
	WhirlpoolsConfig solanago.PublicKey
	TickSpacing      uint16
	DefaultFeeRate   uint16
}

// DecodeFeeTier parses a fee tier account's raw data.
func DecodeFeeTier(data []byte) (*FeeTierAccount, error) {
	if len(data) < accountDiscriminatorSize {
		return nil, errors.New("fee tier account data too short")
	}
	acc := &FeeTierAccount{}
	if err := bin.NewBorshDecoder(data[accountDiscriminatorSize:]).Decode(acc); err != nil {
		return nil, fmt.Errorf("decode fee tier account: %w", err)
	}
	return acc, nil
}

// TickAccount is one tick slot of the fixed tick array layout.
type TickAccount struct {
	Initialized          bool
	LiquidityNet         bin.Int128
	LiquidityGross       bin.Uint128
	FeeGrowthOutsideA    bin.Uint128
	FeeGrowthOutsideB    bin.Uint128
	RewardGrowthsOutside [3]bin.Uint128
}

// TickArrayAccount is the fixed tick array layout: every slot is stored
// whether initialized or not.
type TickArrayAccount struct {
	StartTickIndex int32
	Ticks          [shared.TickArraySize]TickAccount
	Whirlpool      solanago.PublicKey
}

// DynamicTick is one slot of the bitmap-compressed layout: a 1-byte tag,
// followed by tick data only when the tag marks the slot initialized.
type DynamicTick struct {
	Tick *TickAccount
}

// UnmarshalWithDecoder implements the Borsh enum encoding of a dynamic
// tick slot.
func (t *DynamicTick) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	tag, err := decoder.ReadUint8()
	if err != nil {
		return err
	}
	switch tag {
	case 0:
		t.Tick = nil
		return nil
	case 1:
		tick := &TickAccount{Initialized: true}
		if err := decoder.Decode(&tick.LiquidityNet); err != nil {
			return err
		}
		if err := decoder.Decode(&tick.LiquidityGross); err != nil {
			return err
		}
		if err := decoder.Decode(&tick.FeeGrowthOutsideA); err != nil {
			return err
		}
		if err := decoder.Decode(&tick.FeeGrowthOutsideB); err != nil {
			return err
		}
		if err := decoder.Decode(&tick.RewardGrowthsOutside); err != nil {
			return err
		}
		t.Tick = tick
		return nil
	default:
		return fmt.Errorf("invalid dynamic tick tag %d", tag)
	}
}

// DynamicTickArrayAccount is the bitmap-compressed tick array layout.
type DynamicTickArrayAccount struct {
	StartTickIndex int32
	Whirlpool      solanago.PublicKey
	TickBitmap     bin.Uint128
	Ticks          [shared.TickArraySize]DynamicTick
}

// fixedTickArrayDataLen is the exact data length of the fixed layout:
// discriminator + start index + 88 ticks of 113 bytes + pool pubkey.
const fixedTickArrayDataLen = accountDiscriminatorSize + 4 + shared.TickArraySize*113 + 32

// DecodeTickArray parses either tick array layout, distinguished by data
// length (the fixed layout has exactly one possible size; the dynamic
// layout is always shorter), and normalizes it to TickArrayData.
func DecodeTickArray(data []byte) (*shared.TickArrayData, error) {
	if len(data) < accountDiscriminatorSize {
		return nil, errors.New("tick array account data too short")
	}
	payload := data[accountDiscriminatorSize:]

	if len(data) == fixedTickArrayDataLen {
		acc := &TickArrayAccount{}
		if err := bin.NewBorshDecoder(payload).Decode(acc); err != nil {
			return nil, fmt.Errorf("decode tick array account: %w", err)
		}
		out := &shared.TickArrayData{
			StartTickIndex: acc.StartTickIndex,
			Ticks:          make([]shared.TickData, shared.TickArraySize),
		}
		for i := range acc.Ticks {
			out.Ticks[i] = normalizeTick(&acc.Ticks[i])
		}
		return out, nil
	}

	acc := &DynamicTickArrayAccount{}
	if err := bin.NewBorshDecoder(payload).Decode(acc); err != nil {
		return nil, fmt.Errorf("decode dynamic tick array account: %w", err)
	}
	out := &shared.TickArrayData{
		StartTickIndex: acc.StartTickIndex,
		Ticks:          make([]shared.TickData, shared.TickArraySize),
	}
	for i := range acc.Ticks {
		if acc.Ticks[i].Tick != nil {
			out.Ticks[i] = normalizeTick(acc.Ticks[i].Tick)
		} else {
			out.Ticks[i] = shared.ZeroTickData()
		}
	}
	return out, nil
}

func normalizeTick(t *TickAccount) shared.TickData {
	return shared.TickData{
		Initialized:       t.Initialized,
		LiquidityNet:      t.LiquidityNet.BigInt(),
		LiquidityGross:    t.LiquidityGross.BigInt(),
		FeeGrowthOutsideA: t.FeeGrowthOutsideA.BigInt(),
		FeeGrowthOutsideB: t.FeeGrowthOutsideB.BigInt(),
		RewardGrowthsOutside: [3]*big.Int{
			t.RewardGrowthsOutside[0].BigInt(),
			t.RewardGrowthsOutside[1].BigInt(),
			t.RewardGrowthsOutside[2].BigInt(),
		},
	}
}

// EmptyTickArrayData builds an uninitialized array starting at
// startTickIndex, used in place of tick array accounts that do not exist
// on chain yet.
func EmptyTickArrayData(startTickIndex int32) *shared.TickArrayData {
	ticks := make([]shared.TickData, shared.TickArraySize)
	for i := range ticks {
		ticks[i] = shared.ZeroTickData()
	}
	return &shared.TickArrayData{StartTickIndex: startTickIndex, Ticks: ticks}
}

// OracleAdaptiveFeeConstants mirrors the oracle account's constants
// block, including its reserved padding.
type OracleAdaptiveFeeConstants struct {
	FilterPeriod             uint16
	DecayPeriod              uint16
	ReductionFactor          uint16
	AdaptiveFeeControlFactor uint32
	MaxVolatilityAccumulator uint32
	TickGroupSize            uint16
	MajorSwapThresholdTicks  uint16
	Reserved                 [16]uint8
}

// OracleAdaptiveFeeVariables mirrors the oracle account's variables
// block.
type OracleAdaptiveFeeVariables struct {
	LastReferenceUpdateTimestamp uint64
	LastMajorSwapTimestamp       uint64
	VolatilityReference          uint32
	TickGroupIndexReference      int32
	VolatilityAccumulator        uint32
	Reserved                     [16]uint8
}

// OracleAccount is the adaptive fee oracle attached to a pool.
type OracleAccount struct {
	Whirlpool            solanago.PublicKey
	TradeEnableTimestamp uint64
	AdaptiveFeeConstants OracleAdaptiveFeeConstants
	AdaptiveFeeVariables OracleAdaptiveFeeVariables
}

// DecodeOracle parses an oracle account's raw data.
func DecodeOracle(data []byte) (*OracleAccount, error) {
	if len(data) < accountDiscriminatorSize {
		return nil, errors.New("oracle account data too short")
	}
	acc := &OracleAccount{}
	if err := bin.NewBorshDecoder(data[accountDiscriminatorSize:]).Decode(acc); err != nil {
		return nil, fmt.Errorf("decode oracle account: %w", err)
	}
	return acc, nil
}

// AdaptiveFeeInfo converts the oracle state to the form the fee rate
// manager consumes. Pools whose fee tier has no adaptive fee leave the
// control factor at zero; such oracles still gate trading via
// TradeEnableTimestamp but apply no surcharge.
func (o *OracleAccount) AdaptiveFeeInfo() *pool_fees.AdaptiveFeeInfo {
	return &pool_fees.AdaptiveFeeInfo{
		Constants: pool_fees.AdaptiveFeeConstants{
			FilterPeriod:             o.AdaptiveFeeConstants.FilterPeriod,
			DecayPeriod:              o.AdaptiveFeeConstants.DecayPeriod,
			ReductionFactor:          o.AdaptiveFeeConstants.ReductionFactor,
			AdaptiveFeeControlFactor: o.AdaptiveFeeConstants.AdaptiveFeeControlFactor,
			MaxVolatilityAccumulator: o.AdaptiveFeeConstants.MaxVolatilityAccumulator,
			TickGroupSize:            o.AdaptiveFeeConstants.TickGroupSize,
			MajorSwapThresholdTicks:  o.AdaptiveFeeConstants.MajorSwapThresholdTicks,
		},
		Variables: pool_fees.AdaptiveFeeVariables{
			LastReferenceUpdateTimestamp: o.AdaptiveFeeVariables.LastReferenceUpdateTimestamp,
			LastMajorSwapTimestamp:       o.AdaptiveFeeVariables.LastMajorSwapTimestamp,
			VolatilityReference:          o.AdaptiveFeeVariables.VolatilityReference,
			TickGroupIndexReference:      o.AdaptiveFeeVariables.TickGroupIndexReference,
			VolatilityAccumulator:        o.AdaptiveFeeVariables.VolatilityAccumulator,
		},
	}
}
