package whirlpool

import (
	"context"
	"fmt"
	"math/big"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/solpods/whirlpool-go/whirlpool/math"
	"github.com/solpods/whirlpool-go/whirlpool/math/pool_fees"
	"github.com/solpods/whirlpool-go/whirlpool/shared"
	"github.com/solpods/whirlpool-go/whirlpool/token2022"
)

// SwapQuote is a simulated swap with slippage and transfer fees applied.
// Amounts are denominated in the traded tokens' raw units; EstimatedAmountIn
// and EstimatedAmountOut are wallet-level (transfer fees included on the
// input side, excluded on the output side).
type SwapQuote struct {
	EstimatedAmountIn  *big.Int
	EstimatedAmountOut *big.Int

	// ThresholdAmount is the slippage bound on the unspecified side: a
	// minimum output for exact-input quotes, a maximum input for
	// exact-output quotes.
	ThresholdAmount *big.Int

	AmountSpecifiedIsInput bool
	AToB                   bool

	FeeAmount         *big.Int
	ProtocolFee       *big.Int
	AppliedFeeRateMin uint32
	AppliedFeeRateMax uint32

	NextSqrtPrice *big.Int
	NextTickIndex int32
	NextLiquidity *big.Int

	// PriceImpact is the relative shortfall against the spot price, in
	// percent.
	PriceImpact decimal.Decimal

	TickArrayStartIndexes []int32
}

// QuoteParams carries the fetched state a quote is computed from. All
// fields except TransferFeeIn/TransferFeeOut and AdaptiveFeeInfo are
// required; TradeEnableTimestamp and Timestamp gate pools with delayed
// trade enablement.
type QuoteParams struct {
	Pool              *shared.PoolState
	TickArrays        []*shared.TickArrayData
	FallbackTickArray *shared.TickArrayData

	AdaptiveFeeInfo      *pool_fees.AdaptiveFeeInfo
	TradeEnableTimestamp uint64
	Timestamp            uint64

	SlippageBps uint64

	TransferFeeIn  token2022.TransferFee
	TransferFeeOut token2022.TransferFee

	// SqrtPriceLimit bounds the simulated price movement; nil means the
	// direction's extreme.
	SqrtPriceLimit *big.Int
}

func (p *QuoteParams) sqrtPriceLimit(aToB bool) *big.Int {
	if p.SqrtPriceLimit != nil {
		return p.SqrtPriceLimit
	}
	if aToB {
		return shared.MinSqrtPrice
	}
	return shared.MaxSqrtPrice
}

func (p *QuoteParams) checkTradeEnabled() error {
	if p.TradeEnableTimestamp > p.Timestamp {
		return shared.ErrTradeIsNotEnabled
	}
	return nil
}

// SwapQuoteByInputToken quotes a swap of a fixed input amount.
func SwapQuoteByInputToken(params *QuoteParams, inputAmount *big.Int, aToB bool) (*SwapQuote, error) {
	if err := params.checkTradeEnabled(); err != nil {
		return nil, err
	}

	// The pool only ever sees what survives the input mint's transfer fee.
	tradableAmount, _ := token2022.CalculateTransferFeeExcludedAmount(params.TransferFeeIn, inputAmount)
	if tradableAmount.Sign() <= 0 {
		return nil, shared.ErrZeroTradableAmount
	}

	sequence, err := math.NewTickArraySequence(
		params.TickArrays, params.FallbackTickArray,
		params.Pool.TickCurrentIndex, params.Pool.TickSpacing, aToB)
	if err != nil {
		return nil, err
	}

	result, err := ComputeSwap(
		params.Pool, sequence, tradableAmount, true, aToB,
		params.sqrtPriceLimit(aToB), params.Timestamp, params.AdaptiveFeeInfo)
	if err != nil {
		return nil, err
	}

	var tradedIn, rawOut *big.Int
	if aToB {
		tradedIn, rawOut = result.AmountA, result.AmountB
	} else {
		tradedIn, rawOut = result.AmountB, result.AmountA
	}

	estimatedIn, _ := token2022.CalculateTransferFeeIncludedAmount(params.TransferFeeIn, tradedIn)
	estimatedOut, _ := token2022.CalculateTransferFeeExcludedAmount(params.TransferFeeOut, rawOut)

	minOut := new(big.Int).Mul(estimatedOut, big.NewInt(shared.BasisPointMax-int64(params.SlippageBps)))
	minOut.Div(minOut, big.NewInt(shared.BasisPointMax))

	return &SwapQuote{
		EstimatedAmountIn:      estimatedIn,
		EstimatedAmountOut:     estimatedOut,
		ThresholdAmount:        minOut,
		AmountSpecifiedIsInput: true,
		AToB:                   aToB,
		FeeAmount:              result.FeeAmount,
		ProtocolFee:            result.ProtocolFee,
		AppliedFeeRateMin:      result.AppliedFeeRateMin,
		AppliedFeeRateMax:      result.AppliedFeeRateMax,
		NextSqrtPrice:          result.NextSqrtPrice,
		NextTickIndex:          result.NextTickIndex,
		NextLiquidity:          result.NextLiquidity,
		PriceImpact:            priceImpact(tradedIn, rawOut, params.Pool.SqrtPrice, aToB),
		TickArrayStartIndexes:  sequence.StartIndexes(),
	}, nil
}

// SwapQuoteByOutputToken quotes a swap targeting a fixed amount the
// recipient must receive.
func SwapQuoteByOutputToken(params *QuoteParams, outputAmount *big.Int, aToB bool) (*SwapQuote, error) {
	if err := params.checkTradeEnabled(); err != nil {
		return nil, err
	}

	// The pool must pay out enough to cover the output mint's transfer fee.
	targetOutput, _ := token2022.CalculateTransferFeeIncludedAmount(params.TransferFeeOut, outputAmount)
	if targetOutput.Sign() <= 0 {
		return nil, shared.ErrZeroTradableAmount
	}

	sequence, err := math.NewTickArraySequence(
		params.TickArrays, params.FallbackTickArray,
		params.Pool.TickCurrentIndex, params.Pool.TickSpacing, aToB)
	if err != nil {
		return nil, err
	}

	result, err := ComputeSwap(
		params.Pool, sequence, targetOutput, false, aToB,
		params.sqrtPriceLimit(aToB), params.Timestamp, params.AdaptiveFeeInfo)
	if err != nil {
		return nil, err
	}

	var rawIn, rawOut *big.Int
	if aToB {
		rawIn, rawOut = result.AmountA, result.AmountB
	} else {
		rawIn, rawOut = result.AmountB, result.AmountA
	}

	estimatedIn, _ := token2022.CalculateTransferFeeIncludedAmount(params.TransferFeeIn, rawIn)
	estimatedOut, _ := token2022.CalculateTransferFeeExcludedAmount(params.TransferFeeOut, rawOut)

	maxIn := new(big.Int).Mul(estimatedIn, big.NewInt(shared.BasisPointMax+int64(params.SlippageBps)))
	maxIn.Add(maxIn, big.NewInt(shared.BasisPointMax-1))
	maxIn.Div(maxIn, big.NewInt(shared.BasisPointMax))

	return &SwapQuote{
		EstimatedAmountIn:      estimatedIn,
		EstimatedAmountOut:     estimatedOut,
		ThresholdAmount:        maxIn,
		AmountSpecifiedIsInput: false,
		AToB:                   aToB,
		FeeAmount:              result.FeeAmount,
		ProtocolFee:            result.ProtocolFee,
		AppliedFeeRateMin:      result.AppliedFeeRateMin,
		AppliedFeeRateMax:      result.AppliedFeeRateMax,
		NextSqrtPrice:          result.NextSqrtPrice,
		NextTickIndex:          result.NextTickIndex,
		NextLiquidity:          result.NextLiquidity,
		PriceImpact:            priceImpact(rawIn, rawOut, params.Pool.SqrtPrice, aToB),
		TickArrayStartIndexes:  sequence.StartIndexes(),
	}, nil
}

// CheckThreshold verifies an executed amount against the quote's
// slippage bound.
func (q *SwapQuote) CheckThreshold(actual *big.Int) error {
	if q.AmountSpecifiedIsInput {
		if actual.Cmp(q.ThresholdAmount) < 0 {
			return shared.ErrAmountOutBelowMinimum
		}
		return nil
	}
	if actual.Cmp(q.ThresholdAmount) > 0 {
		return shared.ErrAmountInAboveMaximum
	}
	return nil
}

// priceImpact measures the realized execution price against the spot
// price at the pre-swap sqrt price, in percent. Both amounts are in raw
// units of the traded pair, so mint decimals cancel out.
func priceImpact(amountIn, amountOut, sqrtPrice *big.Int, aToB bool) decimal.Decimal {
	if amountIn.Sign() == 0 || sqrtPrice.Sign() == 0 {
		return decimal.Zero
	}

	sqrtDec := decimal.NewFromBigInt(sqrtPrice, 0).Div(decimal.NewFromBigInt(shared.OneQ64, 0))
	spotPrice := sqrtDec.Mul(sqrtDec) // price of A in units of B

	inDec := decimal.NewFromBigInt(amountIn, 0)
	var expectedOut decimal.Decimal
	if aToB {
		expectedOut = inDec.Mul(spotPrice)
	} else {
		expectedOut = inDec.Div(spotPrice)
	}
	if expectedOut.IsZero() {
		return decimal.Zero
	}

	impact := expectedOut.Sub(decimal.NewFromBigInt(amountOut, 0)).
		Div(expectedOut).
		Mul(decimal.NewFromInt(100))
	if impact.IsNegative() {
		return decimal.Zero
	}
	return impact
}

// SwapQuoteByInputToken fetches everything a quote needs and computes it.
// inputMint selects the trade direction.
func (c *Client) SwapQuoteByInputToken(
	ctx context.Context,
	pool solanago.PublicKey,
	inputMint solanago.PublicKey,
	inputAmount *big.Int,
	slippageBps uint64,
) (*SwapQuote, error) {
	params, aToB, err := c.prepareQuoteParams(ctx, pool, inputMint, true, slippageBps)
	if err != nil {
		return nil, err
	}
	return SwapQuoteByInputToken(params, inputAmount, aToB)
}

// SwapQuoteByOutputToken fetches everything a quote needs and computes
// it. outputMint selects the trade direction.
func (c *Client) SwapQuoteByOutputToken(
	ctx context.Context,
	pool solanago.PublicKey,
	outputMint solanago.PublicKey,
	outputAmount *big.Int,
	slippageBps uint64,
) (*SwapQuote, error) {
	params, aToB, err := c.prepareQuoteParams(ctx, pool, outputMint, false, slippageBps)
	if err != nil {
		return nil, err
	}
	return SwapQuoteByOutputToken(params, outputAmount, aToB)
}

func (c *Client) prepareQuoteParams(
	ctx context.Context,
	pool solanago.PublicKey,
	specifiedMint solanago.PublicKey,
	specifiedIsInput bool,
	slippageBps uint64,
) (*QuoteParams, bool, error) {
	acc, err := c.FetchWhirlpool(ctx, pool)
	if err != nil {
		return nil, false, err
	}

	var aToB bool
	switch {
	case specifiedMint.Equals(acc.TokenMintA):
		aToB = specifiedIsInput
	case specifiedMint.Equals(acc.TokenMintB):
		aToB = !specifiedIsInput
	default:
		return nil, false, fmt.Errorf("mint %s does not belong to pool %s", specifiedMint.String(), pool.String())
	}

	tickArrays, err := c.FetchTickArraysForSwap(ctx, pool, acc.TickCurrentIndex, acc.TickSpacing, aToB)
	if err != nil {
		return nil, false, err
	}

	oracle, err := c.FetchOracle(ctx, pool)
	if err != nil {
		return nil, false, err
	}

	params := &QuoteParams{
		Pool:        acc.PoolState(),
		TickArrays:  tickArrays,
		Timestamp:   uint64(time.Now().Unix()),
		SlippageBps: slippageBps,
	}
	if oracle != nil {
		params.TradeEnableTimestamp = oracle.TradeEnableTimestamp
		if oracle.AdaptiveFeeConstants.AdaptiveFeeControlFactor > 0 {
			params.AdaptiveFeeInfo = oracle.AdaptiveFeeInfo()
		}
	}

	inMint, outMint := acc.TokenMintA, acc.TokenMintB
	if !aToB {
		inMint, outMint = acc.TokenMintB, acc.TokenMintA
	}
	epochInfo, err := c.Client.GetEpochInfo(ctx, c.Commitment)
	if err != nil {
		return nil, false, err
	}
	inCfg, err := token2022.GetTransferFeeConfig(ctx, c.Client, inMint)
	if err != nil {
		return nil, false, err
	}
	outCfg, err := token2022.GetTransferFeeConfig(ctx, c.Client, outMint)
	if err != nil {
		return nil, false, err
	}
	params.TransferFeeIn = token2022.GetEpochFee(inCfg, epochInfo.Epoch)
	params.TransferFeeOut = token2022.GetEpochFee(outCfg, epochInfo.Epoch)

	return params, aToB, nil
}
