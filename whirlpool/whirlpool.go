package whirlpool

import (
	"context"
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/solpods/whirlpool-go/whirlpool/shared"
)

// Client fetches and decodes whirlpool program accounts.
type Client struct {
	Client     *rpc.Client
	Commitment rpc.CommitmentType
}

func NewClient(client *rpc.Client, commitment rpc.CommitmentType) *Client {
	return &Client{
		Client:     client,
		Commitment: commitment,
	}
}

// FetchWhirlpool fetches and decodes a pool account.
func (c *Client) FetchWhirlpool(ctx context.Context, pool solanago.PublicKey) (*WhirlpoolAccount, error) {
	acc, err := c.Client.GetAccountInfoWithOpts(ctx, pool, &rpc.GetAccountInfoOpts{Commitment: c.Commitment})
	if err != nil || acc == nil || acc.Value == nil {
		return nil, fmt.Errorf("whirlpool account %s not found", pool.String())
	}
	return DecodeWhirlpool(acc.Value.Data.GetBinary())
}

// FetchOracle fetches the pool's adaptive fee oracle. Pools created
// before adaptive fees have no oracle account; that is not an error and
// yields (nil, nil).
func (c *Client) FetchOracle(ctx context.Context, pool solanago.PublicKey) (*OracleAccount, error) {
	oracle := DeriveOracleAddress(pool)
	acc, err := c.Client.GetAccountInfoWithOpts(ctx, oracle, &rpc.GetAccountInfoOpts{Commitment: c.Commitment})
	if err != nil || acc == nil || acc.Value == nil {
		return nil, nil
	}
	return DecodeOracle(acc.Value.Data.GetBinary())
}

// FetchFeeTier fetches and decodes a fee tier account.
func (c *Client) FetchFeeTier(ctx context.Context, feeTier solanago.PublicKey) (*FeeTierAccount, error) {
	acc, err := c.Client.GetAccountInfoWithOpts(ctx, feeTier, &rpc.GetAccountInfoOpts{Commitment: c.Commitment})
	if err != nil || acc == nil || acc.Value == nil {
		return nil, fmt.Errorf("fee tier account %s not found", feeTier.String())
	}
	return DecodeFeeTier(acc.Value.Data.GetBinary())
}

// SwapTickArrayStartIndexes returns the start indexes of the tick arrays
// a swap from the pool's current tick may traverse, in trade direction
// order.
func SwapTickArrayStartIndexes(tickCurrentIndex int32, tickSpacing uint16, aToB bool) []int32 {
	span := int32(tickSpacing) * shared.TickArraySize
	step := span
	if aToB {
		step = -span
	}
	first := TickArrayStartIndex(tickCurrentIndex, tickSpacing)
	out := make([]int32, 0, shared.MaxSwapTickArrays)
	for i := int32(0); i < shared.MaxSwapTickArrays; i++ {
		out = append(out, first+i*step)
	}
	return out
}

// FetchTickArraysForSwap fetches the tick arrays a swap may traverse.
// Tick array accounts that do not exist on chain are substituted with
// empty arrays, matching how the program treats uninitialized ranges.
func (c *Client) FetchTickArraysForSwap(ctx context.Context, pool solanago.PublicKey, tickCurrentIndex int32, tickSpacing uint16, aToB bool) ([]*shared.TickArrayData, error) {
	startIndexes := SwapTickArrayStartIndexes(tickCurrentIndex, tickSpacing, aToB)
	addresses := make([]solanago.PublicKey, len(startIndexes))
	for i, start := range startIndexes {
		addresses[i] = DeriveTickArrayAddress(pool, start)
	}

	accs, err := c.Client.GetMultipleAccountsWithOpts(ctx, addresses, &rpc.GetMultipleAccountsOpts{Commitment: c.Commitment})
	if err != nil {
		return nil, err
	}
	out := make([]*shared.TickArrayData, len(startIndexes))
	for i, acc := range accs.Value {
		if acc == nil {
			out[i] = EmptyTickArrayData(startIndexes[i])
			continue
		}
		decoded, err := DecodeTickArray(acc.Data.GetBinary())
		if err != nil {
			return nil, err
		}
		out[i] = decoded
	}
	return out, nil
}
