package whirlpoolgo

import (
	"github.com/solpods/whirlpool-go/whirlpool"
)

// NewClient creates a whirlpool client.
//
// Example:
//
// client := NewClient(rpcClient, rpc.CommitmentConfirmed)
//
// quote, _ := client.SwapQuoteByInputToken(ctx, pool, inputMint, amountIn, 250)
//
// quote, _ = client.SwapQuoteByOutputToken(ctx, pool, outputMint, amountOut, 250)
var NewClient = whirlpool.NewClient

type Client = whirlpool.Client
type SwapQuote = whirlpool.SwapQuote
type QuoteParams = whirlpool.QuoteParams
